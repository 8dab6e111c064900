package points

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ===========================
// Repository 介面
// ===========================

// BalanceRepository 積分餘額倉儲介面
//
// 寫操作（ApplyCredit / ApplyDebit）必須在事務中；讀操作可傳入 nil。
// 兩個寫操作都以單一 SQL 語句原子地修改餘額列，
// 不依賴先讀後寫，因此並發入帳不會遺失更新。
type BalanceRepository interface {
	// FindByUserID 查詢餘額快照
	// 錯誤：ErrBalanceNotFound（用戶尚無積分紀錄）、ErrBalanceCorrupted
	FindByUserID(tx shared.TransactionContext, userID user.UserID) (*PointBalance, error)

	// FindByUserIDForUpdate 以 SELECT ... FOR UPDATE 讀取餘額並鎖定該列直到事務結束
	FindByUserIDForUpdate(tx shared.TransactionContext, userID user.UserID) (*PointBalance, error)

	// ApplyCredit 不存在時建立全零餘額，再原子增加 available 與 total_earned
	ApplyCredit(tx shared.TransactionContext, userID user.UserID, amount PointsAmount) (*PointBalance, error)

	// ApplyDebit 條件式扣帳（WHERE available >= amount）
	// 錯誤：ErrInsufficientPoints（條件不成立，無任何修改）
	ApplyDebit(tx shared.TransactionContext, userID user.UserID, amount PointsAmount) (*PointBalance, error)
}

// TransactionRepository 交易倉儲介面
type TransactionRepository interface {
	// Save 保存新交易
	// 錯誤：ErrDuplicateExternalRef（external_ref 唯一索引衝突）
	Save(tx shared.TransactionContext, transaction *Transaction) error

	// FindByID 根據 ID 查詢
	// 錯誤：ErrTransactionNotFound
	FindByID(tx shared.TransactionContext, id TransactionID) (*Transaction, error)

	// FindByExternalRef 根據外部參考編號查詢
	// 錯誤：ErrTransactionNotFound
	FindByExternalRef(tx shared.TransactionContext, externalRef string) (*Transaction, error)

	// ListByUser 依建立時間倒序列出用戶最近的交易
	ListByUser(tx shared.TransactionContext, userID user.UserID, limit int) ([]*Transaction, error)
}

// ===========================
// Repository 錯誤定義
// ===========================

const ErrCodeBalanceNotFound ErrorCode = "BALANCE_NOT_FOUND"

// ErrBalanceNotFound 用戶尚無積分餘額列
var ErrBalanceNotFound = &DomainError{
	Code:    ErrCodeBalanceNotFound,
	Message: "積分餘額不存在",
}
