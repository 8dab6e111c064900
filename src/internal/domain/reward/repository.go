package reward

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// DefinitionRepository 成就/徽章定義倉儲
type DefinitionRepository interface {
	// Save 保存新定義
	// 錯誤：ErrDefinitionAlreadyExists（同種類同名）
	Save(tx shared.TransactionContext, definition *Definition) error

	// Update 更新啟用狀態等可變欄位
	// 錯誤：ErrDefinitionNotFound
	Update(tx shared.TransactionContext, definition *Definition) error

	// FindByID 錯誤：ErrDefinitionNotFound
	FindByID(tx shared.TransactionContext, id DefinitionID) (*Definition, error)

	// FindByName 錯誤：ErrDefinitionNotFound
	FindByName(tx shared.TransactionContext, kind Kind, name string) (*Definition, error)

	// ListByKind 列出某種類的定義；activeOnly 只返回啟用中的定義
	// 徽章依 tier 遞增排序，成就依建立時間排序。
	ListByKind(tx shared.TransactionContext, kind Kind, activeOnly bool) ([]*Definition, error)
}

// UnlockRepository 解鎖紀錄倉儲
type UnlockRepository interface {
	// Save 保存解鎖紀錄（必須在事務中）
	// 錯誤：ErrDuplicateUnlock（(user_id, definition_id) 唯一索引衝突）
	Save(tx shared.TransactionContext, record *UnlockRecord) error

	// Exists 是否已解鎖
	Exists(tx shared.TransactionContext, userID user.UserID, definitionID DefinitionID) (bool, error)

	// ListByUser 依解鎖時間排序列出用戶所有解鎖紀錄
	ListByUser(tx shared.TransactionContext, userID user.UserID) ([]*UnlockRecord, error)
}

// ActivityReader 讀取用戶累積活動的唯讀模型
type ActivityReader interface {
	ActivityFor(tx shared.TransactionContext, userID user.UserID) (UserActivity, error)
}

// EventLog 解鎖事件的權威持久化（與解鎖紀錄在同一事務寫入）
type EventLog interface {
	Append(tx shared.TransactionContext, event UnlockEvent) error
	CountByUser(tx shared.TransactionContext, userID user.UserID, eventType string) (int64, error)
}
