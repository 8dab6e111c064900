package user

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
)

// UserRepository 使用者倉儲介面
//
// 錯誤約定：
// - FindByID 找不到時返回 ErrUserNotFound
// - Save 電子郵件重複時返回 ErrUserAlreadyExists
type UserRepository interface {
	// Save 保存使用者（新增或更新）
	Save(tx shared.TransactionContext, u *User) error

	// FindByID 根據 ID 查找使用者（已停用的使用者視為不存在）
	FindByID(tx shared.TransactionContext, id UserID) (*User, error)

	// ExistsByEmail 檢查電子郵件是否已被註冊
	ExistsByEmail(tx shared.TransactionContext, email Email) (bool, error)

	// Retire 停用使用者（軟刪除）
	Retire(tx shared.TransactionContext, id UserID) error
}
