package user

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// ===========================
// UserRepositoryImpl
// ===========================

// UserRepositoryImpl 使用者倉儲實現（GORM）
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 創建新的使用者倉儲實例
func NewUserRepository(db *gorm.DB) user.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Save 保存使用者（Upsert 模式）
//
// 錯誤處理：
// - email 唯一約束違反 → ErrUserAlreadyExists
// - 其他資料庫錯誤 → ErrRepositoryError
func (r *UserRepositoryImpl) Save(tx shared.TransactionContext, u *user.User) error {
	db := persistence.DBFrom(tx, r.db)

	result := db.Save(toGORM(u))
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return user.ErrUserAlreadyExists.WithContext(
				"email", u.Email().String(),
			)
		}
		return user.ErrRepositoryError.WithContext(
			"operation", "save",
			"cause", result.Error.Error(),
		)
	}
	return nil
}

// FindByID 根據 ID 查找使用者
//
// 已停用（軟刪除）的使用者由 GORM 自動過濾，視為不存在。
func (r *UserRepositoryImpl) FindByID(tx shared.TransactionContext, id user.UserID) (*user.User, error) {
	db := persistence.DBFrom(tx, r.db)

	var model UserGORM
	result := db.Where("user_id = ?", id.String()).First(&model)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, user.ErrUserNotFound.WithContext("user_id", id.String())
		}
		return nil, user.ErrRepositoryError.WithContext(
			"operation", "find_by_id",
			"cause", result.Error.Error(),
		)
	}

	return model.toDomain()
}

// ExistsByEmail 檢查電子郵件是否已被註冊（包含已停用的使用者）
func (r *UserRepositoryImpl) ExistsByEmail(tx shared.TransactionContext, email user.Email) (bool, error) {
	db := persistence.DBFrom(tx, r.db)

	var count int64
	result := db.Unscoped().Model(&UserGORM{}).Where("email = ?", email.String()).Count(&count)
	if result.Error != nil {
		return false, user.ErrRepositoryError.WithContext(
			"operation", "exists_by_email",
			"cause", result.Error.Error(),
		)
	}
	return count > 0, nil
}

// Retire 停用使用者（軟刪除）
func (r *UserRepositoryImpl) Retire(tx shared.TransactionContext, id user.UserID) error {
	db := persistence.DBFrom(tx, r.db)

	result := db.Where("user_id = ?", id.String()).Delete(&UserGORM{})
	if result.Error != nil {
		return user.ErrRepositoryError.WithContext(
			"operation", "retire",
			"cause", result.Error.Error(),
		)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound.WithContext("user_id", id.String())
	}
	return nil
}
