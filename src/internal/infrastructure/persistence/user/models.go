package user

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"gorm.io/gorm"
)

// UserGORM 使用者資料表模型
//
// 資料庫約束：
// - user_id: 主鍵（UUID）
// - email: 唯一索引
// - deleted_at: 軟刪除（停用的使用者）
type UserGORM struct {
	UserID string `gorm:"column:user_id;type:varchar(36);primaryKey"`
	Name   string `gorm:"column:name;type:varchar(255);not null"`
	Email  string `gorm:"column:email;type:varchar(320);uniqueIndex;not null"`

	CreatedAt time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
	Version   int            `gorm:"column:version;not null;default:1"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName 指定資料表名稱
func (UserGORM) TableName() string {
	return "users"
}

// toDomain 將 GORM 模型轉換為 Domain 模型
func (m *UserGORM) toDomain() (*user.User, error) {
	userID, err := user.UserIDFromString(m.UserID)
	if err != nil {
		return nil, err
	}

	email, err := user.NewEmail(m.Email)
	if err != nil {
		return nil, err
	}

	return user.ReconstructUser(userID, m.Name, email, m.CreatedAt, m.UpdatedAt, m.Version)
}

// toGORM 將 Domain 模型轉換為 GORM 模型
func toGORM(u *user.User) *UserGORM {
	return &UserGORM{
		UserID:    u.UserID().String(),
		Name:      u.Name(),
		Email:     u.Email().String(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
		Version:   u.Version(),
	}
}
