package user

import (
	"strings"
	"time"
)

// ===========================
// User Aggregate Root
// ===========================

// User 使用者聚合根（獎勵引擎所需的最小使用者目錄）
//
// 不變量：
// 1. 名稱不能為空
// 2. 電子郵件唯一（由資料庫唯一約束保證）
// 3. CreatedAt 不可變更
//
// 使用者被停用（retire）時以軟刪除標記，積分帳本保留。
type User struct {
	userID UserID
	name   string
	email  Email

	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewUser 創建新使用者
func NewUser(name string, email Email) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if email.IsZero() {
		return nil, ErrInvalidEmail.WithContext("reason", "email is required")
	}

	now := time.Now()
	return &User{
		userID:    NewUserID(),
		name:      name,
		email:     email,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructUser 從資料庫重建使用者聚合
func ReconstructUser(
	userID UserID,
	name string,
	email Email,
	createdAt time.Time,
	updatedAt time.Time,
	version int,
) (*User, error) {
	if userID.IsEmpty() {
		return nil, ErrInvalidUserID.WithContext("reason", "empty user ID in database")
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	return &User{
		userID:    userID,
		name:      name,
		email:     email,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
	}, nil
}

// Rename 變更顯示名稱
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	u.name = name
	u.updatedAt = time.Now()
	u.version++
	return nil
}

// UserID 返回使用者 ID
func (u *User) UserID() UserID {
	return u.userID
}

// Name 返回顯示名稱
func (u *User) Name() string {
	return u.name
}

// Email 返回電子郵件
func (u *User) Email() Email {
	return u.email
}

// CreatedAt 返回創建時間
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt 返回更新時間
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// Version 返回版本號
func (u *User) Version() int {
	return u.version
}
