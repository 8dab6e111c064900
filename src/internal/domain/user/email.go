package user

import (
	"net/mail"
	"strings"
)

// ===========================
// Email Value Object
// ===========================

// Email 電子郵件值對象
//
// 業務規則：
// 1. 必須是單一的 addr-spec（不接受 "Name <a@b>" 形式）
// 2. 儲存時轉為小寫並去除前後空白
type Email struct {
	value string
}

// NewEmail 創建電子郵件值對象（Checked Constructor）
//
// 錯誤範例：
// - "" → ErrInvalidEmail
// - "not-an-email" → ErrInvalidEmail
// - "Ann <ann@example.com>" → ErrInvalidEmail
func NewEmail(value string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))

	addr, err := mail.ParseAddress(normalized)
	if err != nil {
		return Email{}, ErrInvalidEmail.WithContext(
			"email", value,
			"reason", err.Error(),
		)
	}
	if addr.Address != normalized {
		return Email{}, ErrInvalidEmail.WithContext(
			"email", value,
			"reason", "display names are not accepted",
		)
	}

	return Email{value: normalized}, nil
}

// String 返回電子郵件字串
func (e Email) String() string {
	return e.value
}

// Equals 值相等比較
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// IsZero 檢查是否為零值
func (e Email) IsZero() bool {
	return e.value == ""
}
