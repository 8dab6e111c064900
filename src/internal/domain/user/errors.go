package user

import "fmt"

// ===========================
// User Domain 錯誤定義
// ===========================

// ErrorCode User Domain 錯誤代碼
type ErrorCode string

const (
	ErrCodeInvalidUserID     ErrorCode = "USER_ID_INVALID"
	ErrCodeInvalidEmail      ErrorCode = "USER_EMAIL_INVALID"
	ErrCodeInvalidName       ErrorCode = "USER_NAME_INVALID"
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeRepositoryError   ErrorCode = "USER_REPOSITORY_ERROR"
)

// DomainError User Domain 錯誤結構
//
// 使用結構化錯誤（ErrorCode + Message + Context），
// errors.Is 以錯誤代碼比較。
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
}

// Error 實作 error 介面
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %+v)", e.Code, e.Message, e.Context)
}

// WithContext 添加上下文信息（返回新的錯誤實例）
//
// 使用範例：
//
//	return ErrInvalidEmail.WithContext("email", raw, "reason", "missing @")
func (e *DomainError) WithContext(keyValues ...interface{}) error {
	if len(keyValues)%2 != 0 {
		panic("WithContext requires even number of arguments (key-value pairs)")
	}

	ctx := make(map[string]interface{}, len(e.Context)+len(keyValues)/2)
	for k, v := range e.Context {
		ctx[k] = v
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("context key must be string, got %T", keyValues[i]))
		}
		ctx[key] = keyValues[i+1]
	}

	return &DomainError{Code: e.Code, Message: e.Message, Context: ctx}
}

// Is 實作 errors.Is 比較
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ===========================
// User Domain 錯誤實例
// ===========================

var (
	ErrInvalidUserID = &DomainError{
		Code:    ErrCodeInvalidUserID,
		Message: "使用者 ID 格式無效",
	}

	// ErrInvalidEmail 電子郵件格式無效
	ErrInvalidEmail = &DomainError{
		Code:    ErrCodeInvalidEmail,
		Message: "電子郵件格式無效",
	}

	// ErrInvalidName 名稱不能為空
	ErrInvalidName = &DomainError{
		Code:    ErrCodeInvalidName,
		Message: "使用者名稱不能為空",
	}

	ErrUserNotFound = &DomainError{
		Code:    ErrCodeUserNotFound,
		Message: "使用者不存在",
	}

	// ErrUserAlreadyExists 電子郵件已被註冊（由資料庫唯一約束保證）
	ErrUserAlreadyExists = &DomainError{
		Code:    ErrCodeUserAlreadyExists,
		Message: "使用者已存在",
	}

	ErrRepositoryError = &DomainError{
		Code:    ErrCodeRepositoryError,
		Message: "使用者倉儲操作失敗",
	}
)
