package reward

import "fmt"

// ===========================
// Reward Domain 錯誤定義
// ===========================

// ErrorCode Reward Domain 錯誤代碼
type ErrorCode string

const (
	ErrCodeInvalidDefinitionID     ErrorCode = "DEFINITION_ID_INVALID"
	ErrCodeInvalidDefinition       ErrorCode = "DEFINITION_INVALID"
	ErrCodeInvalidCriteria         ErrorCode = "CRITERIA_INVALID"
	ErrCodeDefinitionNotFound      ErrorCode = "DEFINITION_NOT_FOUND"
	ErrCodeDefinitionAlreadyExists ErrorCode = "DEFINITION_ALREADY_EXISTS"
	ErrCodeDuplicateUnlock         ErrorCode = "UNLOCK_DUPLICATE"
	ErrCodeRepositoryError         ErrorCode = "REWARD_REPOSITORY_ERROR"
)

// DomainError Reward Domain 錯誤結構
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

// Is 實作 errors.Is（以錯誤代碼比較）
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrInvalidDefinitionID = &DomainError{
		Code:    ErrCodeInvalidDefinitionID,
		Message: "無效的獎勵定義 ID",
	}

	ErrInvalidDefinition = &DomainError{
		Code:    ErrCodeInvalidDefinition,
		Message: "無效的獎勵定義",
	}

	ErrInvalidCriteria = &DomainError{
		Code:    ErrCodeInvalidCriteria,
		Message: "無效的解鎖條件",
	}

	ErrDefinitionNotFound = &DomainError{
		Code:    ErrCodeDefinitionNotFound,
		Message: "獎勵定義不存在",
	}

	ErrDefinitionAlreadyExists = &DomainError{
		Code:    ErrCodeDefinitionAlreadyExists,
		Message: "同名獎勵定義已存在",
	}

	// ErrDuplicateUnlock 同一用戶重複解鎖同一定義（唯一索引衝突）
	//
	// Unlock Coordinator 捕捉此錯誤並視為已解鎖（成功）。
	ErrDuplicateUnlock = &DomainError{
		Code:    ErrCodeDuplicateUnlock,
		Message: "獎勵已解鎖",
	}

	// ErrRepositoryError 倉儲操作錯誤（暫時性，可重試）
	ErrRepositoryError = &DomainError{
		Code:    ErrCodeRepositoryError,
		Message: "倉儲操作失敗",
	}
)
