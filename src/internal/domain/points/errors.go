package points

import "fmt"

// ===========================
// 錯誤代碼定義
// ===========================

// ErrorCode 錯誤代碼類型
type ErrorCode string

// 錯誤代碼常量
const (
	// 積分數量相關
	ErrCodeInvalidAmount      ErrorCode = "POINTS_AMOUNT_INVALID"
	ErrCodeInsufficientPoints ErrorCode = "POINTS_INSUFFICIENT"
	ErrCodePointsOverflow     ErrorCode = "POINTS_OVERFLOW"

	// 積分比率相關
	ErrCodeInvalidPointsRate ErrorCode = "POINTS_RATE_INVALID"

	// 餘額相關
	ErrCodeBalanceCorrupted ErrorCode = "BALANCE_CORRUPTED"

	// 交易相關
	ErrCodeInvalidTransactionID ErrorCode = "TRANSACTION_ID_INVALID"
	ErrCodeInvalidTransaction   ErrorCode = "TRANSACTION_INVALID"
	ErrCodeTransactionNotFound  ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeDuplicateExternalRef ErrorCode = "TRANSACTION_EXTERNAL_REF_DUPLICATE"

	// 倉儲
	ErrCodeRepositoryError ErrorCode = "POINTS_REPOSITORY_ERROR"
)

// ===========================
// DomainError 結構
// ===========================

// DomainError 領域錯誤
//
// 包含結構化的錯誤代碼與上下文信息，創建後不可修改。
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
}

// Error 實現 error 接口
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %+v)", e.Code, e.Message, e.Context)
}

// WithContext 添加上下文信息（返回新的錯誤實例，保持不可變性）
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

	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Context: ctx,
	}
}

// Is 實現 errors.Is 接口（以錯誤代碼判斷）
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ===========================
// 預定義錯誤
// ===========================

// 積分數量相關錯誤
var (
	// ErrInvalidAmount 金額或積分數量無效（負數、零或超出範圍）
	ErrInvalidAmount = &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: "無效的金額或積分數量",
	}

	ErrInsufficientPoints = &DomainError{
		Code:    ErrCodeInsufficientPoints,
		Message: "積分餘額不足",
	}

	ErrPointsOverflow = &DomainError{
		Code:    ErrCodePointsOverflow,
		Message: "積分數量溢位",
	}
)

// 積分比率相關錯誤
var (
	ErrInvalidPointsRate = &DomainError{
		Code:    ErrCodeInvalidPointsRate,
		Message: "積分比率必須在 1-1000 之間",
	}
)

// 餘額相關錯誤
var (
	// ErrBalanceCorrupted 資料庫中的餘額違反 available == earned - redeemed
	ErrBalanceCorrupted = &DomainError{
		Code:    ErrCodeBalanceCorrupted,
		Message: "積分餘額資料損壞",
	}
)

// 交易相關錯誤
var (
	ErrInvalidTransactionID = &DomainError{
		Code:    ErrCodeInvalidTransactionID,
		Message: "無效的交易 ID",
	}

	ErrInvalidTransaction = &DomainError{
		Code:    ErrCodeInvalidTransaction,
		Message: "無效的交易資料",
	}

	ErrTransactionNotFound = &DomainError{
		Code:    ErrCodeTransactionNotFound,
		Message: "交易不存在",
	}

	ErrDuplicateExternalRef = &DomainError{
		Code:    ErrCodeDuplicateExternalRef,
		Message: "外部參考編號已存在",
	}
)

// ErrRepositoryError 倉儲操作錯誤（暫時性儲存失敗，可重試）
var ErrRepositoryError = &DomainError{
	Code:    ErrCodeRepositoryError,
	Message: "倉儲操作失敗",
}
