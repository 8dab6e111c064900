package shared

import (
	"github.com/google/uuid"
)

// ===========================
// EntityID[T] 泛型實體 ID
// ===========================

// EntityID 泛型實體 ID 值對象
//
// 泛型參數 T 為標記類型（marker type），只用於編譯期區分：
// EntityID[UserMarker] 與 EntityID[TransactionMarker] 是不同類型，不能混用。
//
// 使用範例：
//
//	type UserMarker struct{}
//	type UserID = shared.EntityID[UserMarker]
//
//	id := shared.NewEntityID[UserMarker]()
//	parsed, err := shared.EntityIDFromString[UserMarker](s, ErrInvalidUserID)
type EntityID[T any] struct {
	value uuid.UUID
}

// NewEntityID 生成新的實體 ID（UUID v4）
func NewEntityID[T any]() EntityID[T] {
	return EntityID[T]{value: uuid.New()}
}

// EntityIDFromString 從字串解析實體 ID
//
// errTemplate 由調用者提供（如 ErrInvalidUserID），
// 若支援 WithContext 則附加輸入值與解析錯誤。
func EntityIDFromString[T any](s string, errTemplate error) (EntityID[T], error) {
	id, err := uuid.Parse(s)
	if err != nil {
		if domainErr, ok := errTemplate.(interface {
			WithContext(keyValues ...interface{}) error
		}); ok {
			return EntityID[T]{}, domainErr.WithContext(
				"input", s,
				"parse_error", err.Error(),
			)
		}
		return EntityID[T]{}, errTemplate
	}
	return EntityID[T]{value: id}, nil
}

// String 轉換為字串表示（小寫 UUID）
func (e EntityID[T]) String() string {
	return e.value.String()
}

// Equals 比較兩個 EntityID 是否相等
func (e EntityID[T]) Equals(other EntityID[T]) bool {
	return e.value == other.value
}

// IsEmpty 判斷是否為空 ID（零值）
func (e EntityID[T]) IsEmpty() bool {
	return e.value == uuid.Nil
}

// MarshalText 實作 encoding.TextMarshaler（JSON 序列化為 UUID 字串）
//
// 使用場景：
// - 工作項目（WorkItem）在佇列中以 JSON 傳遞
// - 廣播事件 payload
func (e EntityID[T]) MarshalText() ([]byte, error) {
	return []byte(e.value.String()), nil
}

// UnmarshalText 實作 encoding.TextUnmarshaler
func (e *EntityID[T]) UnmarshalText(text []byte) error {
	id, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	e.value = id
	return nil
}
