package user

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
)

// UserMarker 使用者 ID 標記類型
type UserMarker struct{}

// UserID 使用者 ID
//
// 積分帳本、交易與獎勵解鎖記錄都以此 ID 關聯使用者。
type UserID = shared.EntityID[UserMarker]

// NewUserID 生成新的使用者 ID
func NewUserID() UserID {
	return shared.NewEntityID[UserMarker]()
}

// UserIDFromString 從字串解析使用者 ID
func UserIDFromString(value string) (UserID, error) {
	return shared.EntityIDFromString[UserMarker](value, ErrInvalidUserID)
}
