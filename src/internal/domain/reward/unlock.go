package reward

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// UnlockRecord 用戶解鎖某個定義的紀錄
//
// 每個 (userID, definitionID) 最多一筆，只由 Unlock Coordinator 建立，建立後不更新、不刪除。
type UnlockRecord struct {
	userID       user.UserID
	definitionID DefinitionID
	kind         Kind
	unlockedAt   time.Time
}

// NewUnlockRecord 為定義建立解鎖紀錄（unlockedAt = now）
func NewUnlockRecord(userID user.UserID, definition *Definition) (*UnlockRecord, error) {
	if userID.IsEmpty() {
		return nil, user.ErrInvalidUserID.WithContext("reason", "user id is empty")
	}
	return &UnlockRecord{
		userID:       userID,
		definitionID: definition.ID(),
		kind:         definition.Kind(),
		unlockedAt:   time.Now(),
	}, nil
}

// ReconstructUnlockRecord 從持久化存儲重建（僅供 Repository 使用）
func ReconstructUnlockRecord(userID user.UserID, definitionID DefinitionID, kind Kind, unlockedAt time.Time) *UnlockRecord {
	return &UnlockRecord{
		userID:       userID,
		definitionID: definitionID,
		kind:         kind,
		unlockedAt:   unlockedAt,
	}
}

func (r *UnlockRecord) UserID() user.UserID         { return r.userID }
func (r *UnlockRecord) DefinitionID() DefinitionID { return r.definitionID }
func (r *UnlockRecord) Kind() Kind                 { return r.kind }
func (r *UnlockRecord) UnlockedAt() time.Time      { return r.unlockedAt }
