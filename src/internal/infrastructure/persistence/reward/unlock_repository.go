package reward

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// UnlockRepositoryImpl 解鎖紀錄倉儲實現（GORM）
type UnlockRepositoryImpl struct {
	db *gorm.DB
}

// NewUnlockRepository 創建解鎖紀錄倉儲
func NewUnlockRepository(db *gorm.DB) reward.UnlockRepository {
	return &UnlockRepositoryImpl{db: db}
}

// Save 新增解鎖紀錄
//
// 唯一索引衝突（並發解鎖同一定義）→ ErrDuplicateUnlock
func (r *UnlockRepositoryImpl) Save(tx shared.TransactionContext, record *reward.UnlockRecord) error {
	db := persistence.DBFrom(tx, r.db)

	model := &UnlockGORM{
		UserID:       record.UserID().String(),
		DefinitionID: record.DefinitionID().String(),
		Kind:         string(record.Kind()),
		UnlockedAt:   record.UnlockedAt(),
	}
	if err := db.Create(model).Error; err != nil {
		if persistence.IsUniqueConstraintError(err) {
			return reward.ErrDuplicateUnlock.WithContext(
				"user_id", model.UserID,
				"definition_id", model.DefinitionID,
			)
		}
		return repositoryError("save_unlock", err)
	}
	return nil
}

// Exists 是否已解鎖
func (r *UnlockRepositoryImpl) Exists(tx shared.TransactionContext, userID user.UserID, definitionID reward.DefinitionID) (bool, error) {
	db := persistence.DBFrom(tx, r.db)

	var count int64
	err := db.Model(&UnlockGORM{}).
		Where("user_id = ? AND definition_id = ?", userID.String(), definitionID.String()).
		Count(&count).Error
	if err != nil {
		return false, repositoryError("exists_unlock", err)
	}
	return count > 0, nil
}

// ListByUser 依解鎖時間排序列出解鎖紀錄
func (r *UnlockRepositoryImpl) ListByUser(tx shared.TransactionContext, userID user.UserID) ([]*reward.UnlockRecord, error) {
	db := persistence.DBFrom(tx, r.db)

	var models []UnlockGORM
	err := db.Where("user_id = ?", userID.String()).
		Order("unlocked_at ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, repositoryError("list_unlocks", err)
	}

	out := make([]*reward.UnlockRecord, 0, len(models))
	for i := range models {
		rec, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
