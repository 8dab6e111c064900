package reward

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventLogImpl 解鎖事件日誌（GORM）
type EventLogImpl struct {
	db *gorm.DB
}

// NewEventLog 創建事件日誌
func NewEventLog(db *gorm.DB) reward.EventLog {
	return &EventLogImpl{db: db}
}

// Append 寫入事件（與解鎖紀錄同一事務）
func (l *EventLogImpl) Append(tx shared.TransactionContext, event reward.UnlockEvent) error {
	db := persistence.DBFrom(tx, l.db)

	payload, err := event.Payload()
	if err != nil {
		return repositoryError("encode_event", err)
	}

	model := &EventGORM{
		EventID:   event.EventID(),
		UserID:    event.UserID().String(),
		EventType: event.EventType(),
		EventData: datatypes.JSON(payload),
		CreatedAt: event.OccurredAt(),
	}
	if err := db.Create(model).Error; err != nil {
		return repositoryError("append_event", err)
	}
	return nil
}

// CountByUser 統計用戶某類事件數量
func (l *EventLogImpl) CountByUser(tx shared.TransactionContext, userID user.UserID, eventType string) (int64, error) {
	db := persistence.DBFrom(tx, l.db)

	var count int64
	err := db.Model(&EventGORM{}).
		Where("user_id = ? AND event_type = ?", userID.String(), eventType).
		Count(&count).Error
	if err != nil {
		return 0, repositoryError("count_events", err)
	}
	return count, nil
}
