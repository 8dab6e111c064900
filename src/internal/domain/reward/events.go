package reward

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// 事件類型
const (
	EventTypeAchievementUnlocked = "achievement.unlocked"
	EventTypeBadgeUnlocked       = "badge.unlocked"
)

// UnlockEvent 解鎖領域事件
//
// Payload 是解鎖當下定義的扁平快照，之後定義被修改也不影響已發出的事件。
type UnlockEvent interface {
	shared.DomainEvent
	UserID() user.UserID
	DefinitionID() DefinitionID
	Kind() Kind
	Payload() ([]byte, error)
}

// NewUnlockEvent 依定義種類建立對應事件
func NewUnlockEvent(record *UnlockRecord, definition *Definition) UnlockEvent {
	base := unlockEventBase{
		eventID:      uuid.New().String(),
		userID:       record.UserID(),
		definitionID: definition.ID(),
		occurredAt:   record.UnlockedAt(),
	}
	if definition.Kind() == KindBadge {
		return &BadgeUnlockedEvent{
			unlockEventBase: base,
			name:            definition.Name(),
			tier:            definition.Tier(),
			icon:            definition.IconRef(),
		}
	}
	return &AchievementUnlockedEvent{
		unlockEventBase: base,
		name:            definition.Name(),
		description:     definition.Description(),
		badgeIcon:       definition.IconRef(),
	}
}

type unlockEventBase struct {
	eventID      string
	userID       user.UserID
	definitionID DefinitionID
	occurredAt   time.Time
}

func (e unlockEventBase) EventID() string            { return e.eventID }
func (e unlockEventBase) OccurredAt() time.Time      { return e.occurredAt }
func (e unlockEventBase) AggregateID() string        { return e.userID.String() }
func (e unlockEventBase) UserID() user.UserID        { return e.userID }
func (e unlockEventBase) DefinitionID() DefinitionID { return e.definitionID }

// ===========================
// AchievementUnlocked
// ===========================

// AchievementUnlockedEvent 成就解鎖事件
type AchievementUnlockedEvent struct {
	unlockEventBase
	name        string
	description string
	badgeIcon   string
}

// EventType 實現 DomainEvent 介面
func (e *AchievementUnlockedEvent) EventType() string { return EventTypeAchievementUnlocked }

// Kind 定義種類
func (e *AchievementUnlockedEvent) Kind() Kind { return KindAchievement }

// Name 成就名稱
func (e *AchievementUnlockedEvent) Name() string { return e.name }

// Payload {user_id, achievement_id, name, description, badge_icon}
func (e *AchievementUnlockedEvent) Payload() ([]byte, error) {
	return json.Marshal(struct {
		UserID        string `json:"user_id"`
		AchievementID string `json:"achievement_id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		BadgeIcon     string `json:"badge_icon"`
	}{
		UserID:        e.userID.String(),
		AchievementID: e.definitionID.String(),
		Name:          e.name,
		Description:   e.description,
		BadgeIcon:     e.badgeIcon,
	})
}

// ===========================
// BadgeUnlocked
// ===========================

// BadgeUnlockedEvent 徽章解鎖事件
type BadgeUnlockedEvent struct {
	unlockEventBase
	name string
	tier int
	icon string
}

// EventType 實現 DomainEvent 介面
func (e *BadgeUnlockedEvent) EventType() string { return EventTypeBadgeUnlocked }

// Kind 定義種類
func (e *BadgeUnlockedEvent) Kind() Kind { return KindBadge }

// Name 徽章名稱
func (e *BadgeUnlockedEvent) Name() string { return e.name }

// Tier 徽章等級
func (e *BadgeUnlockedEvent) Tier() int { return e.tier }

// Payload {user_id, badge_id, name, tier, icon}
func (e *BadgeUnlockedEvent) Payload() ([]byte, error) {
	return json.Marshal(struct {
		UserID  string `json:"user_id"`
		BadgeID string `json:"badge_id"`
		Name    string `json:"name"`
		Tier    int    `json:"tier"`
		Icon    string `json:"icon"`
	}{
		UserID:  e.userID.String(),
		BadgeID: e.definitionID.String(),
		Name:    e.name,
		Tier:    e.tier,
		Icon:    e.icon,
	})
}
