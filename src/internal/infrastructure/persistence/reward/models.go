package reward

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"gorm.io/datatypes"
)

// ===========================
// GORM Models
// ===========================

// DefinitionGORM 成就/徽章定義資料表模型
//
// 兩種定義共用一張表，以 kind 區分；criteria 為 JSON 欄位。
// (kind, name) 唯一。
type DefinitionGORM struct {
	DefinitionID    string            `gorm:"column:definition_id;type:varchar(36);primaryKey"`
	Kind            string            `gorm:"column:kind;type:varchar(20);not null;uniqueIndex:idx_reward_definitions_kind_name,priority:1"`
	Name            string            `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_reward_definitions_kind_name,priority:2"`
	Description     string            `gorm:"column:description;type:text"`
	IconRef         string            `gorm:"column:icon_ref;type:varchar(255)"`
	Tier            int               `gorm:"column:tier;not null;default:0"`
	CriteriaVersion int               `gorm:"column:criteria_version;not null;default:1"`
	Criteria        datatypes.JSONMap `gorm:"column:criteria"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (DefinitionGORM) TableName() string {
	return "reward_definitions"
}

func (m *DefinitionGORM) toDomain() (*reward.Definition, error) {
	id, err := reward.DefinitionIDFromString(m.DefinitionID)
	if err != nil {
		return nil, err
	}
	criteria, err := reward.CriteriaFromMap(m.CriteriaVersion, m.Criteria)
	if err != nil {
		return nil, err
	}
	return reward.ReconstructDefinition(
		id,
		reward.Kind(m.Kind),
		m.Name,
		m.Description,
		m.IconRef,
		m.Tier,
		criteria,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func definitionToGORM(d *reward.Definition) *DefinitionGORM {
	return &DefinitionGORM{
		DefinitionID:    d.ID().String(),
		Kind:            string(d.Kind()),
		Name:            d.Name(),
		Description:     d.Description(),
		IconRef:         d.IconRef(),
		Tier:            d.Tier(),
		CriteriaVersion: d.Criteria().Version(),
		Criteria:        datatypes.JSONMap(d.Criteria().ToMap()),
		IsActive:        d.IsActive(),
		CreatedAt:       d.CreatedAt(),
		UpdatedAt:       d.UpdatedAt(),
	}
}

// UnlockGORM 解鎖紀錄資料表模型
//
// (user_id, definition_id) 唯一索引是重複解鎖的最後防線。
type UnlockGORM struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_reward_unlocks_user_definition,priority:1"`
	DefinitionID string    `gorm:"column:definition_id;type:varchar(36);not null;uniqueIndex:idx_reward_unlocks_user_definition,priority:2"`
	Kind         string    `gorm:"column:kind;type:varchar(20);not null"`
	UnlockedAt   time.Time `gorm:"column:unlocked_at;not null"`
}

// TableName 指定資料表名稱
func (UnlockGORM) TableName() string {
	return "reward_unlocks"
}

func (m *UnlockGORM) toDomain() (*reward.UnlockRecord, error) {
	userID, err := user.UserIDFromString(m.UserID)
	if err != nil {
		return nil, err
	}
	definitionID, err := reward.DefinitionIDFromString(m.DefinitionID)
	if err != nil {
		return nil, err
	}
	return reward.ReconstructUnlockRecord(userID, definitionID, reward.Kind(m.Kind), m.UnlockedAt), nil
}

// EventGORM 解鎖事件日誌資料表模型（只新增）
type EventGORM struct {
	EventID   string         `gorm:"column:event_id;type:varchar(36);primaryKey"`
	UserID    string         `gorm:"column:user_id;type:varchar(36);not null;index"`
	EventType string         `gorm:"column:event_type;type:varchar(50);not null;index"`
	EventData datatypes.JSON `gorm:"column:event_data;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

// TableName 指定資料表名稱
func (EventGORM) TableName() string {
	return "reward_events"
}
