package reward

import (
	"strings"
	"time"
)

// ===========================
// Definition 聚合根
// ===========================

// Definition 成就或徽章定義
//
// - achievement：criteria 以 AND 組合，空集合永不解鎖
// - badge：額外具有 tier（排序鍵，>= 1），空 requirements 視為入門等級直接滿足
type Definition struct {
	id          DefinitionID
	kind        Kind
	name        string
	description string
	iconRef     string
	tier        int
	criteria    Criteria
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewAchievementDefinition 建立新的成就定義（預設啟用）
func NewAchievementDefinition(name, description, iconRef string, criteria Criteria) (*Definition, error) {
	return newDefinition(KindAchievement, name, description, iconRef, 0, criteria)
}

// NewBadgeDefinition 建立新的徽章定義（預設啟用）
func NewBadgeDefinition(name, description, iconRef string, tier int, requirements Criteria) (*Definition, error) {
	if tier < 1 {
		return nil, ErrInvalidDefinition.WithContext(
			"tier", tier,
			"reason", "badge tier must be >= 1",
		)
	}
	return newDefinition(KindBadge, name, description, iconRef, tier, requirements)
}

func newDefinition(kind Kind, name, description, iconRef string, tier int, criteria Criteria) (*Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidDefinition.WithContext("reason", "name is required")
	}
	if err := criteria.ValidateFor(kind); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Definition{
		id:          NewDefinitionID(),
		kind:        kind,
		name:        name,
		description: strings.TrimSpace(description),
		iconRef:     strings.TrimSpace(iconRef),
		tier:        tier,
		criteria:    criteria,
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructDefinition 從持久化存儲重建定義（僅供 Repository 使用）
//
// 不驗證條件種類：資料庫中的未知條件保留下來，評估時 fail closed。
func ReconstructDefinition(
	id DefinitionID,
	kind Kind,
	name string,
	description string,
	iconRef string,
	tier int,
	criteria Criteria,
	active bool,
	createdAt time.Time,
	updatedAt time.Time,
) (*Definition, error) {
	if id.IsEmpty() {
		return nil, ErrInvalidDefinitionID.WithContext("reason", "empty id in database")
	}
	if !kind.IsValid() {
		return nil, ErrInvalidDefinition.WithContext("kind", string(kind))
	}

	return &Definition{
		id:          id,
		kind:        kind,
		name:        name,
		description: description,
		iconRef:     iconRef,
		tier:        tier,
		criteria:    criteria,
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// ===========================
// 查詢方法
// ===========================

func (d *Definition) ID() DefinitionID     { return d.id }
func (d *Definition) Kind() Kind           { return d.kind }
func (d *Definition) Name() string         { return d.name }
func (d *Definition) Description() string  { return d.description }
func (d *Definition) IconRef() string      { return d.iconRef }
func (d *Definition) Tier() int            { return d.tier }
func (d *Definition) Criteria() Criteria   { return d.criteria }
func (d *Definition) IsActive() bool       { return d.active }
func (d *Definition) CreatedAt() time.Time { return d.createdAt }
func (d *Definition) UpdatedAt() time.Time { return d.updatedAt }

// IsSatisfiedBy 活動是否滿足此定義（不考慮啟用狀態與是否已解鎖）
//
// 不支援的條件版本一律不成立，空條件也一樣。
func (d *Definition) IsSatisfiedBy(activity UserActivity) bool {
	if d.criteria.Version() != CriteriaVersion {
		return false
	}
	if d.criteria.IsEmpty() {
		return d.kind == KindBadge
	}
	return d.criteria.satisfiedBy(d.kind, activity)
}

// ===========================
// 命令方法
// ===========================

// Activate 啟用定義
func (d *Definition) Activate() {
	if !d.active {
		d.active = true
		d.updatedAt = time.Now()
	}
}

// Deactivate 停用定義（已解鎖的紀錄不受影響）
func (d *Definition) Deactivate() {
	if d.active {
		d.active = false
		d.updatedAt = time.Now()
	}
}
