package reward

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// DefinitionRepositoryImpl 成就/徽章定義倉儲實現（GORM）
type DefinitionRepositoryImpl struct {
	db *gorm.DB
}

// NewDefinitionRepository 創建定義倉儲
func NewDefinitionRepository(db *gorm.DB) reward.DefinitionRepository {
	return &DefinitionRepositoryImpl{db: db}
}

// Save 保存新定義
func (r *DefinitionRepositoryImpl) Save(tx shared.TransactionContext, d *reward.Definition) error {
	db := persistence.DBFrom(tx, r.db)

	result := db.Create(definitionToGORM(d))
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return reward.ErrDefinitionAlreadyExists.WithContext(
				"kind", string(d.Kind()),
				"name", d.Name(),
			)
		}
		return repositoryError("save_definition", result.Error)
	}
	return nil
}

// Update 更新可變欄位（啟用狀態、描述、圖示、條件）
func (r *DefinitionRepositoryImpl) Update(tx shared.TransactionContext, d *reward.Definition) error {
	db := persistence.DBFrom(tx, r.db)
	model := definitionToGORM(d)

	result := db.Model(&DefinitionGORM{}).
		Where("definition_id = ?", model.DefinitionID).
		Updates(map[string]interface{}{
			"description":      model.Description,
			"icon_ref":         model.IconRef,
			"criteria_version": model.CriteriaVersion,
			"criteria":         model.Criteria,
			"is_active":        model.IsActive,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return repositoryError("update_definition", result.Error)
	}
	if result.RowsAffected == 0 {
		return reward.ErrDefinitionNotFound.WithContext("definition_id", model.DefinitionID)
	}
	return nil
}

// FindByID 根據 ID 查詢定義
func (r *DefinitionRepositoryImpl) FindByID(tx shared.TransactionContext, id reward.DefinitionID) (*reward.Definition, error) {
	db := persistence.DBFrom(tx, r.db)
	return findDefinition(db.Where("definition_id = ?", id.String()), "definition_id", id.String())
}

// FindByName 根據種類與名稱查詢定義
func (r *DefinitionRepositoryImpl) FindByName(tx shared.TransactionContext, kind reward.Kind, name string) (*reward.Definition, error) {
	db := persistence.DBFrom(tx, r.db)
	return findDefinition(db.Where("kind = ? AND name = ?", string(kind), name), "name", name)
}

// ListByKind 列出某種類的定義
//
// 徽章依 tier 遞增；成就依建立時間（同時間以名稱）排序。
func (r *DefinitionRepositoryImpl) ListByKind(tx shared.TransactionContext, kind reward.Kind, activeOnly bool) ([]*reward.Definition, error) {
	db := persistence.DBFrom(tx, r.db).Where("kind = ?", string(kind))
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	if kind == reward.KindBadge {
		db = db.Order("tier ASC").Order("name ASC")
	} else {
		db = db.Order("created_at ASC").Order("name ASC")
	}

	var models []DefinitionGORM
	if err := db.Find(&models).Error; err != nil {
		return nil, repositoryError("list_definitions", err)
	}

	out := make([]*reward.Definition, 0, len(models))
	for i := range models {
		d, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func findDefinition(db *gorm.DB, key string, value string) (*reward.Definition, error) {
	var model DefinitionGORM
	if err := db.First(&model).Error; err != nil {
		if persistence.IsNotFound(err) {
			return nil, reward.ErrDefinitionNotFound.WithContext(key, value)
		}
		return nil, repositoryError("find_definition", err)
	}
	return model.toDomain()
}

func repositoryError(operation string, cause error) error {
	return reward.ErrRepositoryError.WithContext(
		"operation", operation,
		"cause", cause.Error(),
	)
}
