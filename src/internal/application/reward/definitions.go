package reward

import (
	"context"
	"errors"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"go.uber.org/zap"
)

// ===========================
// 定義管理
// ===========================

// CreateAchievementCommand 建立成就定義
type CreateAchievementCommand struct {
	Name        string
	Description string
	Icon        string
	Criteria    map[string]interface{}
}

// CreateBadgeCommand 建立徽章定義
type CreateBadgeCommand struct {
	Name         string
	Description  string
	Icon         string
	Tier         int
	Requirements map[string]interface{}
}

// DefinitionResult 定義資料（Output DTO）
type DefinitionResult struct {
	DefinitionID string
	Kind         string
	Name         string
	Description  string
	Icon         string
	Tier         int
	Criteria     map[string]interface{}
	Active       bool
	CreatedAt    time.Time
}

// DefinitionService 成就與徽章定義的管理操作
type DefinitionService struct {
	definitionRepo reward.DefinitionRepository
	txManager      shared.TransactionManager
	logger         *zap.Logger
}

// NewDefinitionService 創建 DefinitionService
func NewDefinitionService(
	definitionRepo reward.DefinitionRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *DefinitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefinitionService{
		definitionRepo: definitionRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// CreateAchievement 建立成就
//
// 錯誤：ErrInvalidDefinition、ErrInvalidCriteria（未知或徽章專用條件）、ErrDefinitionAlreadyExists
func (s *DefinitionService) CreateAchievement(ctx context.Context, cmd CreateAchievementCommand) (*DefinitionResult, error) {
	criteria, err := reward.CriteriaFromMap(reward.CriteriaVersion, cmd.Criteria)
	if err != nil {
		return nil, err
	}
	definition, err := reward.NewAchievementDefinition(cmd.Name, cmd.Description, cmd.Icon, criteria)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, definition)
}

// CreateBadge 建立徽章
//
// 錯誤：ErrInvalidDefinition（tier < 1）、ErrInvalidCriteria、ErrDefinitionAlreadyExists
func (s *DefinitionService) CreateBadge(ctx context.Context, cmd CreateBadgeCommand) (*DefinitionResult, error) {
	requirements, err := reward.CriteriaFromMap(reward.CriteriaVersion, cmd.Requirements)
	if err != nil {
		return nil, err
	}
	definition, err := reward.NewBadgeDefinition(cmd.Name, cmd.Description, cmd.Icon, cmd.Tier, requirements)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, definition)
}

func (s *DefinitionService) create(ctx context.Context, definition *reward.Definition) (*DefinitionResult, error) {
	err := s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		_, err := s.definitionRepo.FindByName(tx, definition.Kind(), definition.Name())
		if err == nil {
			return reward.ErrDefinitionAlreadyExists.WithContext(
				"kind", string(definition.Kind()),
				"name", definition.Name(),
			)
		}
		if !errors.Is(err, reward.ErrDefinitionNotFound) {
			return err
		}
		return s.definitionRepo.Save(tx, definition)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reward definition created",
		zap.String("definition_id", definition.ID().String()),
		zap.String("kind", string(definition.Kind())),
		zap.String("name", definition.Name()),
	)
	return toDefinitionResult(definition), nil
}

// SetActive 啟用或停用定義；停用的定義不再被評估，既有解鎖紀錄保留
func (s *DefinitionService) SetActive(ctx context.Context, definitionID string, active bool) (*DefinitionResult, error) {
	id, err := reward.DefinitionIDFromString(definitionID)
	if err != nil {
		return nil, err
	}

	var definition *reward.Definition
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		definition, err = s.definitionRepo.FindByID(tx, id)
		if err != nil {
			return err
		}
		if active {
			definition.Activate()
		} else {
			definition.Deactivate()
		}
		return s.definitionRepo.Update(tx, definition)
	})
	if err != nil {
		return nil, err
	}
	return toDefinitionResult(definition), nil
}

// List 列出定義
func (s *DefinitionService) List(_ context.Context, kind reward.Kind, activeOnly bool) ([]*DefinitionResult, error) {
	definitions, err := s.definitionRepo.ListByKind(nil, kind, activeOnly)
	if err != nil {
		return nil, err
	}
	results := make([]*DefinitionResult, 0, len(definitions))
	for _, d := range definitions {
		results = append(results, toDefinitionResult(d))
	}
	return results, nil
}

func toDefinitionResult(d *reward.Definition) *DefinitionResult {
	return &DefinitionResult{
		DefinitionID: d.ID().String(),
		Kind:         string(d.Kind()),
		Name:         d.Name(),
		Description:  d.Description(),
		Icon:         d.IconRef(),
		Tier:         d.Tier(),
		Criteria:     d.Criteria().ToMap(),
		Active:       d.IsActive(),
		CreatedAt:    d.CreatedAt(),
	}
}
