package reward

import (
	"context"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ProgressResult 單一定義的進度
type ProgressResult struct {
	DefinitionID string
	Kind         string
	Name         string
	Tier         int
	Percent      int
	Unlocked     bool
}

// ProgressUseCase 查詢解鎖進度（唯讀）
type ProgressUseCase struct {
	definitionRepo reward.DefinitionRepository
	unlockRepo     reward.UnlockRepository
	activityReader reward.ActivityReader
}

// NewProgressUseCase 創建 ProgressUseCase
func NewProgressUseCase(
	definitionRepo reward.DefinitionRepository,
	unlockRepo reward.UnlockRepository,
	activityReader reward.ActivityReader,
) *ProgressUseCase {
	return &ProgressUseCase{
		definitionRepo: definitionRepo,
		unlockRepo:     unlockRepo,
		activityReader: activityReader,
	}
}

// Progress 返回 [0, 100] 的完成百分比
//
// 錯誤：ErrDefinitionNotFound
func (uc *ProgressUseCase) Progress(_ context.Context, userID user.UserID, definitionID reward.DefinitionID) (int, error) {
	definition, err := uc.definitionRepo.FindByID(nil, definitionID)
	if err != nil {
		return 0, err
	}
	unlocked, err := uc.unlockRepo.Exists(nil, userID, definitionID)
	if err != nil {
		return 0, fmt.Errorf("failed to check unlock: %w", err)
	}
	if unlocked {
		return 100, nil
	}
	activity, err := uc.activityReader.ActivityFor(nil, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read activity: %w", err)
	}
	return reward.Progress(definition, activity, false), nil
}

// ProgressAll 列出所有啟用定義的進度（成就在前，徽章依 tier）
func (uc *ProgressUseCase) ProgressAll(_ context.Context, userID user.UserID) ([]ProgressResult, error) {
	activity, err := uc.activityReader.ActivityFor(nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	records, err := uc.unlockRepo.ListByUser(nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	unlocked := reward.NewUnlockedSet(records)

	var results []ProgressResult
	for _, kind := range []reward.Kind{reward.KindAchievement, reward.KindBadge} {
		definitions, err := uc.definitionRepo.ListByKind(nil, kind, true)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s definitions: %w", kind, err)
		}
		for _, d := range definitions {
			done := unlocked.Contains(d.ID())
			results = append(results, ProgressResult{
				DefinitionID: d.ID().String(),
				Kind:         string(d.Kind()),
				Name:         d.Name(),
				Tier:         d.Tier(),
				Percent:      reward.Progress(d, activity, done),
				Unlocked:     done,
			})
		}
	}
	return results, nil
}
