package reward

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// BalanceReader 讀取積分餘額（由積分帳本實作，未知用戶返回零餘額）
type BalanceReader interface {
	Balance(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error)
}

// UnlockedReward 已解鎖的成就或徽章
type UnlockedReward struct {
	DefinitionID string
	Name         string
	Description  string
	Icon         string
	Tier         int
	UnlockedAt   time.Time
}

// RecentTransaction 最近交易摘要
type RecentTransaction struct {
	TransactionID string
	Type          string
	Amount        string
	PointsEarned  int
	CreatedAt     time.Time
}

// LoyaltySummary 用戶忠誠度總覽
type LoyaltySummary struct {
	UserID        string
	Available     int
	TotalEarned   int
	TotalRedeemed int
	Achievements  []UnlockedReward
	Badges        []UnlockedReward
	// CurrentBadge 已解鎖的最高等級徽章；尚未解鎖任何徽章時為 nil
	CurrentBadge       *UnlockedReward
	RecentTransactions []RecentTransaction
}

// SummaryUseCase 組合餘額、解鎖紀錄與最近交易
type SummaryUseCase struct {
	balances       BalanceReader
	definitionRepo reward.DefinitionRepository
	unlockRepo     reward.UnlockRepository
	txRepo         points.TransactionRepository
	recentLimit    int
}

// NewSummaryUseCase 創建 SummaryUseCase；recentLimit <= 0 時使用 5
func NewSummaryUseCase(
	balances BalanceReader,
	definitionRepo reward.DefinitionRepository,
	unlockRepo reward.UnlockRepository,
	txRepo points.TransactionRepository,
	recentLimit int,
) *SummaryUseCase {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &SummaryUseCase{
		balances:       balances,
		definitionRepo: definitionRepo,
		unlockRepo:     unlockRepo,
		txRepo:         txRepo,
		recentLimit:    recentLimit,
	}
}

// Execute 產生總覽
func (uc *SummaryUseCase) Execute(_ context.Context, userID user.UserID) (*LoyaltySummary, error) {
	balance, err := uc.balances.Balance(nil, userID)
	if err != nil {
		return nil, err
	}

	summary := &LoyaltySummary{
		UserID:        userID.String(),
		Available:     balance.Available().Value(),
		TotalEarned:   balance.TotalEarned().Value(),
		TotalRedeemed: balance.TotalRedeemed().Value(),
	}

	records, err := uc.unlockRepo.ListByUser(nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	for _, record := range records {
		definition, err := uc.definitionRepo.FindByID(nil, record.DefinitionID())
		if err != nil {
			return nil, fmt.Errorf("failed to load definition %s: %w", record.DefinitionID(), err)
		}
		item := UnlockedReward{
			DefinitionID: definition.ID().String(),
			Name:         definition.Name(),
			Description:  definition.Description(),
			Icon:         definition.IconRef(),
			Tier:         definition.Tier(),
			UnlockedAt:   record.UnlockedAt(),
		}
		if definition.Kind() == reward.KindBadge {
			summary.Badges = append(summary.Badges, item)
			if summary.CurrentBadge == nil || item.Tier > summary.CurrentBadge.Tier {
				current := item
				summary.CurrentBadge = &current
			}
			continue
		}
		summary.Achievements = append(summary.Achievements, item)
	}

	transactions, err := uc.txRepo.ListByUser(nil, userID, uc.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	for _, t := range transactions {
		summary.RecentTransactions = append(summary.RecentTransactions, RecentTransaction{
			TransactionID: t.ID().String(),
			Type:          string(t.Type()),
			Amount:        t.Amount().StringFixed(2),
			PointsEarned:  t.PointsEarned(),
			CreatedAt:     t.CreatedAt(),
		})
	}

	return summary, nil
}
