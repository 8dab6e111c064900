package points

import (
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// GetPointsBalanceQuery 查詢積分餘額的查詢
type GetPointsBalanceQuery struct {
	UserID string
}

// GetPointsBalanceResult 查詢積分餘額的結果
type GetPointsBalanceResult struct {
	UserID        string
	Available     int
	TotalEarned   int
	TotalRedeemed int
}

// GetPointsBalanceUseCase 查詢積分餘額 Use Case
type GetPointsBalanceUseCase struct {
	ledger *Ledger
}

// NewGetPointsBalanceUseCase 創建 Use Case 實例
func NewGetPointsBalanceUseCase(ledger *Ledger) *GetPointsBalanceUseCase {
	return &GetPointsBalanceUseCase{
		ledger: ledger,
	}
}

// Execute 執行查詢積分餘額
//
// 錯誤處理：
// - ErrInvalidUserID: UserID 格式無效
// - 沒有任何紀錄的用戶返回全零餘額（不是錯誤）
func (uc *GetPointsBalanceUseCase) Execute(query GetPointsBalanceQuery) (*GetPointsBalanceResult, error) {
	return uc.ExecuteWithContext(nil, query)
}

// ExecuteWithContext 在事務上下文中執行查詢
//
// 獨立查詢時可傳入 nil（不需要事務）。
func (uc *GetPointsBalanceUseCase) ExecuteWithContext(
	ctx shared.TransactionContext,
	query GetPointsBalanceQuery,
) (*GetPointsBalanceResult, error) {
	userID, err := user.UserIDFromString(query.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	balance, err := uc.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GetPointsBalanceResult{
		UserID:        balance.UserID().String(),
		Available:     balance.Available().Value(),
		TotalEarned:   balance.TotalEarned().Value(),
		TotalRedeemed: balance.TotalRedeemed().Value(),
	}, nil
}
