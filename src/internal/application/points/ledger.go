package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ===========================
// Ledger 積分帳本
// ===========================

// Ledger 積分餘額的唯一寫入入口
//
// 不變條件：available = totalEarned - totalRedeemed 且 available >= 0。
// 每個變更都有兩種形式：
// - Credit / Debit：自行開啟事務
// - CreditWithContext / DebitWithContext：加入調用者的事務
type Ledger struct {
	balanceRepo points.BalanceRepository
	txManager   shared.TransactionManager
}

// NewLedger 創建 Ledger
func NewLedger(balanceRepo points.BalanceRepository, txManager shared.TransactionManager) *Ledger {
	return &Ledger{
		balanceRepo: balanceRepo,
		txManager:   txManager,
	}
}

// Credit 入帳（獨立事務）
func (l *Ledger) Credit(ctx context.Context, userID user.UserID, pointsToAdd int) (*points.PointBalance, error) {
	var balance *points.PointBalance
	err := l.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		balance, err = l.CreditWithContext(tx, userID, pointsToAdd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// CreditWithContext 在調用者事務中入帳
//
// 餘額列不存在時建立；負數返回 ErrInvalidAmount，零點入帳仍會建立餘額列。
func (l *Ledger) CreditWithContext(tx shared.TransactionContext, userID user.UserID, pointsToAdd int) (*points.PointBalance, error) {
	amount, err := points.NewPointsAmount(pointsToAdd)
	if err != nil {
		return nil, err
	}
	balance, err := l.balanceRepo.ApplyCredit(tx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}
	return balance, nil
}

// Debit 扣帳（獨立事務）
func (l *Ledger) Debit(ctx context.Context, userID user.UserID, pointsToDeduct int) (*points.PointBalance, error) {
	var balance *points.PointBalance
	err := l.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		balance, err = l.DebitWithContext(tx, userID, pointsToDeduct)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// DebitWithContext 在調用者事務中扣帳
//
// 流程：鎖定餘額列 → 領域檢查 → 條件式 UPDATE。
// 錯誤：
// - ErrInvalidAmount：非正數
// - ErrInsufficientPoints：可用積分不足（含尚無餘額列的用戶），無任何修改
func (l *Ledger) DebitWithContext(tx shared.TransactionContext, userID user.UserID, pointsToDeduct int) (*points.PointBalance, error) {
	amount, err := points.NewPositivePointsAmount(pointsToDeduct)
	if err != nil {
		return nil, err
	}

	current, err := l.balanceRepo.FindByUserIDForUpdate(tx, userID)
	if errors.Is(err, points.ErrBalanceNotFound) {
		current = points.NewPointBalance(userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	if err := current.Debit(amount); err != nil {
		return nil, err
	}

	balance, err := l.balanceRepo.ApplyDebit(tx, userID, amount)
	if err != nil {
		if errors.Is(err, points.ErrInsufficientPoints) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to debit points: %w", err)
	}
	return balance, nil
}

// Balance 唯讀餘額快照；沒有任何紀錄的用戶返回全零餘額
func (l *Ledger) Balance(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error) {
	balance, err := l.balanceRepo.FindByUserID(tx, userID)
	if errors.Is(err, points.ErrBalanceNotFound) {
		return points.NewPointBalance(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find balance: %w", err)
	}
	return balance, nil
}
