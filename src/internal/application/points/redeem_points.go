package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ===========================
// RedeemPoints Use Case
// ===========================

// RedeemPointsCommand 兌換積分指令
type RedeemPointsCommand struct {
	UserID string
	Points int
}

// RedeemPointsResult 兌換結果
//
// Redeemed 為 false 表示餘額不足（正常業務結果，不是錯誤）。
type RedeemPointsResult struct {
	Redeemed      bool
	TransactionID string
	Available     int
}

// RedeemPointsUseCase 兌換積分
//
// 扣帳與 redemption 交易在同一事務：兩者一起提交或一起回滾。
type RedeemPointsUseCase struct {
	txRepo    points.TransactionRepository
	ledger    *Ledger
	txManager shared.TransactionManager
	logger    *zap.Logger
}

// NewRedeemPointsUseCase 創建 RedeemPointsUseCase
func NewRedeemPointsUseCase(
	txRepo points.TransactionRepository,
	ledger *Ledger,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *RedeemPointsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedeemPointsUseCase{
		txRepo:    txRepo,
		ledger:    ledger,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute 執行兌換
//
// 錯誤處理：
// - ErrInvalidAmount：非正數，未寫入任何資料
// - 餘額不足：Redeemed=false, err=nil
func (uc *RedeemPointsUseCase) Execute(ctx context.Context, cmd RedeemPointsCommand) (*RedeemPointsResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "RedeemPoints")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", cmd.UserID),
		attribute.Int("points", cmd.Points),
	)

	result, err := uc.execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("redeemed", result.Redeemed))
	return result, nil
}

func (uc *RedeemPointsUseCase) execute(ctx context.Context, cmd RedeemPointsCommand) (*RedeemPointsResult, error) {
	userID, err := user.UserIDFromString(cmd.UserID)
	if err != nil {
		return nil, err
	}
	redeemed, err := points.NewPositivePointsAmount(cmd.Points)
	if err != nil {
		return nil, err
	}

	transaction, err := points.NewRedemptionTransaction(userID, redeemed, map[string]interface{}{
		points.MetadataProcessedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}

	var balance *points.PointBalance
	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		balance, err = uc.ledger.DebitWithContext(tx, userID, redeemed.Value())
		if err != nil {
			return err
		}
		return uc.txRepo.Save(tx, transaction)
	})
	if errors.Is(err, points.ErrInsufficientPoints) {
		uc.logger.Info("redemption declined",
			zap.String("user_id", userID.String()),
			zap.Int("points", redeemed.Value()),
		)
		current, balanceErr := uc.ledger.Balance(nil, userID)
		if balanceErr != nil {
			return nil, balanceErr
		}
		return &RedeemPointsResult{Redeemed: false, Available: current.Available().Value()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem points: %w", err)
	}

	uc.logger.Info("points redeemed",
		zap.String("user_id", userID.String()),
		zap.String("transaction_id", transaction.ID().String()),
		zap.Int("points", redeemed.Value()),
	)

	return &RedeemPointsResult{
		Redeemed:      true,
		TransactionID: transaction.ID().String(),
		Available:     balance.Available().Value(),
	}, nil
}

// ===========================
// ListTransactions Query
// ===========================

// ListTransactionsUseCase 查詢用戶最近交易
type ListTransactionsUseCase struct {
	txRepo points.TransactionRepository
}

// NewListTransactionsUseCase 創建 ListTransactionsUseCase
func NewListTransactionsUseCase(txRepo points.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{txRepo: txRepo}
}

// Execute 依建立時間倒序返回最多 limit 筆交易
func (uc *ListTransactionsUseCase) Execute(userID string, limit int) ([]*TransactionResult, error) {
	id, err := user.UserIDFromString(userID)
	if err != nil {
		return nil, err
	}
	transactions, err := uc.txRepo.ListByUser(nil, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	results := make([]*TransactionResult, 0, len(transactions))
	for _, t := range transactions {
		results = append(results, toTransactionResult(t, false))
	}
	return results, nil
}
