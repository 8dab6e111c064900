package reward

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"go.uber.org/zap"
)

// Unlocker 執行解鎖評估（由 UnlockCoordinator 實作）
type Unlocker interface {
	UnlockForTransaction(ctx context.Context, userID user.UserID, transactionID points.TransactionID) ([]reward.UnlockEvent, error)
}

// EvaluatePurchaseHandler 非同步管線的處理器：消費交易提交後評估解鎖
//
// 交易或使用者不存在時返回 pipeline.Drop（不重試）；
// 其他錯誤原樣返回，由 Worker 重試（UnlockAll 為冪等操作）。
// 查詢在 txManager 的唯讀事務中執行，受嘗試的 ctx（逾時）約束。
type EvaluatePurchaseHandler struct {
	txRepo    points.TransactionRepository
	userRepo  user.UserRepository
	unlocker  Unlocker
	txManager shared.TransactionManager
	logger    *zap.Logger
}

// NewEvaluatePurchaseHandler 創建處理器
func NewEvaluatePurchaseHandler(
	txRepo points.TransactionRepository,
	userRepo user.UserRepository,
	unlocker Unlocker,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *EvaluatePurchaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluatePurchaseHandler{
		txRepo:    txRepo,
		userRepo:  userRepo,
		unlocker:  unlocker,
		txManager: txManager,
		logger:    logger,
	}
}

// Handle 實作 pipeline.Handler
func (h *EvaluatePurchaseHandler) Handle(ctx context.Context, item pipeline.WorkItem) error {
	err := h.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		transaction, err := h.txRepo.FindByID(tx, item.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to load transaction: %w", err)
		}
		if !transaction.UserID().Equals(item.UserID) {
			return points.ErrTransactionNotFound.WithContext(
				"transaction_id", item.TransactionID.String(),
				"reason", "transaction belongs to another user",
			)
		}
		if _, err := h.userRepo.FindByID(tx, item.UserID); err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		return nil
	})
	if errors.Is(err, points.ErrTransactionNotFound) || errors.Is(err, user.ErrUserNotFound) {
		return pipeline.Drop(err)
	}
	if err != nil {
		return err
	}

	events, err := h.unlocker.UnlockForTransaction(ctx, item.UserID, item.TransactionID)
	if len(events) > 0 {
		h.logger.Info("rewards evaluated",
			zap.String("user_id", item.UserID.String()),
			zap.String("transaction_id", item.TransactionID.String()),
			zap.Int("unlocked", len(events)),
		)
	}
	return err
}

var _ pipeline.Handler = (*EvaluatePurchaseHandler)(nil)
