package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "github.com/jackyeh168/loyalty_rewards/application/points"

// ===========================
// ProcessPurchase Use Case
// ===========================

// ProcessPurchaseCommand 處理消費指令（Input DTO）
type ProcessPurchaseCommand struct {
	UserID      string
	Amount      decimal.Decimal
	ExternalRef string // 選填，外部系統的訂單編號，用於去重
}

// TransactionResult 交易結果（Output DTO）
type TransactionResult struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
	PointsEarned  int
	Type          string
	ExternalRef   string
	Status        string
	CreatedAt     time.Time
	// Duplicate 為 true 表示 ExternalRef 已處理過，返回的是既有交易
	Duplicate bool
}

// ProcessPurchaseUseCase 處理消費交易
//
// 業務規則：
// 1. 金額必須大於 0（否則不寫入任何資料）
// 2. 積分 = floor(金額 × 每單位貨幣積分)
// 3. 交易與入帳在同一事務
// 4. 提交後排入評估佇列；排入失敗只記錄日誌
// 5. 帶有已處理 ExternalRef 的消費返回既有交易，不重複入帳
type ProcessPurchaseUseCase struct {
	txRepo     points.TransactionRepository
	userRepo   user.UserRepository
	ledger     *Ledger
	calculator *points.PointsCalculationService
	rate       points.PointsRate
	enqueuer   pipeline.Enqueuer
	txManager  shared.TransactionManager
	logger     *zap.Logger
}

// NewProcessPurchaseUseCase 創建 ProcessPurchaseUseCase
func NewProcessPurchaseUseCase(
	txRepo points.TransactionRepository,
	userRepo user.UserRepository,
	ledger *Ledger,
	rate points.PointsRate,
	enqueuer pipeline.Enqueuer,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *ProcessPurchaseUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessPurchaseUseCase{
		txRepo:     txRepo,
		userRepo:   userRepo,
		ledger:     ledger,
		calculator: points.NewPointsCalculationService(),
		rate:       rate,
		enqueuer:   enqueuer,
		txManager:  txManager,
		logger:     logger,
	}
}

// Execute 執行消費處理
//
// 錯誤處理：
// - ErrInvalidUserID / ErrInvalidAmount / ErrPointsOverflow：輸入無效，未寫入任何資料
// - ErrUserNotFound：使用者不存在或已停用
// - 其他錯誤：儲存層失敗，事務已回滾
func (uc *ProcessPurchaseUseCase) Execute(ctx context.Context, cmd ProcessPurchaseCommand) (*TransactionResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ProcessPurchase")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", cmd.UserID),
		attribute.String("amount", cmd.Amount.String()),
	)

	result, err := uc.execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("transaction_id", result.TransactionID),
		attribute.Bool("duplicate", result.Duplicate),
	)
	return result, nil
}

func (uc *ProcessPurchaseUseCase) execute(ctx context.Context, cmd ProcessPurchaseCommand) (*TransactionResult, error) {
	// 1. 驗證輸入並計算積分（任何寫入之前）
	userID, err := user.UserIDFromString(cmd.UserID)
	if err != nil {
		return nil, err
	}
	earned, err := uc.calculator.CalculateFromAmount(cmd.Amount, uc.rate)
	if err != nil {
		return nil, err
	}

	// 2. ExternalRef 去重
	if existing, ok, err := uc.findByExternalRef(cmd.ExternalRef); err != nil {
		return nil, err
	} else if ok {
		return uc.duplicateOf(existing, userID)
	}

	metadata := map[string]interface{}{
		points.MetadataPointsRate:  uc.rate.Value(),
		points.MetadataProcessedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	transaction, err := points.NewPurchaseTransaction(userID, cmd.Amount, earned, cmd.ExternalRef, metadata)
	if err != nil {
		return nil, err
	}

	// 3. 交易 + 入帳（同一事務）
	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		if _, err := uc.userRepo.FindByID(tx, userID); err != nil {
			return err
		}
		if err := uc.txRepo.Save(tx, transaction); err != nil {
			return err
		}
		_, err := uc.ledger.CreditWithContext(tx, userID, earned.Value())
		return err
	})
	if errors.Is(err, points.ErrDuplicateExternalRef) {
		// 並發的同一 ExternalRef：另一筆已提交
		existing, ok, findErr := uc.findByExternalRef(cmd.ExternalRef)
		if findErr != nil {
			return nil, findErr
		}
		if ok {
			return uc.duplicateOf(existing, userID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to process purchase: %w", err)
	}

	uc.logger.Info("purchase processed",
		zap.String("user_id", userID.String()),
		zap.String("transaction_id", transaction.ID().String()),
		zap.String("amount", transaction.Amount().String()),
		zap.Int("points_earned", transaction.PointsEarned()),
	)

	// 4. 提交後排入評估佇列
	uc.enqueue(ctx, transaction)

	return toTransactionResult(transaction, false), nil
}

func (uc *ProcessPurchaseUseCase) findByExternalRef(externalRef string) (*points.Transaction, bool, error) {
	if externalRef == "" {
		return nil, false, nil
	}
	existing, err := uc.txRepo.FindByExternalRef(nil, externalRef)
	if errors.Is(err, points.ErrTransactionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up external reference: %w", err)
	}
	return existing, true, nil
}

func (uc *ProcessPurchaseUseCase) duplicateOf(existing *points.Transaction, userID user.UserID) (*TransactionResult, error) {
	if !existing.UserID().Equals(userID) {
		return nil, points.ErrDuplicateExternalRef.WithContext(
			"external_ref", existing.ExternalRef(),
			"reason", "reference belongs to another user",
		)
	}
	uc.logger.Info("duplicate purchase ignored",
		zap.String("user_id", userID.String()),
		zap.String("transaction_id", existing.ID().String()),
		zap.String("external_ref", existing.ExternalRef()),
	)
	return toTransactionResult(existing, true), nil
}

func (uc *ProcessPurchaseUseCase) enqueue(ctx context.Context, transaction *points.Transaction) {
	if uc.enqueuer == nil {
		return
	}
	item, err := pipeline.NewWorkItem(transaction.UserID(), transaction.ID())
	if err == nil {
		err = uc.enqueuer.Enqueue(ctx, item)
	}
	if err != nil {
		uc.logger.Warn("failed to enqueue reward evaluation",
			zap.String("user_id", transaction.UserID().String()),
			zap.String("transaction_id", transaction.ID().String()),
			zap.Error(err),
		)
	}
}

func toTransactionResult(t *points.Transaction, duplicate bool) *TransactionResult {
	return &TransactionResult{
		TransactionID: t.ID().String(),
		UserID:        t.UserID().String(),
		Amount:        t.Amount(),
		PointsEarned:  t.PointsEarned(),
		Type:          string(t.Type()),
		ExternalRef:   t.ExternalRef(),
		Status:        string(t.Status()),
		CreatedAt:     t.CreatedAt(),
		Duplicate:     duplicate,
	}
}
