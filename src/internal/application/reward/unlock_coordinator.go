package reward

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "github.com/jackyeh168/loyalty_rewards/application/reward"

// errAlreadyUnlocked 事務內重新檢查發現已解鎖（略過，不是錯誤）
var errAlreadyUnlocked = errors.New("already unlocked")

// ===========================
// UnlockCoordinator
// ===========================

// UnlockCoordinator 評估並持久化成就/徽章解鎖
//
// 每個新滿足的定義各自一個事務：
//  1. 重新檢查解鎖紀錄（已存在則略過）
//  2. 寫入 UnlockRecord
//  3. 寫入 reward_events
//
// 提交後才推播；推播失敗只記錄日誌。
// 可重複調用：已解鎖的定義不會再產生紀錄或事件。
type UnlockCoordinator struct {
	definitionRepo reward.DefinitionRepository
	unlockRepo     reward.UnlockRepository
	activityReader reward.ActivityReader
	eventLog       reward.EventLog
	txManager      shared.TransactionManager
	broadcaster    shared.Broadcaster
	logger         *zap.Logger
}

// NewUnlockCoordinator 創建 UnlockCoordinator
func NewUnlockCoordinator(
	definitionRepo reward.DefinitionRepository,
	unlockRepo reward.UnlockRepository,
	activityReader reward.ActivityReader,
	eventLog reward.EventLog,
	txManager shared.TransactionManager,
	broadcaster shared.Broadcaster,
	logger *zap.Logger,
) *UnlockCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnlockCoordinator{
		definitionRepo: definitionRepo,
		unlockRepo:     unlockRepo,
		activityReader: activityReader,
		eventLog:       eventLog,
		txManager:      txManager,
		broadcaster:    broadcaster,
		logger:         logger,
	}
}

// UnlockAll 評估成就再評估徽章，返回本次提交的解鎖事件
//
// 單一定義的資料庫錯誤只中止該定義，迴圈繼續；
// 所有錯誤以 errors.Join 合併後與已提交的事件一起返回。
func (c *UnlockCoordinator) UnlockAll(ctx context.Context, userID user.UserID) ([]reward.UnlockEvent, error) {
	return c.run(ctx, userID, points.TransactionID{})
}

// UnlockForTransaction 同 UnlockAll，日誌與 span 帶上觸發評估的交易 ID
func (c *UnlockCoordinator) UnlockForTransaction(ctx context.Context, userID user.UserID, transactionID points.TransactionID) ([]reward.UnlockEvent, error) {
	return c.run(ctx, userID, transactionID)
}

func (c *UnlockCoordinator) run(ctx context.Context, userID user.UserID, transactionID points.TransactionID) ([]reward.UnlockEvent, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "UnlockAll")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID.String()))

	logger := c.logger.With(zap.String("user_id", userID.String()))
	if !transactionID.IsEmpty() {
		span.SetAttributes(attribute.String("transaction_id", transactionID.String()))
		logger = logger.With(zap.String("transaction_id", transactionID.String()))
	}

	events, err := c.unlockAll(ctx, userID, logger)
	span.SetAttributes(attribute.Int("unlocked", len(events)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return events, err
}

func (c *UnlockCoordinator) unlockAll(ctx context.Context, userID user.UserID, logger *zap.Logger) ([]reward.UnlockEvent, error) {
	var (
		activity reward.UserActivity
		records  []*reward.UnlockRecord
	)
	err := c.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		var err error
		if activity, err = c.activityReader.ActivityFor(tx, userID); err != nil {
			return fmt.Errorf("failed to read activity: %w", err)
		}
		if records, err = c.unlockRepo.ListByUser(tx, userID); err != nil {
			return fmt.Errorf("failed to list unlocks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	unlocked := reward.NewUnlockedSet(records)

	var (
		events []reward.UnlockEvent
		errs   []error
	)
	for _, kind := range []reward.Kind{reward.KindAchievement, reward.KindBadge} {
		var definitions []*reward.Definition
		err := c.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
			var err error
			definitions, err = c.definitionRepo.ListByKind(tx, kind, true)
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list %s definitions: %w", kind, err))
			continue
		}

		for _, definition := range reward.NewlySatisfied(kind, definitions, unlocked, activity) {
			if err := ctx.Err(); err != nil {
				return events, errors.Join(append(errs, err)...)
			}

			event, err := c.unlockOne(ctx, userID, definition)
			if err != nil {
				logger.Warn("unlock failed",
					zap.String("definition_id", definition.ID().String()),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("unlock %s %q: %w", kind, definition.Name(), err))
				continue
			}
			if event == nil {
				continue
			}

			events = append(events, event)
			c.broadcast(ctx, event)
		}
	}

	return events, errors.Join(errs...)
}

// unlockOne 單一定義的解鎖事務；已解鎖返回 (nil, nil)
func (c *UnlockCoordinator) unlockOne(ctx context.Context, userID user.UserID, definition *reward.Definition) (reward.UnlockEvent, error) {
	var event reward.UnlockEvent
	err := c.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		exists, err := c.unlockRepo.Exists(tx, userID, definition.ID())
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyUnlocked
		}

		record, err := reward.NewUnlockRecord(userID, definition)
		if err != nil {
			return err
		}
		if err := c.unlockRepo.Save(tx, record); err != nil {
			return err
		}

		event = reward.NewUnlockEvent(record, definition)
		return c.eventLog.Append(tx, event)
	})
	if errors.Is(err, errAlreadyUnlocked) || errors.Is(err, reward.ErrDuplicateUnlock) {
		c.logger.Debug("unlock skipped",
			zap.String("user_id", userID.String()),
			zap.String("definition_id", definition.ID().String()),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("reward unlocked",
		zap.String("user_id", userID.String()),
		zap.String("definition_id", definition.ID().String()),
		zap.String("kind", string(definition.Kind())),
		zap.String("name", definition.Name()),
	)
	return event, nil
}

func (c *UnlockCoordinator) broadcast(ctx context.Context, event reward.UnlockEvent) {
	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.Broadcast(ctx, event); err != nil {
		c.logger.Warn("broadcast failed",
			zap.String("user_id", event.UserID().String()),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID()),
			zap.Error(err),
		)
	}
}
