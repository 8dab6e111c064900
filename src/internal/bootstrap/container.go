// Package bootstrap 依設定組裝資料庫、Repository、Use Case 與評估管線
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	apppoints "github.com/jackyeh168/loyalty_rewards/src/internal/application/points"
	appreward "github.com/jackyeh168/loyalty_rewards/src/internal/application/reward"
	appuser "github.com/jackyeh168/loyalty_rewards/src/internal/application/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/broadcast"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/config"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	pointsstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/points"
	rewardstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/reward"
	userstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/queue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// hubBuffer 每個訂閱者的緩衝訊息數
const hubBuffer = 64

// Container 應用程式的所有元件
type Container struct {
	Config config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Queue  queue.Queue
	Hub    *broadcast.Hub

	Ledger           *apppoints.Ledger
	RegisterUser     appuser.RegisterUserUseCase
	GetUser          *appuser.GetUserUseCase
	ProcessPurchase  *apppoints.ProcessPurchaseUseCase
	RedeemPoints     *apppoints.RedeemPointsUseCase
	GetBalance       *apppoints.GetPointsBalanceUseCase
	ListTransactions *apppoints.ListTransactionsUseCase
	Definitions      *appreward.DefinitionService
	Coordinator      *appreward.UnlockCoordinator
	Progress         *appreward.ProgressUseCase
	Summary          *appreward.SummaryUseCase
	EvaluateHandler  *appreward.EvaluatePurchaseHandler

	ownsDB bool
}

// New 開啟資料庫並組裝所有元件
func New(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := persistence.Open(persistence.Options{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		SlowThreshold: cfg.Database.SlowThreshold,
	}, logger)
	if err != nil {
		return nil, err
	}

	c, err := NewWithDB(cfg, db, logger)
	if err != nil {
		_ = persistence.Close(db)
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// NewWithDB 以既有連線組裝元件（呼叫端負責關閉連線）
func NewWithDB(cfg config.Config, db *gorm.DB, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rate, err := points.NewPointsRate(cfg.Points.PerCurrencyUnit)
	if err != nil {
		return nil, fmt.Errorf("points rate: %w", err)
	}

	q, err := queue.New(queue.Options{
		Backend:      queue.Backend(cfg.Queue.Backend),
		Buffer:       cfg.Queue.Buffer,
		PollInterval: cfg.Queue.PollInterval,
		Lease:        cfg.Queue.Lease,
	}, db, logger.Named("queue"))
	if err != nil {
		return nil, err
	}

	txManager := persistence.NewGORMTransactionManager(db)

	// Repositories
	userRepo := userstore.NewUserRepository(db)
	balanceRepo := pointsstore.NewBalanceRepository(db)
	txRepo := pointsstore.NewTransactionRepository(db)
	definitionRepo := rewardstore.NewDefinitionRepository(db)
	unlockRepo := rewardstore.NewUnlockRepository(db)
	activity := rewardstore.NewActivityReader(db)
	eventLog := rewardstore.NewEventLog(db)

	hub := broadcast.NewHub(hubBuffer)
	broadcaster := broadcast.Fanout{
		broadcast.NewLogBroadcaster(logger.Named("broadcast")),
		hub,
	}

	ledger := apppoints.NewLedger(balanceRepo, txManager)
	coordinator := appreward.NewUnlockCoordinator(
		definitionRepo, unlockRepo, activity, eventLog, txManager, broadcaster, logger.Named("unlock"),
	)

	return &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Queue:  q,
		Hub:    hub,

		Ledger:           ledger,
		RegisterUser:     appuser.NewRegisterUserUseCase(userRepo, txManager),
		GetUser:          appuser.NewGetUserUseCase(userRepo),
		ProcessPurchase:  apppoints.NewProcessPurchaseUseCase(txRepo, userRepo, ledger, rate, q, txManager, logger.Named("purchase")),
		RedeemPoints:     apppoints.NewRedeemPointsUseCase(txRepo, ledger, txManager, logger.Named("redeem")),
		GetBalance:       apppoints.NewGetPointsBalanceUseCase(ledger),
		ListTransactions: apppoints.NewListTransactionsUseCase(txRepo),
		Definitions:      appreward.NewDefinitionService(definitionRepo, txManager, logger.Named("definitions")),
		Coordinator:      coordinator,
		Progress:         appreward.NewProgressUseCase(definitionRepo, unlockRepo, activity),
		Summary:          appreward.NewSummaryUseCase(ledger, definitionRepo, unlockRepo, txRepo, 0),
		EvaluateHandler:  appreward.NewEvaluatePurchaseHandler(txRepo, userRepo, coordinator, txManager, logger.Named("evaluate")),
	}, nil
}

// RetryPolicy 由設定轉換的 Worker 重試策略
func (c *Container) RetryPolicy() pipeline.RetryPolicy {
	return pipeline.RetryPolicy{
		MaxAttempts: c.Config.Worker.MaxAttempts,
		Backoff:     c.Config.Worker.Backoff,
		Timeout:     c.Config.Worker.Timeout,
	}
}

// Worker 建立消費評估佇列的 Worker；重試耗盡的工作寫入佇列的失敗紀錄
func (c *Container) Worker() *pipeline.Worker {
	return pipeline.NewWorker(c.Queue, c.EvaluateHandler, c.Queue, c.RetryPolicy(), c.Logger.Named("worker"))
}

// WorkerPool 建立 Config.Worker.Concurrency 個並行 Worker
func (c *Container) WorkerPool() *pipeline.Pool {
	return pipeline.NewPool(c.Worker(), c.Config.Worker.Concurrency, c.Logger.Named("pool"))
}

// Close 關閉佇列，並在連線由 New 開啟時關閉資料庫
func (c *Container) Close() error {
	var errs []error
	if err := c.Queue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close queue: %w", err))
	}
	if c.ownsDB {
		if err := persistence.Close(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
