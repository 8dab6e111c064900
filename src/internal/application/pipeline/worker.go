package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/jackyeh168/loyalty_rewards/application/pipeline"

// RetryPolicy Worker 重試策略
type RetryPolicy struct {
	MaxAttempts int           // 總嘗試次數（含第一次）
	Backoff     time.Duration // 固定間隔
	Timeout     time.Duration // 每次嘗試的時間上限
}

// DefaultRetryPolicy 3 次、間隔 30 秒、每次 120 秒
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     120 * time.Second,
	}
}

// ===========================
// Worker
// ===========================

// Worker 從 Pipeline 取出工作並以固定間隔重試處理
//
// 結果分類：
// - 成功：Ack
// - Drop：記錄日誌後 Ack（不重試）
// - 重試耗盡：寫入失敗紀錄、記錄 error 日誌後 Ack
// - 租約遺失：不 Ack，由接手的 worker 繼續
//
// 嘗試次數跨重新投遞累計：Delivery.Attempts 為先前已用掉的次數，
// 後端實作 AttemptTracker 時每次嘗試前先持久化計數。
type Worker struct {
	pipeline Pipeline
	handler  Handler
	failures FailureRecorder
	policy   RetryPolicy
	logger   *zap.Logger
}

// NewWorker 創建 Worker；failures 可為 nil（只記錄日誌）
func NewWorker(p Pipeline, handler Handler, failures FailureRecorder, policy RetryPolicy, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Worker{
		pipeline: p,
		handler:  handler,
		failures: failures,
		policy:   policy,
		logger:   logger,
	}
}

// Run 持續取出並處理工作，直到 ctx 取消或 Pipeline 關閉
func (w *Worker) Run(ctx context.Context) error {
	for {
		delivery, err := w.pipeline.Consume(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to consume work item: %w", err)
		}

		w.Process(ctx, delivery)
	}
}

// Process 處理單一 Delivery（含重試），處理完畢後 Ack
func (w *Worker) Process(ctx context.Context, delivery Delivery) {
	logger := w.logger.With(
		zap.String("delivery_id", delivery.ID),
		zap.String("user_id", delivery.Item.UserID.String()),
		zap.String("transaction_id", delivery.Item.TransactionID.String()),
	)

	attempts, err := w.handleWithRetry(ctx, delivery, logger)
	switch {
	case err == nil:
		logger.Debug("work item processed", zap.Int("attempt", attempts))
	case IsDrop(err):
		logger.Warn("work item dropped", zap.Error(err))
	case errors.Is(err, ErrLeaseLost):
		logger.Warn("work item lease lost, leaving it to the new owner", zap.Int("attempt", attempts))
		return
	case ctx.Err() != nil:
		// 關閉中：不 Ack，交由後端重新投遞
		logger.Info("work item interrupted by shutdown", zap.Int("attempt", attempts))
		return
	default:
		logger.Error("work item failed after retries",
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		if w.failures != nil {
			recErr := w.failures.RecordFailure(ctx, delivery, attempts, err)
			if errors.Is(recErr, ErrLeaseLost) {
				logger.Warn("work item lease lost before failure was recorded")
				return
			}
			if recErr != nil {
				logger.Error("failed to record work item failure", zap.Error(recErr))
			}
		}
	}

	if ackErr := w.pipeline.Ack(ctx, delivery); ackErr != nil {
		logger.Warn("failed to ack work item", zap.Error(ackErr))
	}
}

func (w *Worker) handleWithRetry(ctx context.Context, delivery Delivery, logger *zap.Logger) (int, error) {
	attempts := delivery.Attempts
	if attempts >= w.policy.MaxAttempts {
		return w.policy.MaxAttempts, ErrAttemptsExhausted
	}
	tracker, _ := w.pipeline.(AttemptTracker)

	operation := func() (struct{}, error) {
		n, err := w.beginAttempt(ctx, tracker, delivery, attempts)
		attempts = n
		if err != nil {
			if errors.Is(err, ErrLeaseLost) || errors.Is(err, ErrAttemptsExhausted) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		err = w.attempt(ctx, delivery, attempts)
		if IsDrop(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(w.policy.Backoff)),
		backoff.WithMaxTries(uint(w.policy.MaxAttempts-delivery.Attempts)),
		backoff.WithMaxElapsedTime(w.maxElapsed()),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("work item attempt failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("retry_in", next),
				zap.Error(err),
			)
		}),
	)
	return attempts, err
}

// beginAttempt 取得本次嘗試的序號；used 為目前已知的累計次數
func (w *Worker) beginAttempt(ctx context.Context, tracker AttemptTracker, delivery Delivery, used int) (int, error) {
	if tracker == nil {
		return used + 1, nil
	}
	n, err := tracker.BeginAttempt(ctx, delivery)
	if err != nil {
		return used, err
	}
	if n > w.policy.MaxAttempts {
		return w.policy.MaxAttempts, ErrAttemptsExhausted
	}
	return n, nil
}

// attempt 單次嘗試，受 Timeout 限制
func (w *Worker) attempt(ctx context.Context, delivery Delivery, attempt int) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ProcessWorkItem", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", delivery.Item.UserID.String()),
		attribute.String("transaction_id", delivery.Item.TransactionID.String()),
		attribute.Int("attempt", attempt),
	)

	if w.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.policy.Timeout)
		defer cancel()
	}

	err := w.handler.Handle(ctx, delivery.Item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// maxElapsed 確保總時間上限不會在次數用完前截斷重試
func (w *Worker) maxElapsed() time.Duration {
	n := time.Duration(w.policy.MaxAttempts)
	return n*(w.policy.Timeout+w.policy.Backoff) + time.Minute
}

// ===========================
// Pool
// ===========================

// Pool 以固定數量的 goroutine 執行同一個 Worker
type Pool struct {
	worker      *Worker
	concurrency int
	logger      *zap.Logger
}

// NewPool 創建 Pool；concurrency < 1 時為 1
func NewPool(worker *Worker, concurrency int, logger *zap.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{worker: worker, concurrency: concurrency, logger: logger}
}

// Run 啟動所有 worker 並等待結束；返回第一個非關閉錯誤
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	p.logger.Info("worker pool started", zap.Int("concurrency", p.concurrency))
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := p.worker.Run(ctx); err != nil {
				p.logger.Error("worker stopped", zap.Int("worker", id), zap.Error(err))
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i)
	}
	wg.Wait()
	p.logger.Info("worker pool stopped")
	return firstErr
}
