package queue

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"go.uber.org/zap"
)

// FailedItem 重試耗盡的工作紀錄
type FailedItem struct {
	DeliveryID string
	Item       pipeline.WorkItem
	Attempts   int
	LastError  string
	FailedAt   time.Time
}

// MemoryQueue 以 buffered channel 實作的行程內佇列
//
// 不持久化：行程結束時未處理的工作會遺失。
// 佇列滿時 Enqueue 立即返回 ErrQueueFull，不阻塞呼叫端（交易已提交，可由 rewards unlock 補做評估）。
// 重新投遞不會發生，Attempts 永遠為 0。
type MemoryQueue struct {
	items    chan pipeline.Delivery
	done     chan struct{}
	seq      atomic.Int64
	inFlight atomic.Int64

	mu       sync.Mutex
	closed   bool
	failures []FailedItem

	logger *zap.Logger
}

// NewMemoryQueue 創建記憶體佇列；buffer < 1 時使用 1024
func NewMemoryQueue(buffer int, logger *zap.Logger) *MemoryQueue {
	if buffer < 1 {
		buffer = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryQueue{
		items:  make(chan pipeline.Delivery, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Enqueue 排入工作；佇列滿時返回 ErrQueueFull
func (q *MemoryQueue) Enqueue(ctx context.Context, item pipeline.WorkItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return pipeline.ErrClosed
	}

	delivery := pipeline.Delivery{
		ID:   strconv.FormatInt(q.seq.Add(1), 10),
		Item: item,
	}
	select {
	case q.items <- delivery:
		return nil
	case <-q.done:
		return pipeline.ErrClosed
	default:
		return pipeline.ErrQueueFull
	}
}

// Consume 阻塞直到取得工作、佇列關閉或 ctx 取消
func (q *MemoryQueue) Consume(ctx context.Context) (pipeline.Delivery, error) {
	select {
	case d := <-q.items:
		d.ClaimedAt = time.Now()
		q.inFlight.Add(1)
		return d, nil
	case <-q.done:
		return pipeline.Delivery{}, pipeline.ErrClosed
	case <-ctx.Done():
		return pipeline.Delivery{}, ctx.Err()
	}
}

// Ack 確認處理完成
func (q *MemoryQueue) Ack(_ context.Context, _ pipeline.Delivery) error {
	q.inFlight.Add(-1)
	return nil
}

// RecordFailure 保存失敗紀錄（行程內）
func (q *MemoryQueue) RecordFailure(_ context.Context, delivery pipeline.Delivery, attempts int, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failures = append(q.failures, FailedItem{
		DeliveryID: delivery.ID,
		Item:       delivery.Item,
		Attempts:   attempts,
		LastError:  errorText(cause),
		FailedAt:   time.Now().UTC(),
	})
	return nil
}

// Failures 返回失敗紀錄的副本
func (q *MemoryQueue) Failures() []FailedItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]FailedItem, len(q.failures))
	copy(out, q.failures)
	return out
}

// Stats 佇列統計
func (q *MemoryQueue) Stats(_ context.Context) (pipeline.Stats, error) {
	q.mu.Lock()
	failed := int64(len(q.failures))
	q.mu.Unlock()
	return pipeline.Stats{
		Pending:  int64(len(q.items)),
		InFlight: q.inFlight.Load(),
		Failed:   failed,
	}, nil
}

// Close 關閉佇列；仍在 channel 中的工作被丟棄
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	if n := len(q.items); n > 0 {
		q.logger.Warn("memory queue closed with pending items", zap.Int("pending", n))
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ Queue = (*MemoryQueue)(nil)
