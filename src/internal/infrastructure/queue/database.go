package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNoWork 目前沒有可取出的工作
var errNoWork = errors.New("queue: no work available")

// DatabaseQueue 以 work_items 表實作的持久佇列
//
// 取出流程（單一事務）：
//  1. SELECT ... FOR UPDATE SKIP LOCKED 找出最舊的可取出工作
//     （pending，或 claimed 但租約已過期）
//  2. 條件式 UPDATE 設為 claimed、寫入新的 claim_token、設定租約
//
// SQLite 不支援列鎖，由資料庫層寫入鎖序列化；條件式 UPDATE 保證同一工作只被一方取得。
// attempts 只在 BeginAttempt 時累加，因此租約過期後重新取出的工作保留先前用掉的次數。
// BeginAttempt、Ack、RecordFailure 都以 claim_token 比對持有者，租約被接手後舊持有者的操作無效。
// 同一行程內的 Enqueue 會喚醒等待中的 Consume，不必等待輪詢。
type DatabaseQueue struct {
	db           *gorm.DB
	pollInterval time.Duration
	lease        time.Duration
	logger       *zap.Logger

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewDatabaseQueue 創建持久佇列；pollInterval 預設 500ms，lease 預設 10 分鐘
func NewDatabaseQueue(db *gorm.DB, pollInterval, lease time.Duration, logger *zap.Logger) *DatabaseQueue {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if lease <= 0 {
		lease = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatabaseQueue{
		db:           db,
		pollInterval: pollInterval,
		lease:        lease,
		logger:       logger,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Enqueue 寫入一筆 pending 工作
func (q *DatabaseQueue) Enqueue(ctx context.Context, item pipeline.WorkItem) error {
	select {
	case <-q.done:
		return pipeline.ErrClosed
	default:
	}

	payload, err := item.Encode()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	model := &WorkItemGORM{
		UserID:        item.UserID.String(),
		TransactionID: item.TransactionID.String(),
		Payload:       payload,
		Status:        statusPending,
		AvailableAt:   now,
		CreatedAt:     now,
	}
	if err := q.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("queue: failed to enqueue work item: %w", err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Consume 輪詢直到取得工作、佇列關閉或 ctx 取消
func (q *DatabaseQueue) Consume(ctx context.Context) (pipeline.Delivery, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		delivery, err := q.claim(ctx)
		if err == nil {
			return delivery, nil
		}
		if !errors.Is(err, errNoWork) {
			if ctx.Err() != nil {
				return pipeline.Delivery{}, ctx.Err()
			}
			q.logger.Warn("queue claim failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return pipeline.Delivery{}, ctx.Err()
		case <-q.done:
			return pipeline.Delivery{}, pipeline.ErrClosed
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

func (q *DatabaseQueue) claim(ctx context.Context) (pipeline.Delivery, error) {
	var claimed WorkItemGORM
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var candidate WorkItemGORM
		err := claimable(tx, now).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Order("id ASC").
			Take(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNoWork
		}
		if err != nil {
			return err
		}

		leaseUntil := now.Add(q.lease)
		token := uuid.NewString()
		result := claimable(tx.Model(&WorkItemGORM{}), now).
			Where("id = ?", candidate.ID).
			Updates(map[string]interface{}{
				"status":      statusClaimed,
				"claim_token": token,
				"claimed_at":  now,
				"lease_until": leaseUntil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errNoWork
		}

		candidate.Status = statusClaimed
		candidate.ClaimToken = token
		candidate.ClaimedAt = &now
		candidate.LeaseUntil = &leaseUntil
		claimed = candidate
		return nil
	})
	if err != nil {
		return pipeline.Delivery{}, err
	}

	item, err := pipeline.DecodeWorkItem(claimed.Payload)
	if err != nil {
		// 無法解析的工作直接移除，避免反覆取出
		q.logger.Error("discarding malformed work item",
			zap.Uint64("work_item_id", claimed.ID),
			zap.Error(err),
		)
		if delErr := q.db.WithContext(ctx).Delete(&WorkItemGORM{}, claimed.ID).Error; delErr != nil {
			// 刪除失敗時該列會在租約過期後再次被取出並再次嘗試刪除
			q.logger.Error("failed to discard malformed work item",
				zap.Uint64("work_item_id", claimed.ID),
				zap.Duration("retry_after", q.lease),
				zap.Error(delErr),
			)
		}
		return pipeline.Delivery{}, errNoWork
	}

	return pipeline.Delivery{
		ID:         strconv.FormatUint(claimed.ID, 10),
		Item:       item,
		Attempts:   claimed.Attempts,
		ClaimToken: claimed.ClaimToken,
		ClaimedAt:  *claimed.ClaimedAt,
	}, nil
}

// claimable pending，或 claimed 但租約已過期
func claimable(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where(
		"(status = ? AND available_at <= ?) OR (status = ? AND lease_until < ?)",
		statusPending, now, statusClaimed, now,
	)
}

func parseDeliveryID(delivery pipeline.Delivery) (uint64, error) {
	id, err := strconv.ParseUint(delivery.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("queue: invalid delivery id %q: %w", delivery.ID, err)
	}
	return id, nil
}

// owned 限定為此 Delivery 持有的工作列
func owned(db *gorm.DB, delivery pipeline.Delivery) (*gorm.DB, error) {
	id, err := parseDeliveryID(delivery)
	if err != nil {
		return nil, err
	}
	db = db.Where("id = ?", id)
	if delivery.ClaimToken != "" {
		db = db.Where("status = ? AND claim_token = ?", statusClaimed, delivery.ClaimToken)
	}
	return db, nil
}

// BeginAttempt 累加 attempts 並延長租約，返回含本次在內的累計次數
func (q *DatabaseQueue) BeginAttempt(ctx context.Context, delivery pipeline.Delivery) (int, error) {
	id, err := parseDeliveryID(delivery)
	if err != nil {
		return 0, err
	}
	var attempts int
	err = q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped, err := owned(tx.Model(&WorkItemGORM{}), delivery)
		if err != nil {
			return err
		}
		result := scoped.Updates(map[string]interface{}{
			"attempts":    gorm.Expr("attempts + 1"),
			"lease_until": time.Now().UTC().Add(q.lease),
		})
		if result.Error != nil {
			return fmt.Errorf("queue: failed to begin attempt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return pipeline.ErrLeaseLost
		}

		var row WorkItemGORM
		if err := tx.Select("attempts").Where("id = ?", id).Take(&row).Error; err != nil {
			return fmt.Errorf("queue: failed to read attempts: %w", err)
		}
		attempts = row.Attempts
		return nil
	})
	return attempts, err
}

// Ack 刪除已處理的工作；工作已被接手或已結算時不做任何事
func (q *DatabaseQueue) Ack(ctx context.Context, delivery pipeline.Delivery) error {
	scoped, err := owned(q.db.WithContext(ctx), delivery)
	if err != nil {
		return err
	}
	result := scoped.Delete(&WorkItemGORM{})
	if result.Error != nil {
		return fmt.Errorf("queue: failed to ack work item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		q.logger.Debug("work item already settled", zap.String("delivery_id", delivery.ID))
	}
	return nil
}

// RecordFailure 在同一事務中移除工作並寫入 failed_work_items
//
// 工作已被其他 worker 接手時返回 ErrLeaseLost 且不寫入紀錄，
// 因此每個工作最多只有一筆失敗紀錄。
func (q *DatabaseQueue) RecordFailure(ctx context.Context, delivery pipeline.Delivery, attempts int, cause error) error {
	payload, err := delivery.Item.Encode()
	if err != nil {
		return err
	}
	model := &FailedWorkItemGORM{
		DeliveryID:    delivery.ID,
		UserID:        delivery.Item.UserID.String(),
		TransactionID: delivery.Item.TransactionID.String(),
		Payload:       payload,
		Attempts:      attempts,
		LastError:     errorText(cause),
		FailedAt:      time.Now().UTC(),
	}
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped, err := owned(tx, delivery)
		if err != nil {
			return err
		}
		result := scoped.Delete(&WorkItemGORM{})
		if result.Error != nil {
			return fmt.Errorf("queue: failed to settle work item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return pipeline.ErrLeaseLost
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("queue: failed to record failure: %w", err)
		}
		return nil
	})
}

// Stats 佇列統計
func (q *DatabaseQueue) Stats(ctx context.Context) (pipeline.Stats, error) {
	db := q.db.WithContext(ctx)
	now := time.Now().UTC()
	var stats pipeline.Stats

	if err := claimable(db.Model(&WorkItemGORM{}), now).Count(&stats.Pending).Error; err != nil {
		return stats, fmt.Errorf("queue: failed to count pending: %w", err)
	}
	if err := db.Model(&WorkItemGORM{}).
		Where("status = ? AND lease_until >= ?", statusClaimed, now).
		Count(&stats.InFlight).Error; err != nil {
		return stats, fmt.Errorf("queue: failed to count in-flight: %w", err)
	}
	if err := db.Model(&FailedWorkItemGORM{}).Count(&stats.Failed).Error; err != nil {
		return stats, fmt.Errorf("queue: failed to count failures: %w", err)
	}
	return stats, nil
}

// Close 喚醒所有等待中的 Consume；已寫入的工作保留在表中
func (q *DatabaseQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

var (
	_ Queue                   = (*DatabaseQueue)(nil)
	_ pipeline.AttemptTracker = (*DatabaseQueue)(nil)
)
