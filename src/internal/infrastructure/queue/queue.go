// Package queue 提供非同步評估管線的兩種後端：記憶體佇列與資料庫持久佇列
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backend 佇列後端種類
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendDatabase Backend = "database"
)

// Queue 管線後端的完整介面
type Queue interface {
	pipeline.Pipeline
	pipeline.FailureRecorder

	// Stats 佇列統計（待處理 / 處理中 / 失敗）
	Stats(ctx context.Context) (pipeline.Stats, error)

	// Close 停止接受新工作並喚醒等待中的 Consume
	Close() error
}

// Options 佇列設定
type Options struct {
	Backend      Backend
	Buffer       int           // 記憶體佇列容量
	PollInterval time.Duration // 資料庫佇列輪詢間隔
	Lease        time.Duration // 資料庫佇列租約時間
}

// New 依設定建立佇列
//
// 資料庫後端需要已遷移 work_items 與 failed_work_items 表。
func New(opts Options, db *gorm.DB, logger *zap.Logger) (Queue, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryQueue(opts.Buffer, logger), nil
	case BackendDatabase, "":
		if db == nil {
			return nil, fmt.Errorf("queue: database backend requires a database connection")
		}
		return NewDatabaseQueue(db, opts.PollInterval, opts.Lease, logger), nil
	default:
		return nil, fmt.Errorf("queue: unknown backend %q", opts.Backend)
	}
}
