package shared

import (
	"context"
	"time"
)

// DomainEvent 領域事件基礎介面
type DomainEvent interface {
	EventID() string       // 事件唯一標識
	EventType() string     // 事件類型（如 "achievement.unlocked"）
	OccurredAt() time.Time // 發生時間
	AggregateID() string   // 聚合根 ID
}

// Broadcaster 即時推播協作者（外部系統）
//
// 約定：
// - 在事務提交之後才調用
// - 失敗只記錄日誌，不影響已提交的狀態（fire-and-forget）
// - 事件 payload 為扁平快照，不持有對定義的引用
type Broadcaster interface {
	Broadcast(ctx context.Context, event DomainEvent) error
}

// BroadcasterFunc 函數適配器
type BroadcasterFunc func(ctx context.Context, event DomainEvent) error

// Broadcast 實作 Broadcaster
func (f BroadcasterFunc) Broadcast(ctx context.Context, event DomainEvent) error {
	return f(ctx, event)
}
