// Package broadcast 將已提交的解鎖事件推送給即時訂閱者
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"go.uber.org/zap"
)

// Message 推播訊息（扁平快照）
type Message struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// payloader 事件自行提供 payload（解鎖事件實作此介面）
type payloader interface {
	Payload() ([]byte, error)
}

// NewMessage 由領域事件建立推播訊息
func NewMessage(event shared.DomainEvent) (Message, error) {
	msg := Message{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		UserID:     event.AggregateID(),
		OccurredAt: event.OccurredAt().UTC(),
		Payload:    json.RawMessage(`{}`),
	}
	if p, ok := event.(payloader); ok {
		data, err := p.Payload()
		if err != nil {
			return Message{}, fmt.Errorf("broadcast: encode %s payload: %w", event.EventType(), err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// ===========================
// LogBroadcaster
// ===========================

// LogBroadcaster 以結構化日誌輸出事件（沒有即時通道時的預設實作）
type LogBroadcaster struct {
	logger *zap.Logger
}

// NewLogBroadcaster 創建 LogBroadcaster
func NewLogBroadcaster(logger *zap.Logger) *LogBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogBroadcaster{logger: logger}
}

// Broadcast 實作 shared.Broadcaster
func (b *LogBroadcaster) Broadcast(_ context.Context, event shared.DomainEvent) error {
	msg, err := NewMessage(event)
	if err != nil {
		return err
	}
	b.logger.Info("reward event",
		zap.String("event_id", msg.EventID),
		zap.String("event_type", msg.EventType),
		zap.String("user_id", msg.UserID),
		zap.Time("occurred_at", msg.OccurredAt),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

// ===========================
// Hub
// ===========================

// ErrSubscriberSlow 訂閱者緩衝已滿，訊息被丟棄
var ErrSubscriberSlow = errors.New("broadcast: subscriber buffer full")

type subscriber struct {
	userID string // 空字串表示訂閱全部用戶
	ch     chan Message
}

// Hub 行程內的推播中心
//
// 每個訂閱者有獨立的緩衝 channel；Broadcast 從不阻塞，
// 緩衝已滿的訂閱者會漏掉該訊息並返回 ErrSubscriberSlow。
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	buffer int
}

// NewHub 創建 Hub；buffer < 1 時為 16
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{subs: make(map[int]*subscriber), buffer: buffer}
}

// Subscribe 訂閱指定用戶（空字串為全部）的事件；cancel 後 channel 關閉
func (h *Hub) Subscribe(userID string) (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	sub := &subscriber{userID: userID, ch: make(chan Message, h.buffer)}
	h.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Broadcast 實作 shared.Broadcaster
func (h *Hub) Broadcast(_ context.Context, event shared.DomainEvent) error {
	msg, err := NewMessage(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, sub := range h.subs {
		if sub.userID != "" && sub.userID != msg.UserID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d subscriber(s) missed %s", ErrSubscriberSlow, dropped, msg.EventID)
	}
	return nil
}

// Subscribers 目前訂閱者數量
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ===========================
// Fanout
// ===========================

// Fanout 依序推播給多個 Broadcaster；任一失敗不影響其他，錯誤合併返回
type Fanout []shared.Broadcaster

// Broadcast 實作 shared.Broadcaster
func (f Fanout) Broadcast(ctx context.Context, event shared.DomainEvent) error {
	var errs []error
	for _, b := range f {
		if err := b.Broadcast(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ shared.Broadcaster = (*LogBroadcaster)(nil)
	_ shared.Broadcaster = (*Hub)(nil)
	_ shared.Broadcaster = Fanout(nil)
)
