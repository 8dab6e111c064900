package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ===========================
// WorkItem 評估工作項目
// ===========================

// WorkItem 消費交易提交後排入佇列的評估工作
//
// 只攜帶 ID，Worker 取出後重新查詢交易與使用者。
type WorkItem struct {
	UserID        user.UserID          `json:"user_id"`
	TransactionID points.TransactionID `json:"transaction_id"`
}

// NewWorkItem 建立工作項目
func NewWorkItem(userID user.UserID, transactionID points.TransactionID) (WorkItem, error) {
	if userID.IsEmpty() || transactionID.IsEmpty() {
		return WorkItem{}, ErrInvalidWorkItem
	}
	return WorkItem{UserID: userID, TransactionID: transactionID}, nil
}

// Encode 序列化為 JSON（佇列 payload）
func (w WorkItem) Encode() ([]byte, error) {
	return json.Marshal(w)
}

// DecodeWorkItem 從 JSON 解析工作項目
func DecodeWorkItem(data []byte) (WorkItem, error) {
	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return WorkItem{}, fmt.Errorf("%w: %v", ErrInvalidWorkItem, err)
	}
	if item.UserID.IsEmpty() || item.TransactionID.IsEmpty() {
		return WorkItem{}, ErrInvalidWorkItem
	}
	return item, nil
}

// ===========================
// Pipeline 介面
// ===========================

// Delivery 一次取出的工作項目
//
// ID 由後端決定（記憶體佇列為序號，資料庫佇列為資料列 ID）。
// Attempts 為先前投遞已用掉的處理次數（首次取出為 0），
// Worker 以此限制跨重新投遞的總嘗試次數。
// ClaimToken 標示本次取出的持有者，租約被他人接手後即失效。
type Delivery struct {
	ID         string
	Item       WorkItem
	Attempts   int
	ClaimToken string
	ClaimedAt  time.Time
}

// Enqueuer 只需要排入工作的一方（交易處理器）
type Enqueuer interface {
	Enqueue(ctx context.Context, item WorkItem) error
}

// Pipeline 非同步評估管線
//
// 語意為 at-least-once：未 Ack 的 Delivery 可能再次被取出，
// 因此處理端必須冪等（UnlockAll 滿足此要求）。
type Pipeline interface {
	Enqueuer

	// Consume 阻塞直到有可處理的工作或 ctx 取消
	Consume(ctx context.Context) (Delivery, error)

	// Ack 確認處理完成（成功、放棄或已記錄失敗）
	Ack(ctx context.Context, delivery Delivery) error
}

// FailureRecorder 記錄重試耗盡的工作
type FailureRecorder interface {
	RecordFailure(ctx context.Context, delivery Delivery, attempts int, cause error) error
}

// AttemptTracker 由可跨程序重新投遞的後端實作
//
// BeginAttempt 在每次呼叫 Handler 前持久化嘗試次數並延長租約，
// 返回含本次在內的累計次數；租約已被他人接手時返回 ErrLeaseLost。
type AttemptTracker interface {
	BeginAttempt(ctx context.Context, delivery Delivery) (int, error)
}

// Stats 佇列統計
type Stats struct {
	Pending  int64
	InFlight int64
	Failed   int64
}

// ===========================
// 錯誤
// ===========================

var (
	// ErrInvalidWorkItem 工作項目缺少 ID 或格式錯誤
	ErrInvalidWorkItem = errors.New("pipeline: invalid work item")

	// ErrClosed 佇列已關閉
	ErrClosed = errors.New("pipeline: closed")

	// ErrQueueFull 佇列已滿，Enqueue 不等待
	ErrQueueFull = errors.New("pipeline: queue full")

	// ErrLeaseLost 租約已到期並被其他 worker 取走
	ErrLeaseLost = errors.New("pipeline: lease lost")

	// ErrAttemptsExhausted 先前投遞已用完嘗試次數
	ErrAttemptsExhausted = errors.New("pipeline: attempts exhausted")
)
