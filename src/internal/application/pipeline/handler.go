package pipeline

import (
	"context"
	"errors"
)

// Handler 處理單一工作項目
type Handler interface {
	Handle(ctx context.Context, item WorkItem) error
}

// HandlerFunc 函數適配器
type HandlerFunc func(ctx context.Context, item WorkItem) error

// Handle 實作 Handler
func (f HandlerFunc) Handle(ctx context.Context, item WorkItem) error {
	return f(ctx, item)
}

// dropError 標記不應重試的錯誤（引用的交易或使用者不存在）
type dropError struct {
	err error
}

func (e *dropError) Error() string { return "drop: " + e.err.Error() }
func (e *dropError) Unwrap() error { return e.err }

// Drop 包裝錯誤，Worker 收到後記錄日誌並放棄該工作（不重試、不記錄失敗）
func Drop(err error) error {
	if err == nil {
		return nil
	}
	return &dropError{err: err}
}

// IsDrop 是否為 Drop 包裝的錯誤
func IsDrop(err error) bool {
	var d *dropError
	return errors.As(err, &d)
}
