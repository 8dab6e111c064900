package points

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
)

// ===========================
// TransactionID - 交易 ID
// ===========================

// TransactionMarker 是 TransactionID 的標記類型
type TransactionMarker struct{}

// TransactionID 交易的唯一標識符
type TransactionID = shared.EntityID[TransactionMarker]

// NewTransactionID 生成新的交易 ID（UUID v4）
func NewTransactionID() TransactionID {
	return shared.NewEntityID[TransactionMarker]()
}

// TransactionIDFromString 從字串解析交易 ID
//
// 解析失敗返回帶上下文的 ErrInvalidTransactionID。
func TransactionIDFromString(s string) (TransactionID, error) {
	return shared.EntityIDFromString[TransactionMarker](s, ErrInvalidTransactionID)
}
