package points

import (
	"strings"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/shopspring/decimal"
)

// TransactionType 交易類型
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeRedemption TransactionType = "redemption"
)

// IsValid 是否為已知的交易類型
func (t TransactionType) IsValid() bool {
	return t == TransactionTypePurchase || t == TransactionTypeRedemption
}

// TransactionStatus 交易狀態
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValid 是否為已知的交易狀態
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPending, TransactionStatusFailed:
		return true
	}
	return false
}

// 交易 metadata 的標準欄位
const (
	MetadataPointsRate  = "points_rate"
	MetadataProcessedAt = "processed_at"
)

// ===========================
// Transaction 實體
// ===========================

// Transaction 積分交易（建立後不可變）
//
// - purchase：amount > 0，pointsEarned = floor(amount × rate)
// - redemption：amount = 0，pointsEarned 為負的兌換積分
type Transaction struct {
	id           TransactionID
	userID       user.UserID
	amount       decimal.Decimal
	pointsEarned int
	txType       TransactionType
	externalRef  string
	status       TransactionStatus
	metadata     map[string]interface{}
	createdAt    time.Time
}

// NewPurchaseTransaction 建立已完成的消費交易
func NewPurchaseTransaction(
	userID user.UserID,
	amount decimal.Decimal,
	pointsEarned PointsAmount,
	externalRef string,
	metadata map[string]interface{},
) (*Transaction, error) {
	if userID.IsEmpty() {
		return nil, ErrInvalidTransaction.WithContext("reason", "user id is empty")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount.WithContext(
			"amount", amount.String(),
			"reason", "purchase amount must be greater than zero",
		)
	}

	return &Transaction{
		id:           NewTransactionID(),
		userID:       userID,
		amount:       amount,
		pointsEarned: pointsEarned.Value(),
		txType:       TransactionTypePurchase,
		externalRef:  strings.TrimSpace(externalRef),
		status:       TransactionStatusCompleted,
		metadata:     copyMetadata(metadata),
		createdAt:    time.Now(),
	}, nil
}

// NewRedemptionTransaction 建立已完成的兌換交易
func NewRedemptionTransaction(
	userID user.UserID,
	redeemed PointsAmount,
	metadata map[string]interface{},
) (*Transaction, error) {
	if userID.IsEmpty() {
		return nil, ErrInvalidTransaction.WithContext("reason", "user id is empty")
	}
	if redeemed.IsZero() {
		return nil, ErrInvalidAmount.WithContext("reason", "redeemed points must be positive")
	}

	return &Transaction{
		id:           NewTransactionID(),
		userID:       userID,
		amount:       decimal.Zero,
		pointsEarned: -redeemed.Value(),
		txType:       TransactionTypeRedemption,
		status:       TransactionStatusCompleted,
		metadata:     copyMetadata(metadata),
		createdAt:    time.Now(),
	}, nil
}

// ReconstructTransaction 從持久化存儲重建交易（僅供 Repository 使用）
func ReconstructTransaction(
	id TransactionID,
	userID user.UserID,
	amount decimal.Decimal,
	pointsEarned int,
	txType TransactionType,
	externalRef string,
	status TransactionStatus,
	metadata map[string]interface{},
	createdAt time.Time,
) (*Transaction, error) {
	if id.IsEmpty() || userID.IsEmpty() {
		return nil, ErrInvalidTransaction.WithContext("reason", "empty id in database")
	}
	if !txType.IsValid() {
		return nil, ErrInvalidTransaction.WithContext("type", string(txType))
	}
	if !status.IsValid() {
		return nil, ErrInvalidTransaction.WithContext("status", string(status))
	}
	if amount.IsNegative() {
		return nil, ErrInvalidTransaction.WithContext("amount", amount.String())
	}

	return &Transaction{
		id:           id,
		userID:       userID,
		amount:       amount,
		pointsEarned: pointsEarned,
		txType:       txType,
		externalRef:  externalRef,
		status:       status,
		metadata:     copyMetadata(metadata),
		createdAt:    createdAt,
	}, nil
}

// ID 交易 ID
func (t *Transaction) ID() TransactionID { return t.id }

// UserID 用戶 ID
func (t *Transaction) UserID() user.UserID { return t.userID }

// Amount 消費金額
func (t *Transaction) Amount() decimal.Decimal { return t.amount }

// PointsEarned 獲得積分（兌換為負數）
func (t *Transaction) PointsEarned() int { return t.pointsEarned }

// Type 交易類型
func (t *Transaction) Type() TransactionType { return t.txType }

// ExternalRef 外部參考編號（可能為空）
func (t *Transaction) ExternalRef() string { return t.externalRef }

// HasExternalRef 是否帶有外部參考編號
func (t *Transaction) HasExternalRef() bool { return t.externalRef != "" }

// Status 交易狀態
func (t *Transaction) Status() TransactionStatus { return t.status }

// CreatedAt 建立時間
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// Metadata 返回 metadata 副本
func (t *Transaction) Metadata() map[string]interface{} {
	return copyMetadata(t.metadata)
}

func copyMetadata(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
