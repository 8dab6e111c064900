package points

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ===========================
// GORM Models
// ===========================

// PointBalanceGORM 積分餘額資料表模型
//
// 資料庫約束：
// - user_id: 主鍵（每個用戶一筆）
// - available / total_earned / total_redeemed: >= 0
// - available = total_earned - total_redeemed（由 Ledger 的單語句更新維持，讀取時驗證）
type PointBalanceGORM struct {
	UserID        string `gorm:"column:user_id;type:varchar(36);primaryKey"`
	Available     int    `gorm:"column:available;not null;default:0;check:available >= 0"`
	TotalEarned   int    `gorm:"column:total_earned;not null;default:0;check:total_earned >= 0"`
	TotalRedeemed int    `gorm:"column:total_redeemed;not null;default:0;check:total_redeemed >= 0"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (PointBalanceGORM) TableName() string {
	return "point_balances"
}

func (m *PointBalanceGORM) toDomain() (*points.PointBalance, error) {
	userID, err := user.UserIDFromString(m.UserID)
	if err != nil {
		return nil, err
	}
	return points.ReconstructPointBalance(
		userID,
		m.Available,
		m.TotalEarned,
		m.TotalRedeemed,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// TransactionGORM 交易資料表模型
//
// 資料庫約束：
// - transaction_id: 主鍵（UUID）
// - external_ref: 唯一索引，NULL 可重複（沒有外部參考編號的交易）
// - (user_id, created_at): 用戶交易歷史查詢
type TransactionGORM struct {
	TransactionID string            `gorm:"column:transaction_id;type:varchar(36);primaryKey"`
	UserID        string            `gorm:"column:user_id;type:varchar(36);not null;index:idx_transactions_user_created,priority:1"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:decimal(14,2);not null"`
	PointsEarned  int               `gorm:"column:points_earned;not null"`
	Type          string            `gorm:"column:type;type:varchar(20);not null;index"`
	ExternalRef   *string           `gorm:"column:external_ref;type:varchar(255);uniqueIndex"`
	Status        string            `gorm:"column:status;type:varchar(20);not null"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null;index:idx_transactions_user_created,priority:2"`
}

// TableName 指定資料表名稱
func (TransactionGORM) TableName() string {
	return "transactions"
}

func (m *TransactionGORM) toDomain() (*points.Transaction, error) {
	id, err := points.TransactionIDFromString(m.TransactionID)
	if err != nil {
		return nil, err
	}
	userID, err := user.UserIDFromString(m.UserID)
	if err != nil {
		return nil, err
	}

	var externalRef string
	if m.ExternalRef != nil {
		externalRef = *m.ExternalRef
	}

	return points.ReconstructTransaction(
		id,
		userID,
		m.Amount,
		m.PointsEarned,
		points.TransactionType(m.Type),
		externalRef,
		points.TransactionStatus(m.Status),
		m.Metadata,
		m.CreatedAt,
	)
}

// transactionToGORM 空的外部參考編號存為 NULL（唯一索引允許多筆 NULL）
func transactionToGORM(t *points.Transaction) *TransactionGORM {
	var externalRef *string
	if t.HasExternalRef() {
		ref := t.ExternalRef()
		externalRef = &ref
	}

	return &TransactionGORM{
		TransactionID: t.ID().String(),
		UserID:        t.UserID().String(),
		Amount:        t.Amount(),
		PointsEarned:  t.PointsEarned(),
		Type:          string(t.Type()),
		ExternalRef:   externalRef,
		Status:        string(t.Status()),
		Metadata:      datatypes.JSONMap(t.Metadata()),
		CreatedAt:     t.CreatedAt(),
	}
}
