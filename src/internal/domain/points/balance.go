package points

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ===========================
// PointBalance 聚合根
// ===========================

// PointBalance 用戶積分餘額聚合根（每個用戶一筆）
//
// 業務不變條件：
// - available >= 0
// - totalEarned、totalRedeemed >= 0 且只增不減
// - available == totalEarned - totalRedeemed
//
// 餘額在第一次入帳時惰性建立，只由 Ledger 操作修改，永不刪除。
type PointBalance struct {
	userID user.UserID

	available     PointsAmount
	totalEarned   PointsAmount
	totalRedeemed PointsAmount

	createdAt time.Time
	updatedAt time.Time
}

// NewPointBalance 建立全零餘額
//
// 使用場景：
// - 用戶尚無任何積分紀錄時的查詢結果
// - 第一次入帳前的初始狀態
func NewPointBalance(userID user.UserID) *PointBalance {
	now := time.Now()
	return &PointBalance{
		userID:        userID,
		available:     newPointsAmountUnchecked(0),
		totalEarned:   newPointsAmountUnchecked(0),
		totalRedeemed: newPointsAmountUnchecked(0),
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructPointBalance 從持久化存儲重建聚合根
//
// 即使從資料庫讀取也要驗證不變條件，違反時返回 ErrBalanceCorrupted。
func ReconstructPointBalance(
	userID user.UserID,
	available int,
	totalEarned int,
	totalRedeemed int,
	createdAt time.Time,
	updatedAt time.Time,
) (*PointBalance, error) {
	if available < 0 || totalEarned < 0 || totalRedeemed < 0 {
		return nil, ErrBalanceCorrupted.WithContext(
			"user_id", userID.String(),
			"available", available,
			"total_earned", totalEarned,
			"total_redeemed", totalRedeemed,
			"reason", "negative column",
		)
	}

	if totalEarned-totalRedeemed != available {
		return nil, ErrBalanceCorrupted.WithContext(
			"user_id", userID.String(),
			"available", available,
			"total_earned", totalEarned,
			"total_redeemed", totalRedeemed,
			"reason", "available != total_earned - total_redeemed",
		)
	}

	return &PointBalance{
		userID:        userID,
		available:     newPointsAmountUnchecked(available),
		totalEarned:   newPointsAmountUnchecked(totalEarned),
		totalRedeemed: newPointsAmountUnchecked(totalRedeemed),
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

// ===========================
// 查詢方法
// ===========================

// UserID 獲取用戶 ID
func (b *PointBalance) UserID() user.UserID {
	return b.userID
}

// Available 可用積分
func (b *PointBalance) Available() PointsAmount {
	return b.available
}

// TotalEarned 累積獲得積分
func (b *PointBalance) TotalEarned() PointsAmount {
	return b.totalEarned
}

// TotalRedeemed 累積兌換積分
func (b *PointBalance) TotalRedeemed() PointsAmount {
	return b.totalRedeemed
}

// CreatedAt 獲取創建時間
func (b *PointBalance) CreatedAt() time.Time {
	return b.createdAt
}

// UpdatedAt 獲取最後更新時間
func (b *PointBalance) UpdatedAt() time.Time {
	return b.updatedAt
}

// CanDebit 可用積分是否足以扣除 amount
func (b *PointBalance) CanDebit(amount PointsAmount) bool {
	return !amount.GreaterThan(b.available)
}

// ===========================
// 命令方法
// ===========================

// Credit 入帳：available 與 totalEarned 同步增加
func (b *PointBalance) Credit(amount PointsAmount) error {
	available, err := b.available.Add(amount)
	if err != nil {
		return err
	}
	earned, err := b.totalEarned.Add(amount)
	if err != nil {
		return err
	}

	b.available = available
	b.totalEarned = earned
	b.updatedAt = time.Now()
	return nil
}

// Debit 扣帳：available 減少、totalRedeemed 增加
//
// 餘額不足時返回 ErrInsufficientPoints，狀態不變。
func (b *PointBalance) Debit(amount PointsAmount) error {
	if !b.CanDebit(amount) {
		return ErrInsufficientPoints.WithContext(
			"user_id", b.userID.String(),
			"requested", amount.Value(),
			"available", b.available.Value(),
		)
	}

	redeemed, err := b.totalRedeemed.Add(amount)
	if err != nil {
		return err
	}
	available, _ := b.available.Subtract(amount)

	b.available = available
	b.totalRedeemed = redeemed
	b.updatedAt = time.Now()
	return nil
}
