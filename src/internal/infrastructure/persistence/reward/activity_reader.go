package reward

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	pointsstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/points"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActivityReaderImpl 從交易與餘額資料表彙總用戶活動
type ActivityReaderImpl struct {
	db *gorm.DB
}

// NewActivityReader 創建活動讀取器
func NewActivityReader(db *gorm.DB) reward.ActivityReader {
	return &ActivityReaderImpl{db: db}
}

type purchaseAggregate struct {
	PurchaseCount int64
	TotalSpend    decimal.Decimal
	MaxSingle     decimal.Decimal
}

// ActivityFor 彙總已完成的消費交易與累積獲得積分
func (r *ActivityReaderImpl) ActivityFor(tx shared.TransactionContext, userID user.UserID) (reward.UserActivity, error) {
	db := persistence.DBFrom(tx, r.db)

	var agg purchaseAggregate
	err := db.Model(&pointsstore.TransactionGORM{}).
		Select("COUNT(*) AS purchase_count, COALESCE(SUM(amount), 0) AS total_spend, COALESCE(MAX(amount), 0) AS max_single").
		Where("user_id = ? AND type = ? AND status = ?",
			userID.String(),
			string(points.TransactionTypePurchase),
			string(points.TransactionStatusCompleted),
		).
		Scan(&agg).Error
	if err != nil {
		return reward.UserActivity{}, repositoryError("aggregate_purchases", err)
	}

	var earned []int
	err = db.Model(&pointsstore.PointBalanceGORM{}).
		Where("user_id = ?", userID.String()).
		Limit(1).
		Pluck("total_earned", &earned).Error
	if err != nil {
		return reward.UserActivity{}, repositoryError("read_total_earned", err)
	}

	activity := reward.UserActivity{
		PurchaseCount:     int(agg.PurchaseCount),
		TotalSpend:        agg.TotalSpend,
		MaxSinglePurchase: agg.MaxSingle,
	}
	if len(earned) > 0 {
		activity.TotalEarnedPoints = earned[0]
	}
	return activity, nil
}
