package points

import (
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================
// BalanceRepositoryImpl
// ===========================

// BalanceRepositoryImpl 積分餘額倉儲實現（GORM）
//
// 所有寫入都是單一 SQL 語句：
// - 入帳：INSERT ... ON CONFLICT (user_id) DO UPDATE SET available = available + ?
// - 扣帳：UPDATE ... WHERE user_id = ? AND available >= ?
// 搭配 FindByUserIDForUpdate 的列鎖（SQLite 由資料庫層寫入鎖序列化）。
type BalanceRepositoryImpl struct {
	db *gorm.DB
}

// NewBalanceRepository 創建積分餘額倉儲
func NewBalanceRepository(db *gorm.DB) points.BalanceRepository {
	return &BalanceRepositoryImpl{db: db}
}

// FindByUserID 查詢餘額快照
func (r *BalanceRepositoryImpl) FindByUserID(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error) {
	return r.find(persistence.DBFrom(tx, r.db), userID)
}

// FindByUserIDForUpdate 以 SELECT ... FOR UPDATE 讀取並鎖定餘額列
func (r *BalanceRepositoryImpl) FindByUserIDForUpdate(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error) {
	db := persistence.DBFrom(tx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.find(db, userID)
}

// ApplyCredit 不存在時建立餘額列，再原子增加 available 與 total_earned
func (r *BalanceRepositoryImpl) ApplyCredit(tx shared.TransactionContext, userID user.UserID, amount points.PointsAmount) (*points.PointBalance, error) {
	db := persistence.DBFrom(tx, r.db)
	now := time.Now().UTC()

	model := &PointBalanceGORM{
		UserID:        userID.String(),
		Available:     amount.Value(),
		TotalEarned:   amount.Value(),
		TotalRedeemed: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"available":    gorm.Expr("point_balances.available + ?", amount.Value()),
			"total_earned": gorm.Expr("point_balances.total_earned + ?", amount.Value()),
			"updated_at":   now,
		}),
	}).Create(model)
	if result.Error != nil {
		return nil, points.ErrRepositoryError.WithContext(
			"operation", "apply_credit",
			"user_id", userID.String(),
			"cause", result.Error.Error(),
		)
	}

	return r.find(db, userID)
}

// ApplyDebit 條件式扣帳
//
// WHERE available >= amount 不成立時不修改任何資料，返回 ErrInsufficientPoints。
func (r *BalanceRepositoryImpl) ApplyDebit(tx shared.TransactionContext, userID user.UserID, amount points.PointsAmount) (*points.PointBalance, error) {
	db := persistence.DBFrom(tx, r.db)

	result := db.Model(&PointBalanceGORM{}).
		Where("user_id = ? AND available >= ?", userID.String(), amount.Value()).
		Updates(map[string]interface{}{
			"available":      gorm.Expr("available - ?", amount.Value()),
			"total_redeemed": gorm.Expr("total_redeemed + ?", amount.Value()),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, points.ErrRepositoryError.WithContext(
			"operation", "apply_debit",
			"user_id", userID.String(),
			"cause", result.Error.Error(),
		)
	}
	if result.RowsAffected == 0 {
		return nil, points.ErrInsufficientPoints.WithContext(
			"user_id", userID.String(),
			"requested", amount.Value(),
		)
	}

	return r.find(db, userID)
}

func (r *BalanceRepositoryImpl) find(db *gorm.DB, userID user.UserID) (*points.PointBalance, error) {
	var model PointBalanceGORM
	result := db.Where("user_id = ?", userID.String()).First(&model)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, points.ErrBalanceNotFound.WithContext("user_id", userID.String())
		}
		return nil, points.ErrRepositoryError.WithContext(
			"operation", "find_balance",
			"user_id", userID.String(),
			"cause", result.Error.Error(),
		)
	}
	return model.toDomain()
}
