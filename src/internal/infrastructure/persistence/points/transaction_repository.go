package points

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// TransactionRepositoryImpl 交易倉儲實現（GORM）
type TransactionRepositoryImpl struct {
	db *gorm.DB
}

// NewTransactionRepository 創建交易倉儲
func NewTransactionRepository(db *gorm.DB) points.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// Save 保存新交易（交易不可變，只新增）
func (r *TransactionRepositoryImpl) Save(tx shared.TransactionContext, t *points.Transaction) error {
	db := persistence.DBFrom(tx, r.db)

	result := db.Create(transactionToGORM(t))
	if result.Error != nil {
		if persistence.IsUniqueConstraintError(result.Error) {
			return points.ErrDuplicateExternalRef.WithContext(
				"external_ref", t.ExternalRef(),
			)
		}
		return points.ErrRepositoryError.WithContext(
			"operation", "save_transaction",
			"cause", result.Error.Error(),
		)
	}
	return nil
}

// FindByID 根據 ID 查詢交易
func (r *TransactionRepositoryImpl) FindByID(tx shared.TransactionContext, id points.TransactionID) (*points.Transaction, error) {
	return r.findOne(persistence.DBFrom(tx, r.db), "transaction_id = ?", id.String())
}

// FindByExternalRef 根據外部參考編號查詢交易
func (r *TransactionRepositoryImpl) FindByExternalRef(tx shared.TransactionContext, externalRef string) (*points.Transaction, error) {
	return r.findOne(persistence.DBFrom(tx, r.db), "external_ref = ?", externalRef)
}

// ListByUser 依建立時間倒序列出用戶最近的交易
func (r *TransactionRepositoryImpl) ListByUser(tx shared.TransactionContext, userID user.UserID, limit int) ([]*points.Transaction, error) {
	db := persistence.DBFrom(tx, r.db)
	if limit <= 0 {
		limit = 20
	}

	var models []TransactionGORM
	result := db.Where("user_id = ?", userID.String()).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, points.ErrRepositoryError.WithContext(
			"operation", "list_transactions",
			"cause", result.Error.Error(),
		)
	}

	out := make([]*points.Transaction, 0, len(models))
	for i := range models {
		t, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TransactionRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*points.Transaction, error) {
	var model TransactionGORM
	result := db.Where(query, arg).First(&model)
	if result.Error != nil {
		if persistence.IsNotFound(result.Error) {
			return nil, points.ErrTransactionNotFound.WithContext("lookup", arg)
		}
		return nil, points.ErrRepositoryError.WithContext(
			"operation", "find_transaction",
			"cause", result.Error.Error(),
		)
	}
	return model.toDomain()
}
