package persistence

import (
	"context"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
)

// GORMTransactionManager 以 GORM 實作 shared.TransactionManager
type GORMTransactionManager struct {
	db *gorm.DB
}

// NewGORMTransactionManager 創建事務管理器
func NewGORMTransactionManager(db *gorm.DB) *GORMTransactionManager {
	return &GORMTransactionManager{db: db}
}

// InTransaction 在單一資料庫事務中執行 fn
//
// - fn 返回 nil：提交
// - fn 返回錯誤：回滾並原樣返回
// - fn panic：回滾後重新 panic（由 gorm.DB.Transaction 處理）
//
// ctx 綁定到事務中的所有語句，取消時語句中止並回滾。
func (m *GORMTransactionManager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMTransactionContext(tx))
	})
}

var _ shared.TransactionManager = (*GORMTransactionManager)(nil)
