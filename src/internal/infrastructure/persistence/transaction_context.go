package persistence

import (
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext 實作
// ===========================

// gormTransactionContext GORM 事務上下文實作
//
// 封裝 *gorm.DB，Domain Layer 只看得到 shared.TransactionContext 標記介面。
type gormTransactionContext struct {
	db *gorm.DB
}

// NewGORMTransactionContext 創建 GORM 事務上下文
func NewGORMTransactionContext(db *gorm.DB) shared.TransactionContext {
	return &gormTransactionContext{db: db}
}

// GetDB 獲取 GORM DB 連接（僅供 Infrastructure Layer 內部使用）
func (ctx *gormTransactionContext) GetDB() *gorm.DB {
	return ctx.db
}

// dbProvider Infrastructure Layer 內部用來取回 *gorm.DB 的介面
type dbProvider interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// DBFrom 從事務上下文取得 DB
//
// 行為：
//   - tx 為 GORM 事務上下文：使用事務中的 DB
//   - tx == nil 或其他實作：使用 fallback（auto-commit 模式）
func DBFrom(tx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if tx != nil {
		if p, ok := tx.(dbProvider); ok {
			return p.GetDB()
		}
	}
	return fallback
}
