// Package schema 集中管理所有 GORM 模型的遷移
package schema

import (
	"fmt"

	pointsstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/points"
	rewardstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/reward"
	userstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/queue"
	"gorm.io/gorm"
)

// Models 所有需要遷移的模型（依外鍵相依順序）
func Models() []interface{} {
	models := []interface{}{
		&userstore.UserGORM{},
		&pointsstore.PointBalanceGORM{},
		&pointsstore.TransactionGORM{},
		&rewardstore.DefinitionGORM{},
		&rewardstore.UnlockGORM{},
		&rewardstore.EventGORM{},
	}
	return append(models, queue.Models()...)
}

// Migrate 建立或更新所有資料表與索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
