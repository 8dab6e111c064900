// Package persistencetest 提供 Repository 整合測試用的資料庫輔助函數
package persistencetest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB 創建測試用的 SQLite in-memory 資料庫並遷移指定模型
//
// 只開一條連線：":memory:" 每條連線各自擁有一個資料庫，
// 多連線會看到不同的資料。
// 注意：在 InTransaction 內部不可再以 nil tx 呼叫 Repository，否則會等待唯一的連線而死鎖。
func NewTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...), "failed to migrate test database")
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
