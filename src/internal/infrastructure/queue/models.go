package queue

import (
	"time"

	"gorm.io/datatypes"
)

// 工作狀態
const (
	statusPending = "pending"
	statusClaimed = "claimed"
)

// WorkItemGORM 持久佇列中的工作（table: work_items）
//
// 被取出時狀態改為 claimed 並設定 claim_token、lease_until；
// Attempts 為已開始的處理次數，跨重新投遞保留。
// 租約過期仍未 Ack 的工作會被其他 worker 重新取出（at-least-once）。
type WorkItemGORM struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	UserID        string         `gorm:"type:varchar(36);not null;index"`
	TransactionID string         `gorm:"type:varchar(36);not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Status        string         `gorm:"type:varchar(16);not null;index:idx_work_items_claim,priority:1"`
	Attempts      int            `gorm:"not null;default:0"`
	ClaimToken    string         `gorm:"type:varchar(36)"`
	AvailableAt   time.Time      `gorm:"not null;index:idx_work_items_claim,priority:2"`
	ClaimedAt     *time.Time
	LeaseUntil    *time.Time
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName 指定表名
func (WorkItemGORM) TableName() string {
	return "work_items"
}

// FailedWorkItemGORM 重試耗盡的工作（table: failed_work_items）
type FailedWorkItemGORM struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	DeliveryID    string         `gorm:"type:varchar(64);not null"`
	UserID        string         `gorm:"type:varchar(36);not null;index"`
	TransactionID string         `gorm:"type:varchar(36);not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Attempts      int            `gorm:"not null"`
	LastError     string         `gorm:"type:text"`
	FailedAt      time.Time      `gorm:"not null;index"`
}

// TableName 指定表名
func (FailedWorkItemGORM) TableName() string {
	return "failed_work_items"
}

// Models 佇列相關的 GORM 模型（遷移用）
func Models() []interface{} {
	return []interface{}{&WorkItemGORM{}, &FailedWorkItemGORM{}}
}
