package shared

import "context"

// TransactionContext 事務上下文介面
//
// 可選事務參與模式：
// - tx != nil: 在調用者的事務中執行（事務傳播）
// - tx == nil: 使用 auto-commit 模式（適用於單一讀操作）
//
// Repository 方法約束：
// - 寫操作（Save / Credit / Debit / Append）必須在事務中
// - 讀操作（FindBy* / Exists*）可傳入 nil
//
// 寫操作範例：
//
//	txManager.InTransaction(ctx, func(tx TransactionContext) error {
//	    balance, err := repo.FindByUserIDForUpdate(tx, userID)
//	    ...
//	    return repo.ApplyDebit(tx, userID, amount)
//	})
//
// 這是一個標記介面，Infrastructure Layer 負責實作具體的事務封裝（GORM）。
type TransactionContext interface {
	// 標記介面：僅用於傳遞上下文，不暴露方法
}

// TransactionManager 事務管理器介面
//
// InTransaction 行為約定：
// - fn 返回 nil：提交
// - fn 返回錯誤：回滾，原樣返回該錯誤
// - fn panic：回滾後重新 panic
// - ctx 取消：進行中的 SQL 語句中止，事務回滾
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(tx TransactionContext) error) error
}
