package reward

import "github.com/shopspring/decimal"

// UserActivity 用戶累積活動的唯讀快照
//
// 只統計 status=completed 的 purchase 交易；TotalEarnedPoints 取自積分餘額的 total_earned。
type UserActivity struct {
	PurchaseCount     int
	TotalSpend        decimal.Decimal
	MaxSinglePurchase decimal.Decimal
	TotalEarnedPoints int
}

// metric 取得某條件種類所比較的數值
func (a UserActivity) metric(kind PredicateKind) (decimal.Decimal, bool) {
	switch kind {
	case PredicateTransactionCount, PredicatePurchasesMinimum:
		return decimal.NewFromInt(int64(a.PurchaseCount)), true
	case PredicatePointsMinimum, PredicatePointsEarned:
		return decimal.NewFromInt(int64(a.TotalEarnedPoints)), true
	case PredicateSingleTransactionAmount:
		return a.MaxSinglePurchase, true
	case PredicateTotalSpending, PredicateSpendingMinimum:
		return a.TotalSpend, true
	}
	return decimal.Zero, false
}
