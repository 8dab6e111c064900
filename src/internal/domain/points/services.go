package points

import (
	"github.com/shopspring/decimal"
)

// ===========================
// PointsCalculationService 領域服務
// ===========================

// PointsCalculationService 積分計算領域服務
//
// 協調消費金額（decimal）與 PointsRate，產生 PointsAmount。無狀態，可在多個 goroutine 間共享。
type PointsCalculationService struct{}

// NewPointsCalculationService 建構函數
func NewPointsCalculationService() *PointsCalculationService {
	return &PointsCalculationService{}
}

// CalculateFromAmount 根據消費金額與積分比率計算積分
//
// 業務規則：
// - 積分 = floor(金額 × 比率)
// - 金額必須 > 0，否則返回 ErrInvalidAmount
// - 結果超出 int 範圍返回 ErrPointsOverflow
func (s *PointsCalculationService) CalculateFromAmount(
	amount decimal.Decimal,
	rate PointsRate,
) (PointsAmount, error) {
	if !amount.IsPositive() {
		return PointsAmount{}, ErrInvalidAmount.WithContext(
			"amount", amount.String(),
			"reason", "amount must be greater than zero",
		)
	}

	points := amount.Mul(decimal.NewFromInt(int64(rate.Value()))).Floor()
	if points.GreaterThan(decimal.NewFromInt(maxPointsValue)) {
		return PointsAmount{}, ErrPointsOverflow.WithContext(
			"amount", amount.String(),
			"rate", rate.Value(),
		)
	}

	return NewPointsAmount(int(points.IntPart()))
}

// maxPointsValue 單筆交易可獲得的積分上限（int32 範圍，對所有平台安全）
const maxPointsValue = 1<<31 - 1
