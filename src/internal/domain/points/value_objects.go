package points

import (
	"fmt"
	"math"
)

// ===========================
// PointsAmount 值對象
// ===========================

// PointsAmount 積分數量值對象
// 設計原則：值對象不可變、自我驗證
type PointsAmount struct {
	value int
}

// NewPointsAmount 建構函數（checked 版本）
//
// 建構約束：積分數量必須 >= 0
func NewPointsAmount(value int) (PointsAmount, error) {
	if value < 0 {
		return PointsAmount{}, fmt.Errorf(
			"%w: attempted to create PointsAmount with value %d",
			ErrInvalidAmount,
			value,
		)
	}
	return PointsAmount{value: value}, nil
}

// NewPositivePointsAmount 建構嚴格為正的積分數量（兌換時使用）
func NewPositivePointsAmount(value int) (PointsAmount, error) {
	if value <= 0 {
		return PointsAmount{}, ErrInvalidAmount.WithContext(
			"value", value,
			"reason", "points must be positive",
		)
	}
	return PointsAmount{value: value}, nil
}

// newPointsAmountUnchecked 內部建構函數
//
// 前提條件：調用者必須保證 value >= 0
func newPointsAmountUnchecked(value int) PointsAmount {
	return PointsAmount{value: value}
}

// Value 獲取積分數量
func (p PointsAmount) Value() int {
	return p.value
}

// IsZero 是否為零
func (p PointsAmount) IsZero() bool {
	return p.value == 0
}

// Add 相加（返回新的 PointsAmount）
//
// 兩個非負數相加只可能發生正向溢位，溢位時返回 ErrPointsOverflow。
func (p PointsAmount) Add(other PointsAmount) (PointsAmount, error) {
	if p.value > math.MaxInt-other.value {
		return PointsAmount{}, ErrPointsOverflow.WithContext(
			"current", p.value,
			"adding", other.value,
		)
	}
	return newPointsAmountUnchecked(p.value + other.value), nil
}

// Subtract 相減（返回新的 PointsAmount）
// 業務規則：不能扣除超過當前數量的積分
func (p PointsAmount) Subtract(other PointsAmount) (PointsAmount, error) {
	if p.value < other.value {
		return PointsAmount{}, fmt.Errorf(
			"%w: cannot subtract %d from %d (insufficient balance)",
			ErrInsufficientPoints,
			other.value,
			p.value,
		)
	}
	return newPointsAmountUnchecked(p.value - other.value), nil
}

// Equals 比較兩個 PointsAmount 是否相等
func (p PointsAmount) Equals(other PointsAmount) bool {
	return p.value == other.value
}

// GreaterThan 判斷是否大於另一個 PointsAmount
func (p PointsAmount) GreaterThan(other PointsAmount) bool {
	return p.value > other.value
}

// LessThan 判斷是否小於另一個 PointsAmount
func (p PointsAmount) LessThan(other PointsAmount) bool {
	return p.value < other.value
}

// ===========================
// PointsRate 值對象
// ===========================

// 積分比率範圍
const (
	MinPointsRate     = 1
	MaxPointsRate     = 1000
	DefaultPointsRate = 10
)

// PointsRate 每一貨幣單位換得的積分數
//
// 例：PointsRate(10) 表示消費 1 元得 10 點，100.00 元得 1000 點。
type PointsRate struct {
	value int
}

// NewPointsRate 建構積分比率（1-1000）
func NewPointsRate(value int) (PointsRate, error) {
	if value < MinPointsRate || value > MaxPointsRate {
		return PointsRate{}, ErrInvalidPointsRate.WithContext(
			"value", value,
			"min", MinPointsRate,
			"max", MaxPointsRate,
		)
	}
	return PointsRate{value: value}, nil
}

// DefaultRate 預設比率：每 1 元 10 點
func DefaultRate() PointsRate {
	return PointsRate{value: DefaultPointsRate}
}

// Value 獲取比率數值
func (r PointsRate) Value() int {
	return r.value
}
