package points_test

import (
	"math"
	"testing"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== PointsAmount 測試 =====

func TestNewPointsAmount_ValidValue_ReturnsPointsAmount(t *testing.T) {
	// Act
	amount, err := points.NewPointsAmount(100)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 100, amount.Value())
}

func TestNewPointsAmount_NegativeValue_ReturnsInvalidAmount(t *testing.T) {
	// Act
	amount, err := points.NewPointsAmount(-10)

	// Assert
	assert.ErrorIs(t, err, points.ErrInvalidAmount)
	assert.Equal(t, 0, amount.Value())
	assert.Contains(t, err.Error(), "value -10")
}

func TestNewPositivePointsAmount_RejectsZeroAndNegative(t *testing.T) {
	for _, v := range []int{0, -1, -500} {
		_, err := points.NewPositivePointsAmount(v)
		assert.ErrorIs(t, err, points.ErrInvalidAmount, "value %d", v)
	}

	amount, err := points.NewPositivePointsAmount(1)
	require.NoError(t, err)
	assert.Equal(t, 1, amount.Value())
}

func TestPointsAmount_Add(t *testing.T) {
	// Arrange
	a, _ := points.NewPointsAmount(100)
	b, _ := points.NewPointsAmount(50)

	// Act
	sum, err := a.Add(b)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 150, sum.Value())
	assert.Equal(t, 100, a.Value(), "原值不應被修改")
}

func TestPointsAmount_Add_Overflow_ReturnsError(t *testing.T) {
	// Arrange
	a, _ := points.NewPointsAmount(math.MaxInt)
	b, _ := points.NewPointsAmount(1)

	// Act
	_, err := a.Add(b)

	// Assert
	assert.ErrorIs(t, err, points.ErrPointsOverflow)
}

func TestPointsAmount_Subtract(t *testing.T) {
	a, _ := points.NewPointsAmount(100)
	b, _ := points.NewPointsAmount(30)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, 70, diff.Value())

	_, err = b.Subtract(a)
	assert.ErrorIs(t, err, points.ErrInsufficientPoints)
}

func TestPointsAmount_Comparisons(t *testing.T) {
	small, _ := points.NewPointsAmount(10)
	large, _ := points.NewPointsAmount(20)
	same, _ := points.NewPointsAmount(10)

	assert.True(t, large.GreaterThan(small))
	assert.True(t, small.LessThan(large))
	assert.True(t, small.Equals(same))
	assert.False(t, small.IsZero())
}

// ===== PointsRate 測試 =====

func TestNewPointsRate_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"下限", 1, false},
		{"預設值", 10, false},
		{"上限", 1000, false},
		{"零", 0, true},
		{"負數", -5, true},
		{"超過上限", 1001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := points.NewPointsRate(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, points.ErrInvalidPointsRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, rate.Value())
		})
	}
}

func TestDefaultRate_IsTenPointsPerUnit(t *testing.T) {
	assert.Equal(t, 10, points.DefaultRate().Value())
}
