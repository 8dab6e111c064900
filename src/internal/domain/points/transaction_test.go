package points_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchaseTransaction_Valid(t *testing.T) {
	// Arrange
	userID := user.NewUserID()
	meta := map[string]interface{}{points.MetadataPointsRate: 10}

	// Act
	tx, err := points.NewPurchaseTransaction(userID, decimal.RequireFromString("100.00"), mustAmount(t, 1000), "  order-1 ", meta)

	// Assert
	require.NoError(t, err)
	assert.False(t, tx.ID().IsEmpty())
	assert.True(t, tx.UserID().Equals(userID))
	assert.Equal(t, points.TransactionTypePurchase, tx.Type())
	assert.Equal(t, points.TransactionStatusCompleted, tx.Status())
	assert.Equal(t, 1000, tx.PointsEarned())
	assert.Equal(t, "order-1", tx.ExternalRef())
	assert.True(t, tx.HasExternalRef())
	assert.Equal(t, 10, tx.Metadata()[points.MetadataPointsRate])
}

func TestNewPurchaseTransaction_NonPositiveAmount_ReturnsInvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-0.01"} {
		_, err := points.NewPurchaseTransaction(user.NewUserID(), decimal.RequireFromString(amount), mustAmount(t, 0), "", nil)
		assert.ErrorIs(t, err, points.ErrInvalidAmount)
	}
}

func TestNewPurchaseTransaction_MetadataIsCopied(t *testing.T) {
	// Arrange
	meta := map[string]interface{}{"channel": "web"}
	tx, err := points.NewPurchaseTransaction(user.NewUserID(), decimal.NewFromInt(1), mustAmount(t, 10), "", meta)
	require.NoError(t, err)

	// Act
	meta["channel"] = "pos"
	tx.Metadata()["channel"] = "kiosk"

	// Assert
	assert.Equal(t, "web", tx.Metadata()["channel"])
}

func TestNewRedemptionTransaction_RecordsNegativePoints(t *testing.T) {
	// Act
	tx, err := points.NewRedemptionTransaction(user.NewUserID(), mustAmount(t, 250), nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, points.TransactionTypeRedemption, tx.Type())
	assert.True(t, tx.Amount().IsZero())
	assert.Equal(t, -250, tx.PointsEarned())
	assert.False(t, tx.HasExternalRef())
}

func TestNewRedemptionTransaction_ZeroPoints_ReturnsInvalidAmount(t *testing.T) {
	_, err := points.NewRedemptionTransaction(user.NewUserID(), mustAmount(t, 0), nil)
	assert.ErrorIs(t, err, points.ErrInvalidAmount)
}

func TestReconstructTransaction_RejectsUnknownTypeAndStatus(t *testing.T) {
	id := points.NewTransactionID()
	userID := user.NewUserID()

	_, err := points.ReconstructTransaction(id, userID, decimal.NewFromInt(1), 10, "refund", "", points.TransactionStatusCompleted, nil, time.Now())
	assert.ErrorIs(t, err, points.ErrInvalidTransaction)

	_, err = points.ReconstructTransaction(id, userID, decimal.NewFromInt(1), 10, points.TransactionTypePurchase, "", "archived", nil, time.Now())
	assert.ErrorIs(t, err, points.ErrInvalidTransaction)

	tx, err := points.ReconstructTransaction(id, userID, decimal.NewFromInt(1), 10, points.TransactionTypePurchase, "ref", points.TransactionStatusPending, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, points.TransactionStatusPending, tx.Status())
}

func TestTransactionIDFromString_Invalid(t *testing.T) {
	_, err := points.TransactionIDFromString("bogus")
	assert.ErrorIs(t, err, points.ErrInvalidTransactionID)
}
