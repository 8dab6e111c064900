package points

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type purchaseFixture struct {
	balanceRepo *MockBalanceRepository
	txRepo      *MockTransactionRepository
	userRepo    *MockUserRepository
	enqueuer    *MockEnqueuer
	useCase     *ProcessPurchaseUseCase
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	f := &purchaseFixture{
		balanceRepo: new(MockBalanceRepository),
		txRepo:      new(MockTransactionRepository),
		userRepo:    new(MockUserRepository),
		enqueuer:    new(MockEnqueuer),
	}
	txManager := &MockTransactionManager{}
	f.useCase = NewProcessPurchaseUseCase(
		f.txRepo,
		f.userRepo,
		NewLedger(f.balanceRepo, txManager),
		points.DefaultRate(),
		f.enqueuer,
		txManager,
		nil,
	)
	return f
}

func existingUser(t *testing.T) *user.User {
	t.Helper()
	email, err := user.NewEmail("shopper@example.com")
	require.NoError(t, err)
	u, err := user.NewUser("Shopper", email)
	require.NoError(t, err)
	return u
}

func TestProcessPurchase_Success_CreditsAndEnqueues(t *testing.T) {
	// Arrange
	f := newPurchaseFixture(t)
	u := existingUser(t)
	f.userRepo.On("FindByID", nil, u.UserID()).Return(u, nil)
	f.txRepo.On("Save", nil, mock.AnythingOfType("*points.Transaction")).Return(nil)
	f.balanceRepo.On("ApplyCredit", nil, u.UserID(), mock.MatchedBy(func(a points.PointsAmount) bool {
		return a.Value() == 1000
	})).Return(balanceOf(t, u.UserID(), 1000, 1000, 0), nil)
	f.enqueuer.On("Enqueue", mock.Anything, mock.MatchedBy(func(item pipeline.WorkItem) bool {
		return item.UserID.Equals(u.UserID())
	})).Return(nil)

	// Act
	result, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID: u.UserID().String(),
		Amount: decimal.RequireFromString("100.00"),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1000, result.PointsEarned)
	assert.Equal(t, string(points.TransactionTypePurchase), result.Type)
	assert.Equal(t, string(points.TransactionStatusCompleted), result.Status)
	assert.False(t, result.Duplicate)
	f.txRepo.AssertExpectations(t)
	f.balanceRepo.AssertExpectations(t)
	f.enqueuer.AssertExpectations(t)
}

func TestProcessPurchase_RecordsRateAndProcessedAtMetadata(t *testing.T) {
	// Arrange
	f := newPurchaseFixture(t)
	u := existingUser(t)
	var saved *points.Transaction
	f.userRepo.On("FindByID", nil, u.UserID()).Return(u, nil)
	f.txRepo.On("Save", nil, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*points.Transaction)
	}).Return(nil)
	f.balanceRepo.On("ApplyCredit", nil, u.UserID(), mock.Anything).Return(balanceOf(t, u.UserID(), 123, 123, 0), nil)
	f.enqueuer.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	// Act
	_, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID: u.UserID().String(),
		Amount: decimal.RequireFromString("12.34"),
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 123, saved.PointsEarned())
	assert.Equal(t, 10, saved.Metadata()[points.MetadataPointsRate])
	assert.NotEmpty(t, saved.Metadata()[points.MetadataProcessedAt])
}

func TestProcessPurchase_InvalidAmount_NoWrites(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"零", "0"},
		{"負數", "-5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newPurchaseFixture(t)

			// Act
			result, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
				UserID: user.NewUserID().String(),
				Amount: decimal.RequireFromString(tt.amount),
			})

			// Assert
			assert.ErrorIs(t, err, points.ErrInvalidAmount)
			assert.Nil(t, result)
			f.txRepo.AssertNotCalled(t, "Save")
			f.balanceRepo.AssertNotCalled(t, "ApplyCredit")
			f.enqueuer.AssertNotCalled(t, "Enqueue")
		})
	}
}

func TestProcessPurchase_UnknownUser_ReturnsNotFound(t *testing.T) {
	f := newPurchaseFixture(t)
	userID := user.NewUserID()
	f.userRepo.On("FindByID", nil, userID).Return(nil, user.ErrUserNotFound)

	_, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID: userID.String(),
		Amount: decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, user.ErrUserNotFound)
	f.txRepo.AssertNotCalled(t, "Save")
	f.enqueuer.AssertNotCalled(t, "Enqueue")
}

func TestProcessPurchase_EnqueueFailure_StillSucceeds(t *testing.T) {
	// Arrange
	f := newPurchaseFixture(t)
	u := existingUser(t)
	f.userRepo.On("FindByID", nil, u.UserID()).Return(u, nil)
	f.txRepo.On("Save", nil, mock.Anything).Return(nil)
	f.balanceRepo.On("ApplyCredit", nil, u.UserID(), mock.Anything).Return(balanceOf(t, u.UserID(), 50, 50, 0), nil)
	f.enqueuer.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("queue unavailable"))

	// Act
	result, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID: u.UserID().String(),
		Amount: decimal.NewFromInt(5),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50, result.PointsEarned)
}

func TestProcessPurchase_CreditFailure_DoesNotEnqueue(t *testing.T) {
	f := newPurchaseFixture(t)
	u := existingUser(t)
	dbErr := errors.New("database is locked")
	f.userRepo.On("FindByID", nil, u.UserID()).Return(u, nil)
	f.txRepo.On("Save", nil, mock.Anything).Return(nil)
	f.balanceRepo.On("ApplyCredit", nil, u.UserID(), mock.Anything).Return(nil, dbErr)

	_, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID: u.UserID().String(),
		Amount: decimal.NewFromInt(5),
	})

	assert.ErrorIs(t, err, dbErr)
	f.enqueuer.AssertNotCalled(t, "Enqueue")
}

func TestProcessPurchase_KnownExternalRef_ReturnsExistingWithoutCredit(t *testing.T) {
	// Arrange
	f := newPurchaseFixture(t)
	u := existingUser(t)
	earned, _ := points.NewPointsAmount(200)
	existing, err := points.NewPurchaseTransaction(u.UserID(), decimal.NewFromInt(20), earned, "order-42", nil)
	require.NoError(t, err)
	f.txRepo.On("FindByExternalRef", nil, "order-42").Return(existing, nil)

	// Act
	result, err := f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID:      u.UserID().String(),
		Amount:      decimal.NewFromInt(20),
		ExternalRef: "order-42",
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, existing.ID().String(), result.TransactionID)
	f.txRepo.AssertNotCalled(t, "Save")
	f.balanceRepo.AssertNotCalled(t, "ApplyCredit")
	f.enqueuer.AssertNotCalled(t, "Enqueue")
}

func TestProcessPurchase_ExternalRefOfAnotherUser_Rejected(t *testing.T) {
	f := newPurchaseFixture(t)
	earned, _ := points.NewPointsAmount(10)
	existing, err := points.NewPurchaseTransaction(user.NewUserID(), decimal.NewFromInt(1), earned, "order-7", nil)
	require.NoError(t, err)
	f.txRepo.On("FindByExternalRef", nil, "order-7").Return(existing, nil)

	_, err = f.useCase.Execute(context.Background(), ProcessPurchaseCommand{
		UserID:      user.NewUserID().String(),
		Amount:      decimal.NewFromInt(1),
		ExternalRef: "order-7",
	})

	assert.ErrorIs(t, err, points.ErrDuplicateExternalRef)
}

// ===========================
// RedeemPoints
// ===========================

func TestRedeemPoints_Insufficient_ReturnsFalseWithoutError(t *testing.T) {
	// Arrange
	balanceRepo := new(MockBalanceRepository)
	txRepo := new(MockTransactionRepository)
	txManager := &MockTransactionManager{}
	useCase := NewRedeemPointsUseCase(txRepo, NewLedger(balanceRepo, txManager), txManager, nil)
	userID := user.NewUserID()
	current := balanceOf(t, userID, 10, 10, 0)
	balanceRepo.On("FindByUserIDForUpdate", nil, userID).Return(current, nil)
	balanceRepo.On("FindByUserID", nil, userID).Return(current, nil)

	// Act
	result, err := useCase.Execute(context.Background(), RedeemPointsCommand{UserID: userID.String(), Points: 11})

	// Assert
	require.NoError(t, err)
	assert.False(t, result.Redeemed)
	assert.Equal(t, 10, result.Available)
	txRepo.AssertNotCalled(t, "Save")
	balanceRepo.AssertNotCalled(t, "ApplyDebit")
}

func TestRedeemPoints_NonPositive_ReturnsInvalidAmount(t *testing.T) {
	balanceRepo := new(MockBalanceRepository)
	txManager := &MockTransactionManager{}
	useCase := NewRedeemPointsUseCase(new(MockTransactionRepository), NewLedger(balanceRepo, txManager), txManager, nil)

	_, err := useCase.Execute(context.Background(), RedeemPointsCommand{UserID: user.NewUserID().String(), Points: 0})

	assert.ErrorIs(t, err, points.ErrInvalidAmount)
}

func TestRedeemPoints_Success_RecordsRedemptionTransaction(t *testing.T) {
	// Arrange
	balanceRepo := new(MockBalanceRepository)
	txRepo := new(MockTransactionRepository)
	txManager := &MockTransactionManager{}
	useCase := NewRedeemPointsUseCase(txRepo, NewLedger(balanceRepo, txManager), txManager, nil)
	userID := user.NewUserID()
	balanceRepo.On("FindByUserIDForUpdate", nil, userID).Return(balanceOf(t, userID, 100, 100, 0), nil)
	balanceRepo.On("ApplyDebit", nil, userID, mock.Anything).Return(balanceOf(t, userID, 75, 100, 25), nil)
	txRepo.On("Save", nil, mock.MatchedBy(func(tr *points.Transaction) bool {
		return tr.Type() == points.TransactionTypeRedemption &&
			tr.PointsEarned() == -25 &&
			tr.Amount().IsZero()
	})).Return(nil)

	// Act
	result, err := useCase.Execute(context.Background(), RedeemPointsCommand{UserID: userID.String(), Points: 25})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Redeemed)
	assert.Equal(t, 75, result.Available)
	assert.NotEmpty(t, result.TransactionID)
	txRepo.AssertExpectations(t)
}
