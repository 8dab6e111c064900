package points

import (
	"context"
	"testing"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBalanceRepo(t *testing.T) (*gorm.DB, points.BalanceRepository, *persistence.GORMTransactionManager) {
	t.Helper()
	db := persistencetest.NewTestDB(t, &PointBalanceGORM{}, &TransactionGORM{})
	return db, NewBalanceRepository(db), persistence.NewGORMTransactionManager(db)
}

func amount(t *testing.T, v int) points.PointsAmount {
	t.Helper()
	a, err := points.NewPointsAmount(v)
	require.NoError(t, err)
	return a
}

func TestBalanceRepository_FindByUserID_NoRow_ReturnsNotFound(t *testing.T) {
	_, repo, _ := setupBalanceRepo(t)

	_, err := repo.FindByUserID(nil, user.NewUserID())

	assert.ErrorIs(t, err, points.ErrBalanceNotFound)
}

func TestBalanceRepository_ApplyCredit_CreatesRowLazily(t *testing.T) {
	// Arrange
	_, repo, txManager := setupBalanceRepo(t)
	userID := user.NewUserID()

	// Act
	var got *points.PointBalance
	err := txManager.InTransaction(context.Background(), func(tx shared.TransactionContext) error {
		var err error
		got, err = repo.ApplyCredit(tx, userID, amount(t, 1000))
		return err
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Available().Value())
	assert.Equal(t, 1000, got.TotalEarned().Value())
	assert.Equal(t, 0, got.TotalRedeemed().Value())
}

func TestBalanceRepository_ApplyCredit_Accumulates(t *testing.T) {
	// Arrange
	_, repo, txManager := setupBalanceRepo(t)
	userID := user.NewUserID()

	// Act
	for _, v := range []int{100, 250, 0, 50} {
		require.NoError(t, txManager.InTransaction(context.Background(), func(tx shared.TransactionContext) error {
			_, err := repo.ApplyCredit(tx, userID, amount(t, v))
			return err
		}))
	}

	// Assert
	b, err := repo.FindByUserID(nil, userID)
	require.NoError(t, err)
	assert.Equal(t, 400, b.Available().Value())
	assert.Equal(t, 400, b.TotalEarned().Value())
}

func TestBalanceRepository_ApplyDebit(t *testing.T) {
	// Arrange
	_, repo, txManager := setupBalanceRepo(t)
	userID := user.NewUserID()
	_, err := repo.ApplyCredit(nil, userID, amount(t, 500))
	require.NoError(t, err)

	// Act
	var got *points.PointBalance
	err = txManager.InTransaction(context.Background(), func(tx shared.TransactionContext) error {
		var err error
		got, err = repo.ApplyDebit(tx, userID, amount(t, 200))
		return err
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 300, got.Available().Value())
	assert.Equal(t, 500, got.TotalEarned().Value())
	assert.Equal(t, 200, got.TotalRedeemed().Value())
}

func TestBalanceRepository_ApplyDebit_Insufficient_NoMutation(t *testing.T) {
	// Arrange
	_, repo, _ := setupBalanceRepo(t)
	userID := user.NewUserID()
	_, err := repo.ApplyCredit(nil, userID, amount(t, 100))
	require.NoError(t, err)

	// Act
	_, err = repo.ApplyDebit(nil, userID, amount(t, 101))

	// Assert
	assert.ErrorIs(t, err, points.ErrInsufficientPoints)
	b, err := repo.FindByUserID(nil, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Available().Value())
	assert.Equal(t, 0, b.TotalRedeemed().Value())
}

func TestBalanceRepository_ApplyDebit_UnknownUser_Insufficient(t *testing.T) {
	_, repo, _ := setupBalanceRepo(t)

	_, err := repo.ApplyDebit(nil, user.NewUserID(), amount(t, 1))

	assert.ErrorIs(t, err, points.ErrInsufficientPoints)
}

func TestBalanceRepository_FindByUserIDForUpdate_InsideTransaction(t *testing.T) {
	_, repo, txManager := setupBalanceRepo(t)
	userID := user.NewUserID()
	_, err := repo.ApplyCredit(nil, userID, amount(t, 42))
	require.NoError(t, err)

	err = txManager.InTransaction(context.Background(), func(tx shared.TransactionContext) error {
		b, err := repo.FindByUserIDForUpdate(tx, userID)
		if err != nil {
			return err
		}
		assert.Equal(t, 42, b.Available().Value())
		return nil
	})

	require.NoError(t, err)
}

func TestBalanceRepository_CorruptedRow_ReturnsBalanceCorrupted(t *testing.T) {
	// Arrange：直接寫入違反不變條件的資料
	db, repo, _ := setupBalanceRepo(t)
	userID := user.NewUserID()
	require.NoError(t, db.Create(&PointBalanceGORM{
		UserID:        userID.String(),
		Available:     999,
		TotalEarned:   100,
		TotalRedeemed: 0,
	}).Error)

	// Act
	_, err := repo.FindByUserID(nil, userID)

	// Assert
	assert.ErrorIs(t, err, points.ErrBalanceCorrupted)
}
