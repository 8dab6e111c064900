package points

import (
	"context"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// ===========================
// Mocks
// ===========================

// MockBalanceRepository mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) FindByUserID(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.PointBalance), args.Error(1)
}

func (m *MockBalanceRepository) FindByUserIDForUpdate(tx shared.TransactionContext, userID user.UserID) (*points.PointBalance, error) {
	args := m.Called(tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.PointBalance), args.Error(1)
}

func (m *MockBalanceRepository) ApplyCredit(tx shared.TransactionContext, userID user.UserID, amount points.PointsAmount) (*points.PointBalance, error) {
	args := m.Called(tx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.PointBalance), args.Error(1)
}

func (m *MockBalanceRepository) ApplyDebit(tx shared.TransactionContext, userID user.UserID, amount points.PointsAmount) (*points.PointBalance, error) {
	args := m.Called(tx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.PointBalance), args.Error(1)
}

// MockTransactionRepository mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Save(tx shared.TransactionContext, transaction *points.Transaction) error {
	args := m.Called(tx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(tx shared.TransactionContext, id points.TransactionID) (*points.Transaction, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByExternalRef(tx shared.TransactionContext, externalRef string) (*points.Transaction, error) {
	args := m.Called(tx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(tx shared.TransactionContext, userID user.UserID, limit int) ([]*points.Transaction, error) {
	args := m.Called(tx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*points.Transaction), args.Error(1)
}

// MockUserRepository mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(tx shared.TransactionContext, u *user.User) error {
	return m.Called(tx, u).Error(0)
}

func (m *MockUserRepository) FindByID(tx shared.TransactionContext, id user.UserID) (*user.User, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(tx shared.TransactionContext, email user.Email) (bool, error) {
	args := m.Called(tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Retire(tx shared.TransactionContext, id user.UserID) error {
	return m.Called(tx, id).Error(0)
}

// MockEnqueuer mock implementation of pipeline.Enqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, item pipeline.WorkItem) error {
	return m.Called(ctx, item).Error(0)
}

// MockTransactionManager 直接以 nil 事務上下文執行 fn
type MockTransactionManager struct{}

func (m *MockTransactionManager) InTransaction(_ context.Context, fn func(tx shared.TransactionContext) error) error {
	return fn(nil)
}
