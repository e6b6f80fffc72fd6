package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/NITsush45/enter-bank/internal/models"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDirectory) FindByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockBillerDirectory struct {
	mock.Mock
}

func (m *MockBillerDirectory) FindByID(ctx context.Context, id int64) (*models.Biller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Biller), args.Error(1)
}

func (m *MockBillerDirectory) FindByInternalAccountID(ctx context.Context, accountID int64) (*models.Biller, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Biller), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(ctx context.Context, n Notification) {
	m.Called(ctx, n)
}

type MockScheduleStore struct {
	mock.Mock
}

func (m *MockScheduleStore) FindDuePayments(ctx context.Context) ([]models.ScheduledPayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduledPayment), args.Error(1)
}

func (m *MockScheduleStore) Reschedule(ctx context.Context, payment *models.ScheduledPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockScheduleStore) MarkFailed(ctx context.Context, payment *models.ScheduledPayment, reason string) error {
	args := m.Called(ctx, payment, reason)
	return args.Error(0)
}

type MockLedgerExecutor struct {
	mock.Mock
}

func (m *MockLedgerExecutor) SystemTransfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal, memo string) (*models.Transaction, error) {
	args := m.Called(ctx, fromAccountID, toAccountID, amount, memo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedgerExecutor) SystemBillPayment(ctx context.Context, fromAccountID, billerID int64, billerReference string, amount decimal.Decimal) (*models.Transaction, error) {
	args := m.Called(ctx, fromAccountID, billerID, billerReference, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}
