package mocks

import (
	"context"
	"time"

	"github.com/ridloal/toko-storefront/internal/order/domain"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (database.DBTX, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(database.DBTX), args.Error(1)
	}
	return nil, args.Error(1)
}

// InsertOrder assigns id 1042 on success so derived fields are predictable.
func (m *MockOrderRepository) InsertOrder(ctx context.Context, dbops database.DBTX, order *domain.Order) error {
	args := m.Called(ctx, dbops, order)
	if order != nil && args.Error(0) == nil {
		order.ID = 1042
		order.CreatedAt = time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
		if order.PaymentStatus == "" {
			order.PaymentStatus = domain.StatusPendingPayment
		}
	}
	return args.Error(0)
}

func (m *MockOrderRepository) InsertEvent(ctx context.Context, dbops database.DBTX, event *domain.Event) error {
	return m.Called(ctx, dbops, event).Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) ListOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if o := args.Get(0); o != nil {
		return o.([]domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) ListOrdersWithCustomer(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if o := args.Get(0); o != nil {
		return o.([]domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) ListUnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	args := m.Called(ctx, limit)
	if e := args.Get(0); e != nil {
		return e.([]domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) MarkEventPublished(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
