package http

import (
	"context"
	"sync"
	"time"

	"lounge-pos-backend/internal/cache"
	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, actor domain.Actor, in service.CreateOrderInput) (*domain.Order, *domain.PaymentRecord, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Get(1).(*domain.PaymentRecord), args.Error(2)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID, status string) (*domain.Order, error) {
	args := m.Called(ctx, actor, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, actor domain.Actor, orderID string) error {
	args := m.Called(ctx, actor, orderID)
	return args.Error(0)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}

func (m *MockOrderService) GetOrderStats(ctx context.Context, from, to *time.Time) (*domain.OrderStats, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderStats), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) StartSession(ctx context.Context, actor domain.Actor, unitID string) (*domain.RentalSession, error) {
	args := m.Called(ctx, actor, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockSessionService) EndSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.Invoice, *domain.PaymentRecord, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Invoice), args.Get(1).(*domain.PaymentRecord), args.Error(2)
}

func (m *MockSessionService) GetSession(ctx context.Context, sessionID string) (*domain.RentalSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSession), args.Error(1)
}

func (m *MockSessionService) ListActiveSessions(ctx context.Context) ([]domain.RentalSession, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RentalSession), args.Error(1)
}

func (m *MockSessionService) GetInvoice(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentRecord, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.PaymentRecord), args.Get(1).(int32), args.Error(2)
}

func (m *MockPaymentService) GetPaymentStats(ctx context.Context, from, to *time.Time) (*domain.PaymentStats, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentStats), args.Error(1)
}

func (m *MockPaymentService) UpdatePaymentStatus(ctx context.Context, actor domain.Actor, paymentID, status string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, actor, paymentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

// memoryIdempotency is a map-backed cache.IdempotencyStore. A nil body
// marks a reserved key.
type memoryIdempotency struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func (m *memoryIdempotency) Reserve(_ context.Context, owner, key string) (cache.KeyState, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := owner + ":" + key
	body, ok := m.bodies[k]
	switch {
	case !ok:
		m.bodies[k] = nil
		return cache.KeyReserved, nil, nil
	case body == nil:
		return cache.KeyPending, nil, nil
	default:
		return cache.KeyCompleted, body, nil
	}
}

func (m *memoryIdempotency) Complete(_ context.Context, owner, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[owner+":"+key] = body
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bodies, owner+":"+key)
	return nil
}
