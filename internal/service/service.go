package service

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"

	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, *domain.PaymentRecord, error)
	UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID, status string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, actor domain.Actor, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int32, error)
	GetOrderStats(ctx context.Context, from, to *time.Time) (*domain.OrderStats, error)
}

type SessionService interface {
	StartSession(ctx context.Context, actor domain.Actor, unitID string) (*domain.RentalSession, error)
	EndSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.Invoice, *domain.PaymentRecord, error)
	GetSession(ctx context.Context, sessionID string) (*domain.RentalSession, error)
	ListActiveSessions(ctx context.Context) ([]domain.RentalSession, error)
	GetInvoice(ctx context.Context, sessionID string) (*domain.Invoice, error)
}

type PaymentService interface {
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentRecord, int32, error)
	GetPaymentStats(ctx context.Context, from, to *time.Time) (*domain.PaymentStats, error)
	UpdatePaymentStatus(ctx context.Context, actor domain.Actor, paymentID, status string) (*domain.PaymentRecord, error)
}

// BillingPolicy holds the venue's pricing rules. Walk-in orders and session
// settlement are taxed at different rates.
type BillingPolicy struct {
	OrderTaxRate            decimal.Decimal
	SessionTaxRate          decimal.Decimal
	DefaultPaymentMethod    string
	SettlementPaymentMethod string
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		OrderTaxRate:            decimal.Zero,
		SessionTaxRate:          decimal.RequireFromString("0.14"),
		DefaultPaymentMethod:    domain.PaymentMethodCash,
		SettlementPaymentMethod: domain.PaymentMethodCash,
	}
}

type options struct {
	now       func() time.Time
	publisher events.Publisher
}

type Option func(*options)

// WithClock replaces time.Now as the source of order, session and payment
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher sets where committed billing events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, publisher: events.NopPublisher{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
