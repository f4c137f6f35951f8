package service

import (
	"context"
	"strings"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLedger writes the receipt for a completed order or session inside
// the caller's transaction. Records are never edited afterwards except for
// their status.
type PaymentLedger struct{}

func NewPaymentLedger() *PaymentLedger {
	return &PaymentLedger{}
}

// paymentCode derives a short human-readable code from an entity id, e.g.
// INV-3F9A1C for an order.
func paymentCode(prefix, id string) string {
	hex := strings.ReplaceAll(id, "-", "")
	if len(hex) > 6 {
		hex = hex[len(hex)-6:]
	}
	return prefix + "-" + strings.ToUpper(hex)
}

func (l *PaymentLedger) RecordOrder(ctx context.Context, payments repository.PaymentRepository, order *domain.Order, table *domain.Table) (*domain.PaymentRecord, error) {
	lines := make([]domain.PaymentLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, domain.PaymentLine{
			Name:      item.Name,
			Quantity:  decimal.NewFromInt32(item.Quantity),
			UnitPrice: item.UnitPrice,
			Total:     item.Total(),
		})
	}

	orderID := order.ID
	p := &domain.PaymentRecord{
		ID:            uuid.NewString(),
		Code:          paymentCode(domain.OrderPaymentPrefix, order.ID),
		OrderID:       &orderID,
		Items:         lines,
		Bill:          order.Bill,
		Customer:      order.Customer,
		PaymentMethod: order.PaymentMethod,
		Status:        domain.PaymentStatusPaid,
		CashierID:     order.CashierID,
		PaidAt:        *order.PaidAt,
	}
	if table != nil {
		p.Table = table.Snapshot()
	}

	if err := payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *PaymentLedger) RecordSession(ctx context.Context, payments repository.PaymentRepository, session *domain.RentalSession, unit *domain.RentalUnit, inv *domain.Invoice, method, cashierID string) (*domain.PaymentRecord, error) {
	lines := make([]domain.PaymentLine, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, domain.PaymentLine(line))
	}

	sessionID := session.ID
	p := &domain.PaymentRecord{
		ID:        uuid.NewString(),
		Code:      paymentCode(domain.SessionPaymentPrefix, session.ID),
		SessionID: &sessionID,
		Items:     lines,
		Bill:      inv.Bill(),
		Customer: domain.Customer{
			Name:   "PlayStation " + unit.Name,
			Guests: 1,
		},
		PaymentMethod: method,
		Status:        domain.PaymentStatusPaid,
		CashierID:     cashierID,
		PaidAt:        *session.EndTime,
	}

	if err := payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type paymentService struct {
	store repository.Store
	opts  options
}

func NewPaymentService(store repository.Store, opts ...Option) PaymentService {
	return &paymentService{store: store, opts: buildOptions(opts)}
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	logger.EnterMethod("paymentService.GetPayment", "paymentID", paymentID)
	payment, err := s.store.Repositories().Payments.GetByID(ctx, paymentID)
	if err != nil {
		exitWithError("paymentService.GetPayment", "get_payment", err, "paymentID", paymentID)
		return nil, err
	}
	logger.ExitMethod("paymentService.GetPayment", "paymentID", paymentID)
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentRecord, int32, error) {
	logger.EnterMethod("paymentService.ListPayments", "page", filter.Page, "limit", filter.Limit)
	payments, total, err := s.store.Repositories().Payments.List(ctx, filter)
	if err != nil {
		exitWithError("paymentService.ListPayments", "list_payments", err)
		return nil, 0, err
	}
	logger.ExitMethod("paymentService.ListPayments", "count", len(payments), "total", total)
	return payments, total, nil
}

func (s *paymentService) GetPaymentStats(ctx context.Context, from, to *time.Time) (*domain.PaymentStats, error) {
	logger.EnterMethod("paymentService.GetPaymentStats", "from", from, "to", to)
	stats, err := s.store.Repositories().Payments.Stats(ctx, from, to)
	if err != nil {
		exitWithError("paymentService.GetPaymentStats", "payment_stats", err)
		return nil, err
	}
	logger.ExitMethod("paymentService.GetPaymentStats")
	return stats, nil
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, actor domain.Actor, paymentID, status string) (*domain.PaymentRecord, error) {
	logger.EnterMethod("paymentService.UpdatePaymentStatus", "paymentID", paymentID, "status", status, "actorID", actor.UserID)

	newStatus, err := domain.ParsePaymentStatus(status)
	if err != nil {
		exitWithError("paymentService.UpdatePaymentStatus", "update_payment_status", err, "paymentID", paymentID)
		return nil, err
	}

	var payment *domain.PaymentRecord
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		p, err := repos.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == newStatus {
			payment = p
			return nil
		}
		p.Status = newStatus
		if err := repos.Payments.UpdateStatus(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		exitWithError("paymentService.UpdatePaymentStatus", "update_payment_status", err, "paymentID", paymentID)
		return nil, err
	}

	s.opts.publisher.Publish(ctx, events.Event{
		Type:    events.EventPaymentStatusChanged,
		Key:     payment.ID,
		ActorID: actor.UserID,
		Payload: events.StatusChangedPayload{ID: payment.ID, Status: string(payment.Status)},
	})

	logger.ExitMethod("paymentService.UpdatePaymentStatus", "paymentID", paymentID, "status", payment.Status)
	return payment, nil
}
