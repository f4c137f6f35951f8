package service

import (
	"context"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
	"lounge-pos-backend/internal/repository"
	"lounge-pos-backend/internal/utils"

	"github.com/google/uuid"
)

type sessionService struct {
	store    repository.Store
	policy   BillingPolicy
	invoices *InvoiceComposer
	ledger   *PaymentLedger
	opts     options
}

func NewSessionService(store repository.Store, policy BillingPolicy, opts ...Option) SessionService {
	return &sessionService{
		store:    store,
		policy:   policy,
		invoices: NewInvoiceComposer(policy.SessionTaxRate),
		ledger:   NewPaymentLedger(),
		opts:     buildOptions(opts),
	}
}

// StartSession opens a timed session on an available unit, fixing the
// unit's current hourly rate for the life of the session.
func (s *sessionService) StartSession(ctx context.Context, actor domain.Actor, unitID string) (*domain.RentalSession, error) {
	logger.EnterMethod("sessionService.StartSession", "unitID", unitID, "actorID", actor.UserID)

	var session *domain.RentalSession
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		unit, err := repos.Units.GetByID(ctx, unitID)
		if err != nil {
			return err
		}
		switch unit.Status {
		case domain.UnitStatusOccupied:
			return domain.ErrUnitBusy
		case domain.UnitStatusMaintenance:
			return domain.ErrUnitUnavailable
		}

		now := s.opts.now()
		rs := &domain.RentalSession{
			ID:         uuid.NewString(),
			UnitID:     unit.ID,
			HourlyRate: unit.HourlyRate,
			StartTime:  now,
			Status:     domain.SessionStatusActive,
			CashierID:  actor.UserID,
		}
		if err := repos.Sessions.Create(ctx, rs); err != nil {
			return err
		}

		unit.Status = domain.UnitStatusOccupied
		unit.CurrentSessionID = &rs.ID
		if err := repos.Units.Update(ctx, unit); err != nil {
			return err
		}
		session = rs
		return nil
	})
	if err != nil {
		exitWithError("sessionService.StartSession", "start_session", err, "unitID", unitID)
		return nil, err
	}

	metrics.SessionsStartedTotal.Inc()
	s.opts.publisher.Publish(ctx, events.Event{
		Type:    events.EventSessionStarted,
		Key:     session.ID,
		ActorID: actor.UserID,
		Payload: events.SessionStartedPayload{
			SessionID:  session.ID,
			UnitID:     session.UnitID,
			HourlyRate: session.HourlyRate,
			StartTime:  session.StartTime,
		},
	})

	logger.ExitMethod("sessionService.StartSession", "sessionID", session.ID, "unitID", unitID)
	return session, nil
}

// EndSession stops the clock, frees the unit and settles the session
// together with every order charged to it.
func (s *sessionService) EndSession(ctx context.Context, actor domain.Actor, sessionID string) (*domain.Invoice, *domain.PaymentRecord, error) {
	logger.EnterMethod("sessionService.EndSession", "sessionID", sessionID, "actorID", actor.UserID)

	var (
		invoice *domain.Invoice
		payment *domain.PaymentRecord
		session *domain.RentalSession
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		rs, err := repos.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if !rs.Active() {
			return domain.ErrSessionAlreadyCompleted
		}
		unit, err := repos.Units.GetByID(ctx, rs.UnitID)
		if err != nil {
			return err
		}
		orders, err := repos.Orders.ListBySession(ctx, rs.ID)
		if err != nil {
			return err
		}

		now := s.opts.now()
		cost := utils.CalculateSessionCost(rs.StartTime, now, rs.HourlyRate)
		rs.EndTime = &now
		rs.DurationMinutes = utils.Round2(cost.Minutes)
		rs.Price = utils.Round2(cost.Price)
		rs.Status = domain.SessionStatusCompleted
		if err := repos.Sessions.Update(ctx, rs); err != nil {
			return err
		}

		if unit.CurrentSessionID != nil && *unit.CurrentSessionID == rs.ID {
			unit.Status = domain.UnitStatusAvailable
			unit.CurrentSessionID = nil
			if err := repos.Units.Update(ctx, unit); err != nil {
				return err
			}
		}

		inv := s.invoices.Settle(unit, rs, cost, orders)
		p, err := s.ledger.RecordSession(ctx, repos.Payments, rs, unit, inv, s.policy.SettlementPaymentMethod, actor.UserID)
		if err != nil {
			return err
		}
		invoice, payment, session = inv, p, rs
		return nil
	})
	if err != nil {
		exitWithError("sessionService.EndSession", "end_session", err, "sessionID", sessionID)
		return nil, nil, err
	}

	metrics.SessionsSettledTotal.Inc()
	metrics.RecordRevenue("session", payment.PaymentMethod, payment.Bill.Total)
	s.opts.publisher.Publish(ctx, events.Event{
		Type:    events.EventSessionSettled,
		Key:     session.ID,
		ActorID: actor.UserID,
		Payload: events.SessionSettledPayload{
			SessionID:       session.ID,
			UnitID:          session.UnitID,
			PaymentID:       payment.ID,
			PaymentCode:     payment.Code,
			DurationMinutes: session.DurationMinutes,
			Total:           invoice.Total,
		},
	})

	logger.ExitMethod("sessionService.EndSession", "sessionID", sessionID, "paymentCode", payment.Code, "total", invoice.Total.String())
	return invoice, payment, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*domain.RentalSession, error) {
	logger.EnterMethod("sessionService.GetSession", "sessionID", sessionID)
	rs, err := s.store.Repositories().Sessions.GetByID(ctx, sessionID)
	if err != nil {
		exitWithError("sessionService.GetSession", "get_session", err, "sessionID", sessionID)
		return nil, err
	}
	logger.ExitMethod("sessionService.GetSession", "sessionID", sessionID)
	return rs, nil
}

func (s *sessionService) ListActiveSessions(ctx context.Context) ([]domain.RentalSession, error) {
	logger.EnterMethod("sessionService.ListActiveSessions")
	sessions, err := s.store.Repositories().Sessions.ListActive(ctx)
	if err != nil {
		exitWithError("sessionService.ListActiveSessions", "list_active_sessions", err)
		return nil, err
	}
	logger.ExitMethod("sessionService.ListActiveSessions", "count", len(sessions))
	return sessions, nil
}

// GetInvoice returns the bill for a session. While the session is running
// the figures are live and nothing is persisted.
func (s *sessionService) GetInvoice(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	logger.EnterMethod("sessionService.GetInvoice", "sessionID", sessionID)
	inv, err := s.composeInvoice(ctx, sessionID)
	if err != nil {
		exitWithError("sessionService.GetInvoice", "get_invoice", err, "sessionID", sessionID)
		return nil, err
	}
	logger.ExitMethod("sessionService.GetInvoice", "sessionID", sessionID, "total", inv.Total.String())
	return inv, nil
}

func (s *sessionService) composeInvoice(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	repos := s.store.Repositories()
	rs, err := repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	unit, err := repos.Units.GetByID(ctx, rs.UnitID)
	if err != nil {
		return nil, err
	}
	orders, err := repos.Orders.ListBySession(ctx, rs.ID)
	if err != nil {
		return nil, err
	}
	return s.invoices.Compose(unit, rs, orders, s.opts.now()), nil
}
