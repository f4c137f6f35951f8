package service

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
	"lounge-pos-backend/internal/repository"
	"lounge-pos-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	TableID       string           `json:"table_id,omitempty"`
	SessionID     string           `json:"session_id,omitempty"`
	Items         []OrderItemInput `json:"items"`
	Customer      *domain.Customer `json:"customer,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
}

func validPaymentMethod(m string) bool {
	switch m {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet:
		return true
	}
	return false
}

func (in *CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return domain.NewValidationError("items", "at least one item is required")
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return domain.NewValidationError("items.product_id", "is required")
		}
		if item.Quantity <= 0 {
			return domain.NewValidationError("items.quantity", "must be positive")
		}
		if !item.UnitPrice.IsPositive() {
			return domain.NewValidationError("items.unit_price", "must be positive")
		}
	}
	if in.PaymentMethod != "" && !validPaymentMethod(in.PaymentMethod) {
		return domain.NewValidationError("payment_method", "must be Cash, Card or Wallet")
	}
	return nil
}

type orderService struct {
	store  repository.Store
	policy BillingPolicy
	stock  *StockLedger
	tables *TableAllocator
	ledger *PaymentLedger
	opts   options
}

func NewOrderService(store repository.Store, policy BillingPolicy, opts ...Option) OrderService {
	return &orderService{
		store:  store,
		policy: policy,
		stock:  NewStockLedger(),
		tables: NewTableAllocator(),
		ledger: NewPaymentLedger(),
		opts:   buildOptions(opts),
	}
}

// CreateOrder places and settles an order in one transaction. The table, if
// any, is held only while the order is written and is free again on return.
func (s *orderService) CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, *domain.PaymentRecord, error) {
	logger.EnterMethod("orderService.CreateOrder", "tableID", in.TableID, "sessionID", in.SessionID, "items", len(in.Items), "actorID", actor.UserID)

	if err := in.validate(); err != nil {
		exitWithError("orderService.CreateOrder", "create_order", err)
		return nil, nil, err
	}

	customer := domain.DefaultCustomer()
	if in.Customer != nil {
		customer = *in.Customer
		if customer.Name == "" {
			customer.Name = "Guest"
		}
		if customer.Guests < 1 {
			customer.Guests = 1
		}
	}
	method := in.PaymentMethod
	if method == "" {
		method = s.policy.DefaultPaymentMethod
	}

	var (
		order   *domain.Order
		payment *domain.PaymentRecord
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		now := s.opts.now()
		o := &domain.Order{
			ID:            uuid.NewString(),
			Items:         make([]domain.LineItem, 0, len(in.Items)),
			Status:        domain.OrderStatusPaid,
			Customer:      customer,
			PaymentMethod: method,
			CashierID:     actor.UserID,
			OrderDate:     now,
			PaidAt:        &now,
		}

		var table *domain.Table
		if in.TableID != "" {
			t, err := s.tables.Claim(ctx, repos.Tables, in.TableID, o.ID)
			if err != nil {
				return err
			}
			table = t
			tableID := in.TableID
			o.TableID = &tableID
		}

		if in.SessionID != "" {
			session, err := repos.Sessions.GetByID(ctx, in.SessionID)
			if err != nil {
				return err
			}
			if !session.Active() {
				return domain.ErrSessionNotActive
			}
			// Writing the session row makes a concurrent EndSession conflict
			// instead of settling without this order.
			if err := repos.Sessions.Update(ctx, session); err != nil {
				return err
			}
			sessionID := in.SessionID
			o.SessionID = &sessionID
		}

		for _, item := range in.Items {
			p, err := s.stock.ReserveAndDeduct(ctx, repos.Products, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, domain.LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				Unit:      p.Unit,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		o.Bill = utils.CalculateOrderBill(o.Items, s.policy.OrderTaxRate)

		if err := repos.Orders.Create(ctx, o); err != nil {
			return err
		}
		p, err := s.ledger.RecordOrder(ctx, repos.Payments, o, table)
		if err != nil {
			return err
		}
		if table != nil {
			if err := s.tables.Release(ctx, repos.Tables, table.ID); err != nil {
				return err
			}
		}

		order, payment = o, p
		return nil
	})
	if err != nil {
		exitWithError("orderService.CreateOrder", "create_order", err, "tableID", in.TableID)
		return nil, nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.RecordRevenue("order", payment.PaymentMethod, payment.Bill.Total)

	payload := events.OrderPaidPayload{
		OrderID:     order.ID,
		PaymentID:   payment.ID,
		PaymentCode: payment.Code,
		TableID:     in.TableID,
		SessionID:   in.SessionID,
		Total:       order.Bill.Total,
		Method:      order.PaymentMethod,
	}
	s.opts.publisher.Publish(ctx, events.Event{Type: events.EventOrderPaid, Key: order.ID, ActorID: actor.UserID, Payload: payload})

	logger.ExitMethod("orderService.CreateOrder", "orderID", order.ID, "paymentCode", payment.Code, "total", order.Bill.Total.String())
	return order, payment, nil
}

// UpdateOrderStatus moves an order through the kitchen workflow. Any status
// change frees the order's table.
func (s *orderService) UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID, status string) (*domain.Order, error) {
	logger.EnterMethod("orderService.UpdateOrderStatus", "orderID", orderID, "status", status, "actorID", actor.UserID)

	newStatus, err := domain.ParseOrderStatus(status)
	if err != nil {
		exitWithError("orderService.UpdateOrderStatus", "update_order_status", err, "orderID", orderID)
		return nil, err
	}

	var order *domain.Order
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		o, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		o.Status = newStatus
		if err := repos.Orders.UpdateStatus(ctx, o); err != nil {
			return err
		}
		if o.TableID != nil {
			if err := s.tables.Release(ctx, repos.Tables, *o.TableID); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		exitWithError("orderService.UpdateOrderStatus", "update_order_status", err, "orderID", orderID)
		return nil, err
	}

	s.opts.publisher.Publish(ctx, events.Event{
		Type:    events.EventOrderStatusChanged,
		Key:     order.ID,
		ActorID: actor.UserID,
		Payload: events.StatusChangedPayload{ID: order.ID, Status: string(order.Status)},
	})

	logger.ExitMethod("orderService.UpdateOrderStatus", "orderID", orderID, "status", order.Status)
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, actor domain.Actor, orderID string) error {
	logger.EnterMethod("orderService.DeleteOrder", "orderID", orderID, "actorID", actor.UserID)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		o, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.TableID != nil {
			if err := s.tables.Release(ctx, repos.Tables, *o.TableID); err != nil {
				return err
			}
		}
		return repos.Orders.Delete(ctx, o)
	})
	if err != nil {
		exitWithError("orderService.DeleteOrder", "delete_order", err, "orderID", orderID)
		return err
	}

	s.opts.publisher.Publish(ctx, events.Event{
		Type:    events.EventOrderDeleted,
		Key:     orderID,
		ActorID: actor.UserID,
		Payload: events.StatusChangedPayload{ID: orderID, Status: "Deleted"},
	})

	logger.ExitMethod("orderService.DeleteOrder", "orderID", orderID)
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	logger.EnterMethod("orderService.GetOrder", "orderID", orderID)
	order, err := s.store.Repositories().Orders.GetByID(ctx, orderID)
	if err != nil {
		exitWithError("orderService.GetOrder", "get_order", err, "orderID", orderID)
		return nil, err
	}
	logger.ExitMethod("orderService.GetOrder", "orderID", orderID)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int32, error) {
	logger.EnterMethod("orderService.ListOrders", "statuses", filter.Statuses, "tableID", filter.TableID, "page", filter.Page)
	orders, total, err := s.store.Repositories().Orders.List(ctx, filter)
	if err != nil {
		exitWithError("orderService.ListOrders", "list_orders", err)
		return nil, 0, err
	}
	logger.ExitMethod("orderService.ListOrders", "count", len(orders), "total", total)
	return orders, total, nil
}

func (s *orderService) GetOrderStats(ctx context.Context, from, to *time.Time) (*domain.OrderStats, error) {
	logger.EnterMethod("orderService.GetOrderStats", "from", from, "to", to)
	stats, err := s.store.Repositories().Orders.Stats(ctx, from, to)
	if err != nil {
		exitWithError("orderService.GetOrderStats", "order_stats", err)
		return nil, err
	}
	logger.ExitMethod("orderService.GetOrderStats")
	return stats, nil
}
