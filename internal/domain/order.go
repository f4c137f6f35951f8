package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid       OrderStatus = "Paid"
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "InProgress"
	OrderStatusReady      OrderStatus = "Ready"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Statuses a cashier may move an existing order into. Paid is only ever set
// at creation.
var orderWorkflowStatuses = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusInProgress: true,
	OrderStatusReady:      true,
	OrderStatusCompleted:  true,
	OrderStatusCancelled:  true,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !orderWorkflowStatuses[status] {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Bill holds a computed charge. Total is always Subtotal + Tax.
type Bill struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type Customer struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Guests int32  `json:"guests"`
}

// DefaultCustomer is used when an order arrives without customer details.
func DefaultCustomer() Customer {
	return Customer{Name: "Guest", Guests: 1}
}

type Order struct {
	ID            string      `json:"id"`
	TableID       *string     `json:"table_id,omitempty"`
	SessionID     *string     `json:"session_id,omitempty"`
	Items         []LineItem  `json:"items"`
	Bill          Bill        `json:"bills"`
	Status        OrderStatus `json:"status"`
	Customer      Customer    `json:"customer"`
	PaymentMethod string      `json:"payment_method"`
	CashierID     string      `json:"cashier_id"`
	OrderDate     time.Time   `json:"order_date"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	Version       int64       `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderFilter struct {
	Statuses      []OrderStatus
	TableID       string
	PaymentMethod string
	From          *time.Time
	To            *time.Time
	Page          int32
	Limit         int32
}

type OrderStats struct {
	TotalOrders      int64           `json:"total_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AvgOrderValue    decimal.Decimal `json:"avg_order_value"`
	PaidOrders       int64           `json:"paid_orders"`
	PendingOrders    int64           `json:"pending_orders"`
	InProgressOrders int64           `json:"in_progress_orders"`
	ReadyOrders      int64           `json:"ready_orders"`
	CompletedOrders  int64           `json:"completed_orders"`
	CancelledOrders  int64           `json:"cancelled_orders"`
}

// Count adds one order in the given status to the per-status tallies.
func (s *OrderStats) Count(status OrderStatus) {
	switch status {
	case OrderStatusPaid:
		s.PaidOrders++
	case OrderStatusPending:
		s.PendingOrders++
	case OrderStatusInProgress:
		s.InProgressOrders++
	case OrderStatusReady:
		s.ReadyOrders++
	case OrderStatusCompleted:
		s.CompletedOrders++
	case OrderStatusCancelled:
		s.CancelledOrders++
	}
}
