package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "Paid"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
	PaymentStatusCancelled PaymentStatus = "Cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch status := PaymentStatus(s); status {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

const (
	PaymentMethodCash   = "Cash"
	PaymentMethodCard   = "Card"
	PaymentMethodWallet = "Wallet"
)

// Payment code prefixes.
const (
	OrderPaymentPrefix   = "INV"
	SessionPaymentPrefix = "PS"
)

type PaymentLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// PaymentRecord is the immutable receipt for a completed order or session.
// Only Status may change after creation.
type PaymentRecord struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	OrderID       *string        `json:"order_id,omitempty"`
	SessionID     *string        `json:"session_id,omitempty"`
	Table         *TableSnapshot `json:"table,omitempty"`
	Items         []PaymentLine  `json:"items"`
	Bill          Bill           `json:"bills"`
	Customer      Customer       `json:"customer"`
	PaymentMethod string         `json:"payment_method"`
	Status        PaymentStatus  `json:"status"`
	CashierID     string         `json:"cashier_id"`
	PaidAt        time.Time      `json:"paid_at"`
	Version       int64          `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type PaymentFilter struct {
	Status PaymentStatus
	Method string
	From   *time.Time
	To     *time.Time
	// Search matches code, customer name or customer phone, case-insensitively.
	Search string
	Page   int32
	Limit  int32
}

// PaymentStats aggregates Paid records only.
type PaymentStats struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	TotalPayments   int64           `json:"total_payments"`
	AvgPaymentValue decimal.Decimal `json:"avg_payment_value"`
	CashPayments    decimal.Decimal `json:"cash_payments"`
	CardPayments    decimal.Decimal `json:"card_payments"`
	WalletPayments  decimal.Decimal `json:"wallet_payments"`
}
