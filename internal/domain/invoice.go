package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type InvoiceUnit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type InvoiceSession struct {
	ID              string          `json:"id"`
	Status          SessionStatus   `json:"status"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	DurationMinutes decimal.Decimal `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
}

type InvoiceOrder struct {
	ID     string      `json:"id"`
	Status OrderStatus `json:"status"`
	Items  []LineItem  `json:"items"`
	Bill   Bill        `json:"bills"`
}

// Invoice is the composed bill for a session plus the orders charged to it.
// Monetary fields are rounded to two decimals.
type Invoice struct {
	Unit     InvoiceUnit     `json:"unit"`
	Session  InvoiceSession  `json:"session"`
	Orders   []InvoiceOrder  `json:"orders"`
	Lines    []InvoiceLine   `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	// Ongoing is set while the session is still running and the figures are live.
	Ongoing bool `json:"ongoing"`
}

func (i *Invoice) Bill() Bill {
	return Bill{Subtotal: i.Subtotal, Tax: i.Tax, Total: i.Total}
}
