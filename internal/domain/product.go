package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	Unit              string          `json:"unit"`
	Quantity          int32           `json:"quantity"`
	LowStockThreshold int32           `json:"low_stock_threshold"`
	Version           int64           `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LowStock reports whether the on-hand quantity has reached the warning threshold.
func (p *Product) LowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}
