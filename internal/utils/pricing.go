package utils

import (
	"time"

	"lounge-pos-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	nanosPerMinute = decimal.NewFromInt(int64(time.Minute))
)

// SessionCostBreakdown is the unrounded charge for a timed session.
type SessionCostBreakdown struct {
	Minutes    decimal.Decimal
	Hours      decimal.Decimal
	HourlyRate decimal.Decimal
	Price      decimal.Decimal
}

// Elapsed returns the non-negative duration between start and end.
// A clock that moved backwards yields zero.
func Elapsed(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// CalculateSessionCost prices a session linearly: (minutes / 60) * hourlyRate.
// No minimum charge and no rounding to billing increments.
func CalculateSessionCost(start, end time.Time, hourlyRate decimal.Decimal) SessionCostBreakdown {
	minutes := decimal.NewFromInt(int64(Elapsed(start, end))).Div(nanosPerMinute)
	hours := minutes.Div(minutesPerHour)
	return SessionCostBreakdown{
		Minutes:    minutes,
		Hours:      hours,
		HourlyRate: hourlyRate,
		Price:      hours.Mul(hourlyRate),
	}
}

// CalculateOrderBill sums line totals and applies taxRate. Tax is rounded to
// cents so the persisted bill always satisfies total == subtotal + tax.
func CalculateOrderBill(items []domain.LineItem, taxRate decimal.Decimal) domain.Bill {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}
	tax := Round2(subtotal.Mul(taxRate))
	return domain.Bill{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
