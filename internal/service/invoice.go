package service

import (
	"fmt"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/utils"

	"github.com/shopspring/decimal"
)

// InvoiceComposer bills a rental session together with the orders charged
// to it. Sums are carried unrounded and only the reported figures are
// rounded to cents.
type InvoiceComposer struct {
	taxRate decimal.Decimal
}

func NewInvoiceComposer(taxRate decimal.Decimal) *InvoiceComposer {
	return &InvoiceComposer{taxRate: taxRate}
}

// Compose prices an Active session live as of now; a Completed session uses
// its stored duration and price.
func (c *InvoiceComposer) Compose(unit *domain.RentalUnit, session *domain.RentalSession, orders []domain.Order, now time.Time) *domain.Invoice {
	if session.Active() {
		cost := utils.CalculateSessionCost(session.StartTime, now, session.HourlyRate)
		return c.build(unit, session, cost, orders, true)
	}
	cost := utils.SessionCostBreakdown{
		Minutes:    session.DurationMinutes,
		Hours:      session.DurationMinutes.Div(decimal.NewFromInt(60)),
		HourlyRate: session.HourlyRate,
		Price:      session.Price,
	}
	return c.build(unit, session, cost, orders, false)
}

// Settle builds the final invoice from the unrounded charge computed when
// the session ended.
func (c *InvoiceComposer) Settle(unit *domain.RentalUnit, session *domain.RentalSession, cost utils.SessionCostBreakdown, orders []domain.Order) *domain.Invoice {
	return c.build(unit, session, cost, orders, false)
}

func (c *InvoiceComposer) build(unit *domain.RentalUnit, session *domain.RentalSession, cost utils.SessionCostBreakdown, orders []domain.Order, ongoing bool) *domain.Invoice {
	inv := &domain.Invoice{
		Unit: domain.InvoiceUnit{ID: unit.ID, Name: unit.Name, Type: unit.Type},
		Session: domain.InvoiceSession{
			ID:              session.ID,
			Status:          session.Status,
			StartTime:       session.StartTime,
			EndTime:         session.EndTime,
			HourlyRate:      session.HourlyRate,
			DurationMinutes: utils.Round2(cost.Minutes),
			Price:           utils.Round2(cost.Price),
		},
		Orders:  make([]domain.InvoiceOrder, 0, len(orders)),
		Ongoing: ongoing,
	}

	inv.Lines = append(inv.Lines, domain.InvoiceLine{
		Name:      fmt.Sprintf("%s (%s)", unit.Name, unit.Type),
		Quantity:  utils.Round2(cost.Hours),
		UnitPrice: session.HourlyRate,
		Total:     utils.Round2(cost.Price),
	})

	ordersTotal := decimal.Zero
	for _, o := range orders {
		ordersTotal = ordersTotal.Add(o.Bill.Total)
		inv.Orders = append(inv.Orders, domain.InvoiceOrder{ID: o.ID, Status: o.Status, Items: o.Items, Bill: o.Bill})
		for _, item := range o.Items {
			inv.Lines = append(inv.Lines, domain.InvoiceLine{
				Name:      item.Name,
				Quantity:  decimal.NewFromInt32(item.Quantity),
				UnitPrice: item.UnitPrice,
				Total:     utils.Round2(item.Total()),
			})
		}
	}

	subtotal := cost.Price.Add(ordersTotal)
	tax := subtotal.Mul(c.taxRate)
	inv.Subtotal = utils.Round2(subtotal)
	inv.Tax = utils.Round2(tax)
	inv.Total = inv.Subtotal.Add(inv.Tax)
	return inv
}
