package service

import (
	"context"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
)

// StockLedger deducts on-hand quantity when an order is placed. It runs on
// the repositories of the caller's transaction so a later failure in the
// same order restores every deduction.
type StockLedger struct{}

func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// ReserveAndDeduct takes qty units of a product, failing with a
// *domain.StockError when fewer are on hand. It returns the product as
// updated.
func (l *StockLedger) ReserveAndDeduct(ctx context.Context, products repository.ProductRepository, productID string, qty int32) (*domain.Product, error) {
	if qty <= 0 {
		return nil, domain.NewValidationError("quantity", "must be positive")
	}

	p, err := products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < qty {
		return nil, &domain.StockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: qty,
			Available: p.Quantity,
		}
	}

	p.Quantity -= qty
	if err := products.UpdateQuantity(ctx, p); err != nil {
		return nil, err
	}

	if p.LowStock() {
		logger.WarnContext(ctx, "Product stock at or below threshold", "productID", p.ID, "name", p.Name, "quantity", p.Quantity, "threshold", p.LowStockThreshold)
	}
	return p, nil
}
