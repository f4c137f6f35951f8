package bootstrap

import (
	"fmt"

	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"

	"github.com/shopspring/decimal"
)

// CatalogLoader receives the catalog rows the billing flows read. The memory
// store implements it.
type CatalogLoader interface {
	PutProduct(p domain.Product)
	PutTable(t domain.Table)
	PutUnit(u domain.RentalUnit)
}

// SeedCatalog loads configured products, tables and rental units. Prices
// are validated before anything is loaded.
func SeedCatalog(dst CatalogLoader, cat config.CatalogConfig) error {
	products := make([]domain.Product, 0, len(cat.Products))
	for _, p := range cat.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("product %s: invalid price %q: %w", p.ID, p.Price, err)
		}
		products = append(products, domain.Product{
			ID:                p.ID,
			Name:              p.Name,
			Category:          p.Category,
			Price:             price,
			Unit:              p.Unit,
			Quantity:          p.Quantity,
			LowStockThreshold: p.LowStockThreshold,
		})
	}

	units := make([]domain.RentalUnit, 0, len(cat.Units))
	for _, u := range cat.Units {
		rate, err := decimal.NewFromString(u.HourlyRate)
		if err != nil {
			return fmt.Errorf("unit %s: invalid hourly rate %q: %w", u.ID, u.HourlyRate, err)
		}
		if rate.IsNegative() {
			return fmt.Errorf("unit %s: hourly rate must not be negative", u.ID)
		}
		units = append(units, domain.RentalUnit{ID: u.ID, Name: u.Name, Type: u.Type, HourlyRate: rate})
	}

	for _, p := range products {
		dst.PutProduct(p)
	}
	for _, t := range cat.Tables {
		dst.PutTable(domain.Table{ID: t.ID, Number: t.Number, Name: t.Name, Capacity: t.Capacity})
	}
	for _, u := range units {
		dst.PutUnit(u)
	}

	logger.Info("Catalog seeded", "products", len(products), "tables", len(cat.Tables), "units", len(units))
	return nil
}
