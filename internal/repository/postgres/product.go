package postgres

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/repository"
)

type productRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT id, name, category, price, unit, quantity, low_stock_threshold, version, created_at, updated_at
	          FROM products WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Unit, &p.Quantity, &p.LowStockThreshold, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translateError(err, domain.ErrProductNotFound)
	}
	return p, nil
}

func (r *productRepository) UpdateQuantity(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET quantity = $1, version = version + 1, updated_at = $2
	          WHERE id = $3 AND version = $4`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, p.Quantity, now, p.ID, p.Version)
	if err != nil {
		return translateError(err, nil)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}
