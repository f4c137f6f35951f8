package postgres

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/repository"
)

type tableRepository struct {
	db DBTX
}

func NewTableRepository(db DBTX) repository.TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) GetByID(ctx context.Context, id string) (*domain.Table, error) {
	t := &domain.Table{}
	query := `SELECT id, table_no, name, capacity, status, current_order_id, version, updated_at
	          FROM cafe_tables WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Number, &t.Name, &t.Capacity, &t.Status, &t.CurrentOrderID, &t.Version, &t.UpdatedAt)
	if err != nil {
		return nil, translateError(err, domain.ErrTableNotFound)
	}
	return t, nil
}

func (r *tableRepository) Update(ctx context.Context, t *domain.Table) error {
	query := `UPDATE cafe_tables SET status = $1, current_order_id = $2, version = version + 1, updated_at = $3
	          WHERE id = $4 AND version = $5`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, t.Status, t.CurrentOrderID, now, t.ID, t.Version)
	if err != nil {
		return translateError(err, nil)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	t.Version++
	t.UpdatedAt = now
	return nil
}
