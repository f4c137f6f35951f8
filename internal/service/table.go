package service

import (
	"context"
	"errors"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
)

// TableAllocator keeps a table's status and its current-order reference in
// step: Occupied always carries the order holding the table.
type TableAllocator struct{}

func NewTableAllocator() *TableAllocator {
	return &TableAllocator{}
}

func (a *TableAllocator) Claim(ctx context.Context, tables repository.TableRepository, tableID, orderID string) (*domain.Table, error) {
	t, err := tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.TableStatusOccupied && t.CurrentOrderID != nil {
		return nil, domain.ErrTableBusy
	}

	t.Status = domain.TableStatusOccupied
	t.CurrentOrderID = &orderID
	if err := tables.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Release frees a table. Releasing a free table, or one that has since been
// removed from the floor plan, is a no-op.
func (a *TableAllocator) Release(ctx context.Context, tables repository.TableRepository, tableID string) error {
	t, err := tables.GetByID(ctx, tableID)
	if errors.Is(err, domain.ErrTableNotFound) {
		logger.WarnContext(ctx, "Releasing unknown table", "tableID", tableID)
		return nil
	}
	if err != nil {
		return err
	}
	if t.Status == domain.TableStatusAvailable && t.CurrentOrderID == nil {
		return nil
	}

	t.Status = domain.TableStatusAvailable
	t.CurrentOrderID = nil
	return tables.Update(ctx, t)
}
