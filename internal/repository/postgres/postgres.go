package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db    *sql.DB
	repos *repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: newRepositories(db)}
}

func newRepositories(db DBTX) *repository.Repositories {
	return &repository.Repositories{
		Products: NewProductRepository(db),
		Tables:   NewTableRepository(db),
		Orders:   NewOrderRepository(db),
		Units:    NewRentalUnitRepository(db),
		Sessions: NewSessionRepository(db),
		Payments: NewPaymentRepository(db),
		Users:    NewUserRepository(db),
	}
}

func (s *Store) Repositories() *repository.Repositories {
	return s.repos
}

func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Transaction commit failed", "error", err)
		return translateError(err, nil)
	}
	return nil
}
