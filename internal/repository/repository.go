package repository

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
)

// Update methods on versioned entities are conditional on the Version the
// caller read. A mismatch returns domain.ErrStaleWrite and leaves the row
// untouched; on success the entity's Version is advanced.

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateQuantity(ctx context.Context, product *domain.Product) error
}

type TableRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Table, error)
	Update(ctx context.Context, table *domain.Table) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, order *domain.Order) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int32, error)
	Stats(ctx context.Context, from, to *time.Time) (*domain.OrderStats, error)
}

type RentalUnitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.RentalUnit, error)
	Update(ctx context.Context, unit *domain.RentalUnit) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.RentalSession) error
	GetByID(ctx context.Context, id string) (*domain.RentalSession, error)
	Update(ctx context.Context, session *domain.RentalSession) error
	ListActive(ctx context.Context) ([]domain.RentalSession, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.PaymentRecord) error
	GetByID(ctx context.Context, id string) (*domain.PaymentRecord, error)
	UpdateStatus(ctx context.Context, payment *domain.PaymentRecord) error
	List(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentRecord, int32, error)
	Stats(ctx context.Context, from, to *time.Time) (*domain.PaymentStats, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// Repositories groups every repository bound to one connection or transaction.
type Repositories struct {
	Products ProductRepository
	Tables   TableRepository
	Orders   OrderRepository
	Units    RentalUnitRepository
	Sessions SessionRepository
	Payments PaymentRepository
	Users    UserRepository
}

// TxFunc runs against repositories bound to a single transaction.
type TxFunc func(ctx context.Context, repos *Repositories) error

// Store is the persistence boundary. WithinTx commits only when fn returns
// nil; any error rolls back every write fn made.
type Store interface {
	Repositories() *Repositories
	WithinTx(ctx context.Context, fn TxFunc) error
}

// Pagination defaults shared by the list queries.
const (
	DefaultOrderPageSize   int32 = 50
	DefaultPaymentPageSize int32 = 20
	MaxPageSize            int32 = 200
)

// Page normalises page and limit and returns the row offset.
func Page(page, limit, defaultLimit int32) (int32, int32, int32) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}
