package service_test

import (
	"context"
	"sync"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/repository"
	"lounge-pos-backend/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	cashier = domain.Actor{UserID: "cashier-1", Role: domain.RoleCashier}
	admin   = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	t0      = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// clock is a settable time source shared by a service under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(at time.Time) *clock {
	return &clock{now: at}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seededStore() *memory.Store {
	store := memory.New()
	store.PutProduct(domain.Product{ID: "latte", Name: "Latte", Category: "Drinks", Unit: "cup", Price: dec("25"), Quantity: 10, LowStockThreshold: 2})
	store.PutProduct(domain.Product{ID: "cake", Name: "Cheesecake", Category: "Desserts", Unit: "slice", Price: dec("40"), Quantity: 1})
	store.PutTable(domain.Table{ID: "t-1", Number: 1, Capacity: 4})
	store.PutTable(domain.Table{ID: "t-2", Number: 2, Name: "Window", Capacity: 2})
	store.PutUnit(domain.RentalUnit{ID: "ps-1", Name: "PS5-1", Type: "PS5", HourlyRate: dec("20")})
	store.PutUnit(domain.RentalUnit{ID: "ps-2", Name: "PS4-1", Type: "PS4", HourlyRate: dec("15"), Status: domain.UnitStatusMaintenance})
	return store
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) {
	m.Called(ctx, e)
}

// barrierStore holds every transaction after its writes until n of them
// have reached that point, so they all commit against the same snapshot.
type barrierStore struct {
	repository.Store
	wg *sync.WaitGroup
}

func newBarrierStore(inner repository.Store, n int) *barrierStore {
	wg := &sync.WaitGroup{}
	wg.Add(n)
	return &barrierStore{Store: inner, wg: wg}
}

func (s *barrierStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		err := fn(ctx, repos)
		s.wg.Done()
		s.wg.Wait()
		return err
	})
}
