package memory

import (
	"context"
	"maps"
	"sync"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/repository"
)

type state struct {
	products map[string]domain.Product
	tables   map[string]domain.Table
	orders   map[string]domain.Order
	units    map[string]domain.RentalUnit
	sessions map[string]domain.RentalSession
	payments map[string]domain.PaymentRecord
	users    map[string]domain.User
}

func newState() *state {
	return &state{
		products: make(map[string]domain.Product),
		tables:   make(map[string]domain.Table),
		orders:   make(map[string]domain.Order),
		units:    make(map[string]domain.RentalUnit),
		sessions: make(map[string]domain.RentalSession),
		payments: make(map[string]domain.PaymentRecord),
		users:    make(map[string]domain.User),
	}
}

// clone copies the maps. Entity values are copied by value; slices and
// pointers inside them are never mutated in place by the repositories.
func (s *state) clone() *state {
	return &state{
		products: maps.Clone(s.products),
		tables:   maps.Clone(s.tables),
		orders:   maps.Clone(s.orders),
		units:    maps.Clone(s.units),
		sessions: maps.Clone(s.sessions),
		payments: maps.Clone(s.payments),
		users:    maps.Clone(s.users),
	}
}

// Store keeps everything in process memory. Transactions work on a private
// snapshot and are merged back at commit only if no row they changed was
// changed by another commit in the meantime, mirroring the version-checked
// writes of the postgres store.
type Store struct {
	mu    sync.Mutex
	live  *state
	repos *repository.Repositories
}

func New() *Store {
	s := &Store{live: newState()}
	s.repos = newRepositories(s.live, &s.mu)
	return s
}

func (s *Store) Repositories() *repository.Repositories {
	return s.repos
}

func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	base := s.live.clone()
	s.mu.Unlock()

	work := base.clone()
	if err := fn(ctx, newRepositories(work, nopLocker{})); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(base, work)
}

func (s *Store) commit(base, work *state) error {
	live := s.live
	checks := []error{
		checkVersions(base.products, work.products, live.products, func(p domain.Product) int64 { return p.Version }),
		checkVersions(base.tables, work.tables, live.tables, func(t domain.Table) int64 { return t.Version }),
		checkVersions(base.orders, work.orders, live.orders, func(o domain.Order) int64 { return o.Version }),
		checkVersions(base.units, work.units, live.units, func(u domain.RentalUnit) int64 { return u.Version }),
		checkVersions(base.sessions, work.sessions, live.sessions, func(s domain.RentalSession) int64 { return s.Version }),
		checkVersions(base.payments, work.payments, live.payments, func(p domain.PaymentRecord) int64 { return p.Version }),
		checkVersions(base.users, work.users, live.users, func(u domain.User) int64 { return u.Version }),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	apply(base.products, work.products, live.products, func(p domain.Product) int64 { return p.Version })
	apply(base.tables, work.tables, live.tables, func(t domain.Table) int64 { return t.Version })
	apply(base.orders, work.orders, live.orders, func(o domain.Order) int64 { return o.Version })
	apply(base.units, work.units, live.units, func(u domain.RentalUnit) int64 { return u.Version })
	apply(base.sessions, work.sessions, live.sessions, func(s domain.RentalSession) int64 { return s.Version })
	apply(base.payments, work.payments, live.payments, func(p domain.PaymentRecord) int64 { return p.Version })
	apply(base.users, work.users, live.users, func(u domain.User) int64 { return u.Version })
	return nil
}

// checkVersions fails when a row the transaction created, changed or deleted
// no longer matches the snapshot the transaction started from.
func checkVersions[T any](base, work, live map[string]T, version func(T) int64) error {
	for id, w := range work {
		b, existed := base[id]
		if !existed {
			if _, taken := live[id]; taken {
				return domain.ErrDuplicate
			}
			continue
		}
		if version(w) == version(b) {
			continue
		}
		if l, ok := live[id]; !ok || version(l) != version(b) {
			return domain.ErrStaleWrite
		}
	}
	for id, b := range base {
		if _, kept := work[id]; kept {
			continue
		}
		if l, ok := live[id]; !ok || version(l) != version(b) {
			return domain.ErrStaleWrite
		}
	}
	return nil
}

func apply[T any](base, work, live map[string]T, version func(T) int64) {
	for id, w := range work {
		if b, existed := base[id]; existed && version(b) == version(w) {
			continue
		}
		live[id] = w
	}
	for id := range base {
		if _, kept := work[id]; !kept {
			delete(live, id)
		}
	}
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// The Put methods load catalog rows that the billing flows only read or
// update: products, tables and rental units.

func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Version == 0 {
		p.Version = 1
	}
	s.live.products[p.ID] = p
}

func (s *Store) PutTable(t domain.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Version == 0 {
		t.Version = 1
	}
	if t.Status == "" {
		t.Status = domain.TableStatusAvailable
	}
	s.live.tables[t.ID] = t
}

func (s *Store) PutUnit(u domain.RentalUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	if u.Status == "" {
		u.Status = domain.UnitStatusAvailable
	}
	s.live.units[u.ID] = u
}
