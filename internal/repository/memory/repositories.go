package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/repository"

	"github.com/shopspring/decimal"
)

func newRepositories(st *state, mu sync.Locker) *repository.Repositories {
	return &repository.Repositories{
		Products: &productRepository{st: st, mu: mu},
		Tables:   &tableRepository{st: st, mu: mu},
		Orders:   &orderRepository{st: st, mu: mu},
		Units:    &rentalUnitRepository{st: st, mu: mu},
		Sessions: &sessionRepository{st: st, mu: mu},
		Payments: &paymentRepository{st: st, mu: mu},
		Users:    &userRepository{st: st, mu: mu},
	}
}

type productRepository struct {
	st *state
	mu sync.Locker
}

func (r *productRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *productRepository) UpdateQuantity(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.products[p.ID]
	if !ok || cur.Version != p.Version {
		return domain.ErrStaleWrite
	}
	cur.Quantity = p.Quantity
	cur.Version++
	cur.UpdatedAt = time.Now()
	r.st.products[p.ID] = cur
	p.Version, p.UpdatedAt = cur.Version, cur.UpdatedAt
	return nil
}

type tableRepository struct {
	st *state
	mu sync.Locker
}

func (r *tableRepository) GetByID(_ context.Context, id string) (*domain.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.st.tables[id]
	if !ok {
		return nil, domain.ErrTableNotFound
	}
	return &t, nil
}

func (r *tableRepository) Update(_ context.Context, t *domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.tables[t.ID]
	if !ok || cur.Version != t.Version {
		return domain.ErrStaleWrite
	}
	t.Version++
	t.UpdatedAt = time.Now()
	r.st.tables[t.ID] = *t
	return nil
}

type orderRepository struct {
	st *state
	mu sync.Locker
}

func (r *orderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.st.orders[o.ID]; exists {
		return domain.ErrDuplicate
	}
	now := time.Now()
	o.Version = 1
	o.CreatedAt, o.UpdatedAt = now, now
	r.st.orders[o.ID] = *o
	return nil
}

func (r *orderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.orders[o.ID]
	if !ok || cur.Version != o.Version {
		return domain.ErrStaleWrite
	}
	cur.Status = o.Status
	cur.Version++
	cur.UpdatedAt = time.Now()
	r.st.orders[o.ID] = cur
	o.Version, o.UpdatedAt = cur.Version, cur.UpdatedAt
	return nil
}

func (r *orderRepository) Delete(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.orders[o.ID]
	if !ok || cur.Version != o.Version {
		return domain.ErrStaleWrite
	}
	delete(r.st.orders, o.ID)
	return nil
}

func (r *orderRepository) ListBySession(_ context.Context, sessionID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []domain.Order
	for _, o := range r.st.orders {
		if o.SessionID != nil && *o.SessionID == sessionID {
			orders = append(orders, o)
		}
	}
	slices.SortFunc(orders, func(a, b domain.Order) int { return a.OrderDate.Compare(b.OrderDate) })
	return orders, nil
}

func (r *orderRepository) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Order
	for _, o := range r.st.orders {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
			continue
		}
		if f.TableID != "" && (o.TableID == nil || *o.TableID != f.TableID) {
			continue
		}
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		if !inRange(o.OrderDate, f.From, f.To) {
			continue
		}
		matched = append(matched, o)
	}
	slices.SortFunc(matched, func(a, b domain.Order) int { return b.OrderDate.Compare(a.OrderDate) })
	_, limit, offset := repository.Page(f.Page, f.Limit, repository.DefaultOrderPageSize)
	return pageOf(matched, offset, limit), int32(len(matched)), nil
}

func (r *orderRepository) Stats(_ context.Context, from, to *time.Time) (*domain.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.OrderStats{TotalRevenue: decimal.Zero, AvgOrderValue: decimal.Zero}
	for _, o := range r.st.orders {
		if !inRange(o.OrderDate, from, to) {
			continue
		}
		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Bill.Total)
		stats.Count(o.Status)
	}
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(stats.TotalOrders)).Round(2)
	}
	return stats, nil
}

type rentalUnitRepository struct {
	st *state
	mu sync.Locker
}

func (r *rentalUnitRepository) GetByID(_ context.Context, id string) (*domain.RentalUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.st.units[id]
	if !ok {
		return nil, domain.ErrUnitNotFound
	}
	return &u, nil
}

func (r *rentalUnitRepository) Update(_ context.Context, u *domain.RentalUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.units[u.ID]
	if !ok || cur.Version != u.Version {
		return domain.ErrStaleWrite
	}
	u.Version++
	u.UpdatedAt = time.Now()
	r.st.units[u.ID] = *u
	return nil
}

type sessionRepository struct {
	st *state
	mu sync.Locker
}

func (r *sessionRepository) Create(_ context.Context, s *domain.RentalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.st.sessions[s.ID]; exists {
		return domain.ErrDuplicate
	}
	now := time.Now()
	s.Version = 1
	s.CreatedAt, s.UpdatedAt = now, now
	r.st.sessions[s.ID] = *s
	return nil
}

func (r *sessionRepository) GetByID(_ context.Context, id string) (*domain.RentalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *sessionRepository) Update(_ context.Context, s *domain.RentalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.sessions[s.ID]
	if !ok || cur.Version != s.Version {
		return domain.ErrStaleWrite
	}
	s.Version++
	s.UpdatedAt = time.Now()
	r.st.sessions[s.ID] = *s
	return nil
}

func (r *sessionRepository) ListActive(_ context.Context) ([]domain.RentalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []domain.RentalSession
	for _, s := range r.st.sessions {
		if s.Active() {
			sessions = append(sessions, s)
		}
	}
	slices.SortFunc(sessions, func(a, b domain.RentalSession) int { return a.StartTime.Compare(b.StartTime) })
	return sessions, nil
}

type paymentRepository struct {
	st *state
	mu sync.Locker
}

func (r *paymentRepository) Create(_ context.Context, p *domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.st.payments {
		if existing.ID == p.ID || existing.Code == p.Code {
			return domain.ErrDuplicate
		}
	}
	now := time.Now()
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	r.st.payments[p.ID] = *p
	return nil
}

func (r *paymentRepository) GetByID(_ context.Context, id string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *paymentRepository) UpdateStatus(_ context.Context, p *domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.payments[p.ID]
	if !ok || cur.Version != p.Version {
		return domain.ErrStaleWrite
	}
	cur.Status = p.Status
	cur.Version++
	cur.UpdatedAt = time.Now()
	r.st.payments[p.ID] = cur
	p.Version, p.UpdatedAt = cur.Version, cur.UpdatedAt
	return nil
}

func (r *paymentRepository) List(_ context.Context, f domain.PaymentFilter) ([]domain.PaymentRecord, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(f.Search)
	var matched []domain.PaymentRecord
	for _, p := range r.st.payments {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Method != "" && p.PaymentMethod != f.Method {
			continue
		}
		if !inRange(p.PaidAt, f.From, f.To) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Code), search) &&
			!strings.Contains(strings.ToLower(p.Customer.Name), search) &&
			!strings.Contains(strings.ToLower(p.Customer.Phone), search) {
			continue
		}
		matched = append(matched, p)
	}
	slices.SortFunc(matched, func(a, b domain.PaymentRecord) int { return b.PaidAt.Compare(a.PaidAt) })
	_, limit, offset := repository.Page(f.Page, f.Limit, repository.DefaultPaymentPageSize)
	return pageOf(matched, offset, limit), int32(len(matched)), nil
}

func (r *paymentRepository) Stats(_ context.Context, from, to *time.Time) (*domain.PaymentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.PaymentStats{
		TotalRevenue:    decimal.Zero,
		TotalTax:        decimal.Zero,
		AvgPaymentValue: decimal.Zero,
		CashPayments:    decimal.Zero,
		CardPayments:    decimal.Zero,
		WalletPayments:  decimal.Zero,
	}
	for _, p := range r.st.payments {
		if p.Status != domain.PaymentStatusPaid || !inRange(p.PaidAt, from, to) {
			continue
		}
		stats.TotalPayments++
		stats.TotalRevenue = stats.TotalRevenue.Add(p.Bill.Total)
		stats.TotalTax = stats.TotalTax.Add(p.Bill.Tax)
		switch p.PaymentMethod {
		case domain.PaymentMethodCash:
			stats.CashPayments = stats.CashPayments.Add(p.Bill.Total)
		case domain.PaymentMethodCard:
			stats.CardPayments = stats.CardPayments.Add(p.Bill.Total)
		case domain.PaymentMethodWallet:
			stats.WalletPayments = stats.WalletPayments.Add(p.Bill.Total)
		}
	}
	if stats.TotalPayments > 0 {
		stats.AvgPaymentValue = stats.TotalRevenue.Div(decimal.NewFromInt(stats.TotalPayments)).Round(2)
	}
	return stats, nil
}

type userRepository struct {
	st *state
	mu sync.Locker
}

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.st.users {
		if existing.ID == u.ID || strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	now := time.Now()
	u.Version = 1
	u.CreatedAt, u.UpdatedAt = now, now
	r.st.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.st.users[u.ID]
	if !ok || cur.Version != u.Version {
		return domain.ErrStaleWrite
	}
	u.Version++
	u.UpdatedAt = time.Now()
	r.st.users[u.ID] = *u
	return nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func pageOf[T any](items []T, offset, limit int32) []T {
	if int(offset) >= len(items) {
		return nil
	}
	end := int(offset + limit)
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
