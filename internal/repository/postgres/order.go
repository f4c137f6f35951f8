package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"

	"github.com/lib/pq"
)

type orderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, table_id, session_id, items, subtotal, tax, total, status, customer_name, customer_phone, customer_guests,
	payment_method, cashier_id, order_date, paid_at, version, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var items []byte
	err := row.Scan(&o.ID, &o.TableID, &o.SessionID, &items, &o.Bill.Subtotal, &o.Bill.Tax, &o.Bill.Total, &o.Status,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.Guests,
		&o.PaymentMethod, &o.CashierID, &o.OrderDate, &o.PaidAt, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order %s items: %w", o.ID, err)
	}
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	logger.EnterMethod("orderRepository.Create", "orderID", o.ID, "items", len(o.Items))

	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (id, table_id, session_id, items, subtotal, tax, total, status, customer_name, customer_phone, customer_guests,
	              payment_method, cashier_id, order_date, paid_at, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $17)`
	now := time.Now()
	_, err = r.db.ExecContext(ctx, query, o.ID, o.TableID, o.SessionID, string(items), o.Bill.Subtotal, o.Bill.Tax, o.Bill.Total, o.Status,
		o.Customer.Name, o.Customer.Phone, o.Customer.Guests, o.PaymentMethod, o.CashierID, o.OrderDate, o.PaidAt, now, now)
	if err != nil {
		logger.ExitMethodWithError("orderRepository.Create", err, "orderID", o.ID)
		return translateError(err, nil)
	}

	o.Version = 1
	o.CreatedAt, o.UpdatedAt = now, now
	logger.ExitMethod("orderRepository.Create", "orderID", o.ID)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, domain.ErrOrderNotFound)
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, o.Status, now, o.ID, o.Version)
	if err != nil {
		return translateError(err, nil)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	o.Version++
	o.UpdatedAt = now
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, o *domain.Order) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND version = $2`, o.ID, o.Version)
	if err != nil {
		return translateError(err, nil)
	}
	return expectOneRow(res)
}

func (r *orderRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY order_date ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int32, error) {
	logger.EnterMethod("orderRepository.List", "statuses", f.Statuses, "page", f.Page)

	where := ` FROM orders WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where += fmt.Sprintf(" AND status = ANY($%d)", argIdx)
		args = append(args, pq.Array(statuses))
		argIdx++
	}
	if f.TableID != "" {
		where += fmt.Sprintf(" AND table_id = $%d", argIdx)
		args = append(args, f.TableID)
		argIdx++
	}
	if f.PaymentMethod != "" {
		where += fmt.Sprintf(" AND payment_method = $%d", argIdx)
		args = append(args, f.PaymentMethod)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND order_date >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND order_date <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("orderRepository.List", err)
		return nil, 0, err
	}

	_, limit, offset := repository.Page(f.Page, f.Limit, repository.DefaultOrderPageSize)
	query := `SELECT ` + orderColumns + where + fmt.Sprintf(" ORDER BY order_date DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("orderRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("orderRepository.List", "count", len(orders), "total", count)
	return orders, count, nil
}

func (r *orderRepository) Stats(ctx context.Context, from, to *time.Time) (*domain.OrderStats, error) {
	query := `SELECT count(*), COALESCE(SUM(total), 0), COALESCE(AVG(total), 0),
	                 count(*) FILTER (WHERE status = 'Paid'),
	                 count(*) FILTER (WHERE status = 'Pending'),
	                 count(*) FILTER (WHERE status = 'InProgress'),
	                 count(*) FILTER (WHERE status = 'Ready'),
	                 count(*) FILTER (WHERE status = 'Completed'),
	                 count(*) FILTER (WHERE status = 'Cancelled')
	          FROM orders
	          WHERE ($1::timestamptz IS NULL OR order_date >= $1) AND ($2::timestamptz IS NULL OR order_date <= $2)`
	s := &domain.OrderStats{}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(&s.TotalOrders, &s.TotalRevenue, &s.AvgOrderValue,
		&s.PaidOrders, &s.PendingOrders, &s.InProgressOrders, &s.ReadyOrders, &s.CompletedOrders, &s.CancelledOrders)
	if err != nil {
		return nil, err
	}
	s.AvgOrderValue = s.AvgOrderValue.Round(2)
	return s, nil
}
