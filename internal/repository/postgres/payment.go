package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
)

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, code, order_id, session_id, table_snapshot, items, subtotal, tax, total,
	customer_name, customer_phone, customer_guests, payment_method, status, cashier_id, paid_at, version, created_at, updated_at`

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{}
	var table, items []byte
	err := row.Scan(&p.ID, &p.Code, &p.OrderID, &p.SessionID, &table, &items, &p.Bill.Subtotal, &p.Bill.Tax, &p.Bill.Total,
		&p.Customer.Name, &p.Customer.Phone, &p.Customer.Guests, &p.PaymentMethod, &p.Status, &p.CashierID, &p.PaidAt,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(table) > 0 {
		p.Table = &domain.TableSnapshot{}
		if err := json.Unmarshal(table, p.Table); err != nil {
			return nil, fmt.Errorf("decode payment %s table: %w", p.ID, err)
		}
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, fmt.Errorf("decode payment %s items: %w", p.ID, err)
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	logger.EnterMethod("paymentRepository.Create", "paymentID", p.ID, "code", p.Code, "total", p.Bill.Total)

	// JSONB parameters go over the wire as text.
	var table interface{}
	if p.Table != nil {
		snapshot, err := json.Marshal(p.Table)
		if err != nil {
			return err
		}
		table = string(snapshot)
	}
	items, err := json.Marshal(p.Items)
	if err != nil {
		return err
	}

	query := `INSERT INTO payments (id, code, order_id, session_id, table_snapshot, items, subtotal, tax, total,
	              customer_name, customer_phone, customer_guests, payment_method, status, cashier_id, paid_at, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, $17, $18)`
	now := time.Now()
	_, err = r.db.ExecContext(ctx, query, p.ID, p.Code, p.OrderID, p.SessionID, table, string(items), p.Bill.Subtotal, p.Bill.Tax, p.Bill.Total,
		p.Customer.Name, p.Customer.Phone, p.Customer.Guests, p.PaymentMethod, p.Status, p.CashierID, p.PaidAt, now, now)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "paymentID", p.ID)
		return translateError(err, nil)
	}

	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	logger.ExitMethod("paymentRepository.Create", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, domain.ErrPaymentNotFound)
	}
	return p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, p *domain.PaymentRecord) error {
	logger.EnterMethod("paymentRepository.UpdateStatus", "paymentID", p.ID, "status", p.Status)

	query := `UPDATE payments SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, p.Status, now, p.ID, p.Version)
	if err == nil {
		err = expectOneRow(res)
	}
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.UpdateStatus", err, "paymentID", p.ID)
		return translateError(err, nil)
	}

	p.Version++
	p.UpdatedAt = now
	logger.ExitMethod("paymentRepository.UpdateStatus", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) List(ctx context.Context, f domain.PaymentFilter) ([]domain.PaymentRecord, int32, error) {
	logger.EnterMethod("paymentRepository.List", "status", f.Status, "method", f.Method, "search", f.Search)

	where := ` FROM payments WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Method != "" {
		where += fmt.Sprintf(" AND payment_method = $%d", argIdx)
		args = append(args, f.Method)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND paid_at >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND paid_at <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (code ILIKE $%d OR customer_name ILIKE $%d OR customer_phone ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("paymentRepository.List", err)
		return nil, 0, err
	}

	_, limit, offset := repository.Page(f.Page, f.Limit, repository.DefaultPaymentPageSize)
	query := `SELECT ` + paymentColumns + where + fmt.Sprintf(" ORDER BY paid_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	logger.ExitMethod("paymentRepository.List", "count", len(payments), "total", count)
	return payments, count, nil
}

func (r *paymentRepository) Stats(ctx context.Context, from, to *time.Time) (*domain.PaymentStats, error) {
	query := `SELECT COALESCE(SUM(total), 0), COALESCE(SUM(tax), 0), count(*), COALESCE(AVG(total), 0),
	                 COALESCE(SUM(total) FILTER (WHERE payment_method = 'Cash'), 0),
	                 COALESCE(SUM(total) FILTER (WHERE payment_method = 'Card'), 0),
	                 COALESCE(SUM(total) FILTER (WHERE payment_method = 'Wallet'), 0)
	          FROM payments
	          WHERE status = 'Paid'
	            AND ($1::timestamptz IS NULL OR paid_at >= $1) AND ($2::timestamptz IS NULL OR paid_at <= $2)`
	s := &domain.PaymentStats{}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(&s.TotalRevenue, &s.TotalTax, &s.TotalPayments, &s.AvgPaymentValue,
		&s.CashPayments, &s.CardPayments, &s.WalletPayments)
	if err != nil {
		return nil, err
	}
	s.AvgPaymentValue = s.AvgPaymentValue.Round(2)
	return s, nil
}
