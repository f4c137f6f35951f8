package postgres

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
)

type sessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, unit_id, hourly_rate, start_time, end_time, duration_minutes, price, status, cashier_id, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.RentalSession, error) {
	s := &domain.RentalSession{}
	err := row.Scan(&s.ID, &s.UnitID, &s.HourlyRate, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Price, &s.Status, &s.CashierID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.RentalSession) error {
	logger.EnterMethod("sessionRepository.Create", "sessionID", s.ID, "unitID", s.UnitID)

	query := `INSERT INTO rental_sessions (id, unit_id, hourly_rate, start_time, end_time, duration_minutes, price, status, cashier_id, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UnitID, s.HourlyRate, s.StartTime, s.EndTime, s.DurationMinutes, s.Price, s.Status, s.CashierID, now, now)
	if err != nil {
		logger.ExitMethodWithError("sessionRepository.Create", err, "sessionID", s.ID)
		return translateError(err, nil)
	}

	s.Version = 1
	s.CreatedAt, s.UpdatedAt = now, now
	logger.ExitMethod("sessionRepository.Create", "sessionID", s.ID)
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.RentalSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, domain.ErrSessionNotFound)
	}
	return s, nil
}

func (r *sessionRepository) Update(ctx context.Context, s *domain.RentalSession) error {
	logger.EnterMethod("sessionRepository.Update", "sessionID", s.ID, "status", s.Status)

	query := `UPDATE rental_sessions SET end_time = $1, duration_minutes = $2, price = $3, status = $4, version = version + 1, updated_at = $5
	          WHERE id = $6 AND version = $7`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, s.EndTime, s.DurationMinutes, s.Price, s.Status, now, s.ID, s.Version)
	if err == nil {
		err = expectOneRow(res)
	}
	if err != nil {
		logger.ExitMethodWithError("sessionRepository.Update", err, "sessionID", s.ID)
		return translateError(err, nil)
	}

	s.Version++
	s.UpdatedAt = now
	logger.ExitMethod("sessionRepository.Update", "sessionID", s.ID)
	return nil
}

func (r *sessionRepository) ListActive(ctx context.Context) ([]domain.RentalSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE status = $1 ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, query, domain.SessionStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.RentalSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
