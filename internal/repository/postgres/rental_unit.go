package postgres

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
)

type rentalUnitRepository struct {
	db DBTX
}

func NewRentalUnitRepository(db DBTX) repository.RentalUnitRepository {
	return &rentalUnitRepository{db: db}
}

func (r *rentalUnitRepository) GetByID(ctx context.Context, id string) (*domain.RentalUnit, error) {
	u := &domain.RentalUnit{}
	query := `SELECT id, name, unit_type, hourly_rate, status, current_session_id, version, updated_at
	          FROM rental_units WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Type, &u.HourlyRate, &u.Status, &u.CurrentSessionID, &u.Version, &u.UpdatedAt)
	if err != nil {
		return nil, translateError(err, domain.ErrUnitNotFound)
	}
	return u, nil
}

func (r *rentalUnitRepository) Update(ctx context.Context, u *domain.RentalUnit) error {
	logger.EnterMethod("rentalUnitRepository.Update", "unitID", u.ID, "status", u.Status)

	query := `UPDATE rental_units SET status = $1, current_session_id = $2, version = version + 1, updated_at = $3
	          WHERE id = $4 AND version = $5`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, u.Status, u.CurrentSessionID, now, u.ID, u.Version)
	if err == nil {
		err = expectOneRow(res)
	}
	if err != nil {
		logger.ExitMethodWithError("rentalUnitRepository.Update", err, "unitID", u.ID)
		return translateError(err, nil)
	}

	u.Version++
	u.UpdatedAt = now
	logger.ExitMethod("rentalUnitRepository.Update", "unitID", u.ID, "version", u.Version)
	return nil
}
