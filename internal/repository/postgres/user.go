package postgres

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, phone, role, password_hash, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`
	now := time.Now()
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash, now, now); err != nil {
		return translateError(err, nil)
	}
	u.Version = 1
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, phone, role, password_hash, version, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translateError(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name = $1, phone = $2, role = $3, password_hash = $4, version = version + 1, updated_at = $5
	          WHERE id = $6 AND version = $7`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, u.Name, u.Phone, u.Role, u.PasswordHash, now, u.ID, u.Version)
	if err != nil {
		return translateError(err, nil)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	u.Version++
	u.UpdatedAt = now
	return nil
}
