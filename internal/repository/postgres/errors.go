package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"lounge-pos-backend/internal/domain"

	"github.com/lib/pq"
)

// translateError maps driver errors onto domain error kinds. notFound is
// returned for sql.ErrNoRows; a nil notFound leaves ErrNoRows wrapped.
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if notFound != nil {
			return notFound
		}
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", domain.ErrStaleWrite, pqErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pqErr.Message)
		case "23514":
			return fmt.Errorf("check constraint %s: %w", pqErr.Constraint, domain.ErrConflict)
		}
	}
	return err
}

// expectOneRow turns a zero-row conditional update into a stale write.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStaleWrite
	}
	return nil
}
