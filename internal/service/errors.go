package service

import (
	"errors"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
)

// ErrorKind names the domain error kind err wraps, or "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_transition"
	default:
		return "internal"
	}
}

// exitWithError logs a failed operation. Rejected requests are counted and
// logged at warn; anything unclassified is an error.
func exitWithError(method, operation string, err error, args ...any) {
	kind := ErrorKind(err)
	if kind == "internal" {
		logger.ExitMethodWithError(method, err, args...)
		return
	}
	metrics.RejectionsTotal.WithLabelValues(operation, kind).Inc()
	logger.ExitMethodRejected(method, err, args...)
}
