package jobs

import (
	"context"
	"time"

	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
)

// CheckLongRunningSessions refreshes the active-session gauge and warns
// about sessions open longer than the configured threshold, with their
// charge so far.
func (jr *JobRunner) CheckLongRunningSessions() {
	jr.runWithRecovery("CheckLongRunningSessions", func() {
		ctx := context.Background()
		overdue, err := jr.longRunningSessions(ctx)
		if err != nil {
			logger.Error("Failed to check long-running sessions", "error", err)
			return
		}
		logger.Info("Checked active sessions", "long_running", len(overdue))
	})
}

func (jr *JobRunner) longRunningSessions(ctx context.Context) ([]domain.RentalSession, error) {
	sessions, err := jr.services.Session.ListActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Set(float64(len(sessions)))

	threshold := time.Duration(jr.config.Scheduler.LongRunningThresholdMinutes) * time.Minute
	now := jr.now()

	var overdue []domain.RentalSession
	for _, s := range sessions {
		if now.Sub(s.StartTime) < threshold {
			continue
		}
		overdue = append(overdue, s)

		inv, err := jr.services.Session.GetInvoice(ctx, s.ID)
		if err != nil {
			logger.Error("Failed to price long-running session", "session_id", s.ID, "error", err)
			continue
		}
		logger.Warn("Session running past threshold",
			"session_id", s.ID,
			"unit", inv.Unit.Name,
			"started_at", s.StartTime,
			"minutes", inv.Session.DurationMinutes.String(),
			"total_so_far", inv.Total.String())
	}
	return overdue, nil
}
