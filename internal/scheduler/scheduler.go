package scheduler

import (
	"time"

	"lounge-pos-backend/internal/jobs"
	"lounge-pos-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the billing housekeeping jobs on their cron expressions.
type Scheduler struct {
	cron   *cron.Cron
	runner *jobs.JobRunner
}

type entry struct {
	name string
	expr string
	run  func()
}

// NewScheduler registers every job whose expression parses. Expressions
// carry a seconds field and are evaluated in UTC.
func NewScheduler(runner *jobs.JobRunner) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		runner: runner,
	}

	cfg := runner.Config().Scheduler
	for _, e := range []entry{
		{name: "long-running-sessions", expr: cfg.LongRunningSessions, run: runner.CheckLongRunningSessions},
		{name: "daily-revenue", expr: cfg.DailyRevenueSnapshot, run: runner.SnapshotDailyRevenue},
	} {
		if _, err := s.cron.AddFunc(e.expr, e.run); err != nil {
			logger.Error("Skipping job with invalid schedule", "job", e.name, "schedule", e.expr, "error", err)
			continue
		}
		logger.Debug("Job scheduled", "job", e.name, "schedule", e.expr)
	}
	return s
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Job scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Job scheduler stopped")
}

func (s *Scheduler) HasJobs() bool {
	return len(s.cron.Entries()) > 0
}
