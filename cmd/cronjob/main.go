package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/jobs"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
	"lounge-pos-backend/internal/repository/postgres"
	"lounge-pos-backend/internal/scheduler"
	"lounge-pos-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run one job and exit: long-running-sessions, daily-revenue or all")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	metrics.InitMetrics()

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to reach database at %s:%d: %v", cfg.Database.Host, cfg.Database.Port, err)
	}

	store := postgres.NewStore(db)
	policy := service.BillingPolicy{
		OrderTaxRate:            cfg.Billing.OrderTax(),
		SessionTaxRate:          cfg.Billing.SessionTax(),
		DefaultPaymentMethod:    cfg.Billing.DefaultPaymentMethod,
		SettlementPaymentMethod: cfg.Billing.SettlementPaymentMethod,
	}
	runner := jobs.NewJobRunner(&jobs.Services{
		Session: service.NewSessionService(store, policy),
		Payment: service.NewPaymentService(store),
	}, cfg)

	if *runOnce != "" {
		byName := map[string]func(){
			"long-running-sessions": runner.CheckLongRunningSessions,
			"daily-revenue":         runner.SnapshotDailyRevenue,
			"all":                   runner.RunAll,
		}
		run, ok := byName[*runOnce]
		if !ok {
			names := make([]string, 0, len(byName))
			for name := range byName {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(os.Stderr, "unknown job %q, expected one of: %s\n", *runOnce, strings.Join(names, ", "))
			os.Exit(2)
		}
		run()
		logger.Info("One-off job finished", "job", *runOnce)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(runner)
	sched.Start()
	<-ctx.Done()
	sched.Stop()
}
