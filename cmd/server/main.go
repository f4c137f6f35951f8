package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "lounge-pos-backend/internal/api/http"
	"lounge-pos-backend/internal/bootstrap"
	"lounge-pos-backend/internal/cache"
	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/events"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/metrics"
	"lounge-pos-backend/internal/repository"
	"lounge-pos-backend/internal/repository/memory"
	"lounge-pos-backend/internal/repository/postgres"
	"lounge-pos-backend/internal/security"
	"lounge-pos-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Lounge POS Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "storage", cfg.Storage.Driver)

	metrics.InitMetrics()
	ctx := context.Background()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	if _, err := bootstrap.ReconcileAccounts(ctx, store, cfg.Bootstrap.Accounts); err != nil {
		logger.Error("Failed to reconcile staff accounts", "error", err)
		log.Fatalf("Failed to reconcile staff accounts: %v", err)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Optional idempotency cache
	var idem cache.IdempotencyStore
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, idempotency keys disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rdb.Close()
			idem = cache.NewRedisIdempotencyStore(rdb, time.Duration(cfg.Redis.IdempotencyTTLMinutes)*time.Minute)
		}
	}

	// Optional event publishing
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Producer, cfg.Kafka.BufferSize)
		kp.Start()
		defer kp.Close()
		publisher = kp
		logger.Info("Publishing billing events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// Initialize Services
	policy := service.BillingPolicy{
		OrderTaxRate:            cfg.Billing.OrderTax(),
		SessionTaxRate:          cfg.Billing.SessionTax(),
		DefaultPaymentMethod:    cfg.Billing.DefaultPaymentMethod,
		SettlementPaymentMethod: cfg.Billing.SettlementPaymentMethod,
	}
	orderSvc := service.NewOrderService(store, policy, service.WithPublisher(publisher))
	sessionSvc := service.NewSessionService(store, policy, service.WithPublisher(publisher))
	paymentSvc := service.NewPaymentService(store, service.WithPublisher(publisher))

	router := httpapi.NewRouter(httpapi.Handlers{
		Orders:   httpapi.NewOrderHandler(orderSvc, idem),
		Sessions: httpapi.NewSessionHandler(sessionSvc),
		Payments: httpapi.NewPaymentHandler(paymentSvc),
		Auth:     httpapi.NewAuthenticator(tokenManager),
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// openStore connects the configured storage driver and returns a func that
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.New()
		if err := bootstrap.SeedCatalog(store, cfg.Catalog); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
		return store, func() {}
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Storage.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema up to date")
	}

	return postgres.NewStore(db), func() { db.Close() }
}
