package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Billing   BillingConfig   `yaml:"billing"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver      string `yaml:"driver"` // "postgres" or "memory"
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig holds the tax rates and defaults applied when pricing.
// Rates are decimal strings such as "0.14".
type BillingConfig struct {
	OrderTaxRate            string `yaml:"order_tax_rate"`
	SessionTaxRate          string `yaml:"session_tax_rate"`
	DefaultPaymentMethod    string `yaml:"default_payment_method"`
	SettlementPaymentMethod string `yaml:"settlement_payment_method"`
	Currency                string `yaml:"currency"`
}

func (b BillingConfig) OrderTax() decimal.Decimal {
	return decimal.RequireFromString(b.OrderTaxRate)
}

func (b BillingConfig) SessionTax() decimal.Decimal {
	return decimal.RequireFromString(b.SessionTaxRate)
}

// RedisConfig enables the idempotency replay cache when Addr is set.
type RedisConfig struct {
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	IdempotencyTTLMinutes int    `yaml:"idempotency_ttl_minutes"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// KafkaConfig enables billing event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	Producer   string   `yaml:"producer"`
	BufferSize int      `yaml:"buffer_size"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// SchedulerConfig contains cron schedule settings (with seconds field).
type SchedulerConfig struct {
	LongRunningSessions         string `yaml:"long_running_sessions"`
	DailyRevenueSnapshot        string `yaml:"daily_revenue_snapshot"`
	LongRunningThresholdMinutes int    `yaml:"long_running_threshold_minutes"`
}

// BootstrapConfig lists staff accounts reconciled at startup.
type BootstrapConfig struct {
	Accounts []AccountConfig `yaml:"accounts"`
}

type AccountConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
	Role  string `yaml:"role"`
	// Password is read from the PasswordEnv variable when that is set.
	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password_env"`
}

func (a AccountConfig) ResolvePassword() string {
	if a.PasswordEnv != "" {
		if val := os.Getenv(a.PasswordEnv); val != "" {
			return val
		}
	}
	return a.Password
}

// CatalogConfig seeds the memory store with the rows the billing flows read.
type CatalogConfig struct {
	Products []ProductSeed `yaml:"products"`
	Tables   []TableSeed   `yaml:"tables"`
	Units    []UnitSeed    `yaml:"units"`
}

type ProductSeed struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Category          string `yaml:"category"`
	Price             string `yaml:"price"`
	Unit              string `yaml:"unit"`
	Quantity          int32  `yaml:"quantity"`
	LowStockThreshold int32  `yaml:"low_stock_threshold"`
}

type TableSeed struct {
	ID       string `yaml:"id"`
	Number   int32  `yaml:"number"`
	Name     string `yaml:"name"`
	Capacity int32  `yaml:"capacity"`
}

type UnitSeed struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	HourlyRate string `yaml:"hourly_rate"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, if present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	envString("STORAGE_DRIVER", &c.Storage.Driver)
	envString("JWT_SECRET", &c.JWT.Secret)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envString("ORDER_TAX_RATE", &c.Billing.OrderTaxRate)
	envString("SESSION_TAX_RATE", &c.Billing.SessionTaxRate)

	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	envString("KAFKA_TOPIC", &c.Kafka.Topic)
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 12 * 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if err := c.Billing.validate(); err != nil {
		return err
	}

	if c.Redis.IdempotencyTTLMinutes == 0 {
		c.Redis.IdempotencyTTLMinutes = 24 * 60
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "pos.billing.events"
	}
	if c.Kafka.Producer == "" {
		c.Kafka.Producer = "lounge-pos-backend"
	}
	if c.Kafka.BufferSize == 0 {
		c.Kafka.BufferSize = 256
	}

	if c.Scheduler.LongRunningSessions == "" {
		c.Scheduler.LongRunningSessions = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.DailyRevenueSnapshot == "" {
		c.Scheduler.DailyRevenueSnapshot = "0 5 0 * * *" // 00:05 UTC
	}
	if c.Scheduler.LongRunningThresholdMinutes == 0 {
		c.Scheduler.LongRunningThresholdMinutes = 240
	}

	for i, acct := range c.Bootstrap.Accounts {
		if acct.Email == "" {
			return fmt.Errorf("bootstrap account %d: email is required", i)
		}
		if acct.Role != "Admin" && acct.Role != "Cashier" {
			return fmt.Errorf("bootstrap account %s: role must be Admin or Cashier", acct.Email)
		}
	}

	return nil
}

func (b *BillingConfig) validate() error {
	if b.OrderTaxRate == "" {
		b.OrderTaxRate = "0"
	}
	if b.SessionTaxRate == "" {
		b.SessionTaxRate = "0.14"
	}
	for name, raw := range map[string]string{"order_tax_rate": b.OrderTaxRate, "session_tax_rate": b.SessionTaxRate} {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("billing %s: %w", name, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("billing %s must be between 0 and 1, got %s", name, raw)
		}
	}
	if b.DefaultPaymentMethod == "" {
		b.DefaultPaymentMethod = "Cash"
	}
	if b.SettlementPaymentMethod == "" {
		b.SettlementPaymentMethod = "Cash"
	}
	if b.Currency == "" {
		b.Currency = "EGP"
	}
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
