package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	DB       DBConfig
	Checkout CheckoutConfig
	Payment  PaymentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB reads only the App and DB sections. Tools that touch the database but never
// serve checkout traffic use it to avoid the payment settings.
func LoadDB() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg.App); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.DB); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKFINDERZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"PACKFINDERZ_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"PACKFINDERZ_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the persistence provider that backs shopper carts.
type StorageConfig struct {
	Backend     string `envconfig:"PACKFINDERZ_STORAGE_BACKEND" default:"memory"`
	AutoMigrate bool   `envconfig:"PACKFINDERZ_AUTO_MIGRATE" default:"false"`
}

// BackendKind returns the parsed backend; validate guarantees it is known.
func (s StorageConfig) BackendKind() enums.StorageBackend {
	kind, _ := enums.ParseStorageBackend(strings.ToLower(strings.TrimSpace(s.Backend)))
	return kind
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartTTL      time.Duration `envconfig:"PACKFINDERZ_REDIS_CART_TTL" default:"720h"`
}

type DBConfig struct {
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN"`
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// CheckoutConfig carries the pricing constants applied to every order summary.
type CheckoutConfig struct {
	TaxRate       decimal.Decimal `envconfig:"PACKFINDERZ_CHECKOUT_TAX_RATE" default:"0.0825"`
	ShippingFlat  decimal.Decimal `envconfig:"PACKFINDERZ_CHECKOUT_SHIPPING" default:"5.99"`
	Currency      string          `envconfig:"PACKFINDERZ_CHECKOUT_CURRENCY" default:"USD"`
	DefaultRegion string          `envconfig:"PACKFINDERZ_CHECKOUT_DEFAULT_COUNTRY" default:"US"`

	// Sessions untouched for SessionIdleTTL are dropped from memory; carts stay in storage.
	SessionIdleTTL       time.Duration `envconfig:"PACKFINDERZ_SESSION_IDLE_TTL" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"PACKFINDERZ_SESSION_SWEEP_INTERVAL" default:"1m"`
}

type PaymentConfig struct {
	WebhookURL string        `envconfig:"PACKFINDERZ_PAYMENT_WEBHOOK_URL" required:"true"`
	Timeout    time.Duration `envconfig:"PACKFINDERZ_PAYMENT_TIMEOUT" default:"15s"`

	BreakerFailures uint32        `envconfig:"PACKFINDERZ_PAYMENT_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"PACKFINDERZ_PAYMENT_BREAKER_COOLDOWN" default:"30s"`
}

func (c *Config) validate() error {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	kind, err := enums.ParseStorageBackend(backend)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvStorageBackend, err)
	}
	switch kind {
	case enums.StorageBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
		}
	case enums.StorageBackendSQL:
		if err := c.DB.ensureDSN(); err != nil {
			return err
		}
	}

	if c.Checkout.TaxRate.IsNegative() || c.Checkout.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0, 1), got %s", EnvCheckoutTaxRate, c.Checkout.TaxRate)
	}
	if c.Checkout.ShippingFlat.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCheckoutShipping)
	}
	if c.Checkout.SessionIdleTTL < 0 {
		return fmt.Errorf("%s must not be negative", EnvSessionIdleTTL)
	}

	parsed, err := url.Parse(strings.TrimSpace(c.Payment.WebhookURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return fmt.Errorf("%s must be an absolute http(s) url", EnvPaymentWebhookURL)
	}
	if c.App.IsProd() && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use https in production", EnvPaymentWebhookURL)
	}
	if c.Payment.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentTimeout)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	switch driver {
	case DBDriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvDBDSN)
		}
	case DBDriverSQLite:
		if db.DSN == "" {
			db.DSN = "file:merch-checkout.db?cache=shared"
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvDBDriver, DBDriverPostgres, DBDriverSQLite)
	}
	db.Driver = driver
	return nil
}
