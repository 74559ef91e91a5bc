package config

// EnvPrefix is empty because every field carries its fully qualified variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "PACKFINDERZ_APP_ENV"
	EnvPort              = "PACKFINDERZ_APP_PORT"
	EnvStorageBackend    = "PACKFINDERZ_STORAGE_BACKEND"
	EnvRedisURL          = "PACKFINDERZ_REDIS_URL"
	EnvRedisAddr         = "PACKFINDERZ_REDIS_ADDR"
	EnvDBDSN             = "PACKFINDERZ_DB_DSN"
	EnvDBDriver          = "PACKFINDERZ_DB_DRIVER"
	EnvCheckoutTaxRate   = "PACKFINDERZ_CHECKOUT_TAX_RATE"
	EnvCheckoutShipping  = "PACKFINDERZ_CHECKOUT_SHIPPING"
	EnvPaymentWebhookURL = "PACKFINDERZ_PAYMENT_WEBHOOK_URL"
	EnvPaymentTimeout    = "PACKFINDERZ_PAYMENT_TIMEOUT"
	EnvSessionIdleTTL    = "PACKFINDERZ_SESSION_IDLE_TTL"
)
