package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SOKOHUB_DB_DSN"
	EnvDBHost = "SOKOHUB_DB_HOST"
	EnvDBUser = "SOKOHUB_DB_USER"
	EnvDBName = "SOKOHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
	Mail     MailConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOKOHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"SOKOHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOKOHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOKOHUB_DB_DSN"`
	Driver string `envconfig:"SOKOHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOKOHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SOKOHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOKOHUB_DB_USER"`
	LegacyPassword string `envconfig:"SOKOHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOKOHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOKOHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOKOHUB_REDIS_ADDR"`
	Password     string        `envconfig:"SOKOHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOKOHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOKOHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOKOHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig carries the business settings applied when building orders.
type CheckoutConfig struct {
	TaxRatePercent        decimal.Decimal `envconfig:"SOKOHUB_TAX_RATE_PERCENT" default:"18"`
	StandardDeliveryCost  decimal.Decimal `envconfig:"SOKOHUB_STANDARD_DELIVERY_COST" default:"2000"`
	ExpressDeliveryCost   decimal.Decimal `envconfig:"SOKOHUB_EXPRESS_DELIVERY_COST" default:"5000"`
	FreeDeliveryThreshold decimal.Decimal `envconfig:"SOKOHUB_FREE_DELIVERY_THRESHOLD" default:"50000"`
	CartTTL               time.Duration   `envconfig:"SOKOHUB_CART_TTL" default:"168h"`
	Currency              string          `envconfig:"SOKOHUB_CHECKOUT_CURRENCY" default:"rwf"`
}

// TaxRate returns the configured percentage as a fraction (18 -> 0.18).
func (c CheckoutConfig) TaxRate() decimal.Decimal {
	return c.TaxRatePercent.Div(decimal.NewFromInt(100))
}

type StripeConfig struct {
	APIKey     string `envconfig:"SOKOHUB_STRIPE_API_KEY"`
	Secret     string `envconfig:"SOKOHUB_STRIPE_WEBHOOK_SECRET"`
	Env        string `envconfig:"SOKOHUB_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"SOKOHUB_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"SOKOHUB_STRIPE_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MailConfig struct {
	Host        string `envconfig:"SOKOHUB_SMTP_HOST"`
	Port        int    `envconfig:"SOKOHUB_SMTP_PORT" default:"587"`
	Username    string `envconfig:"SOKOHUB_SMTP_USERNAME"`
	Password    string `envconfig:"SOKOHUB_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"SOKOHUB_MAIL_FROM" default:"no-reply@sokohub.example"`
}

// Enabled reports whether outbound mail is configured at all.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOKOHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOKOHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
