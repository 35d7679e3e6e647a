package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Store    StoreConfig
	Scanner  ScannerConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"LANKAPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"LANKAPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LANKAPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LANKAPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LANKAPOS_DB_DSN"`
	Driver string `envconfig:"LANKAPOS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LANKAPOS_DB_HOST"`
	Port     int    `envconfig:"LANKAPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"LANKAPOS_DB_USER"`
	Password string `envconfig:"LANKAPOS_DB_PASSWORD"`
	Name     string `envconfig:"LANKAPOS_DB_NAME"`
	SSLMode  string `envconfig:"LANKAPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LANKAPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LANKAPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LANKAPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LANKAPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LANKAPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LANKAPOS_REDIS_ADDR"`
	Password     string        `envconfig:"LANKAPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LANKAPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LANKAPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LANKAPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LANKAPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LANKAPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LANKAPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LANKAPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LANKAPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LANKAPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LANKAPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LANKAPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LANKAPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LANKAPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LANKAPOS_ARGON_KEY_LEN" default:"32"`
}

// StoreConfig carries storefront defaults stamped onto sales and held bills.
type StoreConfig struct {
	Currency        string `envconfig:"LANKAPOS_STORE_CURRENCY" default:"LKR"`
	DefaultTerminal string `envconfig:"LANKAPOS_STORE_DEFAULT_TERMINAL" default:"Terminal 1"`
	DefaultCashier  string `envconfig:"LANKAPOS_STORE_DEFAULT_CASHIER" default:"Cashier"`
}

// ScannerConfig tunes the barcode input state machines.
type ScannerConfig struct {
	ScanIdleWindow  time.Duration `envconfig:"LANKAPOS_SCANNER_IDLE_WINDOW" default:"100ms"`
	FieldDebounce   time.Duration `envconfig:"LANKAPOS_SCANNER_FIELD_DEBOUNCE" default:"300ms"`
	MinScanLength   int           `envconfig:"LANKAPOS_SCANNER_MIN_SCAN_LENGTH" default:"4"`
	MinFieldLength  int           `envconfig:"LANKAPOS_SCANNER_MIN_FIELD_LENGTH" default:"8"`
	DuplicateWindow time.Duration `envconfig:"LANKAPOS_SCANNER_DUPLICATE_WINDOW" default:"250ms"`
}

// CheckoutConfig bounds the discount-engine round trip per cart revision.
type CheckoutConfig struct {
	DiscountApplyTimeout time.Duration `envconfig:"LANKAPOS_CHECKOUT_DISCOUNT_TIMEOUT" default:"2s"`
	SessionIdleTTL       time.Duration `envconfig:"LANKAPOS_CHECKOUT_SESSION_IDLE_TTL" default:"12h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"LANKAPOS_STRIPE_API_KEY"`
	Env    string `envconfig:"LANKAPOS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID string `envconfig:"LANKAPOS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SaleEventsTopic string `envconfig:"LANKAPOS_PUBSUB_SALE_EVENTS_TOPIC" default:"pos-sale-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LANKAPOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LANKAPOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LANKAPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LANKAPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LANKAPOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
