package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Inventory    InventoryConfig
	Saga         SagaConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APEXFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"APEXFLOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"APEXFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"APEXFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"APEXFLOW_DB_DSN"`
	Driver string `envconfig:"APEXFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"APEXFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"APEXFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"APEXFLOW_DB_USER"`
	LegacyPassword string `envconfig:"APEXFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"APEXFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"APEXFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"APEXFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"APEXFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"APEXFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"APEXFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"APEXFLOW_REDIS_URL"`
	Address      string        `envconfig:"APEXFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"APEXFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"APEXFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"APEXFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"APEXFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"APEXFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"APEXFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APEXFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"APEXFLOW_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"APEXFLOW_JWT_ISSUER" default:"apexflow"`
	// ExpirationMinutes bounds tokens minted by the ops tooling.
	ExpirationMinutes int `envconfig:"APEXFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"APEXFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"APEXFLOW_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	DefaultPageSize int `envconfig:"APEXFLOW_ORDERS_DEFAULT_PAGE_SIZE" default:"20"`
}

type InventoryConfig struct {
	LowStockThreshold int `envconfig:"APEXFLOW_LOW_STOCK_THRESHOLD" default:"10"`
	AdjustMaxRetries  int `envconfig:"APEXFLOW_ADJUST_MAX_RETRIES" default:"5"`
}

type SagaConfig struct {
	ReconcileInterval time.Duration `envconfig:"APEXFLOW_SAGA_RECONCILE_INTERVAL" default:"1m"`
	BatchSize         int           `envconfig:"APEXFLOW_SAGA_BATCH_SIZE" default:"50"`
	MaxAttempts       int           `envconfig:"APEXFLOW_SAGA_MAX_ATTEMPTS" default:"10"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"APEXFLOW_IDEMPOTENCY_TTL" default:"24h"`
}

// RateLimitConfig throttles mutating api calls per user. A zero limit
// disables throttling.
type RateLimitConfig struct {
	WriteWindow time.Duration `envconfig:"APEXFLOW_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteLimit  int           `envconfig:"APEXFLOW_RATE_LIMIT_WRITE_LIMIT" default:"120"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"APEXFLOW_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = defaultSQLiteDSN
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
