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
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Payment      PaymentConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if cfg.Cart.Store == CartStoreDB || cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKET_DB_DSN"`
	Driver string `envconfig:"MARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKET_DB_USER"`
	LegacyPassword string `envconfig:"MARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKET_REDIS_URL"`
	Address      string        `envconfig:"MARKET_REDIS_ADDR"`
	Password     string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKET_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"MARKET_SESSION_TTL_MINUTES" default:"1440"`
}

// SessionTTL returns how long a login session stays registered.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKET_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool `envconfig:"MARKET_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"MARKET_AUTO_MIGRATE" default:"false"`
	SeedDirectory bool `envconfig:"MARKET_SEED_DIRECTORY" default:"true"`
}

type CartConfig struct {
	Store         string        `envconfig:"MARKET_CART_STORE" default:"memory"`
	PersistMode   string        `envconfig:"MARKET_CART_PERSIST_MODE" default:"sync"`
	FlushInterval time.Duration `envconfig:"MARKET_CART_FLUSH_INTERVAL" default:"250ms"`
	TTL           time.Duration `envconfig:"MARKET_CART_TTL" default:"0s"`
	// IdleTTL bounds how long a clean cart stays cached in memory; negative disables eviction.
	IdleTTL time.Duration `envconfig:"MARKET_CART_IDLE_TTL" default:"30m"`
}

// Async reports whether cart writes go through the write-behind flusher.
func (c CartConfig) Async() bool {
	return strings.EqualFold(strings.TrimSpace(c.PersistMode), CartPersistAsync)
}

func (c *CartConfig) validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case CartStoreMemory, CartStoreRedis, CartStoreDB:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvCartStore, CartStoreMemory, CartStoreRedis, CartStoreDB)
	}
	mode := strings.ToLower(strings.TrimSpace(c.PersistMode))
	if mode != CartPersistSync && mode != CartPersistAsync {
		return fmt.Errorf("%s must be %s or %s", EnvCartPersistMode, CartPersistSync, CartPersistAsync)
	}
	c.PersistMode = mode
	return nil
}

type CatalogConfig struct {
	CacheSize int           `envconfig:"MARKET_CATALOG_CACHE_SIZE" default:"512"`
	CacheTTL  time.Duration `envconfig:"MARKET_CATALOG_CACHE_TTL" default:"5m"`
}

type PaymentConfig struct {
	Currency     string `envconfig:"MARKET_PAYMENT_CURRENCY" default:"USD"`
	DeclineAbove string `envconfig:"MARKET_PAYMENT_DECLINE_ABOVE" default:"10000.00"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MARKET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MARKET_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MARKET_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"MARKET_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"MARKET_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
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
