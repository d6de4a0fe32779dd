package config

const EnvPrefix = "MARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "MARKET_APP_ENV"
	EnvPort            = "MARKET_APP_PORT"
	EnvLogLevel        = "MARKET_LOG_LEVEL"
	EnvDBDSN           = "MARKET_DB_DSN"
	EnvDBHost          = "MARKET_DB_HOST"
	EnvDBUser          = "MARKET_DB_USER"
	EnvDBName          = "MARKET_DB_NAME"
	EnvRedisURL        = "MARKET_REDIS_URL"
	EnvJWTSecret       = "MARKET_JWT_SECRET"
	EnvJWTIssuer       = "MARKET_JWT_ISSUER"
	EnvJWTExpMins      = "MARKET_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite       = "MARKET_USE_SQLITE"
	EnvCartStore       = "MARKET_CART_STORE"
	EnvCartPersistMode = "MARKET_CART_PERSIST_MODE"
	EnvPubSubOrders    = "MARKET_PUBSUB_ORDERS_TOPIC"
)

const (
	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"
	CartStoreDB     = "db"

	CartPersistSync  = "sync"
	CartPersistAsync = "async"
)

const defaultSQLiteDSN = "file:market.db?cache=shared&_fk=1"

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
