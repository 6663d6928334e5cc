package config

const EnvPrefix = "ORDERDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"
)

const (
	EnvAppEnv            = "ORDERDESK_APP_ENV"
	EnvPort              = "ORDERDESK_APP_PORT"
	EnvStoreDriver       = "ORDERDESK_STORE_DRIVER"
	EnvDBDSN             = "ORDERDESK_DB_DSN"
	EnvDBHost            = "ORDERDESK_DB_HOST"
	EnvDBUser            = "ORDERDESK_DB_USER"
	EnvDBName            = "ORDERDESK_DB_NAME"
	EnvMongoURI          = "ORDERDESK_MONGO_URI"
	EnvRedisURL          = "ORDERDESK_REDIS_URL"
	EnvJWTSecret         = "ORDERDESK_JWT_SECRET"
	EnvStaffEmail        = "ORDERDESK_STAFF_EMAIL"
	EnvStaffPasswordHash = "ORDERDESK_STAFF_PASSWORD_HASH"
	EnvTimeZone          = "ORDERDESK_TIMEZONE"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
