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
	Store    StoreConfig
	DB       DBConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Staff    StaffConfig
	Blob     BlobConfig
	Transfer TransferConfig
	Cron     CronConfig
	Suggest  SuggestConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Store.Driver == StoreDriverMongo && cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvStoreDriver, StoreDriverMongo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"ORDERDESK_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"ORDERDESK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects the document store backing clients, products and orders.
type StoreConfig struct {
	Driver string `envconfig:"ORDERDESK_STORE_DRIVER" default:"postgres"`
}

// UsesSQL reports whether the store is served through gorm.
func (s StoreConfig) UsesSQL() bool {
	return s.Driver == StoreDriverPostgres || s.Driver == StoreDriverSQLite
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMongo:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, s.Driver)
	}
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERDESK_DB_DSN"`
	Driver string `envconfig:"ORDERDESK_STORE_DRIVER" default:"postgres"`

	Host     string `envconfig:"ORDERDESK_DB_HOST"`
	Port     int    `envconfig:"ORDERDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"ORDERDESK_DB_USER"`
	Password string `envconfig:"ORDERDESK_DB_PASSWORD"`
	Name     string `envconfig:"ORDERDESK_DB_NAME"`
	SSLMode  string `envconfig:"ORDERDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ORDERDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type MongoConfig struct {
	URI            string        `envconfig:"ORDERDESK_MONGO_URI"`
	Database       string        `envconfig:"ORDERDESK_MONGO_DATABASE" default:"orderdesk"`
	MaxPoolSize    uint64        `envconfig:"ORDERDESK_MONGO_MAX_POOL_SIZE" default:"20"`
	ConnectTimeout time.Duration `envconfig:"ORDERDESK_MONGO_CONNECT_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERDESK_REDIS_URL"`
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ORDERDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERDESK_JWT_ISSUER" default:"orderdesk"`
	ExpirationMinutes int    `envconfig:"ORDERDESK_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORDERDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORDERDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORDERDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORDERDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORDERDESK_ARGON_KEY_LEN" default:"32"`
}

// StaffConfig holds the single staff login for the desk.
type StaffConfig struct {
	Email        string `envconfig:"ORDERDESK_STAFF_EMAIL" required:"true"`
	PasswordHash string `envconfig:"ORDERDESK_STAFF_PASSWORD_HASH" required:"true"`
}

// BlobConfig points at the S3-compatible bucket used for CSV exports.
type BlobConfig struct {
	Endpoint  string `envconfig:"ORDERDESK_BLOB_ENDPOINT"`
	AccessKey string `envconfig:"ORDERDESK_BLOB_ACCESS_KEY"`
	SecretKey string `envconfig:"ORDERDESK_BLOB_SECRET_KEY"`
	Bucket    string `envconfig:"ORDERDESK_BLOB_BUCKET" default:"orderdesk-exports"`
	Region    string `envconfig:"ORDERDESK_BLOB_REGION"`
	UseTLS    bool   `envconfig:"ORDERDESK_BLOB_USE_TLS" default:"true"`
}

// Enabled reports whether blob uploads are configured.
func (b BlobConfig) Enabled() bool {
	return b.Endpoint != ""
}

type TransferConfig struct {
	TimeZone string `envconfig:"ORDERDESK_TIMEZONE" default:"UTC"`
}

// Location resolves the configured business time zone, falling back to UTC.
func (t TransferConfig) Location() *time.Location {
	if t.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadPassword reads only the argon2 settings so hashes can be minted
// before the rest of the environment exists.
func LoadPassword() (PasswordConfig, error) {
	var cfg PasswordConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return PasswordConfig{}, fmt.Errorf("parsing password config: %w", err)
	}
	return cfg, nil
}

type CronConfig struct {
	RunAt   string        `envconfig:"ORDERDESK_CRON_RUN_AT" default:"01:00"`
	LockTTL time.Duration `envconfig:"ORDERDESK_CRON_LOCK_TTL" default:"1h"`
}

type SuggestConfig struct {
	MinQueryLength int     `envconfig:"ORDERDESK_SUGGEST_MIN_LENGTH" default:"2"`
	Threshold      float64 `envconfig:"ORDERDESK_SUGGEST_THRESHOLD" default:"0.4"`
	Limit          int     `envconfig:"ORDERDESK_SUGGEST_LIMIT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == StoreDriverSQLite {
		db.DSN = "file:orderdesk.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
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
