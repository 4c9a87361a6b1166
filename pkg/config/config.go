package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	APIKey        APIKeyConfig
	Tokens        TokensConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Mail          MailConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Mail.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVMARKET_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"SERVMARKET_APP_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"SERVMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVMARKET_LOG_WARN_STACK" default:"false"`
	// LogFormat is "json" or "console".
	LogFormat string `envconfig:"SERVMARKET_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins []string `envconfig:"SERVMARKET_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Link joins the public front-end URL with the provided path and query values.
func (a AppConfig) Link(path string, query url.Values) string {
	base := strings.TrimRight(strings.TrimSpace(a.PublicURL), "/")
	link := base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return link
}

type DBConfig struct {
	DSN    string `envconfig:"SERVMARKET_DB_DSN"`
	Driver string `envconfig:"SERVMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVMARKET_DB_USER"`
	LegacyPassword string `envconfig:"SERVMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"SERVMARKET_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVMARKET_REDIS_URL"`
	Address      string        `envconfig:"SERVMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SERVMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SERVMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SERVMARKET_JWT_ISSUER" default:"servmarket"`
	ExpirationMinutes int    `envconfig:"SERVMARKET_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// HashConfig carries the argon2id work factor for one secret namespace.
type HashConfig struct {
	ArgonMemoryKB    int
	ArgonTime        int
	ArgonParallelism int
	ArgonSaltLen     int
	ArgonKeyLen      int
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SERVMARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SERVMARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SERVMARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SERVMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SERVMARKET_ARGON_KEY_LEN" default:"32"`
}

func (p PasswordConfig) Hash() HashConfig {
	return HashConfig(p)
}

// APIKeyConfig is kept separate from PasswordConfig so API keys can be tuned
// independently; they are scanned per request and usually run cheaper.
type APIKeyConfig struct {
	ArgonMemoryKB    int `envconfig:"SERVMARKET_API_KEY_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"SERVMARKET_API_KEY_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"SERVMARKET_API_KEY_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"SERVMARKET_API_KEY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SERVMARKET_API_KEY_ARGON_KEY_LEN" default:"32"`
}

func (a APIKeyConfig) Hash() HashConfig {
	return HashConfig(a)
}

type TokensConfig struct {
	PasswordResetTTL     time.Duration `envconfig:"SERVMARKET_PASSWORD_RESET_TTL" default:"1h"`
	EmailConfirmationTTL time.Duration `envconfig:"SERVMARKET_EMAIL_CONFIRMATION_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	SignInWindow       time.Duration `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_SIGN_IN_WINDOW" default:"1m"`
	SignInEmailLimit   int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_SIGN_IN_EMAIL_LIMIT" default:"5"`
	SignInIPLimit      int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_SIGN_IN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"20"`
	ContactWindow      time.Duration `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_CONTACT_WINDOW" default:"1h"`
	ContactIPLimit     int           `envconfig:"SERVMARKET_AUTH_RATE_LIMIT_CONTACT_IP_LIMIT" default:"10"`
}

// CronConfig drives cmd/cron-worker. Runs are serialized across replicas
// by a redis lock that expires after LockTTL.
type CronConfig struct {
	Interval time.Duration `envconfig:"SERVMARKET_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SERVMARKET_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate              bool `envconfig:"SERVMARKET_AUTO_MIGRATE" default:"false"`
	RequireEmailConfirmation bool `envconfig:"SERVMARKET_REQUIRE_EMAIL_CONFIRMATION" default:"true"`
}

type MailConfig struct {
	Provider             string `envconfig:"SERVMARKET_MAIL_PROVIDER" default:"dev"`
	PostmarkServerToken  string `envconfig:"SERVMARKET_POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `envconfig:"SERVMARKET_POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `envconfig:"SERVMARKET_MAIL_SENDER" default:"no-reply@servmarket.local"`
	SupportEmail         string `envconfig:"SERVMARKET_MAIL_SUPPORT" default:"support@servmarket.local"`
	ContactRecipient     string `envconfig:"SERVMARKET_MAIL_CONTACT_RECIPIENT" default:"support@servmarket.local"`
	DevOutputDir         string `envconfig:"SERVMARKET_MAIL_DEV_DIR" default:"./tmp/mail"`
}

// ProviderName returns the normalized mail provider name.
func (m MailConfig) ProviderName() string {
	provider := strings.ToLower(strings.TrimSpace(m.Provider))
	if provider == "" {
		return MailProviderDev
	}
	return provider
}

func (m MailConfig) validate() error {
	switch m.ProviderName() {
	case MailProviderDev:
		return nil
	case MailProviderPostmark:
		if m.PostmarkServerToken == "" || m.PostmarkAccountToken == "" {
			return fmt.Errorf("%s and %s are required for the postmark provider", EnvPostmarkServerToken, EnvPostmarkAccountToken)
		}
		return nil
	default:
		return fmt.Errorf("unsupported mail provider %q", m.Provider)
	}
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
