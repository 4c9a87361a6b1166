package config

// EnvPrefix is handed to envconfig; every field carries its full name so the
// prefix only matters for fields without an explicit tag.
const EnvPrefix = "SERVMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	MailProviderDev      = "dev"
	MailProviderPostmark = "postmark"
)

const (
	EnvAppEnv    = "SERVMARKET_APP_ENV"
	EnvPort      = "SERVMARKET_APP_PORT"
	EnvAppURL    = "SERVMARKET_APP_URL"
	EnvDBDSN     = "SERVMARKET_DB_DSN"
	EnvDBHost    = "SERVMARKET_DB_HOST"
	EnvDBUser    = "SERVMARKET_DB_USER"
	EnvDBName    = "SERVMARKET_DB_NAME"
	EnvRedisURL  = "SERVMARKET_REDIS_URL"
	EnvJWTSecret = "SERVMARKET_JWT_SECRET"
	EnvJWTIssuer = "SERVMARKET_JWT_ISSUER"
	EnvJWTExpMin = "SERVMARKET_JWT_EXPIRATION_MINUTES"

	EnvMailProvider          = "SERVMARKET_MAIL_PROVIDER"
	EnvPostmarkServerToken   = "SERVMARKET_POSTMARK_SERVER_TOKEN"
	EnvPostmarkAccountToken  = "SERVMARKET_POSTMARK_ACCOUNT_TOKEN"
	EnvRequireEmailConfirmed = "SERVMARKET_REQUIRE_EMAIL_CONFIRMATION"
	EnvPasswordResetTTL      = "SERVMARKET_PASSWORD_RESET_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
