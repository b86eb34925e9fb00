package config

const (
	EnvPrefix = "APEXFLOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "APEXFLOW_APP_ENV"
	EnvPort      = "APEXFLOW_APP_PORT"
	EnvDBDSN     = "APEXFLOW_DB_DSN"
	EnvDBHost    = "APEXFLOW_DB_HOST"
	EnvDBUser    = "APEXFLOW_DB_USER"
	EnvDBName    = "APEXFLOW_DB_NAME"
	EnvRedisURL  = "APEXFLOW_REDIS_URL"
	EnvJWTSecret = "APEXFLOW_JWT_SECRET"
	EnvUseSQLite = "APEXFLOW_USE_SQLITE"

	defaultSQLiteDSN = "file:apexflow.db?_foreign_keys=on"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
