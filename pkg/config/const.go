package config

// EnvPrefix is passed to envconfig; variable names are fully spelled out in
// struct tags, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "TREELEAD_APP_ENV"
	EnvAppPort = "TREELEAD_APP_PORT"
	EnvDBDSN   = "TREELEAD_DB_DSN"
	EnvDBHost  = "TREELEAD_DB_HOST"
	EnvDBUser  = "TREELEAD_DB_USER"
	EnvDBName  = "TREELEAD_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
