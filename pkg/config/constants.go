package config

const (
	EnvPrefix = "LANKAPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LANKAPOS_DB_DSN"
	EnvDBHost = "LANKAPOS_DB_HOST"
	EnvDBUser = "LANKAPOS_DB_USER"
	EnvDBName = "LANKAPOS_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
