package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	issuerEnvVar   = "AUTH_ISSUER"
	databaseURLVar = "DATABASE_URL"
	redisURLVar    = "REDIS_URL"
	operatorVar    = "PLATFORM_OPERATOR_EMAIL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tenant Guard")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

// GetIssuer returns the iss claim written into access credentials.
func (EnvVars) GetIssuer() string {
	return GetEnv(issuerEnvVar, "tenant-guard")
}

// GetOperatorEmail returns the platform operator created on first start. Empty skips
// the bootstrap.
func (EnvVars) GetOperatorEmail() string {
	return GetEnv(operatorVar, "")
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetDatabaseURL returns the Postgres DSN. Empty means the in-memory stores are used.
func (Storage) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "")
}

// GetRedisURL returns the redis URL for the refresh rotation store. Empty disables it.
func (Storage) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}
