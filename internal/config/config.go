package config

import (
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetIssuer() string
	GetOperatorEmail() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type StorageConfig interface {
	GetDatabaseURL() string
	GetRedisURL() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Storage
}

// Load reads the environment and fails when a required setting is missing or malformed.
// Signing secret and credential lifetimes have no defaults.
func Load() (Config, error) {
	tokenCfg, err := loadToken()
	if err != nil {
		return nil, errors.Wrap(err, "[config.Load] token settings")
	}
	securityCfg, err := loadSecurity()
	if err != nil {
		return nil, errors.Wrap(err, "[config.Load] security settings")
	}
	return mainConfig{
		Token:    tokenCfg,
		Security: securityCfg,
		Cors:     loadCors(),
	}, nil
}
