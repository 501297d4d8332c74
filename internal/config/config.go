// Package config loads runtime configuration from viper-backed defaults,
// environment variables, flags, and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultHTTPPort   = 3001
	defaultCORSOrigin = "http://localhost:5173"
	defaultLogLevel   = "info"
	defaultBackend    = "mysql"
	defaultSQLitePath = "caffeine.db"

	defaultMySQLHost     = "localhost"
	defaultMySQLPort     = 3306
	defaultMySQLUser     = "root"
	defaultMySQLDatabase = "caffeine_tracker"
)

// StorageConfig names the active backend and its connection parameters.
type StorageConfig struct {
	Backend    string
	SQLitePath string

	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
}

// AuthConfig configures optional bearer-token scoping. Auth is disabled when
// the signing secret is empty.
type AuthConfig struct {
	SigningSecret   string
	TokenTTLMinutes int
}

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPPort   int
	CORSOrigin string
	LogLevel   string
	Storage    StorageConfig
	Auth       AuthConfig
}

// Address renders the HTTP listen address.
func (c AppConfig) Address() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance. Environment names are the flat, unprefixed ones the deployment
// scripts already use (PORT, DB_TYPE, MYSQL_HOST, ...).
func ApplyDefaults(configViper *viper.Viper) {
	bindings := map[string]string{
		"http.port":           "PORT",
		"cors.origin":         "CORS_ORIGIN",
		"log.level":           "LOG_LEVEL",
		"storage.backend":     "DB_TYPE",
		"sqlite.path":         "SQLITE_PATH",
		"mysql.host":          "MYSQL_HOST",
		"mysql.port":          "MYSQL_PORT",
		"mysql.user":          "MYSQL_USER",
		"mysql.password":      "MYSQL_PASSWORD",
		"mysql.database":      "MYSQL_DATABASE",
		"auth.signing_secret": "AUTH_SIGNING_SECRET",
		"auth.token_ttl_min":  "AUTH_TOKEN_TTL_MINUTES",
	}
	for key, env := range bindings {
		if err := configViper.BindEnv(key, env); err != nil {
			panic(err)
		}
	}

	configViper.SetDefault("http.port", defaultHTTPPort)
	configViper.SetDefault("cors.origin", defaultCORSOrigin)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("storage.backend", defaultBackend)
	configViper.SetDefault("sqlite.path", defaultSQLitePath)
	configViper.SetDefault("mysql.host", defaultMySQLHost)
	configViper.SetDefault("mysql.port", defaultMySQLPort)
	configViper.SetDefault("mysql.user", defaultMySQLUser)
	configViper.SetDefault("mysql.password", "")
	configViper.SetDefault("mysql.database", defaultMySQLDatabase)
	configViper.SetDefault("auth.signing_secret", "")
	configViper.SetDefault("auth.token_ttl_min", 30)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPPort:   configViper.GetInt("http.port"),
		CORSOrigin: configViper.GetString("cors.origin"),
		LogLevel:   configViper.GetString("log.level"),
		Storage: StorageConfig{
			Backend:       configViper.GetString("storage.backend"),
			SQLitePath:    configViper.GetString("sqlite.path"),
			MySQLHost:     configViper.GetString("mysql.host"),
			MySQLPort:     configViper.GetInt("mysql.port"),
			MySQLUser:     configViper.GetString("mysql.user"),
			MySQLPassword: configViper.GetString("mysql.password"),
			MySQLDatabase: configViper.GetString("mysql.database"),
		},
		Auth: AuthConfig{
			SigningSecret:   configViper.GetString("auth.signing_secret"),
			TokenTTLMinutes: configViper.GetInt("auth.token_ttl_min"),
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http.port must be in (0, 65535], got %d", c.HTTPPort)
	}
	if strings.TrimSpace(c.CORSOrigin) == "" {
		return fmt.Errorf("cors.origin is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "mysql":
		if strings.TrimSpace(c.Storage.MySQLDatabase) == "" {
			return fmt.Errorf("mysql.database is required for the mysql backend")
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite backend")
		}
	}
	return nil
}
