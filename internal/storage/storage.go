// Package storage selects and opens the service-side log store. The choice
// is made once at startup from configuration and is immutable for the
// lifetime of the process.
package storage

import (
	"strings"

	"github.com/steadylab/caffeine-tracker/internal/config"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"github.com/steadylab/caffeine-tracker/internal/storage/memstore"
	"github.com/steadylab/caffeine-tracker/internal/storage/sqlstore"
	"go.uber.org/zap"
)

// BackendType identifies a concrete store implementation.
type BackendType string

const (
	BackendMySQL  BackendType = "mysql"
	BackendSQLite BackendType = "sqlite"
	BackendMemory BackendType = "memory"
)

// ParseBackendType maps a configured DB_TYPE onto a backend. Only the
// relational names are recognized; anything else selects the memory backend.
func ParseBackendType(value string) BackendType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(BackendMySQL):
		return BackendMySQL
	case string(BackendSQLite):
		return BackendSQLite
	default:
		return BackendMemory
	}
}

// Backend bundles the active store with its identity and teardown.
type Backend struct {
	Store intake.Store
	Type  BackendType

	closer func() error
}

// Close releases backend resources. Safe on backends without any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open constructs the store named by the configuration.
func Open(cfg config.StorageConfig, logger *zap.Logger) (*Backend, error) {
	backendType := ParseBackendType(cfg.Backend)

	switch backendType {
	case BackendMySQL:
		store, err := sqlstore.OpenMySQL(sqlstore.MySQLConfig{
			Host:     cfg.MySQLHost,
			Port:     cfg.MySQLPort,
			User:     cfg.MySQLUser,
			Password: cfg.MySQLPassword,
			Database: cfg.MySQLDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Type: backendType, closer: store.Close}, nil

	case BackendSQLite:
		store, err := sqlstore.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Type: backendType, closer: store.Close}, nil

	default:
		if logger != nil {
			logger.Warn("using in-process memory store; entries are lost on restart")
		}
		return &Backend{Store: memstore.New(), Type: BackendMemory}, nil
	}
}
