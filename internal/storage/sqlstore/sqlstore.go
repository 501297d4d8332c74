// Package sqlstore implements the log store on a relational database through
// GORM. Production deployments use the MySQL dialect; the SQLite dialect
// serves small installations and the test suite.
package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// maxOpenConns bounds the pooled connections; callers beyond the ceiling
// queue on the pool rather than fail.
const maxOpenConns = 10

// MySQLConfig holds the connection parameters for the MySQL dialect.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the go-sql-driver DSN. parseTime is required so created_at
// scans into time.Time.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type logRow struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Scope         string    `gorm:"column:scope;size:190;not null;default:'';index:idx_caffeine_logs_scope_date,priority:1"`
	Name          string    `gorm:"column:name;size:255;not null"`
	Size          int       `gorm:"column:size;not null"`
	Caffeine      int       `gorm:"column:caffeine;not null"`
	CaffeinePerMl *float64  `gorm:"column:caffeine_per_ml"`
	Icon          *string   `gorm:"column:icon;size:16"`
	IsPreset      bool      `gorm:"column:is_preset;not null;default:false"`
	Date          string    `gorm:"column:date;size:10;not null;index:idx_caffeine_logs_scope_date,priority:2"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (logRow) TableName() string {
	return "caffeine_logs"
}

// Store is the relational log store.
type Store struct {
	db *gorm.DB
}

var _ intake.Store = (*Store)(nil)

// OpenMySQL connects to MySQL, migrates the schema, and configures the pool.
func OpenMySQL(cfg MySQLConfig, logger *zap.Logger) (*Store, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("sqlstore: mysql database name is required")
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open mysql: %w", err)
	}
	return finishOpen(db, maxOpenConns, logger, "mysql")
}

// OpenSQLite opens (or creates) a SQLite database file and migrates the
// schema. SQLite writes are serialized through a single connection.
func OpenSQLite(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlstore: sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	return finishOpen(db, 1, logger, "sqlite")
}

func finishOpen(db *gorm.DB, poolSize int, logger *zap.Logger, dialect string) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(poolSize)

	if err := db.AutoMigrate(&logRow{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate schema: %w", err)
	}

	if logger != nil {
		logger.Info("relational store initialized",
			zap.String("dialect", dialect),
			zap.Int("max_open_conns", poolSize))
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// List issues an equality-filtered query ordered created-at descending.
// Same-timestamp rows fall back to id descending, which matches insertion
// order under auto-increment ids.
func (s *Store) List(ctx context.Context, scope, date string) ([]intake.LogEntry, error) {
	var rows []logRow
	err := s.db.WithContext(ctx).
		Where("scope = ? AND date = ?", scope, date).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list logs: %w", err)
	}

	out := make([]intake.LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEntry(row))
	}
	return out, nil
}

// Create inserts the row and re-reads it by primary key so the returned
// record carries the database-assigned id and creation time. The re-read is
// a separate statement; a row can exist even when the follow-up read fails.
func (s *Store) Create(ctx context.Context, scope string, draft intake.Draft) (intake.LogEntry, error) {
	row := logRow{
		Scope:         scope,
		Name:          draft.Name,
		Size:          draft.Size,
		Caffeine:      draft.Caffeine,
		CaffeinePerMl: draft.CaffeinePerMl,
		Icon:          draft.Icon,
		IsPreset:      draft.IsPreset,
		Date:          draft.Date,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return intake.LogEntry{}, fmt.Errorf("sqlstore: insert log: %w", err)
	}

	var stored logRow
	if err := s.db.WithContext(ctx).First(&stored, row.ID).Error; err != nil {
		return intake.LogEntry{}, fmt.Errorf("sqlstore: read back inserted log %d: %w", row.ID, err)
	}
	return toEntry(stored), nil
}

// Delete issues an unconditional delete-by-id. Ids that do not parse as
// integers cannot match any row and succeed without touching the database.
func (s *Store) Delete(ctx context.Context, scope, id string) error {
	numericID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Where("scope = ? AND id = ?", scope, numericID).
		Delete(&logRow{}).Error; err != nil {
		return fmt.Errorf("sqlstore: delete log %s: %w", id, err)
	}
	return nil
}

func toEntry(row logRow) intake.LogEntry {
	return intake.LogEntry{
		ID:            strconv.FormatUint(uint64(row.ID), 10),
		Name:          row.Name,
		Size:          row.Size,
		Caffeine:      row.Caffeine,
		CaffeinePerMl: row.CaffeinePerMl,
		Icon:          row.Icon,
		IsPreset:      row.IsPreset,
		Date:          row.Date,
		CreatedAt:     row.CreatedAt,
	}
}
