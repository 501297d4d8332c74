package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steadylab/caffeine-tracker/internal/dose"
	"go.uber.org/zap"
)

var (
	errMissingStore = errors.New("storage backend is required")
	noOpLogger      = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the machine-readable operation code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "intake.service.new"
	opListLogs     = "intake.list_logs"
	opCreateLog    = "intake.create_log"
	opDeleteLog    = "intake.delete_log"
	opDailySummary = "intake.daily_summary"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies of the intake service.
type ServiceConfig struct {
	Store   Store
	Clock   func() time.Time
	LimitMg int
	Logger  *zap.Logger
}

// Service validates requests and delegates persistence to the active backend.
type Service struct {
	store   Store
	clock   func() time.Time
	limitMg int
	logger  *zap.Logger
}

// NewService constructs the intake service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	limit := cfg.LimitMg
	if limit <= 0 {
		limit = dose.DefaultDailyLimitMg
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{store: cfg.Store, clock: clock, limitMg: limit, logger: logger}, nil
}

// ListLogs returns the entries recorded for the given date, newest first.
// The date is mandatory on read; there is no default-to-today fallback.
func (s *Service) ListLogs(ctx context.Context, scope, date string) ([]LogEntry, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, scope, date)
	if err != nil {
		s.logError(opListLogs, "query_failed", err, zap.String("date", date))
		return nil, newServiceError(opListLogs, "query_failed", err)
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}

// CreateLog normalizes and validates the draft, then persists it. An absent
// date defaults to the service clock's local calendar date; behaviour near
// midnight therefore follows the server's wall clock, not the caller's.
func (s *Service) CreateLog(ctx context.Context, scope string, draft Draft) (LogEntry, error) {
	draft = draft.Normalize(s.clock())
	if err := draft.Validate(); err != nil {
		return LogEntry{}, err
	}
	entry, err := s.store.Create(ctx, scope, draft)
	if err != nil {
		s.logError(opCreateLog, "persist_failed", err, zap.String("date", draft.Date))
		return LogEntry{}, newServiceError(opCreateLog, "persist_failed", err)
	}
	s.logger.Info("log entry created",
		zap.String("id", entry.ID),
		zap.String("date", entry.Date),
		zap.Int("caffeine_mg", entry.Caffeine))
	return entry, nil
}

// DeleteLog removes an entry by id. Missing ids succeed; delete is idempotent.
func (s *Service) DeleteLog(ctx context.Context, scope, id string) error {
	if strings.TrimSpace(id) == "" {
		return newValidationError("id", "must not be empty")
	}
	if err := s.store.Delete(ctx, scope, id); err != nil {
		s.logError(opDeleteLog, "delete_failed", err, zap.String("id", id))
		return newServiceError(opDeleteLog, "delete_failed", err)
	}
	return nil
}

// Summary reports a date's total dose against the daily limit.
type Summary struct {
	Date    string    `json:"date"`
	TotalMg int       `json:"total_mg"`
	LimitMg int       `json:"limit_mg"`
	Percent float64   `json:"percent"`
	Band    dose.Band `json:"band"`
	Message string    `json:"message"`
}

// DailySummary totals a date's entries and maps them onto the progress
// percentage and status band.
func (s *Service) DailySummary(ctx context.Context, scope, date string) (Summary, error) {
	entries, err := s.ListLogs(ctx, scope, date)
	if err != nil {
		var serviceErr *ServiceError
		if errors.As(err, &serviceErr) {
			return Summary{}, newServiceError(opDailySummary, "query_failed", serviceErr.Unwrap())
		}
		return Summary{}, err
	}

	total := 0
	for _, entry := range entries {
		total += entry.Caffeine
	}

	status := dose.StatusBand(total, s.limitMg)
	return Summary{
		Date:    date,
		TotalMg: total,
		LimitMg: s.limitMg,
		Percent: dose.ProgressPercent(total, s.limitMg),
		Band:    status.Band,
		Message: status.Message,
	}, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("intake service error", attrs...)
}
