// Package intake defines the caffeine log domain: the record model, its
// validation rules, the storage contract all backends implement, and the
// application service in front of them.
package intake

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date partition key format.
const DateLayout = "2006-01-02"

const maxIconLength = 16

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("intake: invalid log entry")

// ValidationError reports which field of a draft failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("intake: invalid %s", e.Field)
	}
	return fmt.Sprintf("intake: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// LogEntry is one recorded caffeine-intake event. Entries are immutable once
// created; corrections are delete-then-recreate.
type LogEntry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Size          int       `json:"size"`
	Caffeine      int       `json:"caffeine"`
	CaffeinePerMl *float64  `json:"caffeinePerMl"`
	Icon          *string   `json:"icon"`
	IsPreset      bool      `json:"isPreset"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Draft is a log entry before the backend assigns its id and creation time.
type Draft struct {
	Name          string
	Size          int
	Caffeine      int
	CaffeinePerMl *float64
	Icon          *string
	IsPreset      bool
	Date          string
}

// Normalize trims the name and fills an absent date with the local calendar
// date reported by now.
func (d Draft) Normalize(now time.Time) Draft {
	d.Name = strings.TrimSpace(d.Name)
	if d.Date == "" {
		d.Date = now.Format(DateLayout)
	}
	return d
}

// Validate enforces the record invariants. Negative caffeine is rejected even
// though some earlier trackers tolerated it.
func (d Draft) Validate() error {
	if d.Name == "" {
		return newValidationError("name", "must not be empty")
	}
	if d.Size <= 0 {
		return newValidationError("size", "must be a positive volume in ml")
	}
	if d.Caffeine < 0 {
		return newValidationError("caffeine", "must not be negative")
	}
	if d.CaffeinePerMl != nil && *d.CaffeinePerMl < 0 {
		return newValidationError("caffeinePerMl", "must not be negative")
	}
	if d.Icon != nil && len(*d.Icon) > maxIconLength {
		return newValidationError("icon", fmt.Sprintf("exceeds %d bytes", maxIconLength))
	}
	if err := ValidateDate(d.Date); err != nil {
		return err
	}
	return nil
}

// ValidateDate checks the YYYY-MM-DD partition key shape.
func ValidateDate(date string) error {
	if date == "" {
		return newValidationError("date", "is required (YYYY-MM-DD)")
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil || parsed.Format(DateLayout) != date {
		return newValidationError("date", "must be YYYY-MM-DD")
	}
	return nil
}
