// Package filestore implements the log store as a single JSON blob on disk,
// mirroring the browser-local storage model: every operation deserializes
// the whole collection, mutates it, and rewrites the file. That is fine for
// personal datasets; it has no cross-process concurrency control and is
// intended for single-actor use.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/steadylab/caffeine-tracker/internal/intake"
)

const fileMode = 0o600

// Store persists all entries, across every scope and date, in one file.
// Partitioning by date happens by filtering at read time.
type Store struct {
	path  string
	clock func() time.Time
	newID func() (string, error)
}

type record struct {
	ID            string    `json:"id"`
	Scope         string    `json:"scope,omitempty"`
	Name          string    `json:"name"`
	Size          int       `json:"size"`
	Caffeine      int       `json:"caffeine"`
	CaffeinePerMl *float64  `json:"caffeinePerMl,omitempty"`
	Icon          *string   `json:"icon,omitempty"`
	IsPreset      bool      `json:"isPreset"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"createdAt"`
}

var _ intake.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the creation-time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a store persisting to the given file path. The file is created
// lazily on the first write.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	s := &Store{
		path:  path,
		clock: time.Now,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List loads the blob, filters by scope and date, and sorts newest first.
// The sort is stable, so same-timestamp entries keep their stored order
// (most recently inserted first, because Create prepends).
func (s *Store) List(_ context.Context, scope, date string) ([]intake.LogEntry, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]intake.LogEntry, 0)
	for _, r := range records {
		if r.Scope == scope && r.Date == date {
			out = append(out, toEntry(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Create generates a UUID, prepends the new record, and rewrites the blob.
func (s *Store) Create(_ context.Context, scope string, draft intake.Draft) (intake.LogEntry, error) {
	records, err := s.load()
	if err != nil {
		return intake.LogEntry{}, err
	}

	id, err := s.newID()
	if err != nil {
		return intake.LogEntry{}, fmt.Errorf("filestore: generate id: %w", err)
	}

	stored := record{
		ID:            id,
		Scope:         scope,
		Name:          draft.Name,
		Size:          draft.Size,
		Caffeine:      draft.Caffeine,
		CaffeinePerMl: draft.CaffeinePerMl,
		Icon:          draft.Icon,
		IsPreset:      draft.IsPreset,
		Date:          draft.Date,
		CreatedAt:     s.clock().UTC(),
	}

	records = append([]record{stored}, records...)
	if err := s.save(records); err != nil {
		return intake.LogEntry{}, err
	}
	return toEntry(stored), nil
}

// Delete filters the id out of the collection and rewrites the blob. The
// rewrite is unconditional, so deleting an unknown id still succeeds.
func (s *Store) Delete(_ context.Context, scope, id string) error {
	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.Scope == scope && r.ID == id {
			continue
		}
		kept = append(kept, r)
	}
	return s.save(kept)
}

func (s *Store) load() ([]record, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", s.path, err)
	}
	return records, nil
}

func (s *Store) save(records []record) error {
	if records == nil {
		records = []record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("filestore: create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, raw, fileMode); err != nil {
		return fmt.Errorf("filestore: write %s: %w", s.path, err)
	}
	return nil
}

func toEntry(r record) intake.LogEntry {
	return intake.LogEntry{
		ID:            r.ID,
		Name:          r.Name,
		Size:          r.Size,
		Caffeine:      r.Caffeine,
		CaffeinePerMl: r.CaffeinePerMl,
		Icon:          r.Icon,
		IsPreset:      r.IsPreset,
		Date:          r.Date,
		CreatedAt:     r.CreatedAt,
	}
}
