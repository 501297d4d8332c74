// Package memstore implements the log store in process memory. Entries live
// for the lifetime of the process and are lost on restart; it backs
// deployments without a database and most of the test suite.
package memstore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/steadylab/caffeine-tracker/internal/intake"
)

// Store keeps entries in a map from scope+date partition to a newest-first
// slice. Ids come from a monotonic counter, so rapid concurrent inserts can
// not collide.
type Store struct {
	mu         sync.Mutex
	partitions map[partitionKey][]intake.LogEntry
	nextID     int64
	clock      func() time.Time
}

type partitionKey struct {
	scope string
	date  string
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

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		partitions: make(map[partitionKey][]intake.LogEntry),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the partition's entries newest first.
func (s *Store) List(_ context.Context, scope, date string) ([]intake.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition := s.partitions[partitionKey{scope: scope, date: date}]
	out := make([]intake.LogEntry, len(partition))
	copy(out, partition)
	return out, nil
}

// Create assigns the next counter id, stamps the creation time, and inserts
// at the head of the date partition. Head insertion keeps the newest-first
// ordering without a sort, including created-at ties.
func (s *Store) Create(_ context.Context, scope string, draft intake.Draft) (intake.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry := intake.LogEntry{
		ID:            strconv.FormatInt(s.nextID, 10),
		Name:          draft.Name,
		Size:          draft.Size,
		Caffeine:      draft.Caffeine,
		CaffeinePerMl: draft.CaffeinePerMl,
		Icon:          draft.Icon,
		IsPreset:      draft.IsPreset,
		Date:          draft.Date,
		CreatedAt:     s.clock().UTC(),
	}

	key := partitionKey{scope: scope, date: draft.Date}
	s.partitions[key] = append([]intake.LogEntry{entry}, s.partitions[key]...)
	return entry, nil
}

// Delete removes the entry with the given id from whichever date partition
// holds it. Unknown ids are a no-op.
func (s *Store) Delete(_ context.Context, scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, partition := range s.partitions {
		if key.scope != scope {
			continue
		}
		for i, entry := range partition {
			if entry.ID == id {
				s.partitions[key] = append(partition[:i:i], partition[i+1:]...)
				return nil
			}
		}
	}
	return nil
}
