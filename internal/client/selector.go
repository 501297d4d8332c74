package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/steadylab/caffeine-tracker/internal/intake"
)

// Store source identifiers a client can persist against.
const (
	SourceAPI   = "api"
	SourceLocal = "local"
)

var errUnknownSource = errors.New("client: unknown store source")

// Selector is the client-side backend selection: mutable at runtime,
// persisted to disk immediately on change so it survives restarts. Changing
// the selection does not migrate data; it takes effect on the next call.
type Selector struct {
	mu     sync.Mutex
	path   string
	active string
}

type selectorState struct {
	Source string `json:"source"`
}

// NewSelector loads the persisted preference from path, falling back to
// fallback when the file is absent or holds an unknown source.
func NewSelector(path, fallback string) (*Selector, error) {
	if path == "" {
		return nil, errors.New("client: selector path is required")
	}
	if !validSource(fallback) {
		fallback = SourceAPI
	}

	active := fallback
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("client: read selector state %s: %w", path, err)
	default:
		var state selectorState
		if err := json.Unmarshal(raw, &state); err == nil && validSource(state.Source) {
			active = state.Source
		}
	}

	return &Selector{path: path, active: active}, nil
}

// Active returns the currently selected source identifier.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive switches the selection and persists it before returning.
func (s *Selector) SetActive(source string) error {
	if !validSource(source) {
		return fmt.Errorf("%w: %q", errUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(selectorState{Source: source})
	if err != nil {
		return fmt.Errorf("client: encode selector state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("client: create selector directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("client: persist selector state %s: %w", s.path, err)
	}

	s.active = source
	return nil
}

// StoreSet holds one store per selectable source.
type StoreSet struct {
	API   intake.Store
	Local intake.Store
}

// Store resolves the selector's active source against the set.
func (s *Selector) Store(set StoreSet) (intake.Store, error) {
	switch s.Active() {
	case SourceAPI:
		if set.API == nil {
			return nil, fmt.Errorf("client: no api store configured")
		}
		return set.API, nil
	case SourceLocal:
		if set.Local == nil {
			return nil, fmt.Errorf("client: no local store configured")
		}
		return set.Local, nil
	default:
		return nil, errUnknownSource
	}
}

func validSource(source string) bool {
	return source == SourceAPI || source == SourceLocal
}
