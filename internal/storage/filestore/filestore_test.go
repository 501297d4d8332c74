package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steadylab/caffeine-tracker/internal/intake"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caffeine-logs.json")
	store, err := New(path)
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store, path
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}

func TestListOnMissingFileIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	entries, err := store.List(context.Background(), "", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries before the first write, got %d", len(entries))
	}
}

func TestRoundTripSurvivesReopen(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "", intake.Draft{Name: "Club Mate", Size: 500, Caffeine: 100, Date: "2026-08-28"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected a generated id")
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("unexpected reopen error: %v", err)
	}
	entries, err := reopened.List(ctx, "", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != created.ID || entries[0].Name != "Club Mate" {
		t.Fatalf("entry did not survive reopen: %+v", entries)
	}
}

func TestListFiltersDateAndSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, time.August, 28, 8, 0, 0, 0, time.UTC)
	current := base
	path := filepath.Join(t.TempDir(), "logs.json")
	store, err := New(path, WithClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	ctx := context.Background()

	for _, draft := range []intake.Draft{
		{Name: "e1", Size: 250, Caffeine: 80, Date: "2026-08-28"},
		{Name: "other-day", Size: 250, Caffeine: 80, Date: "2026-08-27"},
		{Name: "e2", Size: 250, Caffeine: 80, Date: "2026-08-28"},
		{Name: "e3", Size: 250, Caffeine: 80, Date: "2026-08-28"},
	} {
		if _, err := store.Create(ctx, "", draft); err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
	}

	entries, err := store.List(ctx, "", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries for the date, got %d", len(entries))
	}
	for i, want := range []string{"e3", "e2", "e1"} {
		if entries[i].Name != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, entries[i].Name)
		}
	}
}

func TestCreatedAtTiesKeepInsertionOrder(t *testing.T) {
	fixed := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "logs.json")
	store, err := New(path, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, "", intake.Draft{Name: name, Size: 250, Caffeine: 80, Date: "2026-08-28"}); err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
	}

	entries, err := store.List(ctx, "", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	for i, want := range []string{"third", "second", "first"} {
		if entries[i].Name != want {
			t.Fatalf("position %d: expected %q, got %q (ties must be most-recently-inserted first)", i, want, entries[i].Name)
		}
	}
}

func TestDeleteRewritesBlobAndIsIdempotent(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "", intake.Draft{Name: "Monster", Size: 500, Caffeine: 160, Date: "2026-08-28"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if err := store.Delete(ctx, "", "no-such-id"); err != nil {
		t.Fatalf("deleting an unknown id must succeed, got %v", err)
	}
	if err := store.Delete(ctx, "", created.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if err := store.Delete(ctx, "", created.ID); err != nil {
		t.Fatalf("repeated delete must succeed, got %v", err)
	}

	entries, err := store.List(ctx, "", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries after delete, got %d", len(entries))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected the blob to exist after delete: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected an empty collection on disk, got %s", raw)
	}
}

func TestScopesShareOneBlobButStayIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "user-a", intake.Draft{Name: "Espresso", Size: 30, Caffeine: 63, Date: "2026-08-28"}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	entryB, err := store.Create(ctx, "user-b", intake.Draft{Name: "Kaffee", Size: 200, Caffeine: 80, Date: "2026-08-28"})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	entries, err := store.List(ctx, "user-a", "2026-08-28")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Espresso" {
		t.Fatalf("scope user-a sees the wrong entries: %+v", entries)
	}

	// Deleting with the wrong scope must not remove another scope's entry.
	if err := store.Delete(ctx, "user-a", entryB.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	entries, _ = store.List(ctx, "user-b", "2026-08-28")
	if len(entries) != 1 {
		t.Fatalf("cross-scope delete must be a no-op, got %d entries", len(entries))
	}
}
