package intake

import "context"

// Store is the contract every storage backend satisfies. Behaviour is
// identical across backends; only durability and failure modes differ.
//
// Scope is an opaque owner key separating entries of different users on
// backends that persist it. The empty scope is the single-user scope.
type Store interface {
	// List returns every entry whose date equals the argument exactly,
	// newest first (created-at descending, most-recently-inserted first on
	// ties). An empty result is an empty slice, never an error.
	List(ctx context.Context, scope, date string) ([]LogEntry, error)

	// Create persists an already-validated draft, assigns the id and
	// creation time, and returns the stored record.
	Create(ctx context.Context, scope string, draft Draft) (LogEntry, error)

	// Delete removes the entry with the given id. Deleting an id that does
	// not exist succeeds; delete is idempotent.
	Delete(ctx context.Context, scope, id string) error
}
