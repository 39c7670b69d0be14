// Package storage defines the durable client-store boundary for the portal
// runtime. The store is scoped to the device, not the signed-in user: it
// survives restarts and holds the bearer token, acknowledged notification
// keys, and small counter watermarks.
package storage

import "context"

// Well-known keys for scalar client state.
const (
	// KeyToken holds the bearer credential issued at login.
	KeyToken = "token"
	// KeyAdminLastSeenPending holds the last pending-count the admin badge
	// was acknowledged at.
	KeyAdminLastSeenPending = "admin_last_seen_pending"
	// KeyLocale holds the preferred notification copy locale.
	KeyLocale = "locale"
)

// KV is a durable string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// DismissalStore persists notification keys the user has acknowledged. Keys
// are opaque strings of the form "<kind>-<id>-<status>"; once added they are
// never removed except by clearing the store.
type DismissalStore interface {
	// AddDismissals records the given keys in one atomic batch.
	AddDismissals(ctx context.Context, keys []string) error
	IsDismissed(ctx context.Context, key string) (bool, error)
	ListDismissals(ctx context.Context) ([]string, error)
}

// Store is the full client-store contract.
type Store interface {
	KV
	DismissalStore
	Close() error
}
