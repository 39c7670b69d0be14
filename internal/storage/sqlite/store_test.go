package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "client.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestKVRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}

	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || value != "abc" {
		t.Fatalf("get = %q, %v; want abc, true", value, ok)
	}

	if err := store.Set(ctx, "token", "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, err = store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if value != "def" {
		t.Fatalf("expected overwritten value, got %q", value)
	}

	if err := store.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err = store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestDismissalsPersistAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.AddDismissals(ctx, []string{"app-42-Aceptada", "streamer-9-Revocada"}); err != nil {
		t.Fatalf("add dismissals: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	dismissed, err := reopened.IsDismissed(ctx, "app-42-Aceptada")
	if err != nil {
		t.Fatalf("check dismissal: %v", err)
	}
	if !dismissed {
		t.Fatal("expected dismissal to survive reopen")
	}

	keys, err := reopened.ListDismissals(ctx)
	if err != nil {
		t.Fatalf("list dismissals: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 dismissals, got %d", len(keys))
	}
}

func TestAddDismissalsIgnoresDuplicatesAndBlanks(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddDismissals(ctx, []string{"app-1-Aceptada", "app-1-Aceptada", "  "}); err != nil {
		t.Fatalf("add dismissals: %v", err)
	}
	keys, err := store.ListDismissals(ctx)
	if err != nil {
		t.Fatalf("list dismissals: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 dismissal, got %d", len(keys))
	}
}
