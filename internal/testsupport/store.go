package testsupport

import (
	"context"
	"testing"

	"taxem/internal/config"
	"taxem/internal/history"
)

// MustOpenHistory opens the history store named by cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
