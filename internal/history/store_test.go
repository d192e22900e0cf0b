package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = ?", schemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	path := store.Path()
	store.Close()

	_, err := Open(ctx, path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	store := openTemp(t)
	path := store.Path()
	store.Close()

	again, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := &Run{
			ID:              id,
			SampleID:        "barcode01",
			ClusterID:       "1",
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
			Method:          "EM_probabilistic",
			Classification:  "Unclassified",
			ConfidenceLevel: "unknown",
		}
		if err := store.insert(ctx, run); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	runs, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"run-c", "run-b", "run-a"}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("runs[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}
	if !runs[2].CreatedAt.Equal(base) {
		t.Fatalf("created_at round trip: got %v want %v", runs[2].CreatedAt, base)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked"), true},
		{errors.New("SQLITE_BUSY: try again"), true},
		{errors.New("no such table"), false},
	}
	for _, tt := range tests {
		if got := isSQLiteBusy(tt.err); got != tt.want {
			t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryOnBusyRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success after 3 attempts, got %d attempts err=%v", attempts, err)
	}

	attempts = 0
	permanent := errors.New("constraint failed")
	if err := retryOnBusy(context.Background(), func() error {
		attempts++
		return permanent
	}); !errors.Is(err, permanent) || attempts != 1 {
		t.Fatalf("non-busy errors should not retry: attempts=%d err=%v", attempts, err)
	}
}
