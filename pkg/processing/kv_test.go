package processing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wtr-service/pkg/common"
)

// openTestKVs returns one store per local driver, closed at test end.
func openTestKVs(t *testing.T) map[string]KVStore {
	t.Helper()
	stores := make(map[string]KVStore)
	for _, driver := range []string{"bolt", "sqlite"} {
		kv, err := OpenKV(driver, filepath.Join(t.TempDir(), "nested", driver+".db"))
		if err != nil {
			t.Fatalf("OpenKV(%s) failed: %v", driver, err)
		}
		t.Cleanup(func() { kv.Close() })
		stores[driver] = kv
	}
	return stores
}

func TestKVStoreRoundTrip(t *testing.T) {
	for driver, kv := range openTestKVs(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			if _, err := kv.Get(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}

			if err := kv.Put(ctx, "k", []byte("one")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := kv.Put(ctx, "k", []byte("two")); err != nil {
				t.Fatalf("Overwrite failed: %v", err)
			}
			value, err := kv.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(value) != "two" {
				t.Errorf("Expected 'two', got '%s'", value)
			}
		})
	}
}

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	kv, err := OpenBoltKV(path)
	if err != nil {
		t.Fatalf("OpenBoltKV failed: %v", err)
	}
	if err := kv.Put(context.Background(), PendingMatchesKey, []byte("[]")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	kv.Close()

	reopened, err := OpenBoltKV(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()
	value, err := reopened.Get(context.Background(), PendingMatchesKey)
	if err != nil || string(value) != "[]" {
		t.Errorf("Expected persisted '[]', got '%s' (%v)", value, err)
	}
}

func TestOpenKVRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenKV("redis", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("Expected unknown driver to be rejected")
	}
}
