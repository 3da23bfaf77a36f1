package idmap

import (
	"os"
	"testing"

	"github.com/dbehnke/dmrcore/pkg/logger"
)

func TestStoreUpsertAndLoad(t *testing.T) {
	dbPath := "/tmp/test_dmrcore_idmap.db"
	defer func() { _ = os.Remove(dbPath) }()

	log := logger.New(logger.Config{Level: "error"})
	store, err := OpenStore(dbPath, log)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Upsert(3120101, "W1AW"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(3120102, "KC1ABC"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	// Upsert again with a changed name to exercise the update path.
	if err := store.Upsert(3120101, "W1AW-1"); err != nil {
		t.Fatalf("Upsert (update) failed: %v", err)
	}

	m := New()
	if err := store.LoadInto(m); err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}

	if name, ok := m.Get(3120101); !ok || name != "W1AW-1" {
		t.Fatalf("expected updated name W1AW-1, got %q (ok=%v)", name, ok)
	}
	if name, ok := m.Get(3120102); !ok || name != "KC1ABC" {
		t.Fatalf("expected KC1ABC, got %q (ok=%v)", name, ok)
	}
	if m.Size() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", m.Size())
	}
}

func TestStoreSurvivesNilLogger(t *testing.T) {
	dbPath := "/tmp/test_dmrcore_idmap_nil_log.db"
	defer func() { _ = os.Remove(dbPath) }()

	store, err := OpenStore(dbPath, nil)
	if err != nil {
		t.Fatalf("OpenStore with nil logger failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Upsert(1, "test"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}
