package storage

import (
	"fmt"
	"path/filepath"
	"testing"
)

func seedKV(t *testing.T, dbPath, value string) {
	t.Helper()
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer func() { _ = db.Close() }()
	_, err = db.Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)", RecentIDsKey, value, "2024-03-07T00:00:00Z")
	if err != nil {
		t.Fatalf("seeding kv: %v", err)
	}
}

func TestRecovery_LoadsAndDedupes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	seedKV(t, dbPath, `["a","b","a",""]`)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	ids, _ := store.Load()
	if fmt.Sprint(ids) != "[a b]" {
		t.Errorf("want [a b], got %v", ids)
	}
}

func TestRecovery_CorruptValueStartsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	seedKV(t, dbPath, `{not json`)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("corrupt value must not fail open: %v", err)
	}
	defer func() { _ = store.Close() }()

	ids, _ := store.Load()
	if len(ids) != 0 {
		t.Errorf("want empty list, got %v", ids)
	}
}
