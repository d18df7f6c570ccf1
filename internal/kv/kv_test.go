package kv

import (
	"database/sql"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE kv_store (
			bucket TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			expires_at INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (bucket, key)
		)`)
	if err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func testBucketRoundtrip(t *testing.T, b Bucket) {
	t.Helper()

	if err := b.Store("str", "hello", nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := b.Store("flag", true, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	v, err := b.Get("str")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "hello" {
		t.Errorf("Get = %v, want hello", v)
	}

	exists, err := b.Exists("flag")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v, want true", exists, err)
	}

	keys, err := b.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "flag" || keys[1] != "str" {
		t.Errorf("Keys = %v", keys)
	}

	deleted, err := b.Delete("str")
	if err != nil || !deleted {
		t.Errorf("Delete = %v, %v, want true", deleted, err)
	}
	if v, _ := b.Get("str"); v != nil {
		t.Errorf("Deleted key should be gone, got %v", v)
	}
	if deleted, _ := b.Delete("str"); deleted {
		t.Error("Deleting a missing key should report false")
	}

	if err := b.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if keys, _ := b.Keys(); len(keys) != 0 {
		t.Errorf("Bucket should be empty after Clear, got %v", keys)
	}
}

func TestMemoryBucket(t *testing.T) {
	testBucketRoundtrip(t, NewMemoryBucket("test"))
}

func TestSQLiteBucket(t *testing.T) {
	testBucketRoundtrip(t, NewSQLiteBucket(openTestDB(t), "test"))
}

func TestMemoryBucket_TTL(t *testing.T) {
	b := NewMemoryBucket("ttl")

	if err := b.Store("short", "v", &StoreOptions{TTL: time.Millisecond}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if v, _ := b.Get("short"); v != nil {
		t.Errorf("Expired key should return nil, got %v", v)
	}
	if exists, _ := b.Exists("short"); exists {
		t.Error("Expired key should not exist")
	}
}

func TestSQLiteBucket_Isolation(t *testing.T) {
	db := openTestDB(t)
	a := NewSQLiteBucket(db, "a")
	b := NewSQLiteBucket(db, "b")

	if err := a.Store("key", "in-a", nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if v, _ := b.Get("key"); v != nil {
		t.Errorf("Buckets must be isolated, got %v from bucket b", v)
	}
}

func TestManager_BucketKinds(t *testing.T) {
	m := NewManager(openTestDB(t))

	persistent := m.Bucket("p", true)
	if !persistent.IsPersistent() {
		t.Error("Persistent bucket expected")
	}

	volatile := m.Bucket("v", false)
	if volatile.IsPersistent() {
		t.Error("Volatile bucket expected")
	}

	// Same name and kind returns the same bucket
	if err := persistent.Store("k", 1, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	again := m.Bucket("p", true)
	if exists, _ := again.Exists("k"); !exists {
		t.Error("Bucket lookup by name should return the same storage")
	}
}
