package kv

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time // Zero value means no expiry
}

func (e *memoryEntry) isExpired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}

// MemoryBucket is an in-memory bucket (not persisted). Used by tests and
// for state that should not survive a restart.
type MemoryBucket struct {
	name    string
	entries map[string]*memoryEntry
	mu      sync.RWMutex
}

// NewMemoryBucket creates a new in-memory bucket.
func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{
		name:    name,
		entries: make(map[string]*memoryEntry),
	}
}

// Name returns the bucket name.
func (b *MemoryBucket) Name() string {
	return b.name
}

// IsPersistent returns false (memory buckets are not persistent).
func (b *MemoryBucket) IsPersistent() bool {
	return false
}

// Store saves a value with the given key.
func (b *MemoryBucket) Store(key string, value any, opts *StoreOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := &memoryEntry{value: value}
	if opts != nil && opts.TTL > 0 {
		entry.expiresAt = time.Now().Add(opts.TTL)
	}

	b.entries[key] = entry
	return nil
}

// Get retrieves a value by key.
func (b *MemoryBucket) Get(key string) (any, error) {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if entry.isExpired() {
		b.mu.Lock()
		delete(b.entries, key)
		b.mu.Unlock()
		return nil, nil
	}

	return entry.value, nil
}

// Exists returns true if the key exists and hasn't expired.
func (b *MemoryBucket) Exists(key string) (bool, error) {
	value, err := b.Get(key)
	return value != nil, err
}

// Delete removes a key from the bucket.
func (b *MemoryBucket) Delete(key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[key]
	if ok {
		delete(b.entries, key)
	}
	return ok, nil
}

// Keys returns all non-expired keys in the bucket.
func (b *MemoryBucket) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var keys []string
	for key, entry := range b.entries {
		if entry.isExpired() {
			delete(b.entries, key)
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// Clear removes all keys from the bucket.
func (b *MemoryBucket) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]*memoryEntry)
	return nil
}
