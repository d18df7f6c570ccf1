package kv

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager manages bucket lifecycle and provides access to buckets.
type Manager struct {
	db      *sql.DB
	buckets map[string]Bucket
	mu      sync.RWMutex
}

// NewManager creates a new KV manager.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		db:      db,
		buckets: make(map[string]Bucket),
	}
}

// Bucket returns a bucket by name, creating it if it doesn't exist.
// If persistent is true, the bucket is backed by SQLite; otherwise it's
// in-memory.
func (m *Manager) Bucket(name string, persistent bool) Bucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bucket, ok := m.buckets[name]; ok {
		return bucket
	}

	var bucket Bucket
	if persistent {
		bucket = NewSQLiteBucket(m.db, name)
	} else {
		bucket = NewMemoryBucket(name)
	}

	m.buckets[name] = bucket
	log.Debug().
		Str("bucket", name).
		Bool("persistent", persistent).
		Msg("Created KV bucket")

	return bucket
}

// StartCleanup starts a background goroutine that periodically removes
// expired entries. It stops when the context is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := CleanupExpired(m.db)
				if err != nil {
					log.Warn().Err(err).Msg("Failed to cleanup expired KV entries")
				} else if count > 0 {
					log.Debug().Int64("count", count).Msg("Cleaned up expired KV entries")
				}
			}
		}
	}()

	log.Debug().Dur("interval", interval).Msg("Started KV cleanup goroutine")
}
