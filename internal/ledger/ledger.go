// Package ledger provides an append-only event history: silent-sync
// changes, completed and failed actions, auth expiries. It backs command
// deduplication and auditing.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType represents the type of event in the ledger
type EventType string

const (
	EventSyncChanged     EventType = "sync_changed"
	EventActionCompleted EventType = "action_completed"
	EventActionFailed    EventType = "action_failed"
	EventAuthExpired     EventType = "auth_expired"
)

// Entry represents a single event in the ledger
type Entry struct {
	ID             int64
	EventType      EventType
	Timestamp      time.Time
	Payload        map[string]any
	Source         string
	IdempotencyKey string
}

// Ledger provides append-only event logging with deduplication
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Append adds a new event to the ledger. For action_completed events with
// an idempotency key, INSERT OR IGNORE plus the unique partial index
// guarantee only the first completion is recorded.
func (l *Ledger) Append(eventType EventType, idempotencyKey, source string, payload map[string]any) error {
	var payloadJSON []byte
	var err error

	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	now := time.Now().UTC().Unix()

	insertSQL := `INSERT INTO event_ledger (event_type, timestamp, payload, source, idempotency_key) VALUES (?, ?, ?, ?, ?)`
	if eventType == EventActionCompleted && idempotencyKey != "" {
		insertSQL = `INSERT OR IGNORE INTO event_ledger (event_type, timestamp, payload, source, idempotency_key) VALUES (?, ?, ?, ?, ?)`
	}

	_, err = l.db.Exec(insertSQL, string(eventType), now, string(payloadJSON), source, idempotencyKey)
	return err
}

// HasCompleted checks if an action with the given idempotency_key has
// completed successfully
func (l *Ledger) HasCompleted(idempotencyKey string) bool {
	if idempotencyKey == "" {
		return false // Empty key = no dedupe
	}

	var exists int
	err := l.db.QueryRow(`
		SELECT 1 FROM event_ledger
		WHERE idempotency_key = ? AND event_type = ?
		LIMIT 1
	`, idempotencyKey, string(EventActionCompleted)).Scan(&exists)

	return err == nil && exists == 1
}

// GetByType returns entries filtered by event type, newest first
func (l *Ledger) GetByType(eventType EventType, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, payload, source, idempotency_key
		FROM event_ledger
		WHERE event_type = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var entry Entry
	var eventType, payloadStr string
	var timestamp int64
	var source, idempotencyKey sql.NullString

	if err := rows.Scan(&entry.ID, &eventType, &timestamp, &payloadStr, &source, &idempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	entry.EventType = EventType(eventType)
	entry.Timestamp = time.Unix(timestamp, 0).UTC()
	entry.Source = source.String
	entry.IdempotencyKey = idempotencyKey.String

	if payloadStr != "" {
		if err := json.Unmarshal([]byte(payloadStr), &entry.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	return &entry, nil
}

// Cleanup removes entries older than the retention window
func (l *Ledger) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UTC().Unix()

	result, err := l.db.Exec(`DELETE FROM event_ledger WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup ledger: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// StartCleanup runs Cleanup periodically until the context is cancelled
func (l *Ledger) StartCleanup(ctx context.Context, interval time.Duration, retentionDays int) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := l.Cleanup(retentionDays)
				if err != nil {
					log.Warn().Err(err).Msg("Ledger cleanup failed")
				} else if count > 0 {
					log.Debug().Int64("count", count).Msg("Ledger entries cleaned up")
				}
			}
		}
	}()
}
