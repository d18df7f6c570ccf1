package storage

import (
	"fmt"

	"github.com/onegamerstory/homepanel/internal/kv"
)

const bucketPrefs = "ui_prefs"

// Prefs persists lightweight UI preferences: theme and per-household room
// collapse state. Keys are plain strings, collapse keys namespaced by
// household id.
type Prefs struct {
	bucket kv.Bucket
}

// NewPrefs creates the preferences store on a persistent bucket.
func NewPrefs(m *kv.Manager) *Prefs {
	return &Prefs{bucket: m.Bucket(bucketPrefs, true)}
}

// Theme returns the stored theme name, or "" if unset.
func (p *Prefs) Theme() string {
	v, _ := p.bucket.Get("theme")
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// SetTheme stores the theme name.
func (p *Prefs) SetTheme(theme string) error {
	return p.bucket.Store("theme", theme, nil)
}

func collapseKey(householdID, roomID string) string {
	return fmt.Sprintf("collapse:%s:%s", householdID, roomID)
}

// IsRoomCollapsed reports whether a room section is collapsed for a household.
func (p *Prefs) IsRoomCollapsed(householdID, roomID string) bool {
	v, _ := p.bucket.Get(collapseKey(householdID, roomID))
	collapsed, ok := v.(bool)
	return ok && collapsed
}

// SetRoomCollapsed stores the collapse state of a room section.
func (p *Prefs) SetRoomCollapsed(householdID, roomID string, collapsed bool) error {
	if !collapsed {
		_, err := p.bucket.Delete(collapseKey(householdID, roomID))
		return err
	}
	return p.bucket.Store(collapseKey(householdID, roomID), true, nil)
}
