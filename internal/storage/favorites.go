package storage

import (
	"sort"

	"github.com/onegamerstory/homepanel/internal/kv"
)

const (
	bucketFavoriteDevices   = "favorites_devices"
	bucketFavoriteScenarios = "favorites_scenarios"
)

// Favorites holds the two persisted favorite id sets. They are independent
// of the snapshot lifecycle and survive logout.
type Favorites struct {
	devices   kv.Bucket
	scenarios kv.Bucket
}

// NewFavorites creates the favorites store on persistent buckets.
func NewFavorites(m *kv.Manager) *Favorites {
	return &Favorites{
		devices:   m.Bucket(bucketFavoriteDevices, true),
		scenarios: m.Bucket(bucketFavoriteScenarios, true),
	}
}

// ToggleDevice flips the favorite flag of a device and returns the new state.
func (f *Favorites) ToggleDevice(id string) (bool, error) {
	return toggle(f.devices, id)
}

// ToggleScenario flips the favorite flag of a scenario and returns the new state.
func (f *Favorites) ToggleScenario(id string) (bool, error) {
	return toggle(f.scenarios, id)
}

// IsDevice reports whether the device id is favorited.
func (f *Favorites) IsDevice(id string) bool {
	ok, _ := f.devices.Exists(id)
	return ok
}

// IsScenario reports whether the scenario id is favorited.
func (f *Favorites) IsScenario(id string) bool {
	ok, _ := f.scenarios.Exists(id)
	return ok
}

// DeviceIDs returns the favorited device ids, sorted.
func (f *Favorites) DeviceIDs() []string {
	return sortedKeys(f.devices)
}

// ScenarioIDs returns the favorited scenario ids, sorted.
func (f *Favorites) ScenarioIDs() []string {
	return sortedKeys(f.scenarios)
}

func toggle(b kv.Bucket, id string) (bool, error) {
	exists, err := b.Exists(id)
	if err != nil {
		return false, err
	}
	if exists {
		_, err := b.Delete(id)
		return false, err
	}
	return true, b.Store(id, true, nil)
}

func sortedKeys(b kv.Bucket) []string {
	keys, err := b.Keys()
	if err != nil {
		return nil
	}
	sort.Strings(keys)
	return keys
}
