package orchestrator

import (
	"github.com/google/uuid"

	"github.com/onegamerstory/homepanel/internal/eventbus"
	"github.com/onegamerstory/homepanel/internal/snapshot"
)

// Notification severity levels.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	// NotifyAuth marks the distinct session-expired notification.
	NotifyAuth = "auth"
)

// ViewModel is the render-ready projection handed to presentation surfaces.
type ViewModel struct {
	State             State                `json:"state"`
	Busy              bool                 `json:"busy"`
	Refreshing        bool                 `json:"refreshing"`
	Households        []snapshot.Household `json:"households"`
	ActiveHouseholdID string               `json:"active_household_id"`
	View              snapshot.View        `json:"view"`
	FavoriteDevices   []string             `json:"favorite_devices"`
	FavoriteScenarios []string             `json:"favorite_scenarios"`
}

// TrayItem is one entry of the flattened favorites list for the tray menu.
type TrayItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	IsToggleable    bool   `json:"is_toggleable,omitempty"`
	IsOn            bool   `json:"is_on,omitempty"`
	SensorValueText string `json:"sensor_value_text,omitempty"`
}

// CurrentView builds the view-model from the current snapshot, filtered to
// the active household.
func (o *Orchestrator) CurrentView() ViewModel {
	o.mu.Lock()
	defer o.mu.Unlock()

	vm := ViewModel{
		State:             o.state,
		Busy:              o.busy,
		Refreshing:        o.inFlight,
		ActiveHouseholdID: o.activeHousehold,
		FavoriteDevices:   o.favorites.DeviceIDs(),
		FavoriteScenarios: o.favorites.ScenarioIDs(),
	}
	if o.snap != nil {
		vm.Households = o.snap.Households
		vm.View = snapshot.SelectHouseholdView(*o.snap, o.activeHousehold)
	}
	return vm
}

// TrayItems flattens the favorites against the current snapshot. Favorites
// whose entity no longer exists are kept in storage but skipped here. The
// result is non-nil whenever a snapshot exists: an emptied favorites list
// must still reach the tray so removed entries disappear there.
func (o *Orchestrator) TrayItems() []TrayItem {
	o.mu.Lock()
	snap := o.snap
	o.mu.Unlock()

	if snap == nil {
		return nil
	}

	items := []TrayItem{}
	for _, id := range o.favorites.DeviceIDs() {
		d := snap.FindDevice(id)
		if d == nil {
			continue
		}
		items = append(items, TrayItem{
			ID:              d.ID,
			Name:            d.Name,
			Kind:            "device",
			IsToggleable:    snapshot.IsToggleable(d),
			IsOn:            snapshot.IsDeviceOn(d),
			SensorValueText: snapshot.SensorText(d),
		})
	}
	for _, id := range o.favorites.ScenarioIDs() {
		sc := snap.FindScenario(id)
		if sc == nil {
			continue
		}
		items = append(items, TrayItem{ID: sc.ID, Name: sc.Name, Kind: "scenario"})
	}
	return items
}

func (o *Orchestrator) emitViewUpdate() {
	o.bus.Publish(eventbus.Event{Type: eventbus.EventTypeViewUpdate, Data: map[string]any{}})
}

// emitTrayUpdate pushes the flattened favorites to the tray surface. Only
// skips when no snapshot exists; an empty favorites list still publishes,
// so unfavoriting the last entry clears the tray.
func (o *Orchestrator) emitTrayUpdate() {
	items := o.TrayItems()
	if items == nil {
		return
	}
	payload := make([]any, 0, len(items))
	for _, it := range items {
		payload = append(payload, it)
	}
	o.bus.Publish(eventbus.Event{Type: eventbus.EventTypeTrayUpdate, Data: map[string]any{"items": payload}})
}

func (o *Orchestrator) notify(level, message string) {
	o.bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeNotification,
		Data: map[string]any{
			"id":               uuid.NewString(),
			"level":            level,
			"message":          message,
			"dismiss_after_ms": o.dismissAfter.Milliseconds(),
		},
	})
}
