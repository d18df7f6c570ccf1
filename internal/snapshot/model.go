// Package snapshot holds the canonical in-memory state of the user's smart
// home and the pure derivation logic over it: normalization, household view
// filtering, change detection and optimistic merging.
package snapshot

// CapabilityType is the closed set of controllable facet kinds.
type CapabilityType string

const (
	CapOnOff        CapabilityType = "on_off"
	CapRange        CapabilityType = "range"
	CapMode         CapabilityType = "mode"
	CapToggle       CapabilityType = "toggle"
	CapColorSetting CapabilityType = "color_setting"
	CapUnknown      CapabilityType = "unknown"
)

// PropertyType is the closed set of sensor facet kinds.
type PropertyType string

const (
	PropFloat   PropertyType = "float"
	PropEvent   PropertyType = "event"
	PropUnknown PropertyType = "unknown"
)

// Household is the root scoping unit. Read-only on the client.
type Household struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room belongs to exactly one household.
type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	HouseholdID string   `json:"household_id"`
	DeviceIDs   []string `json:"device_ids"`
}

// CapabilityState is the current value of a controllable facet.
type CapabilityState struct {
	Instance string `json:"instance"`
	Value    any    `json:"value"`
}

// RangeParameters describes a numeric capability (brightness, temperature).
type RangeParameters struct {
	Instance  string  `json:"instance"`
	Unit      string  `json:"unit,omitempty"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Precision float64 `json:"precision"`
}

// ModeOption is one selectable mode value.
type ModeOption struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// ModeParameters describes an enumerated mode capability (thermostat mode,
// fan speed, swing).
type ModeParameters struct {
	Instance string       `json:"instance"`
	Modes    []ModeOption `json:"modes"`
}

// ToggleParameters describes a boolean sub-switch (oscillation, mute).
type ToggleParameters struct {
	Instance string `json:"instance"`
}

// TemperatureKRange bounds the white-temperature scale of a light.
type TemperatureKRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ColorParameters describes a color-capable light.
type ColorParameters struct {
	ColorModel   string             `json:"color_model,omitempty"` // "hsv" or "rgb"
	TemperatureK *TemperatureKRange `json:"temperature_k,omitempty"`
}

// Capability is a tagged variant over the closed capability set. Exactly
// one of the parameter fields matching Type is populated; unknown wire
// types keep Type == CapUnknown with the original tag in WireType so they
// are carried, diffed and re-serialized without being silently dropped.
type Capability struct {
	Type     CapabilityType    `json:"type"`
	WireType string            `json:"wire_type"`
	State    *CapabilityState  `json:"state,omitempty"`
	Range    *RangeParameters  `json:"range,omitempty"`
	Mode     *ModeParameters   `json:"mode,omitempty"`
	Toggle   *ToggleParameters `json:"toggle,omitempty"`
	Color    *ColorParameters  `json:"color,omitempty"`
}

// EventOption maps an enumerated sensor value to its display name.
type EventOption struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// PropertyState is the current reading of a sensor facet.
type PropertyState struct {
	Instance string `json:"instance"`
	Value    any    `json:"value"`
	Unit     string `json:"unit,omitempty"`
}

// Property is a read-only sensor facet: a float reading with a unit, or an
// enumerated event with a value-to-name table.
type Property struct {
	Type     PropertyType   `json:"type"`
	WireType string         `json:"wire_type"`
	Instance string         `json:"instance,omitempty"`
	Unit     string         `json:"unit,omitempty"`
	Events   []EventOption  `json:"events,omitempty"`
	State    *PropertyState `json:"state,omitempty"`
}

// Device is a single device. HouseholdID may be empty; attribution then
// goes through RoomID.
type Device struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	RoomID       string       `json:"room_id,omitempty"`
	HouseholdID  string       `json:"household_id,omitempty"`
	Capabilities []Capability `json:"capabilities"`
	Properties   []Property   `json:"properties,omitempty"`
}

// Group is an aggregate addressable like a device.
type Group struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	HouseholdID  string       `json:"household_id"`
	DeviceIDs    []string     `json:"device_ids"`
	Capabilities []Capability `json:"capabilities"`
}

// Scenario is a runnable scenario. DeviceIDs is the flattened set of device
// references found in its steps, used for household attribution.
type Scenario struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	IsActive  bool     `json:"is_active"`
	Icon      string   `json:"icon,omitempty"`
	DeviceIDs []string `json:"device_ids,omitempty"`
}

// Snapshot is the full canonical state at a point in time. Within a
// normalized snapshot devices are sorted by id and rooms/scenarios by name;
// groups and households keep source order.
type Snapshot struct {
	Households []Household `json:"households"`
	Rooms      []Room      `json:"rooms"`
	Devices    []Device    `json:"devices"`
	Scenarios  []Scenario  `json:"scenarios"`
	Groups     []Group     `json:"groups"`
}

// View is the per-household subset of a snapshot.
type View struct {
	Rooms     []Room     `json:"rooms"`
	Groups    []Group    `json:"groups"`
	Devices   []Device   `json:"devices"`
	Scenarios []Scenario `json:"scenarios"`
}

// FindDevice returns the device with the given id, or nil.
func (s *Snapshot) FindDevice(id string) *Device {
	for i := range s.Devices {
		if s.Devices[i].ID == id {
			return &s.Devices[i]
		}
	}
	return nil
}

// FindGroup returns the group with the given id, or nil.
func (s *Snapshot) FindGroup(id string) *Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

// FindScenario returns the scenario with the given id, or nil.
func (s *Snapshot) FindScenario(id string) *Scenario {
	for i := range s.Scenarios {
		if s.Scenarios[i].ID == id {
			return &s.Scenarios[i]
		}
	}
	return nil
}

// OnOffCapability returns the device's on_off capability, or nil.
func (d *Device) OnOffCapability() *Capability {
	for i := range d.Capabilities {
		if d.Capabilities[i].Type == CapOnOff {
			return &d.Capabilities[i]
		}
	}
	return nil
}
