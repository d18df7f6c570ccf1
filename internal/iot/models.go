package iot

// Wire capability type tags used by the cloud API.
const (
	CapabilityOnOff        = "devices.capabilities.on_off"
	CapabilityRange        = "devices.capabilities.range"
	CapabilityMode         = "devices.capabilities.mode"
	CapabilityToggle       = "devices.capabilities.toggle"
	CapabilityColorSetting = "devices.capabilities.color_setting"
)

// Wire property type tags used by the cloud API.
const (
	PropertyFloat = "devices.properties.float"
	PropertyEvent = "devices.properties.event"
)

// Household represents a top-level home scope
type Household struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room represents a room within a household
type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	HouseholdID string   `json:"household_id"`
	Devices     []string `json:"devices"`
}

// CapabilityState is the current state of a controllable facet
type CapabilityState struct {
	Instance string `json:"instance"`
	Value    any    `json:"value"`
}

// Capability represents a controllable facet of a device or group.
// Parameters are capability-specific and arrive as a loose map; the
// snapshot layer decodes them into typed shapes.
type Capability struct {
	Type        string           `json:"type"`
	Retrievable bool             `json:"retrievable"`
	Reportable  bool             `json:"reportable"`
	State       *CapabilityState `json:"state,omitempty"`
	Parameters  map[string]any   `json:"parameters,omitempty"`
}

// PropertyState is the current reading of a sensor facet
type PropertyState struct {
	Instance string `json:"instance"`
	Value    any    `json:"value"`
	Unit     string `json:"unit,omitempty"`
}

// Property represents a read-only sensor facet of a device
type Property struct {
	Type        string         `json:"type"`
	Retrievable bool           `json:"retrievable"`
	Reportable  bool           `json:"reportable"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	State       *PropertyState `json:"state,omitempty"`
}

// Device represents a single device. The household link may be absent;
// attribution then goes through the room.
type Device struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	ExternalID   string       `json:"external_id,omitempty"`
	SkillID      string       `json:"skill_id,omitempty"`
	Room         string       `json:"room,omitempty"`
	HouseholdID  string       `json:"household_id,omitempty"`
	Groups       []string     `json:"groups,omitempty"`
	Capabilities []Capability `json:"capabilities"`
	Properties   []Property   `json:"properties,omitempty"`
}

// Group is an aggregate addressable the same way as a device
type Group struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	HouseholdID  string       `json:"household_id"`
	Type         string       `json:"type,omitempty"`
	Devices      []string     `json:"devices"`
	Capabilities []Capability `json:"capabilities"`
}

// ScenarioStepItem references a device inside a scenario step
type ScenarioStepItem struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// ScenarioStepParameters holds the device references of a step. The API
// uses launch_devices for device actions; items covers older payloads.
type ScenarioStepParameters struct {
	LaunchDevices []ScenarioStepItem `json:"launch_devices,omitempty"`
	Items         []ScenarioStepItem `json:"items,omitempty"`
}

// ScenarioStep is one step of a scenario
type ScenarioStep struct {
	Type       string                 `json:"type"`
	Parameters ScenarioStepParameters `json:"parameters"`
}

// Scenario represents a user scenario
type Scenario struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	IsActive bool           `json:"is_active"`
	Icon     string         `json:"icon,omitempty"`
	Steps    []ScenarioStep `json:"steps,omitempty"`
}

// UserInfoResponse is the bulk snapshot returned by /user/info
type UserInfoResponse struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Rooms      []Room      `json:"rooms"`
	Groups     []Group     `json:"groups"`
	Devices    []Device    `json:"devices"`
	Scenarios  []Scenario  `json:"scenarios"`
	Households []Household `json:"households"`
}

// CapabilityAction is a single state change requested on a device or group
type CapabilityAction struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
	Value    any    `json:"value"`
}

// actionRequest is the body of POST /devices/actions
type actionRequest struct {
	Devices []actionDevice `json:"devices"`
}

type actionDevice struct {
	ID      string        `json:"id"`
	Actions []actionEntry `json:"actions"`
}

type actionEntry struct {
	Type  string          `json:"type"`
	State CapabilityState `json:"state"`
}

// actionResponse is the body returned by POST /devices/actions.
// A device-level error_code means the action failed for that device even
// when the HTTP status is 200.
type actionResponse struct {
	Status  string `json:"status"`
	Devices []struct {
		ID           string `json:"id"`
		ErrorCode    string `json:"error_code,omitempty"`
		ErrorMessage string `json:"error_message,omitempty"`
	} `json:"devices"`
}
