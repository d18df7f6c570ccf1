package snapshot

import (
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/iot"
)

// FromRaw converts a raw cloud API snapshot into the canonical model.
// The result is not yet ordered; callers pass it through Normalize.
func FromRaw(raw *iot.UserInfoResponse) Snapshot {
	s := Snapshot{
		Households: make([]Household, 0, len(raw.Households)),
		Rooms:      make([]Room, 0, len(raw.Rooms)),
		Devices:    make([]Device, 0, len(raw.Devices)),
		Scenarios:  make([]Scenario, 0, len(raw.Scenarios)),
		Groups:     make([]Group, 0, len(raw.Groups)),
	}

	for _, h := range raw.Households {
		s.Households = append(s.Households, Household{ID: h.ID, Name: h.Name})
	}
	for _, r := range raw.Rooms {
		s.Rooms = append(s.Rooms, Room{
			ID:          r.ID,
			Name:        r.Name,
			HouseholdID: r.HouseholdID,
			DeviceIDs:   append([]string(nil), r.Devices...),
		})
	}
	for _, d := range raw.Devices {
		s.Devices = append(s.Devices, convertDevice(d))
	}
	for _, sc := range raw.Scenarios {
		s.Scenarios = append(s.Scenarios, Scenario{
			ID:        sc.ID,
			Name:      sc.Name,
			IsActive:  sc.IsActive,
			Icon:      sc.Icon,
			DeviceIDs: scenarioDeviceRefs(sc),
		})
	}
	for _, g := range raw.Groups {
		s.Groups = append(s.Groups, Group{
			ID:           g.ID,
			Name:         g.Name,
			HouseholdID:  g.HouseholdID,
			DeviceIDs:    append([]string(nil), g.Devices...),
			Capabilities: convertCapabilities(g.Capabilities),
		})
	}

	return s
}

func convertDevice(d iot.Device) Device {
	return Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         d.Type,
		RoomID:       d.Room,
		HouseholdID:  d.HouseholdID,
		Capabilities: convertCapabilities(d.Capabilities),
		Properties:   convertProperties(d.Properties),
	}
}

func convertCapabilities(caps []iot.Capability) []Capability {
	if len(caps) == 0 {
		return nil
	}
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		out = append(out, convertCapability(c))
	}
	return out
}

func convertCapability(c iot.Capability) Capability {
	out := Capability{WireType: c.Type}
	if c.State != nil {
		out.State = &CapabilityState{Instance: c.State.Instance, Value: c.State.Value}
	}

	switch c.Type {
	case iot.CapabilityOnOff:
		out.Type = CapOnOff
	case iot.CapabilityRange:
		out.Type = CapRange
		out.Range = decodeRange(c.Parameters)
	case iot.CapabilityMode:
		out.Type = CapMode
		out.Mode = decodeMode(c.Parameters)
	case iot.CapabilityToggle:
		out.Type = CapToggle
		out.Toggle = decodeToggle(c.Parameters)
	case iot.CapabilityColorSetting:
		out.Type = CapColorSetting
		out.Color = decodeColor(c.Parameters)
	default:
		out.Type = CapUnknown
	}

	return out
}

func convertProperties(props []iot.Property) []Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]Property, 0, len(props))
	for _, p := range props {
		out = append(out, convertProperty(p))
	}
	return out
}

func convertProperty(p iot.Property) Property {
	prop := Property{WireType: p.Type}
	if p.State != nil {
		prop.State = &PropertyState{Instance: p.State.Instance, Value: p.State.Value, Unit: p.State.Unit}
	}

	params := decodePropertyParams(p.Parameters)
	prop.Instance = params.Instance
	prop.Unit = params.Unit

	switch p.Type {
	case iot.PropertyFloat:
		prop.Type = PropFloat
	case iot.PropertyEvent:
		prop.Type = PropEvent
		prop.Events = params.Events
	default:
		prop.Type = PropUnknown
	}

	// The instance may only be present on the state for some skills.
	if prop.Instance == "" && prop.State != nil {
		prop.Instance = prop.State.Instance
	}

	return prop
}

// Wire shapes of the loose `parameters` maps. Decoding failures leave the
// typed parameters nil so the affected control simply does not render.

type rangeWire struct {
	Instance string `mapstructure:"instance"`
	Unit     string `mapstructure:"unit"`
	Range    struct {
		Min       float64 `mapstructure:"min"`
		Max       float64 `mapstructure:"max"`
		Precision float64 `mapstructure:"precision"`
	} `mapstructure:"range"`
}

type modeWire struct {
	Instance string `mapstructure:"instance"`
	Modes    []struct {
		Value string `mapstructure:"value"`
		Name  string `mapstructure:"name"`
	} `mapstructure:"modes"`
}

type toggleWire struct {
	Instance string `mapstructure:"instance"`
}

type colorWire struct {
	ColorModel   string `mapstructure:"color_model"`
	TemperatureK *struct {
		Min float64 `mapstructure:"min"`
		Max float64 `mapstructure:"max"`
	} `mapstructure:"temperature_k"`
}

type propertyWire struct {
	Instance string `mapstructure:"instance"`
	Unit     string `mapstructure:"unit"`
	Events   []struct {
		Value string `mapstructure:"value"`
		Name  string `mapstructure:"name"`
	} `mapstructure:"events"`
}

func decodeRange(params map[string]any) *RangeParameters {
	if params == nil {
		return nil
	}
	var w rangeWire
	if err := mapstructure.WeakDecode(params, &w); err != nil {
		log.Debug().Err(err).Msg("Undecodable range parameters")
		return nil
	}
	return &RangeParameters{
		Instance:  w.Instance,
		Unit:      w.Unit,
		Min:       w.Range.Min,
		Max:       w.Range.Max,
		Precision: w.Range.Precision,
	}
}

func decodeMode(params map[string]any) *ModeParameters {
	if params == nil {
		return nil
	}
	var w modeWire
	if err := mapstructure.WeakDecode(params, &w); err != nil {
		log.Debug().Err(err).Msg("Undecodable mode parameters")
		return nil
	}
	m := &ModeParameters{Instance: w.Instance}
	for _, mode := range w.Modes {
		m.Modes = append(m.Modes, ModeOption{Value: mode.Value, Name: mode.Name})
	}
	return m
}

func decodeToggle(params map[string]any) *ToggleParameters {
	if params == nil {
		return nil
	}
	var w toggleWire
	if err := mapstructure.WeakDecode(params, &w); err != nil {
		log.Debug().Err(err).Msg("Undecodable toggle parameters")
		return nil
	}
	return &ToggleParameters{Instance: w.Instance}
}

func decodeColor(params map[string]any) *ColorParameters {
	if params == nil {
		return nil
	}
	var w colorWire
	if err := mapstructure.WeakDecode(params, &w); err != nil {
		log.Debug().Err(err).Msg("Undecodable color parameters")
		return nil
	}
	c := &ColorParameters{ColorModel: w.ColorModel}
	if w.TemperatureK != nil {
		c.TemperatureK = &TemperatureKRange{Min: w.TemperatureK.Min, Max: w.TemperatureK.Max}
	}
	return c
}

func decodePropertyParams(params map[string]any) propertyParams {
	if params == nil {
		return propertyParams{}
	}
	var w propertyWire
	if err := mapstructure.WeakDecode(params, &w); err != nil {
		log.Debug().Err(err).Msg("Undecodable property parameters")
		return propertyParams{}
	}
	p := propertyParams{Instance: w.Instance, Unit: w.Unit}
	for _, ev := range w.Events {
		p.Events = append(p.Events, EventOption{Value: ev.Value, Name: ev.Name})
	}
	return p
}

type propertyParams struct {
	Instance string
	Unit     string
	Events   []EventOption
}

// scenarioDeviceRefs flattens all device ids referenced by a scenario's
// step action items.
func scenarioDeviceRefs(sc iot.Scenario) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, step := range sc.Steps {
		for _, item := range step.Parameters.LaunchDevices {
			add(item.ID)
		}
		for _, item := range step.Parameters.Items {
			add(item.ID)
		}
	}
	return ids
}
