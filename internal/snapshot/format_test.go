package snapshot

import "testing"

func TestIsDeviceOn_OnOffCapability(t *testing.T) {
	on := deviceWithOnOff("d1", true)
	if !IsDeviceOn(&on) {
		t.Error("Device with on_off value true should be on")
	}

	off := deviceWithOnOff("d1", false)
	if IsDeviceOn(&off) {
		t.Error("Device with on_off value false should be off")
	}

	unknown := deviceWithOnOff("d1", true)
	unknown.Capabilities[0].State = nil
	if IsDeviceOn(&unknown) {
		t.Error("Device with no on_off state should render as off")
	}
}

func TestIsDeviceOn_AlwaysOnTypes(t *testing.T) {
	for _, typ := range []string{
		"devices.types.hub",
		"devices.types.smart_speaker",
		"devices.types.other",
	} {
		d := Device{ID: "d", Type: typ}
		if !IsDeviceOn(&d) {
			t.Errorf("Type %s without on_off should render as always-on", typ)
		}
	}

	sensor := Device{ID: "d", Type: "devices.types.sensor"}
	if IsDeviceOn(&sensor) {
		t.Error("Sensor without on_off should render as off")
	}
}

func TestFormatPropertyValue_FloatWithUnit(t *testing.T) {
	p := Property{
		Type:     PropFloat,
		Instance: "temperature",
		Unit:     "unit.temperature.celsius",
		State:    &PropertyState{Instance: "temperature", Value: 22.5},
	}
	if got := FormatPropertyValue(&p); got != "22.5°C" {
		t.Errorf("FormatPropertyValue = %q, want %q", got, "22.5°C")
	}
}

func TestFormatPropertyValue_InstanceFallback(t *testing.T) {
	p := Property{
		Type:     PropFloat,
		Instance: "humidity",
		State:    &PropertyState{Instance: "humidity", Value: float64(41)},
	}
	if got := FormatPropertyValue(&p); got != "41%" {
		t.Errorf("FormatPropertyValue = %q, want %q", got, "41%")
	}
}

func TestFormatPropertyValue_UnknownUnitPassedThrough(t *testing.T) {
	p := Property{
		Type:     PropFloat,
		Instance: "pressure",
		Unit:     "hPa",
		State:    &PropertyState{Instance: "pressure", Value: float64(1013)},
	}
	if got := FormatPropertyValue(&p); got != "1013hPa" {
		t.Errorf("FormatPropertyValue = %q, want %q", got, "1013hPa")
	}
}

func TestFormatPropertyValue_EventName(t *testing.T) {
	p := Property{
		Type:     PropEvent,
		Instance: "open",
		Events: []EventOption{
			{Value: "opened", Name: "Opened"},
			{Value: "closed", Name: "Closed"},
		},
		State: &PropertyState{Instance: "open", Value: "closed"},
	}
	if got := FormatPropertyValue(&p); got != "Closed" {
		t.Errorf("FormatPropertyValue = %q, want %q", got, "Closed")
	}
}

func TestFormatPropertyValue_EventWithoutTableEntry(t *testing.T) {
	p := Property{
		Type:     PropEvent,
		Instance: "button",
		State:    &PropertyState{Instance: "button", Value: "click"},
	}
	if got := FormatPropertyValue(&p); got != "click" {
		t.Errorf("Unmapped event should fall back to raw value, got %q", got)
	}
}

func TestSensorText(t *testing.T) {
	d := Device{
		ID: "sensor",
		Properties: []Property{
			{Type: PropFloat, Instance: "temperature", Unit: "unit.temperature.celsius"},
			{
				Type:     PropFloat,
				Instance: "humidity",
				State:    &PropertyState{Instance: "humidity", Value: float64(37)},
			},
		},
	}

	// First property has no reading, second does
	if got := SensorText(&d); got != "37%" {
		t.Errorf("SensorText = %q, want %q", got, "37%")
	}

	empty := Device{ID: "lamp"}
	if got := SensorText(&empty); got != "" {
		t.Errorf("Device without sensors should have empty sensor text, got %q", got)
	}
}

func TestIsToggleable(t *testing.T) {
	lamp := deviceWithOnOff("d1", false)
	if !IsToggleable(&lamp) {
		t.Error("Device with on_off should be toggleable")
	}

	sensor := Device{ID: "sensor"}
	if IsToggleable(&sensor) {
		t.Error("Device without on_off should not be toggleable")
	}
}
