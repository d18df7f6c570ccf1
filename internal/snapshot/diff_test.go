package snapshot

import "testing"

func deviceWithOnOff(id string, on bool) Device {
	return Device{
		ID:   id,
		Name: id,
		Type: "devices.types.light",
		Capabilities: []Capability{{
			Type:     CapOnOff,
			WireType: "devices.capabilities.on_off",
			State:    &CapabilityState{Instance: "on", Value: on},
		}},
	}
}

func TestHasDeviceStateChanged_NilPrevious(t *testing.T) {
	next := Snapshot{Devices: []Device{deviceWithOnOff("d1", true)}}
	if !HasDeviceStateChanged(nil, next) {
		t.Error("First snapshot should always count as changed")
	}
}

func TestHasDeviceStateChanged_Identical(t *testing.T) {
	prev := Snapshot{Devices: []Device{deviceWithOnOff("d1", true), deviceWithOnOff("d2", false)}}
	next := Snapshot{Devices: []Device{deviceWithOnOff("d1", true), deviceWithOnOff("d2", false)}}

	if HasDeviceStateChanged(&prev, next) {
		t.Error("Identical device states should not count as changed")
	}
}

func TestHasDeviceStateChanged_ValueFlip(t *testing.T) {
	prev := Snapshot{Devices: []Device{deviceWithOnOff("d1", false)}}
	next := Snapshot{Devices: []Device{deviceWithOnOff("d1", true)}}

	if !HasDeviceStateChanged(&prev, next) {
		t.Error("on_off value flip should count as changed")
	}
}

func TestHasDeviceStateChanged_NilState(t *testing.T) {
	withState := deviceWithOnOff("d1", true)
	noState := deviceWithOnOff("d1", true)
	noState.Capabilities[0].State = nil

	prev := Snapshot{Devices: []Device{withState}}
	next := Snapshot{Devices: []Device{noState}}

	if !HasDeviceStateChanged(&prev, next) {
		t.Error("State disappearing should count as changed")
	}
}

func TestHasDeviceStateChanged_WireTypeChange(t *testing.T) {
	prev := Snapshot{Devices: []Device{deviceWithOnOff("d1", true)}}

	altered := deviceWithOnOff("d1", true)
	altered.Capabilities[0].WireType = "devices.capabilities.something_else"
	next := Snapshot{Devices: []Device{altered}}

	if !HasDeviceStateChanged(&prev, next) {
		t.Error("Capability wire type change should count as changed")
	}
}

func TestHasDeviceStateChanged_CapabilityCountChange(t *testing.T) {
	prev := Snapshot{Devices: []Device{deviceWithOnOff("d1", true)}}

	extra := deviceWithOnOff("d1", true)
	extra.Capabilities = append(extra.Capabilities, Capability{
		Type:     CapRange,
		WireType: "devices.capabilities.range",
	})
	next := Snapshot{Devices: []Device{extra}}

	if !HasDeviceStateChanged(&prev, next) {
		t.Error("Capability count change should count as changed")
	}
}

func TestHasDeviceStateChanged_PropertyValue(t *testing.T) {
	makeSensor := func(value float64) Device {
		return Device{
			ID: "sensor",
			Properties: []Property{{
				Type:     PropFloat,
				WireType: "devices.properties.float",
				Instance: "temperature",
				State:    &PropertyState{Instance: "temperature", Value: value},
			}},
		}
	}

	prev := Snapshot{Devices: []Device{makeSensor(21.5)}}
	next := Snapshot{Devices: []Device{makeSensor(22.0)}}

	if !HasDeviceStateChanged(&prev, next) {
		t.Error("Sensor reading change should count as changed")
	}
}

func TestHasDeviceStateChanged_OnlySharedDevicesCompared(t *testing.T) {
	prev := Snapshot{Devices: []Device{deviceWithOnOff("d1", true)}}
	next := Snapshot{Devices: []Device{deviceWithOnOff("d1", true), deviceWithOnOff("d2", false)}}

	// Membership changes are not state changes
	if HasDeviceStateChanged(&prev, next) {
		t.Error("A new device with no shared-state change should not count as changed")
	}
}
