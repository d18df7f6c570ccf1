package snapshot

import "testing"

func TestApplyOptimisticToggle_FlipsOnlyTarget(t *testing.T) {
	s := Normalize(Snapshot{Devices: []Device{
		deviceWithOnOff("d1", false),
		deviceWithOnOff("d2", false),
	}})

	out := ApplyOptimisticToggle(s, "d1", true)

	d1 := out.FindDevice("d1")
	if !IsDeviceOn(d1) {
		t.Error("Target device should be on after toggle")
	}
	d2 := out.FindDevice("d2")
	if IsDeviceOn(d2) {
		t.Error("Other devices must be untouched")
	}
}

func TestApplyOptimisticToggle_DoesNotMutateOriginal(t *testing.T) {
	s := Normalize(Snapshot{Devices: []Device{deviceWithOnOff("d1", false)}})

	ApplyOptimisticToggle(s, "d1", true)

	if IsDeviceOn(s.FindDevice("d1")) {
		t.Error("Original snapshot must not be mutated")
	}
}

func TestApplyOptimisticToggle_UnknownDevice(t *testing.T) {
	s := Normalize(Snapshot{Devices: []Device{deviceWithOnOff("d1", false)}})

	out := ApplyOptimisticToggle(s, "missing", true)

	if len(out.Devices) != 1 || IsDeviceOn(out.FindDevice("d1")) {
		t.Error("Toggling an unknown device should leave the snapshot unchanged")
	}
}

func TestApplyOptimisticToggle_DeviceWithoutOnOff(t *testing.T) {
	sensor := Device{ID: "sensor", Name: "Sensor", Type: "devices.types.sensor"}
	s := Normalize(Snapshot{Devices: []Device{sensor}})

	out := ApplyOptimisticToggle(s, "sensor", true)

	if out.FindDevice("sensor").OnOffCapability() != nil {
		t.Error("Toggle must not invent an on_off capability")
	}
}

func TestApplyOptimisticToggle_ResultIsNormalized(t *testing.T) {
	// Unnormalized input: devices out of id order
	s := Snapshot{Devices: []Device{
		deviceWithOnOff("d2", false),
		deviceWithOnOff("d1", false),
	}}

	out := ApplyOptimisticToggle(s, "d2", true)

	if out.Devices[0].ID != "d1" {
		t.Error("Merge result should come out normalized")
	}
}

func TestApplyOptimisticToggle_DetectedAsChange(t *testing.T) {
	s := Normalize(Snapshot{Devices: []Device{deviceWithOnOff("d1", false)}})
	out := ApplyOptimisticToggle(s, "d1", true)

	if !HasDeviceStateChanged(&s, out) {
		t.Error("An optimistic toggle should register as a device state change")
	}
}
