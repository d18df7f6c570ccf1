package snapshot

// ApplyOptimisticToggle returns a snapshot in which the device's on_off
// capability reflects the requested value, applied before the authoritative
// refresh so the UI reacts instantly. The update is provisional: the next
// refresh wholesale-replaces the snapshot and silently wins on
// disagreement.
//
// Only the addressed capability is replaced; every other capability,
// property and device is shared with the input snapshot. An unknown device
// id is a no-op.
func ApplyOptimisticToggle(s Snapshot, deviceID string, on bool) Snapshot {
	idx := -1
	for i := range s.Devices {
		if s.Devices[i].ID == deviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}

	devices := append([]Device(nil), s.Devices...)
	caps := append([]Capability(nil), devices[idx].Capabilities...)
	for i := range caps {
		if caps[i].Type == CapOnOff {
			caps[i].State = &CapabilityState{Instance: "on", Value: on}
		}
	}
	devices[idx].Capabilities = caps

	out := s
	out.Devices = devices
	return Normalize(out)
}
