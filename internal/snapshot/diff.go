package snapshot

import "encoding/json"

// HasDeviceStateChanged reports whether a silent refresh produced an
// observable capability or property change on any device present in both
// snapshots. A nil previous snapshot always counts as changed (first load).
//
// Devices only present on one side do not trigger detection: the sole
// consumer uses the result to decide whether to record a silent-sync event,
// so add/remove misses are acceptable while state-mutation misses are not.
// Comparison trouble is treated conservatively as changed.
func HasDeviceStateChanged(prev *Snapshot, next Snapshot) (changed bool) {
	if prev == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			changed = true
		}
	}()

	prevByID := make(map[string]*Device, len(prev.Devices))
	for i := range prev.Devices {
		prevByID[prev.Devices[i].ID] = &prev.Devices[i]
	}

	for i := range next.Devices {
		before, ok := prevByID[next.Devices[i].ID]
		if !ok {
			continue
		}
		if capabilitiesDiffer(before.Capabilities, next.Devices[i].Capabilities) {
			return true
		}
		if propertiesDiffer(before.Properties, next.Devices[i].Properties) {
			return true
		}
	}

	return false
}

// capabilitiesDiffer compares capability lists pairwise by position: any
// difference in length, type, or serialized state counts.
func capabilitiesDiffer(a, b []Capability) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].WireType != b[i].WireType {
			return true
		}
		if statesDiffer(a[i].State, b[i].State) {
			return true
		}
	}
	return false
}

func propertiesDiffer(a, b []Property) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].WireType != b[i].WireType {
			return true
		}
		if statesDiffer(a[i].State, b[i].State) {
			return true
		}
	}
	return false
}

// statesDiffer compares two state values structurally by serialization,
// covering nested objects. Marshal failures count as different.
func statesDiffer(a, b any) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return true
	}
	return string(aJSON) != string(bJSON)
}
