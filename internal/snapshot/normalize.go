package snapshot

import "sort"

// Normalize returns a canonically ordered copy of the snapshot: devices
// sorted by id, rooms and scenarios sorted by name, groups and households
// in source order. The upstream API does not guarantee stable ordering
// across polls; without this, re-renders would shuffle visible cards and
// lose the user's scroll position.
//
// Normalize is pure and idempotent. Ties on room/scenario names are broken
// by id so the result depends only on id/name fields, never input order.
func Normalize(s Snapshot) Snapshot {
	out := s
	out.Devices = append([]Device(nil), s.Devices...)
	out.Rooms = append([]Room(nil), s.Rooms...)
	out.Scenarios = append([]Scenario(nil), s.Scenarios...)

	sort.Slice(out.Devices, func(i, j int) bool {
		return out.Devices[i].ID < out.Devices[j].ID
	})
	sort.Slice(out.Rooms, func(i, j int) bool {
		if out.Rooms[i].Name != out.Rooms[j].Name {
			return out.Rooms[i].Name < out.Rooms[j].Name
		}
		return out.Rooms[i].ID < out.Rooms[j].ID
	})
	sort.Slice(out.Scenarios, func(i, j int) bool {
		if out.Scenarios[i].Name != out.Scenarios[j].Name {
			return out.Scenarios[i].Name < out.Scenarios[j].Name
		}
		return out.Scenarios[i].ID < out.Scenarios[j].ID
	})

	return out
}
