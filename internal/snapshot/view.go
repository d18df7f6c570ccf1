package snapshot

// SelectHouseholdView derives the subset of entities belonging to the
// active household.
//
// With zero or one household no filtering is applied, so single-household
// installs are untouched by multi-household logic. Otherwise rooms and
// groups filter by direct household id; devices by explicit household id,
// then via their room, else they are dropped; scenarios are included iff at
// least one referenced device resolves to the active household.
func SelectHouseholdView(s Snapshot, activeHouseholdID string) View {
	if len(s.Households) <= 1 {
		return View{
			Rooms:     s.Rooms,
			Groups:    s.Groups,
			Devices:   s.Devices,
			Scenarios: s.Scenarios,
		}
	}

	attribution := buildHouseholdIndex(s)

	var v View
	for _, r := range s.Rooms {
		if r.HouseholdID == activeHouseholdID {
			v.Rooms = append(v.Rooms, r)
		}
	}
	for _, g := range s.Groups {
		if g.HouseholdID == activeHouseholdID {
			v.Groups = append(v.Groups, g)
		}
	}
	for _, d := range s.Devices {
		if attribution[d.ID] == activeHouseholdID {
			v.Devices = append(v.Devices, d)
		}
	}
	for _, sc := range s.Scenarios {
		// A scenario with zero resolvable device references belongs to no
		// household, not to all of them.
		for _, id := range sc.DeviceIDs {
			if attribution[id] == activeHouseholdID {
				v.Scenarios = append(v.Scenarios, sc)
				break
			}
		}
	}

	return v
}

// buildHouseholdIndex maps device id to household id in one pass over
// devices followed by one pass over rooms. The room pass fills only ids not
// already mapped: an explicit device link always wins over the room-derived
// link.
func buildHouseholdIndex(s Snapshot) map[string]string {
	index := make(map[string]string, len(s.Devices))
	for _, d := range s.Devices {
		if d.HouseholdID != "" {
			index[d.ID] = d.HouseholdID
		}
	}
	roomHousehold := make(map[string]string, len(s.Rooms))
	for _, r := range s.Rooms {
		if r.HouseholdID == "" {
			continue
		}
		roomHousehold[r.ID] = r.HouseholdID
		for _, id := range r.DeviceIDs {
			if _, ok := index[id]; !ok {
				index[id] = r.HouseholdID
			}
		}
	}
	// Devices carrying a room link the room itself does not list.
	for _, d := range s.Devices {
		if _, ok := index[d.ID]; ok || d.RoomID == "" {
			continue
		}
		if hh, ok := roomHousehold[d.RoomID]; ok {
			index[d.ID] = hh
		}
	}
	return index
}
