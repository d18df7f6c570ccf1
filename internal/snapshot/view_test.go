package snapshot

import "testing"

func multiHouseholdFixture() Snapshot {
	return Snapshot{
		Households: []Household{{ID: "h1", Name: "Home"}, {ID: "h2", Name: "Dacha"}},
		Rooms: []Room{
			{ID: "r1", Name: "Bedroom", HouseholdID: "h1", DeviceIDs: []string{"d-room"}},
			{ID: "r2", Name: "Garage", HouseholdID: "h2", DeviceIDs: []string{"d-other"}},
		},
		Devices: []Device{
			{ID: "d-explicit", Name: "Socket", HouseholdID: "h1"},
			{ID: "d-room", Name: "Lamp"},
			{ID: "d-other", Name: "Heater"},
			{ID: "d-orphan", Name: "Mystery"},
		},
		Groups: []Group{
			{ID: "g1", Name: "Lights", HouseholdID: "h1"},
			{ID: "g2", Name: "Heating", HouseholdID: "h2"},
		},
		Scenarios: []Scenario{
			{ID: "s1", Name: "Evening", DeviceIDs: []string{"d-room"}},
			{ID: "s2", Name: "Frost guard", DeviceIDs: []string{"d-other"}},
			{ID: "s3", Name: "Empty", DeviceIDs: nil},
			{ID: "s4", Name: "Mixed", DeviceIDs: []string{"d-other", "d-explicit"}},
		},
	}
}

func TestSelectHouseholdView_SingleHouseholdPassthrough(t *testing.T) {
	s := multiHouseholdFixture()
	s.Households = s.Households[:1]

	v := SelectHouseholdView(s, "h1")

	if len(v.Devices) != len(s.Devices) {
		t.Errorf("Single household should pass all devices through, got %d of %d", len(v.Devices), len(s.Devices))
	}
	if len(v.Scenarios) != len(s.Scenarios) {
		t.Errorf("Single household should pass all scenarios through, got %d of %d", len(v.Scenarios), len(s.Scenarios))
	}
}

func TestSelectHouseholdView_DeviceAttribution(t *testing.T) {
	v := SelectHouseholdView(multiHouseholdFixture(), "h1")

	ids := make(map[string]bool)
	for _, d := range v.Devices {
		ids[d.ID] = true
	}
	if !ids["d-explicit"] {
		t.Error("Device with explicit household link should be included")
	}
	if !ids["d-room"] {
		t.Error("Device attributed via its room should be included")
	}
	if ids["d-other"] {
		t.Error("Device from the other household should be excluded")
	}
	if ids["d-orphan"] {
		t.Error("Unattributable device should be excluded")
	}
}

func TestSelectHouseholdView_ExplicitLinkWinsOverRoom(t *testing.T) {
	s := multiHouseholdFixture()
	// Room in h1 lists the device, but the device says h2
	s.Devices = append(s.Devices, Device{ID: "d-conflict", Name: "Conflicted", HouseholdID: "h2"})
	s.Rooms[0].DeviceIDs = append(s.Rooms[0].DeviceIDs, "d-conflict")

	v := SelectHouseholdView(s, "h1")
	for _, d := range v.Devices {
		if d.ID == "d-conflict" {
			t.Error("Explicit household link must win over room membership")
		}
	}

	v2 := SelectHouseholdView(s, "h2")
	found := false
	for _, d := range v2.Devices {
		if d.ID == "d-conflict" {
			found = true
		}
	}
	if !found {
		t.Error("Device should appear under its explicitly linked household")
	}
}

func TestSelectHouseholdView_RoomLinkNotListedByRoom(t *testing.T) {
	s := multiHouseholdFixture()
	// Device points at r1 but r1 does not list it
	s.Devices = append(s.Devices, Device{ID: "d-backref", Name: "Backref", RoomID: "r1"})

	v := SelectHouseholdView(s, "h1")
	found := false
	for _, d := range v.Devices {
		if d.ID == "d-backref" {
			found = true
		}
	}
	if !found {
		t.Error("Device with a room link should resolve through the room's household")
	}
}

func TestSelectHouseholdView_Scenarios(t *testing.T) {
	v := SelectHouseholdView(multiHouseholdFixture(), "h1")

	ids := make(map[string]bool)
	for _, sc := range v.Scenarios {
		ids[sc.ID] = true
	}
	if !ids["s1"] {
		t.Error("Scenario referencing an h1 device should be included")
	}
	if ids["s2"] {
		t.Error("Scenario referencing only h2 devices should be excluded")
	}
	if ids["s3"] {
		t.Error("Scenario with no resolvable device references should be excluded")
	}
	if !ids["s4"] {
		t.Error("Scenario referencing devices in both households should appear in both")
	}

	v2 := SelectHouseholdView(multiHouseholdFixture(), "h2")
	found := false
	for _, sc := range v2.Scenarios {
		if sc.ID == "s4" {
			found = true
		}
	}
	if !found {
		t.Error("Mixed scenario should also appear under h2")
	}
}

func TestSelectHouseholdView_RoomsAndGroupsFilterDirectly(t *testing.T) {
	v := SelectHouseholdView(multiHouseholdFixture(), "h2")

	if len(v.Rooms) != 1 || v.Rooms[0].ID != "r2" {
		t.Errorf("Expected only r2 for h2, got %d rooms", len(v.Rooms))
	}
	if len(v.Groups) != 1 || v.Groups[0].ID != "g2" {
		t.Errorf("Expected only g2 for h2, got %d groups", len(v.Groups))
	}
}
