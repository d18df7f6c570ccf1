package snapshot

import (
	"reflect"
	"testing"
)

func snapshotFixture() Snapshot {
	return Snapshot{
		Households: []Household{{ID: "h2", Name: "Dacha"}, {ID: "h1", Name: "Home"}},
		Rooms: []Room{
			{ID: "r2", Name: "Kitchen", HouseholdID: "h1"},
			{ID: "r1", Name: "Bedroom", HouseholdID: "h1"},
		},
		Devices: []Device{
			{ID: "dev-b", Name: "Lamp"},
			{ID: "dev-a", Name: "Socket"},
		},
		Scenarios: []Scenario{
			{ID: "s1", Name: "Night"},
			{ID: "s2", Name: "Morning"},
		},
		Groups: []Group{{ID: "g2", Name: "Lights"}, {ID: "g1", Name: "All"}},
	}
}

func TestNormalize_Ordering(t *testing.T) {
	out := Normalize(snapshotFixture())

	if out.Devices[0].ID != "dev-a" || out.Devices[1].ID != "dev-b" {
		t.Errorf("Devices not sorted by id: %s, %s", out.Devices[0].ID, out.Devices[1].ID)
	}
	if out.Rooms[0].Name != "Bedroom" || out.Rooms[1].Name != "Kitchen" {
		t.Errorf("Rooms not sorted by name: %s, %s", out.Rooms[0].Name, out.Rooms[1].Name)
	}
	if out.Scenarios[0].Name != "Morning" || out.Scenarios[1].Name != "Night" {
		t.Errorf("Scenarios not sorted by name: %s, %s", out.Scenarios[0].Name, out.Scenarios[1].Name)
	}
	// Groups and households keep source order
	if out.Groups[0].ID != "g2" {
		t.Errorf("Groups should keep source order, got %s first", out.Groups[0].ID)
	}
	if out.Households[0].ID != "h2" {
		t.Errorf("Households should keep source order, got %s first", out.Households[0].ID)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize(snapshotFixture())
	twice := Normalize(once)

	if !reflect.DeepEqual(once, twice) {
		t.Error("Normalize applied twice should equal Normalize applied once")
	}
}

func TestNormalize_OrderIndependent(t *testing.T) {
	a := snapshotFixture()

	b := snapshotFixture()
	// Same content, different source order
	b.Devices[0], b.Devices[1] = b.Devices[1], b.Devices[0]
	b.Rooms[0], b.Rooms[1] = b.Rooms[1], b.Rooms[0]
	b.Scenarios[0], b.Scenarios[1] = b.Scenarios[1], b.Scenarios[0]

	na := Normalize(a)
	nb := Normalize(b)

	if !reflect.DeepEqual(na.Devices, nb.Devices) {
		t.Error("Device order should not depend on source order")
	}
	if !reflect.DeepEqual(na.Rooms, nb.Rooms) {
		t.Error("Room order should not depend on source order")
	}
	if !reflect.DeepEqual(na.Scenarios, nb.Scenarios) {
		t.Error("Scenario order should not depend on source order")
	}
}

func TestNormalize_NameTieBrokenByID(t *testing.T) {
	s := Snapshot{
		Rooms: []Room{
			{ID: "r9", Name: "Office"},
			{ID: "r1", Name: "Office"},
		},
	}

	out := Normalize(s)
	if out.Rooms[0].ID != "r1" || out.Rooms[1].ID != "r9" {
		t.Errorf("Equal names should tie-break by id, got %s, %s", out.Rooms[0].ID, out.Rooms[1].ID)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := snapshotFixture()
	first := in.Devices[0].ID

	Normalize(in)

	if in.Devices[0].ID != first {
		t.Error("Normalize must not reorder the input snapshot")
	}
}
