package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/onegamerstory/homepanel/internal/command"
	"github.com/onegamerstory/homepanel/internal/eventbus"
	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/kv"
	"github.com/onegamerstory/homepanel/internal/ledger"
	"github.com/onegamerstory/homepanel/internal/orchestrator"
	"github.com/onegamerstory/homepanel/internal/storage"
)

type stubClient struct {
	authFail bool
}

func (s *stubClient) FetchUserInfo(_ context.Context) (*iot.UserInfoResponse, error) {
	if s.authFail {
		return nil, &iot.AuthError{StatusCode: 401}
	}
	return &iot.UserInfoResponse{
		Households: []iot.Household{{ID: "h1", Name: "Home"}},
		Devices: []iot.Device{{
			ID:   "d1",
			Name: "Lamp",
			Type: "devices.types.light",
			Capabilities: []iot.Capability{{
				Type:  iot.CapabilityOnOff,
				State: &iot.CapabilityState{Instance: "on", Value: false},
			}},
		}},
		Scenarios: []iot.Scenario{{ID: "s1", Name: "Evening"}},
	}, nil
}

func (s *stubClient) FetchDevice(_ context.Context, id string) (*iot.Device, error) {
	return nil, &iot.ActionError{TargetID: id, Code: "NOT_FOUND"}
}

func (s *stubClient) ExecuteScenario(_ context.Context, _ string) error { return nil }

func (s *stubClient) SetCapabilityState(_ context.Context, _ string, _ []iot.CapabilityAction, _ bool) error {
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubClient) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	manager := kv.NewManager(db.DB)
	bus := eventbus.New()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bus.Close(ctx)
	})

	stub := &stubClient{}
	l := ledger.New(db.DB)
	orch := orchestrator.New(
		func(_ string) orchestrator.Client { return stub },
		storage.NewCredentialStore(manager),
		storage.NewFavorites(manager),
		bus,
		l,
		orchestrator.Options{RefreshInterval: time.Hour},
	)

	registry := command.NewRegistry()
	if err := command.RegisterAll(registry, orch); err != nil {
		t.Fatalf("Failed to register commands: %v", err)
	}

	s := NewServer("127.0.0.1", 0, orch, command.NewInvoker(registry, l), storage.NewPrefs(manager))
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv, stub
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func login(t *testing.T, base string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, base+"/v1/session", map[string]string{"token": "tok"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login returned %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["state"] != "uninitialized" {
		t.Errorf("Body = %v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv.URL)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/view", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("View returned %d", resp.StatusCode)
	}
	if body["state"] != "ready" {
		t.Errorf("State = %v, want ready", body["state"])
	}
	if body["active_household_id"] != "h1" {
		t.Errorf("Active household = %v", body["active_household_id"])
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/session", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Logout returned %d", resp.StatusCode)
	}
	_, body = doJSON(t, http.MethodGet, srv.URL+"/v1/view", nil)
	if body["state"] != "logged_out" {
		t.Errorf("State after logout = %v", body["state"])
	}
}

func TestLogin_BadToken(t *testing.T) {
	srv, stub := newTestServer(t)
	stub.authFail = true

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/session", map[string]string{"token": "bad"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/session", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestToggleDeviceRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/devices/d1/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	// The response carries the optimistic view-model
	if body["state"] == nil {
		t.Error("Response should be the view-model")
	}
}

func TestToggleDeviceRoute_Unauthenticated(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/devices/d1/toggle", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}

func TestScenarioAndRefreshRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv.URL)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/scenarios/s1/execute", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Execute returned %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/refresh", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Refresh returned %d", resp.StatusCode)
	}
}

func TestFavoritesRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/favorites/devices/d1/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	favs, _ := body["favorite_devices"].([]any)
	if len(favs) != 1 || favs[0] != "d1" {
		t.Errorf("favorite_devices = %v", body["favorite_devices"])
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/favorites/lists/x/toggle", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Unknown kind should 404, got %d", resp.StatusCode)
	}
}

func TestPrefsRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v1/prefs/theme", map[string]string{"theme": "dark"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("SetTheme returned %d", resp.StatusCode)
	}

	_, body := doJSON(t, http.MethodGet, srv.URL+"/v1/prefs/theme", nil)
	if body["theme"] != "dark" {
		t.Errorf("Theme = %v", body["theme"])
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/v1/prefs/rooms/h1/r1/collapsed", map[string]bool{"collapsed": true})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("SetRoomCollapsed returned %d", resp.StatusCode)
	}
}

func TestHouseholdNextRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv.URL)

	// Only one household: switching is a no-op but still succeeds
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/household/next", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	if body["active_household_id"] != "h1" {
		t.Errorf("Active household = %v", body["active_household_id"])
	}
}
