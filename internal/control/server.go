// Package control is the local HTTP surface: the desktop UI (or anything
// else on localhost) drives the orchestrator through it and pulls the
// view-model from it.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/command"
	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/orchestrator"
	"github.com/onegamerstory/homepanel/internal/storage"
)

// Server is the local control HTTP server.
type Server struct {
	addr       string
	orch       *orchestrator.Orchestrator
	invoker    *command.Invoker
	prefs      *storage.Prefs
	httpServer *http.Server
}

// NewServer creates a new control server.
func NewServer(host string, port int, orch *orchestrator.Orchestrator, invoker *command.Invoker, prefs *storage.Prefs) *Server {
	return &Server{
		addr:    fmt.Sprintf("%s:%d", host, port),
		orch:    orch,
		invoker: invoker,
		prefs:   prefs,
	}
}

// Run starts the control server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting control server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Control server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/view", s.handleView)
	mux.HandleFunc("POST /v1/session", s.handleLogin)
	mux.HandleFunc("DELETE /v1/session", s.handleLogout)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("POST /v1/devices/{id}/toggle", s.handleToggleDevice)
	mux.HandleFunc("POST /v1/devices/{id}/capabilities", s.handleSetCapabilities)
	mux.HandleFunc("POST /v1/groups/{id}/toggle", s.handleToggleGroup)
	mux.HandleFunc("POST /v1/scenarios/{id}/execute", s.handleExecuteScenario)
	mux.HandleFunc("POST /v1/household/next", s.handleNextHousehold)
	mux.HandleFunc("POST /v1/favorites/{kind}/{id}/toggle", s.handleToggleFavorite)
	mux.HandleFunc("GET /v1/prefs/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /v1/prefs/theme", s.handleSetTheme)
	mux.HandleFunc("PUT /v1/prefs/rooms/{household}/{room}/collapsed", s.handleSetRoomCollapsed)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"state":  s.orch.State(),
	})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.CurrentView())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := s.orch.Login(r.Context(), body.Token); err != nil {
		if iot.IsAuthError(err) {
			writeError(w, http.StatusUnauthorized, "authorization rejected")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.orch.CurrentView())
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.orch.Logout()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.invokeCommand(w, r, command.CmdRefresh, nil)
}

func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	s.invokeCommand(w, r, command.CmdToggleDevice, map[string]any{"id": r.PathValue("id")})
}

func (s *Server) handleToggleGroup(w http.ResponseWriter, r *http.Request) {
	s.invokeCommand(w, r, command.CmdToggleGroup, map[string]any{"id": r.PathValue("id")})
}

func (s *Server) handleExecuteScenario(w http.ResponseWriter, r *http.Request) {
	s.invokeCommand(w, r, command.CmdExecuteScenario, map[string]any{"id": r.PathValue("id")})
}

func (s *Server) handleSetCapabilities(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Actions     []iot.CapabilityAction `json:"actions"`
		TurnOnFirst bool                   `json:"turn_on_first"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "actions are required")
		return
	}

	args := map[string]any{
		"id":            r.PathValue("id"),
		"actions":       body.Actions,
		"turn_on_first": body.TurnOnFirst,
	}
	s.invokeCommand(w, r, command.CmdSetCapabilities, args)
}

func (s *Server) handleNextHousehold(w http.ResponseWriter, r *http.Request) {
	s.invokeCommand(w, r, command.CmdNextHousehold, nil)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var name string
	switch r.PathValue("kind") {
	case "devices":
		name = command.CmdToggleFavoriteDevice
	case "scenarios":
		name = command.CmdToggleFavoriteScenario
	default:
		writeError(w, http.StatusNotFound, "unknown favorite kind")
		return
	}
	s.invokeCommand(w, r, name, map[string]any{"id": r.PathValue("id")})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"theme": s.prefs.Theme()})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.prefs.SetTheme(body.Theme); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSetRoomCollapsed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Collapsed bool `json:"collapsed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.prefs.SetRoomCollapsed(r.PathValue("household"), r.PathValue("room"), body.Collapsed); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// invokeCommand runs a registry command and maps its error to a status
// code. Mutations respond with the refreshed view-model so the UI can
// render the optimistic state immediately.
func (s *Server) invokeCommand(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	err := s.invoker.Invoke(r.Context(), name, args, "", "control")
	if err != nil {
		switch {
		case iot.IsAuthError(err):
			writeError(w, http.StatusUnauthorized, "session expired")
		case err == orchestrator.ErrNotAuthenticated:
			writeError(w, http.StatusUnauthorized, "not authenticated")
		case iot.IsNetworkError(err):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s.orch.CurrentView())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
