package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/command"
	"github.com/onegamerstory/homepanel/internal/config"
	"github.com/onegamerstory/homepanel/internal/control"
	"github.com/onegamerstory/homepanel/internal/eventbus"
	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/kv"
	"github.com/onegamerstory/homepanel/internal/ledger"
	"github.com/onegamerstory/homepanel/internal/orchestrator"
	"github.com/onegamerstory/homepanel/internal/storage"
	"github.com/onegamerstory/homepanel/internal/traybridge"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *storage.DB
	KV     *kv.Manager
	Ledger *ledger.Ledger
	Bus    *eventbus.Bus

	// Persisted stores
	Favorites   *storage.Favorites
	Prefs       *storage.Prefs
	Credentials storage.CredentialStore

	// Session core
	Orchestrator *orchestrator.Orchestrator

	// Command system
	Registry *command.Registry
	Invoker  *command.Invoker

	// Surfaces
	Control *control.Server
	Tray    *traybridge.Bridge
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	s.KV = kv.NewManager(database.DB)
	s.Ledger = ledger.New(database.DB)
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	s.Favorites = storage.NewFavorites(s.KV)
	s.Prefs = storage.NewPrefs(s.KV)
	s.Credentials = storage.NewCredentialStore(s.KV)

	factory := func(token string) orchestrator.Client {
		return iot.NewClient(cfg.API.BaseURL, token, cfg.API.Timeout.Duration(), cfg.API.RateLimitRPS)
	}

	s.Orchestrator = orchestrator.New(factory, s.Credentials, s.Favorites, s.Bus, s.Ledger, orchestrator.Options{
		RefreshInterval:    cfg.Refresh.Interval.Duration(),
		Backfill:           cfg.Refresh.Backfill,
		NotifyDismissAfter: cfg.Notifications.DismissAfter.Duration(),
	})

	s.Registry = command.NewRegistry()
	if err := command.RegisterAll(s.Registry, s.Orchestrator); err != nil {
		s.Close()
		return nil, err
	}
	s.Invoker = command.NewInvoker(s.Registry, s.Ledger)

	if cfg.Control.Enabled {
		s.Control = control.NewServer(cfg.Control.Host, cfg.Control.Port, s.Orchestrator, s.Invoker, s.Prefs)
	}

	if cfg.Tray.Enabled() {
		s.Tray = traybridge.New(cfg.Tray.Broker, cfg.Tray.ClientID, cfg.Tray.TopicRoot, s.Invoker, s.Bus)
	}

	return s, nil
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Background maintenance
	s.KV.StartCleanup(ctx, s.cfg.Ledger.CleanupInterval.Duration())
	s.Ledger.StartCleanup(ctx, s.cfg.Ledger.CleanupInterval.Duration(), s.cfg.Ledger.RetentionDays)

	// Tray bridge connects before the orchestrator so the initial snapshot
	// publish reaches the broker
	if s.Tray != nil {
		if err := s.Tray.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("Tray bridge unavailable, continuing without it")
			s.Tray = nil
		}
	}

	// Restore session, if a credential is stored
	if err := s.Orchestrator.Start(ctx); err != nil {
		return err
	}

	if s.Control != nil {
		go func() {
			if err := s.Control.Run(ctx, s.cfg.GetShutdownTimeout()); err != nil {
				onFatalError(err)
			}
		}()
	}

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Tray != nil {
		s.Tray.Disconnect()
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		s.Bus.Close(ctx)
		cancel()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
