// Package orchestrator owns the session state machine, the canonical
// snapshot and the refresh cycle. All user actions and surface updates go
// through it.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/eventbus"
	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/ledger"
	"github.com/onegamerstory/homepanel/internal/snapshot"
	"github.com/onegamerstory/homepanel/internal/storage"
)

// State is the session lifecycle state.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateAuthenticating State = "authenticating"
	StateReady          State = "ready"
	StateRefreshing     State = "refreshing"
	StateMutating       State = "mutating"
	StateLoggedOut      State = "logged_out"
)

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client is the contract the orchestrator needs from the cloud API client.
type Client interface {
	FetchUserInfo(ctx context.Context) (*iot.UserInfoResponse, error)
	FetchDevice(ctx context.Context, deviceID string) (*iot.Device, error)
	ExecuteScenario(ctx context.Context, scenarioID string) error
	SetCapabilityState(ctx context.Context, targetID string, actions []iot.CapabilityAction, turnOnFirst bool) error
}

// ClientFactory builds a client bound to one credential.
type ClientFactory func(token string) Client

// Options configures the orchestrator.
type Options struct {
	RefreshInterval time.Duration
	Backfill        bool
	// NotifyDismissAfter is reported with every notification so surfaces
	// agree on the auto-dismiss delay.
	NotifyDismissAfter time.Duration
}

// Orchestrator is the stateful core: it holds the snapshot, the active
// household, the favorites and the busy flags, and reconciles optimistic
// and authoritative updates.
//
// All snapshot mutation is whole-value replacement guarded by one mutex.
// The session epoch increments on every login, logout and auth failure;
// a refresh result is only committed when its epoch still matches, so a
// late-arriving response cannot repopulate a cleared session.
type Orchestrator struct {
	factory      ClientFactory
	creds        storage.CredentialStore
	favorites    *storage.Favorites
	bus          *eventbus.Bus
	ledger       *ledger.Ledger
	interval     time.Duration
	backfill     bool
	dismissAfter time.Duration

	appCtx context.Context

	mu              sync.Mutex
	state           State
	client          Client
	snap            *snapshot.Snapshot
	activeHousehold string
	busy            bool
	inFlight        bool
	epoch           uint64
	sessionCancel   context.CancelFunc
}

// New creates an orchestrator. Call Start to restore a persisted session.
func New(factory ClientFactory, creds storage.CredentialStore, favorites *storage.Favorites, bus *eventbus.Bus, l *ledger.Ledger, opts Options) *Orchestrator {
	interval := opts.RefreshInterval
	if interval == 0 {
		interval = 15 * time.Second
	}
	dismissAfter := opts.NotifyDismissAfter
	if dismissAfter == 0 {
		dismissAfter = 5 * time.Second
	}
	return &Orchestrator{
		factory:      factory,
		creds:        creds,
		favorites:    favorites,
		bus:          bus,
		ledger:       l,
		interval:     interval,
		backfill:     opts.Backfill,
		dismissAfter: dismissAfter,
		state:        StateUninitialized,
	}
}

// Start restores the stored credential, if any, and logs in with it.
// Without one the orchestrator waits in the login state.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.appCtx = ctx

	token, err := o.creds.Token()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored credential")
	}
	if token == "" {
		log.Info().Msg("No stored credential, waiting for login")
		return nil
	}

	if err := o.Login(ctx, token); err != nil {
		log.Warn().Err(err).Msg("Stored credential rejected")
	}
	return nil
}

// baseCtx is the context background work hangs off. Falls back to
// context.Background when Start has not run, as in tests.
func (o *Orchestrator) baseCtx() context.Context {
	if o.appCtx != nil {
		return o.appCtx
	}
	return context.Background()
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Login authenticates with the given token, performs the initial load and
// starts the silent refresh timer.
func (o *Orchestrator) Login(ctx context.Context, token string) error {
	o.mu.Lock()
	if o.sessionCancel != nil {
		o.sessionCancel()
		o.sessionCancel = nil
	}
	o.epoch++
	epoch := o.epoch
	o.state = StateAuthenticating
	client := o.factory(token)
	o.client = client
	o.mu.Unlock()
	o.emitViewUpdate()

	raw, err := client.FetchUserInfo(ctx)
	if err != nil {
		if iot.IsAuthError(err) {
			o.failAuth(epoch, "Authorization failed. Check your token.")
		} else {
			o.mu.Lock()
			if o.epoch == epoch {
				o.client = nil
				o.state = StateUninitialized
			}
			o.mu.Unlock()
			o.emitViewUpdate()
		}
		return err
	}

	// Backfill on the initial load too, or the first render misses
	// room-referenced devices until the first silent tick
	if o.backfill {
		if err := o.backfillMissingDevices(ctx, client, raw); err != nil {
			o.failAuth(epoch, "Authorization failed. Check your token.")
			return err
		}
	}

	if err := o.creds.Save(token); err != nil {
		log.Warn().Err(err).Msg("Failed to persist credential")
	}

	next := snapshot.Normalize(snapshot.FromRaw(raw))

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return nil
	}
	o.snap = &next
	o.activeHousehold = revalidateHousehold(next, "")
	o.state = StateReady

	sessionCtx, cancel := context.WithCancel(o.baseCtx())
	o.sessionCancel = cancel
	o.mu.Unlock()

	go o.silentLoop(sessionCtx, epoch)

	o.emitViewUpdate()
	o.emitTrayUpdate()
	log.Info().Int("households", len(next.Households)).Int("devices", len(next.Devices)).Msg("Session established")
	return nil
}

// Logout clears the credential and the snapshot and stops the timer.
func (o *Orchestrator) Logout() {
	o.mu.Lock()
	if o.sessionCancel != nil {
		o.sessionCancel()
		o.sessionCancel = nil
	}
	o.epoch++
	o.client = nil
	o.snap = nil
	o.activeHousehold = ""
	o.state = StateLoggedOut
	o.mu.Unlock()

	if err := o.creds.Delete(); err != nil {
		log.Warn().Err(err).Msg("Failed to delete stored credential")
	}

	o.emitViewUpdate()
	log.Info().Msg("Logged out")
}

// silentLoop runs the recurring silent refresh. Ticks are skipped while a
// refresh is already in flight; the loop dies with the session context.
func (o *Orchestrator) silentLoop(ctx context.Context, epoch uint64) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", o.interval).Msg("Silent refresh timer started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Silent refresh timer stopped")
			return
		case <-ticker.C:
			o.mu.Lock()
			skip := o.epoch != epoch || o.state != StateReady || o.inFlight
			o.mu.Unlock()
			if skip {
				continue
			}
			if err := o.refresh(ctx, false); err != nil {
				log.Debug().Err(err).Msg("Silent refresh failed")
			}
		}
	}
}

// ManualRefresh re-fetches the snapshot and surfaces the outcome. It does
// not depend on or block the silent timer's next tick.
func (o *Orchestrator) ManualRefresh(ctx context.Context) error {
	o.mu.Lock()
	if o.client == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	o.busy = true
	o.mu.Unlock()
	o.emitViewUpdate()

	err := o.refresh(ctx, true)

	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
	o.emitViewUpdate()
	return err
}

// refresh fetches, normalizes and commits a new snapshot. When surface is
// false, errors are logged and state changes recorded in the ledger, never
// shown. Auth failures always end the session, on both the silent and the
// manual path.
func (o *Orchestrator) refresh(ctx context.Context, surface bool) error {
	o.mu.Lock()
	client := o.client
	epoch := o.epoch
	if client == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	o.inFlight = true
	if o.state == StateReady {
		o.state = StateRefreshing
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		if o.epoch == epoch && o.state == StateRefreshing {
			o.state = StateReady
		}
		o.mu.Unlock()
	}()

	raw, err := client.FetchUserInfo(ctx)
	if err != nil {
		if iot.IsAuthError(err) {
			o.failAuth(epoch, "Session expired. Enter your token again.")
			return err
		}
		if surface {
			o.notify(NotifyError, "Failed to refresh data.")
		}
		return err
	}

	if o.backfill {
		if err := o.backfillMissingDevices(ctx, client, raw); err != nil {
			o.failAuth(epoch, "Session expired. Enter your token again.")
			return err
		}
	}

	next := snapshot.Normalize(snapshot.FromRaw(raw))

	o.mu.Lock()
	if o.epoch != epoch {
		// Session ended while the request was in flight
		o.mu.Unlock()
		log.Debug().Msg("Discarding refresh result for ended session")
		return nil
	}
	changed := snapshot.HasDeviceStateChanged(o.snap, next)
	o.snap = &next
	o.activeHousehold = revalidateHousehold(next, o.activeHousehold)
	o.mu.Unlock()

	if changed && !surface {
		log.Debug().Msg("Silent refresh observed device state changes")
		if err := o.ledger.Append(ledger.EventSyncChanged, "", "silent_refresh", nil); err != nil {
			log.Warn().Err(err).Msg("Failed to record sync event")
		}
	}
	if surface {
		o.notify(NotifySuccess, "Data refreshed.")
	}

	o.emitViewUpdate()
	o.emitTrayUpdate()
	return nil
}

// backfillMissingDevices fetches devices that rooms reference but the bulk
// snapshot omits, a known upstream inconsistency. Non-auth failures only
// cost the missing device; a 401/403 is returned so the caller ends the
// session like any other rejected fetch.
func (o *Orchestrator) backfillMissingDevices(ctx context.Context, client Client, raw *iot.UserInfoResponse) error {
	known := make(map[string]bool, len(raw.Devices))
	for _, d := range raw.Devices {
		known[d.ID] = true
	}

	for _, room := range raw.Rooms {
		for _, id := range room.Devices {
			if known[id] {
				continue
			}
			device, err := client.FetchDevice(ctx, id)
			if err != nil {
				if iot.IsAuthError(err) {
					return err
				}
				log.Warn().Err(err).Str("device", id).Msg("Failed to backfill device")
				known[id] = true
				continue
			}
			if device.Room == "" {
				device.Room = room.ID
			}
			raw.Devices = append(raw.Devices, *device)
			known[id] = true
		}
	}
	return nil
}

// failAuth ends the session after a 401/403: credential cleared, snapshot
// dropped, distinct notification. Safe to call from concurrent operations;
// only the first caller for an epoch does the work.
func (o *Orchestrator) failAuth(epoch uint64, message string) {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return
	}
	if o.sessionCancel != nil {
		o.sessionCancel()
		o.sessionCancel = nil
	}
	o.epoch++
	o.client = nil
	o.snap = nil
	o.activeHousehold = ""
	o.state = StateUninitialized
	o.mu.Unlock()

	if err := o.creds.Delete(); err != nil {
		log.Warn().Err(err).Msg("Failed to delete rejected credential")
	}
	if err := o.ledger.Append(ledger.EventAuthExpired, "", "", nil); err != nil {
		log.Warn().Err(err).Msg("Failed to record auth expiry")
	}

	o.notify(NotifyAuth, message)
	o.emitViewUpdate()
	log.Warn().Msg("Session ended: authorization rejected")
}

// revalidateHousehold keeps the active household if it still exists,
// otherwise falls back to the first one.
func revalidateHousehold(s snapshot.Snapshot, active string) string {
	if active != "" {
		for _, h := range s.Households {
			if h.ID == active {
				return active
			}
		}
	}
	if len(s.Households) > 0 {
		return s.Households[0].ID
	}
	return ""
}

// NextHousehold advances the active household round-robin with wrap-around
// and triggers a refresh so the filtered view repopulates immediately.
func (o *Orchestrator) NextHousehold(ctx context.Context) string {
	o.mu.Lock()
	if o.snap == nil || len(o.snap.Households) == 0 {
		o.mu.Unlock()
		return ""
	}
	households := o.snap.Households
	next := households[0].ID
	for i, h := range households {
		if h.ID == o.activeHousehold {
			next = households[(i+1)%len(households)].ID
			break
		}
	}
	o.activeHousehold = next
	o.mu.Unlock()

	o.emitViewUpdate()
	o.refreshAsync()
	return next
}
