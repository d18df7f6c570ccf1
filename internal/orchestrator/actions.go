package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/ledger"
	"github.com/onegamerstory/homepanel/internal/snapshot"
)

// ToggleDevice flips a device's on_off state: optimistic merge first, then
// the cloud call, then a silent refresh regardless of the outcome. The
// refresh, not a local revert, reconciles failures.
func (o *Orchestrator) ToggleDevice(ctx context.Context, deviceID string) error {
	return o.toggleDevice(ctx, deviceID, nil)
}

// ToggleDeviceWithState flips a device using the sender's last-seen state.
// When present it wins over the snapshot, so a surface holding a stale copy
// still toggles the direction the user saw.
func (o *Orchestrator) ToggleDeviceWithState(ctx context.Context, deviceID string, currentIfKnown *bool) error {
	return o.toggleDevice(ctx, deviceID, currentIfKnown)
}

func (o *Orchestrator) toggleDevice(ctx context.Context, deviceID string, currentIfKnown *bool) error {
	o.mu.Lock()
	client := o.client
	epoch := o.epoch
	if client == nil || o.snap == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}

	device := o.snap.FindDevice(deviceID)
	if device == nil {
		o.mu.Unlock()
		log.Warn().Str("device", deviceID).Msg("Toggle requested for unknown device")
		return nil
	}

	current := snapshot.IsDeviceOn(device)
	if currentIfKnown != nil {
		current = *currentIfKnown
	}
	target := !current

	merged := snapshot.ApplyOptimisticToggle(*o.snap, deviceID, target)
	o.snap = &merged
	if o.state == StateReady {
		o.state = StateMutating
	}
	o.mu.Unlock()

	o.emitViewUpdate()
	o.emitTrayUpdate()

	actions := []iot.CapabilityAction{{Type: iot.CapabilityOnOff, Instance: "on", Value: target}}
	err := client.SetCapabilityState(ctx, deviceID, actions, false)
	o.settleMutation(epoch, err, actionRecord{
		kind:   "toggle_device",
		target: deviceID,
		detail: map[string]any{"value": target},
	})
	return err
}

// ToggleGroup flips a group's on_off state. Groups have no per-device
// optimistic merge; the follow-up refresh brings in the aggregate result.
func (o *Orchestrator) ToggleGroup(ctx context.Context, groupID string) error {
	o.mu.Lock()
	client := o.client
	epoch := o.epoch
	if client == nil || o.snap == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}

	group := o.snap.FindGroup(groupID)
	if group == nil {
		o.mu.Unlock()
		log.Warn().Str("group", groupID).Msg("Toggle requested for unknown group")
		return nil
	}

	target := !groupIsOn(group)
	if o.state == StateReady {
		o.state = StateMutating
	}
	o.mu.Unlock()

	actions := []iot.CapabilityAction{{Type: iot.CapabilityOnOff, Instance: "on", Value: target}}
	err := client.SetCapabilityState(ctx, groupID, actions, false)
	o.settleMutation(epoch, err, actionRecord{
		kind:   "toggle_group",
		target: groupID,
		detail: map[string]any{"value": target},
	})
	return err
}

// SetDeviceCapabilities sends arbitrary capability changes to one device.
// turnOnFirst prepends an on_off action so range and color changes reach
// devices that ignore them while off.
func (o *Orchestrator) SetDeviceCapabilities(ctx context.Context, deviceID string, actions []iot.CapabilityAction, turnOnFirst bool) error {
	o.mu.Lock()
	client := o.client
	epoch := o.epoch
	if client == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	if o.state == StateReady {
		o.state = StateMutating
	}
	o.mu.Unlock()

	err := client.SetCapabilityState(ctx, deviceID, actions, turnOnFirst)
	o.settleMutation(epoch, err, actionRecord{
		kind:   "set_capabilities",
		target: deviceID,
		detail: map[string]any{"actions": len(actions)},
	})
	return err
}

// ExecuteScenario runs a scenario. Success is surfaced and followed by a
// refresh; failure is surfaced without one, since nothing changed upstream.
func (o *Orchestrator) ExecuteScenario(ctx context.Context, scenarioID string) error {
	o.mu.Lock()
	client := o.client
	epoch := o.epoch
	if client == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	name := scenarioID
	if o.snap != nil {
		if sc := o.snap.FindScenario(scenarioID); sc != nil {
			name = sc.Name
		}
	}
	if o.state == StateReady {
		o.state = StateMutating
	}
	o.mu.Unlock()

	err := client.ExecuteScenario(ctx, scenarioID)

	o.mu.Lock()
	if o.epoch == epoch && o.state == StateMutating {
		o.state = StateReady
	}
	o.mu.Unlock()

	record := actionRecord{kind: "execute_scenario", target: scenarioID}
	if err != nil {
		if iot.IsAuthError(err) {
			o.failAuth(epoch, "Session expired. Enter your token again.")
			return err
		}
		o.recordAction(ledger.EventActionFailed, record, err)
		o.notify(NotifyError, fmt.Sprintf("Failed to run scenario %q.", name))
		return err
	}

	o.recordAction(ledger.EventActionCompleted, record, nil)
	o.notify(NotifySuccess, fmt.Sprintf("Scenario %q started.", name))
	o.refreshAsync()
	return nil
}

// ToggleFavoriteDevice flips the favorite flag of a device and refreshes
// the tray surface.
func (o *Orchestrator) ToggleFavoriteDevice(id string) (bool, error) {
	state, err := o.favorites.ToggleDevice(id)
	if err != nil {
		return false, err
	}
	o.emitViewUpdate()
	o.emitTrayUpdate()
	return state, nil
}

// ToggleFavoriteScenario flips the favorite flag of a scenario and
// refreshes the tray surface.
func (o *Orchestrator) ToggleFavoriteScenario(id string) (bool, error) {
	state, err := o.favorites.ToggleScenario(id)
	if err != nil {
		return false, err
	}
	o.emitViewUpdate()
	o.emitTrayUpdate()
	return state, nil
}

type actionRecord struct {
	kind   string
	target string
	detail map[string]any
}

// settleMutation finishes a device/group mutation: state back to ready,
// outcome recorded, errors surfaced, then a silent refresh regardless of
// success so the authoritative state wins.
func (o *Orchestrator) settleMutation(epoch uint64, err error, record actionRecord) {
	o.mu.Lock()
	if o.epoch == epoch && o.state == StateMutating {
		o.state = StateReady
	}
	o.mu.Unlock()

	if err != nil {
		if iot.IsAuthError(err) {
			o.failAuth(epoch, "Session expired. Enter your token again.")
			return
		}
		o.recordAction(ledger.EventActionFailed, record, err)
		o.notify(NotifyError, "Action failed. Device state will re-sync.")
	} else {
		o.recordAction(ledger.EventActionCompleted, record, nil)
	}

	o.refreshAsync()
}

func (o *Orchestrator) recordAction(eventType ledger.EventType, record actionRecord, actionErr error) {
	payload := map[string]any{"target": record.target}
	for k, v := range record.detail {
		payload[k] = v
	}
	if actionErr != nil {
		payload["error"] = actionErr.Error()
	}
	if err := o.ledger.Append(eventType, "", record.kind, payload); err != nil {
		log.Warn().Err(err).Str("kind", record.kind).Msg("Failed to record action")
	}
}

// refreshAsync runs a silent refresh on the app context: the caller's
// context is typically a request context that dies as soon as the response
// is written.
func (o *Orchestrator) refreshAsync() {
	ctx := o.baseCtx()
	go func() {
		if err := o.refresh(ctx, false); err != nil {
			log.Debug().Err(err).Msg("Post-action refresh failed")
		}
	}()
}

func groupIsOn(g *snapshot.Group) bool {
	for i := range g.Capabilities {
		c := &g.Capabilities[i]
		if c.Type != snapshot.CapOnOff || c.State == nil {
			continue
		}
		on, ok := c.State.Value.(bool)
		return ok && on
	}
	return false
}
