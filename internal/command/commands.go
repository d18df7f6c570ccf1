package command

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/onegamerstory/homepanel/internal/iot"
	"github.com/onegamerstory/homepanel/internal/orchestrator"
)

// Built-in command names.
const (
	CmdToggleDevice           = "toggle_device"
	CmdToggleGroup            = "toggle_group"
	CmdExecuteScenario        = "execute_scenario"
	CmdSetCapabilities        = "set_capabilities"
	CmdRefresh                = "refresh"
	CmdNextHousehold          = "next_household"
	CmdToggleFavoriteDevice   = "toggle_favorite_device"
	CmdToggleFavoriteScenario = "toggle_favorite_scenario"
)

type targetArgs struct {
	ID string `mapstructure:"id"`
}

type toggleDeviceArgs struct {
	ID string `mapstructure:"id"`
	// Last state the sender saw; wins over the snapshot when present so a
	// stale surface toggles the direction the user saw.
	CurrentStateIfKnown *bool `mapstructure:"current_state_if_known"`
}

type capabilityArgs struct {
	ID          string                 `mapstructure:"id"`
	Actions     []iot.CapabilityAction `mapstructure:"actions"`
	TurnOnFirst bool                   `mapstructure:"turn_on_first"`
}

// RegisterAll wires the orchestrator's operations into the registry.
func RegisterAll(r *Registry, o *orchestrator.Orchestrator) error {
	register := []struct {
		name string
		fn   func(ctx context.Context, args map[string]any) error
	}{
		{CmdToggleDevice, func(ctx context.Context, args map[string]any) error {
			var decoded toggleDeviceArgs
			if err := mapstructure.WeakDecode(args, &decoded); err != nil {
				return fmt.Errorf("invalid command args: %w", err)
			}
			if decoded.ID == "" {
				return fmt.Errorf("command requires an id")
			}
			return o.ToggleDeviceWithState(ctx, decoded.ID, decoded.CurrentStateIfKnown)
		}},
		{CmdToggleGroup, func(ctx context.Context, args map[string]any) error {
			target, err := decodeTarget(args)
			if err != nil {
				return err
			}
			return o.ToggleGroup(ctx, target.ID)
		}},
		{CmdExecuteScenario, func(ctx context.Context, args map[string]any) error {
			target, err := decodeTarget(args)
			if err != nil {
				return err
			}
			return o.ExecuteScenario(ctx, target.ID)
		}},
		{CmdSetCapabilities, func(ctx context.Context, args map[string]any) error {
			var decoded capabilityArgs
			if err := mapstructure.WeakDecode(args, &decoded); err != nil {
				return fmt.Errorf("invalid set_capabilities args: %w", err)
			}
			if decoded.ID == "" {
				return fmt.Errorf("set_capabilities requires an id")
			}
			return o.SetDeviceCapabilities(ctx, decoded.ID, decoded.Actions, decoded.TurnOnFirst)
		}},
		{CmdRefresh, func(ctx context.Context, _ map[string]any) error {
			return o.ManualRefresh(ctx)
		}},
		{CmdNextHousehold, func(ctx context.Context, _ map[string]any) error {
			o.NextHousehold(ctx)
			return nil
		}},
		{CmdToggleFavoriteDevice, func(_ context.Context, args map[string]any) error {
			target, err := decodeTarget(args)
			if err != nil {
				return err
			}
			_, err = o.ToggleFavoriteDevice(target.ID)
			return err
		}},
		{CmdToggleFavoriteScenario, func(_ context.Context, args map[string]any) error {
			target, err := decodeTarget(args)
			if err != nil {
				return err
			}
			_, err = o.ToggleFavoriteScenario(target.ID)
			return err
		}},
	}

	for _, c := range register {
		if err := r.RegisterSimple(c.name, c.fn); err != nil {
			return err
		}
	}
	return nil
}

func decodeTarget(args map[string]any) (targetArgs, error) {
	var target targetArgs
	if err := mapstructure.WeakDecode(args, &target); err != nil {
		return target, fmt.Errorf("invalid command args: %w", err)
	}
	if target.ID == "" {
		return target, fmt.Errorf("command requires an id")
	}
	return target, nil
}
