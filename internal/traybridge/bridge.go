// Package traybridge mirrors the favorites list to an MQTT topic for the
// system-tray helper process and feeds its menu commands back through the
// command invoker. Optional: a panel with no broker configured runs without
// it.
package traybridge

import (
	"context"
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/command"
	"github.com/onegamerstory/homepanel/internal/eventbus"
)

// Command names accepted on the command topic.
const (
	commandToggleDevice    = "TOGGLE_DEVICE"
	commandExecuteScenario = "EXECUTE_SCENARIO"
)

// trayCommand is the inbound payload from the tray helper. The helper does
// not hold the snapshot, so it may carry the state it last saw; messageId
// deduplicates redeliveries from the broker.
type trayCommand struct {
	MessageID           string `json:"messageId"`
	Command             string `json:"command"`
	TargetID            string `json:"targetId"`
	CurrentStateIfKnown *bool  `json:"currentStateIfKnown,omitempty"`
}

// Bridge connects the event bus to an MQTT broker.
type Bridge struct {
	topicRoot string
	opts      *paho.ClientOptions
	client    paho.Client
	invoker   *command.Invoker
	bus       *eventbus.Bus
}

// New creates a bridge. Connect must be called before it publishes.
func New(brokerURL, clientID, topicRoot string, invoker *command.Invoker, bus *eventbus.Bus) *Bridge {
	opts := paho.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	return &Bridge{
		topicRoot: topicRoot,
		opts:      opts,
		invoker:   invoker,
		bus:       bus,
	}
}

// Connect dials the broker, subscribes to the command topic and starts
// mirroring tray updates from the bus.
func (b *Bridge) Connect(ctx context.Context) error {
	b.client = paho.NewClient(b.opts)
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect error: %w", err)
	}

	commandTopic := fmt.Sprintf("%s/command", b.topicRoot)
	sub := b.client.Subscribe(commandTopic, 1, func(_ paho.Client, msg paho.Message) {
		b.handleCommand(ctx, msg.Payload())
	})
	sub.Wait()
	if err := sub.Error(); err != nil {
		return fmt.Errorf("subscribe error: %w", err)
	}

	b.bus.Subscribe(eventbus.EventTypeTrayUpdate, func(event eventbus.Event) {
		b.publishFavorites(event.Data["items"])
	})

	log.Info().Str("topic_root", b.topicRoot).Msg("Tray bridge connected")
	return nil
}

// Disconnect closes the broker connection.
func (b *Bridge) Disconnect() {
	if b.client == nil {
		return
	}
	b.client.Disconnect(250)
}

// publishFavorites mirrors the flattened favorites list, retained so a
// restarting tray helper gets the last state immediately.
func (b *Bridge) publishFavorites(items any) {
	if b.client == nil || !b.client.IsConnected() {
		return
	}

	payload, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode tray payload")
		return
	}

	topic := fmt.Sprintf("%s/favorites", b.topicRoot)
	token := b.client.Publish(topic, 0, true, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish tray update")
		}
	}()
}

// handleCommand decodes an inbound tray message and runs it through the
// invoker. The messageId becomes the idempotency key, so a QoS 1 redelivery
// does not toggle a device twice.
func (b *Bridge) handleCommand(ctx context.Context, payload []byte) {
	var cmd trayCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Warn().Err(err).Msg("Invalid tray command payload")
		return
	}

	name, args, err := routeCommand(cmd)
	if err != nil {
		log.Warn().Err(err).Str("command", cmd.Command).Msg("Unroutable tray command")
		return
	}

	if err := b.invoker.Invoke(ctx, name, args, cmd.MessageID, "tray"); err != nil {
		log.Warn().Err(err).Str("command", cmd.Command).Msg("Tray command failed")
	}
}

// routeCommand maps a tray wire command onto a registered command name and
// its args.
func routeCommand(cmd trayCommand) (string, map[string]any, error) {
	switch cmd.Command {
	case commandToggleDevice:
		args := map[string]any{"id": cmd.TargetID}
		if cmd.CurrentStateIfKnown != nil {
			args["current_state_if_known"] = *cmd.CurrentStateIfKnown
		}
		return command.CmdToggleDevice, args, nil
	case commandExecuteScenario:
		return command.CmdExecuteScenario, map[string]any{"id": cmd.TargetID}, nil
	default:
		return "", nil, fmt.Errorf("unknown tray command %q", cmd.Command)
	}
}
