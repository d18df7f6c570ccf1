package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/onegamerstory/homepanel/internal/ledger"
)

// Invoker executes commands with ledger-backed deduplication.
type Invoker struct {
	registry *Registry
	ledger   *ledger.Ledger
}

// NewInvoker creates a new command invoker
func NewInvoker(registry *Registry, l *ledger.Ledger) *Invoker {
	return &Invoker{
		registry: registry,
		ledger:   l,
	}
}

// HasCommand checks if a command is registered
func (i *Invoker) HasCommand(name string) bool {
	_, exists := i.registry.Get(name)
	return exists
}

// Invoke executes a command with the given idempotency key.
// - For tray commands: idempotencyKey = the bridge message id
// - For local/programmatic calls: idempotencyKey = "" (no dedupe)
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any, idempotencyKey, source string) error {
	if idempotencyKey != "" && i.ledger.HasCompleted(idempotencyKey) {
		log.Debug().
			Str("command", name).
			Str("idempotency_key", idempotencyKey).
			Msg("Command already completed, skipping")
		return nil
	}

	cmd, exists := i.registry.Get(name)
	if !exists {
		return fmt.Errorf("command %q not found", name)
	}

	logEvent := log.Debug().Str("command", name).Interface("args", args)
	if source != "" {
		logEvent = logEvent.Str("source", source)
	}
	logEvent.Msg("Executing command")

	err := cmd.Execute(ctx, args)

	if err != nil {
		if idempotencyKey != "" {
			i.ledger.Append(ledger.EventActionFailed, idempotencyKey, source, map[string]any{
				"command": name,
				"error":   err.Error(),
			})
		}
		return err
	}

	if idempotencyKey != "" {
		i.ledger.Append(ledger.EventActionCompleted, idempotencyKey, source, map[string]any{
			"command": name,
		})
	}

	return nil
}
