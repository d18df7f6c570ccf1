// Package command exposes the orchestrator's operations as named,
// invokable commands with ledger-backed deduplication. The control server
// and the tray bridge both route through it.
package command

import (
	"context"
	"fmt"
	"sync"
)

// Command represents a named, invokable unit of work
type Command interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) error
}

// SimpleCommand is the standard command implementation
type SimpleCommand struct {
	name string
	fn   func(ctx context.Context, args map[string]any) error
}

func (c *SimpleCommand) Name() string { return c.name }

func (c *SimpleCommand) Execute(ctx context.Context, args map[string]any) error {
	return c.fn(ctx, args)
}

// Registry holds all registered commands
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.Name()]; exists {
		return fmt.Errorf("command %q already registered", cmd.Name())
	}

	r.commands[cmd.Name()] = cmd
	return nil
}

// RegisterSimple adds a simple command (convenience method)
func (r *Registry) RegisterSimple(name string, fn func(ctx context.Context, args map[string]any) error) error {
	return r.Register(&SimpleCommand{name: name, fn: fn})
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// Names returns all registered command names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}
