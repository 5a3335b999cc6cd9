package adapter

import (
	"context"

	"netaudit/internal/domain"
)

// CommandRunner executes one command on a device and returns its output.
// The SSH implementation dials the device; tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, device domain.InventoryDevice, command string) (string, error)
}

// CommandRunnerFunc adapts a function to CommandRunner
type CommandRunnerFunc func(ctx context.Context, device domain.InventoryDevice, command string) (string, error)

// Run calls f
func (f CommandRunnerFunc) Run(ctx context.Context, device domain.InventoryDevice, command string) (string, error) {
	return f(ctx, device, command)
}

// CollectResult is the outcome of one collection pass
type CollectResult struct {
	// Written lists the config files written, sorted
	Written []string `json:"written"`
	// Failed maps device name to the reason it was skipped
	Failed map[string]string `json:"failed,omitempty"`
}

// EventPublisher allows the collector to publish progress events
type EventPublisher interface {
	PublishCollectEvent(eventType string, payload map[string]any)
}
