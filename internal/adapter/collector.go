package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netaudit/internal/domain"
	"netaudit/internal/loader"
)

// CollectorConfig holds configuration for the SSH collector
type CollectorConfig struct {
	// Root is the configuration directory written to
	Root string
	// MaxConcurrent limits parallel SSH sessions
	MaxConcurrent int
	// ConnectionTimeout bounds each SSH dial and handshake
	ConnectionTimeout time.Duration
	// CommandTimeout bounds each command execution
	CommandTimeout time.Duration
	// KnownHostsFile enables host key checking when set
	KnownHostsFile string
	// Command overrides the per-platform dump command
	Command string
}

// DefaultCollectorConfig returns sensible defaults
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Root:              "Conf",
		MaxConcurrent:     5,
		ConnectionTimeout: 10 * time.Second,
		CommandTimeout:    30 * time.Second,
	}
}

// SSHCollector gathers running configurations from inventory devices
type SSHCollector struct {
	config    CollectorConfig
	runner    CommandRunner
	publisher EventPublisher
	logger    *zap.Logger
}

// NewSSHCollector creates a collector. A nil runner selects SSH.
func NewSSHCollector(config CollectorConfig, runner CommandRunner, logger *zap.Logger) *SSHCollector {
	defaults := DefaultCollectorConfig()
	if config.Root == "" {
		config.Root = defaults.Root
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = defaults.ConnectionTimeout
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if runner == nil {
		runner = NewSSHRunner(config.ConnectionTimeout, config.CommandTimeout, config.KnownHostsFile)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SSHCollector{
		config: config,
		runner: runner,
		logger: logger.Named("collector"),
	}
}

// SetEventPublisher sets the event publisher for progress updates
func (c *SSHCollector) SetEventPublisher(pub EventPublisher) {
	c.publisher = pub
}

// Name returns the collector identifier
func (c *SSHCollector) Name() string {
	return "sshcollect"
}

// Collect fetches every device's configuration and writes it under the
// configured root. Device failures are listed in the result and reported
// together as one Collect error; successfully written files are kept.
func (c *SSHCollector) Collect(ctx context.Context, devices []domain.InventoryDevice) (*CollectResult, error) {
	if err := os.MkdirAll(c.config.Root, 0o755); err != nil {
		return nil, domain.NewError(domain.KindCollect, "Collect", fmt.Errorf("create root: %w", err))
	}

	var (
		mu     sync.Mutex
		result = &CollectResult{Written: []string{}, Failed: map[string]string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrent)

	for _, device := range devices {
		g.Go(func() error {
			path, err := c.collectOne(gctx, device)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("collection failed", zap.String("device", device.Name), zap.Error(err))
				result.Failed[device.Name] = err.Error()
				c.publish("collect_failed", map[string]any{"device": device.Name, "error": err.Error()})
				return nil
			}
			c.logger.Info("configuration collected", zap.String("device", device.Name), zap.String("path", path))
			result.Written = append(result.Written, path)
			c.publish("collect_progress", map[string]any{"device": device.Name, "path": path})
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Written)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		return result, domain.NewError(domain.KindCollect, "Collect",
			fmt.Errorf("%d of %d devices failed: %s", len(names), len(devices), strings.Join(names, ", ")))
	}
	return result, nil
}

// collectOne runs the dump command on one device and writes the output
func (c *SSHCollector) collectOne(ctx context.Context, device domain.InventoryDevice) (string, error) {
	if device.Name == "" || filepath.Base(device.Name) != device.Name || device.Name == "." || device.Name == ".." {
		return "", fmt.Errorf("invalid device name %q", device.Name)
	}
	if device.Address == "" {
		return "", errors.New("no address")
	}

	command := c.config.Command
	if command == "" {
		command = commandFor(device.Platform)
	}

	c.logger.Debug("running command",
		zap.String("device", device.Name),
		zap.String("address", device.Address),
		zap.String("command", command))

	output, err := c.runner.Run(ctx, device, command)
	if err != nil {
		return "", err
	}
	config := cleanOutput(output)
	if config == "" {
		return "", errors.New("empty configuration output")
	}

	dir := filepath.Join(c.config.Root, device.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create device dir: %w", err)
	}
	path := filepath.Join(dir, loader.ConfigFileName)
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

func (c *SSHCollector) publish(eventType string, payload map[string]any) {
	if c.publisher != nil {
		c.publisher.PublishCollectEvent(eventType, payload)
	}
}
