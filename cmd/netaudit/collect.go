package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"netaudit/internal/adapter"
	"netaudit/internal/codec"
	"netaudit/internal/config"
	"netaudit/internal/logging"
	"netaudit/internal/service"
)

// collectRunner replaces the SSH transport when set
var collectRunner adapter.CommandRunner

type collectFlags struct {
	config      string
	inventory   string
	root        string
	concurrency int
	knownHosts  string
	command     string
	logLevel    string
}

func runCollect(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f collectFlags
	fs := flag.NewFlagSet("netaudit collect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "config file")
	fs.StringVar(&f.inventory, "inventory", "", "Ansible YAML inventory of devices")
	fs.StringVar(&f.root, "root", "", "directory the configurations are written to (default: conf_dir)")
	fs.IntVar(&f.concurrency, "concurrency", 0, "maximum parallel SSH sessions")
	fs.StringVar(&f.knownHosts, "known-hosts", "", "known_hosts file used to verify device host keys")
	fs.StringVar(&f.command, "command", "", "command overriding the per-platform default")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, _, err := loadConfig(f.config)
	if err != nil {
		fmt.Fprintf(stderr, "netaudit: %v\n", err)
		return 1
	}
	applyCollectFlags(cfg, fs, &f)
	if cfg.Collect.Inventory == "" {
		fmt.Fprintln(stderr, "netaudit: collect needs an inventory (-inventory or collect.inventory)")
		return 2
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "netaudit: %v\n", err)
		return 1
	}
	defer logger.Sync()

	inv, err := os.Open(cfg.Collect.Inventory)
	if err != nil {
		logger.Error("failed to open inventory", zap.Error(err))
		return 1
	}
	devices, err := codec.NewAnsibleCodec().ParseInventory(inv)
	inv.Close()
	if err != nil {
		logger.Error("failed to parse inventory", zap.Error(err))
		return 1
	}

	bus := service.NewEventBus()
	events := make(chan service.Event, 32)
	bus.Subscribe(events)
	go logEvents(events, logger)

	collector := adapter.NewSSHCollector(adapter.CollectorConfig{
		Root:              cfg.CollectRoot(),
		MaxConcurrent:     cfg.Collect.Concurrency,
		ConnectionTimeout: cfg.Collect.ConnectTimeout.Duration(),
		CommandTimeout:    cfg.Collect.CommandTimeout.Duration(),
		KnownHostsFile:    cfg.Collect.KnownHosts,
		Command:           cfg.Collect.Command,
	}, collectRunner, logger.Named("collect"))
	collector.SetEventPublisher(bus)

	result, err := collector.Collect(ctx, devices)
	if result != nil {
		for _, path := range result.Written {
			fmt.Fprintf(stdout, "collected %s\n", path)
		}
		failed := lo.Keys(result.Failed)
		sort.Strings(failed)
		for _, name := range failed {
			fmt.Fprintf(stdout, "failed %s: %s\n", name, result.Failed[name])
		}
	}
	if err != nil {
		logger.Error("collection incomplete", zap.Error(err))
		return 1
	}
	logger.Info("collection complete", zap.Int("devices", len(devices)), zap.String("root", cfg.CollectRoot()))
	return 0
}

func applyCollectFlags(cfg *config.Config, fs *flag.FlagSet, f *collectFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "inventory":
			cfg.Collect.Inventory = f.inventory
		case "root":
			cfg.Collect.Root = f.root
		case "concurrency":
			cfg.Collect.Concurrency = f.concurrency
		case "known-hosts":
			cfg.Collect.KnownHosts = f.knownHosts
		case "command":
			cfg.Collect.Command = f.command
		case "log-level":
			cfg.Logging.Level = f.logLevel
		}
	})
}
