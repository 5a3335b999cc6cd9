package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"netaudit/internal/codec"
	"netaudit/internal/config"
	"netaudit/internal/core/demand"
	"netaudit/internal/core/discovery"
	"netaudit/internal/domain"
	"netaudit/internal/handler"
	"netaudit/internal/loader"
	"netaudit/internal/logging"
	"netaudit/internal/observability"
	"netaudit/internal/repository/sqlite"
	"netaudit/internal/service"
)

const usage = `Usage:
  netaudit [flags]          analyse the device configurations
  netaudit collect [flags]  fetch running configurations over SSH
  netaudit init [flags]     write a default config file

Run "netaudit <command> -h" for flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches to a subcommand and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "collect":
			return runCollect(ctx, args[1:], stdout, stderr)
		case "init":
			return runInit(args[1:], stdout, stderr)
		case "help":
			fmt.Fprint(stdout, usage)
			return 0
		}
	}
	return runAnalyze(ctx, args, stdout, stderr)
}

type analyzeFlags struct {
	config      string
	confDir     string
	records     string
	jsonOut     string
	yamlOut     string
	graphOut    string
	sqliteOut   string
	fromSQLite  string
	metricsFile string
	seed        uint64
	serve       string
	logLevel    string
	quiet       bool
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f analyzeFlags
	fs := flag.NewFlagSet("netaudit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "config file (default: search $NETAUDIT_CONFIG, ./netaudit.yaml, XDG paths)")
	fs.StringVar(&f.confDir, "conf", "", "configuration root with <Device>/config.dump files")
	fs.StringVar(&f.records, "records", "", "YAML records file used instead of -conf")
	fs.StringVar(&f.jsonOut, "json", "", "write the summary as JSON to this path")
	fs.StringVar(&f.yamlOut, "yaml", "", "write the summary as YAML to this path")
	fs.StringVar(&f.graphOut, "graph", "", "write the vis-network graph JSON to this path")
	fs.StringVar(&f.sqliteOut, "sqlite", "", "write the summary snapshot to this SQLite database")
	fs.StringVar(&f.fromSQLite, "from-sqlite", "", "reopen the snapshot stored in this SQLite database instead of analysing configs")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	fs.Uint64Var(&f.seed, "seed", 0, "seed for the demand simulation (default: random)")
	fs.StringVar(&f.serve, "serve", "", "serve the result over HTTP on this address until interrupted")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.quiet, "q", false, "do not print the console report")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, cfgPath, err := loadConfig(f.config)
	if err != nil {
		fmt.Fprintf(stderr, "netaudit: %v\n", err)
		return 1
	}
	applyAnalyzeFlags(cfg, fs, &f)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "netaudit: %v\n", err)
		return 1
	}
	defer logger.Sync()
	if cfgPath != "" {
		logger.Debug("config loaded", zap.String("path", cfgPath))
	}

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewCollector(registry)
	if err != nil {
		logger.Error("failed to register metrics", zap.Error(err))
		return 1
	}

	var (
		summary  *domain.Summary
		provider handler.SummaryProvider
	)
	if f.fromSQLite != "" {
		snap, err := openSnapshot(ctx, f.fromSQLite, logger)
		if err != nil {
			logger.Error("failed to open snapshot", zap.String("path", f.fromSQLite), zap.Error(err))
			return 1
		}
		summary, _ = snap.Latest()
		metrics.ObserveSummary(summary)
		provider = snap
	} else {
		records, err := loadRecords(cfg, logger)
		if err != nil {
			logger.Error("failed to load records", zap.Error(err))
			return 1
		}

		bus := service.NewEventBus()
		events := make(chan service.Event, 32)
		bus.Subscribe(events)
		go logEvents(events, logger)

		svc := service.NewAnalysisService(service.Options{
			Demand: demand.Config{
				Trials:      cfg.Demand.Trials,
				DemandsKbps: cfg.Demand.DemandsKbps,
			},
			Discovery: discovery.Config{TimeUnit: cfg.Discovery.TimeUnit.Duration()},
			Seed:      cfg.Demand.Seed,
		}, bus, metrics, logger)

		summary, err = svc.Run(ctx, records)
		if err != nil {
			logger.Error("analysis failed", zap.Error(err))
			return 1
		}
		provider = svc
	}

	if err := export(ctx, cfg, summary, metrics, stdout, logger); err != nil {
		logger.Error("export failed", zap.Error(err))
		return 1
	}

	if f.serve != "" {
		if err := serve(ctx, cfg.Serve, provider, metrics, logger); err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	}
	return 0
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// applyAnalyzeFlags overrides file settings with the flags given explicitly
func applyAnalyzeFlags(cfg *config.Config, fs *flag.FlagSet, f *analyzeFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "conf":
			cfg.ConfDir = f.confDir
			cfg.RecordsFile = ""
		case "records":
			cfg.RecordsFile = f.records
		case "json":
			cfg.Output.JSON = f.jsonOut
		case "yaml":
			cfg.Output.YAML = f.yamlOut
		case "graph":
			cfg.Output.Graph = f.graphOut
		case "sqlite":
			cfg.Output.SQLite = f.sqliteOut
		case "metrics-file":
			cfg.Metrics.Textfile = f.metricsFile
		case "seed":
			seed := f.seed
			cfg.Demand.Seed = &seed
		case "serve":
			cfg.Serve.Addr = f.serve
		case "log-level":
			cfg.Logging.Level = f.logLevel
		case "q":
			cfg.Output.Quiet = f.quiet
		}
	})
}

func loadRecords(cfg *config.Config, logger *zap.Logger) (map[string]domain.ConfigRecord, error) {
	if cfg.RecordsFile != "" {
		return loader.LoadRecordsYAML(cfg.RecordsFile)
	}
	return loader.New(logger).LoadDir(cfg.ConfDir)
}

// openSnapshot reads the stored run of an existing database. A missing file
// is an error rather than a new empty database.
func openSnapshot(ctx context.Context, path string, logger *zap.Logger) (*service.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewError(domain.KindConfigRoot, "snapshot", err)
	}
	repo, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return service.LoadSnapshot(ctx, repo, logger)
}

func logEvents(events <-chan service.Event, logger *zap.Logger) {
	for ev := range events {
		logger.Debug("event", zap.String("type", string(ev.Type)), zap.String("run_id", ev.RunID), zap.Any("payload", ev.Payload))
	}
}

// export writes every configured output of a finished run
func export(ctx context.Context, cfg *config.Config, summary *domain.Summary, metrics *observability.Collector, stdout io.Writer, logger *zap.Logger) error {
	if !cfg.Output.Quiet {
		if err := codec.NewTextCodec().Export(summary, stdout); err != nil {
			return err
		}
	}

	files := []struct {
		path  string
		write func(io.Writer) error
	}{
		{cfg.Output.JSON, func(w io.Writer) error { return codec.NewJSONCodec().Export(summary, w) }},
		{cfg.Output.YAML, func(w io.Writer) error { return codec.NewYAMLCodec().Export(summary, w) }},
		{cfg.Output.Graph, func(w io.Writer) error {
			return codec.NewJSONCodec().ExportGraph(domain.DeriveGraph(summary.Topology()), w)
		}},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if err := writeFile(f.path, f.write); err != nil {
			return err
		}
		logger.Info("wrote output", zap.String("path", f.path))
	}

	if cfg.Output.SQLite != "" {
		if err := ensureDir(cfg.Output.SQLite); err != nil {
			return err
		}
		repo, err := sqlite.New(cfg.Output.SQLite)
		if err != nil {
			return domain.NewError(domain.KindExport, "sqlite", err)
		}
		defer repo.Close()
		if err := repo.SaveSummary(ctx, summary); err != nil {
			return err
		}
		logger.Info("wrote snapshot", zap.String("path", cfg.Output.SQLite))
	}

	if cfg.Metrics.Textfile != "" {
		if err := ensureDir(cfg.Metrics.Textfile); err != nil {
			return err
		}
		if err := metrics.WriteToTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
		logger.Info("wrote metrics", zap.String("path", cfg.Metrics.Textfile))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return domain.NewError(domain.KindExport, "create", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return domain.NewError(domain.KindExport, "close", err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.NewError(domain.KindExport, "mkdir", err)
	}
	return nil
}

// serve exposes the finished run until ctx is cancelled
func serve(ctx context.Context, cfg config.ServeConfig, provider handler.SummaryProvider, metrics *observability.Collector, logger *zap.Logger) error {
	router := handler.NewRouter(
		handler.NewSummaryHandler(provider, logger),
		metrics.Handler(),
		metrics,
		logger.Named("http"),
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
