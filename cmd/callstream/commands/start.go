package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/internal/telemetry"
	"github.com/voxhall/callstream/pkg/api"
	"github.com/voxhall/callstream/pkg/archive"
	"github.com/voxhall/callstream/pkg/config"
	"github.com/voxhall/callstream/pkg/hub"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/orchestrator"
	"github.com/voxhall/callstream/pkg/store"
	"github.com/voxhall/callstream/pkg/transcriber"

	// Import prometheus metrics to register init() functions
	_ "github.com/voxhall/callstream/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CallStream server",
	Long: `Start the CallStream server.

Without flags the server detaches and runs as a background daemon. Use
--foreground when debugging or when a process supervisor manages the
lifecycle.

Configuration comes from --config, or from the default location at
$XDG_CONFIG_HOME/callstream/config.yaml, with CALLSTREAM_* environment
variables overriding individual keys.

Examples:
  callstream start
  callstream start --foreground
  callstream start --config /etc/callstream/config.yaml
  CALLSTREAM_LOGGING_LEVEL=DEBUG callstream start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/callstream/callstream.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/callstream/callstream.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopObservability, err := setupObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopObservability()

	fmt.Println("CallStream - Call ingestion and AI processing service")
	logger.Info("Configuration loaded",
		"source", configSource(),
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format)

	// Metrics registry must exist before any component records a sample.
	var callMetrics metrics.CallMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		callMetrics = metrics.NewCallMetrics()
		logger.Info("Metrics enabled", "endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.Server.Port))
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Call store owns the database and runs migrations on startup.
	callStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize call store: %w", err)
	}
	defer func() { _ = callStore.Close() }()
	callStore.SetMetrics(callMetrics)
	logger.Info("Call store initialized", slog.String(logger.KeyDatabase, string(cfg.Database.Type)))

	// Dashboard hub fans call state changes out to WebSocket peers.
	dashboardHub := hub.New()
	dashboardHub.SetMetrics(callMetrics)

	// AI transcription adapter and the retry orchestrator around it.
	adapter := transcriber.NewMock(cfg.AI.TranscriberConfig())
	orch := orchestrator.New(callStore, adapter, dashboardHub, callMetrics, cfg.AI.OrchestratorConfig())
	logger.Info("Orchestrator configured", logger.MaxRetries(cfg.AI.MaxRetries))

	// Archive sweeper (if enabled), with optional S3 export.
	var sweeper *archive.Sweeper
	if cfg.Archive.Enabled {
		var exporter archive.CallExporter
		if cfg.Archive.S3.Configured() {
			s3Exporter, err := archive.NewExporter(ctx, cfg.Archive.S3)
			if err != nil {
				return fmt.Errorf("failed to initialize archive exporter: %w", err)
			}
			exporter = s3Exporter
			logger.Info("Archive export enabled", slog.String(logger.KeyBucket, cfg.Archive.S3.Bucket))
		}
		sweeper = archive.NewSweeper(callStore, dashboardHub, exporter, cfg.Archive)
		sweeper.Start(ctx)
	} else {
		logger.Info("Archive sweeper disabled")
	}

	apiServer := api.NewServer(cfg.Server, api.Dependencies{
		Store:     callStore,
		Processor: orch,
		Hub:       dashboardHub,
		Metrics:   callMetrics,
		Version:   buildVersion,
	})
	logger.Info("API server configured", "port", apiServer.Port())

	if pidFile != "" {
		if err := writePID(pidFile); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Run until a signal arrives or the server fails on its own.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start(ctx)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case sig := <-sigs:
		logger.Info("Shutdown signal received", slog.String(logger.KeySignal, sig.String()))
		cancel()
		runErr = <-serverErr
	case runErr = <-serverErr:
		cancel()
	}

	drainErr := stopProcessing(cfg, orch, sweeper)
	switch {
	case runErr != nil:
		logger.Error("Server exited with error", "error", runErr)
		return runErr
	case drainErr != nil:
		return drainErr
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// setupObservability starts tracing and profiling per config and returns a
// combined shutdown function.
func setupObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	stopTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "callstream",
		ServiceVersion: buildVersion,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "callstream",
		ServiceVersion: buildVersion,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = stopTracing(ctx)
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Tracing enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Tracing disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	return func() {
		if err := stopProfiling(); err != nil {
			logger.Error("Profiling shutdown error", "error", err)
		}
		if err := stopTracing(ctx); err != nil {
			logger.Error("Telemetry shutdown error", "error", err)
		}
	}, nil
}

// stopProcessing drains the orchestrator and the sweeper within the
// configured shutdown timeout. In-flight transcriptions abandoned by the
// deadline stay in PROCESSING_AI; the database remains the source of truth.
func stopProcessing(cfg *config.Config, orch *orchestrator.Orchestrator, sweeper *archive.Sweeper) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Error("Orchestrator shutdown error", "error", err)
		return err
	}
	if sweeper != nil {
		sweeper.Stop(cfg.ShutdownTimeout)
	}
	return nil
}
