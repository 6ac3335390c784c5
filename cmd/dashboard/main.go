// Package main is the entry point for the Vitalis dashboard.
// It loads configuration, wires the sensor sources into a sampler, and serves
// the dashboard over HTTP, optionally alongside a terminal view. It runs as
// either a Windows service or a standalone foreground process.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/vitalis/dashboard/internal/autostart"
	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
	"github.com/Guliveer/vitalis/dashboard/internal/collector"
	"github.com/Guliveer/vitalis/dashboard/internal/config"
	"github.com/Guliveer/vitalis/dashboard/internal/platform"
	"github.com/Guliveer/vitalis/dashboard/internal/sampler"
	"github.com/Guliveer/vitalis/dashboard/internal/scheduler"
	"github.com/Guliveer/vitalis/dashboard/internal/server"
	"github.com/Guliveer/vitalis/dashboard/internal/service"
	"github.com/Guliveer/vitalis/dashboard/internal/tui"
)

// watchInterval is the terminal refresh period when streaming is disabled.
const watchInterval = 2 * time.Second

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: auto-discover)")
	listen      = flag.String("listen", "", "Listen address, e.g. 127.0.0.1:5000")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	watch       = flag.Bool("watch", false, "Show a live terminal view alongside the HTTP server")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this path and exit")
	install     = flag.String("install", "", "Register the dashboard to start automatically (\"system\" or \"user\") and exit")
	uninstall   = flag.String("uninstall", "", "Remove the autostart registration (\"system\" or \"user\") and exit")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("vitalis-dashboard %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := config.WriteConfig(cfg, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *install != "" || *uninstall != "" {
		if err := manageAutostart(); err != nil {
			fmt.Fprintf(os.Stderr, "Autostart: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// The terminal view owns stdout; logs go to the file only.
	logger := initLogger(cfg, !*watch)
	defer logger.Sync()

	logger.Info("Starting Vitalis Dashboard",
		zap.String("version", version),
		zap.String("listen", cfg.Server.Listen))

	// Check if running as Windows service
	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		svc := service.New(logger, func(ctx context.Context) error {
			return runDashboard(ctx, cfg, logger, false)
		})
		if err := svc.Run(); err != nil {
			logger.Fatal("Service failed", zap.Error(err))
		}
		return
	}

	// Running as standalone foreground process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	if err := runDashboard(ctx, cfg, logger, *watch); err != nil {
		logger.Error("Dashboard failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Dashboard stopped")
}

// manageAutostart handles -install and -uninstall.
func manageAutostart() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	runner := cmdrunner.New(30 * time.Second)

	if *uninstall != "" {
		mode, err := autostart.ParseMode(*uninstall)
		if err != nil {
			return err
		}
		return removeAutostart(ctx, autostart.NewWithMode(mode, runner), mode, os.Stdout)
	}

	mode, err := autostart.ParseMode(*install)
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}
	exe, err = filepath.Abs(exe)
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	launch := autostart.Launch{ExecPath: exe}
	if *configPath != "" {
		abs, err := filepath.Abs(*configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		launch.Args = append(launch.Args, "-config", abs)
	}
	if *listen != "" {
		launch.Args = append(launch.Args, "-listen", *listen)
	}

	return installAutostart(ctx, autostart.NewWithMode(mode, runner), mode, launch, os.Stdout)
}

// installAutostart registers launch unless a registration already exists.
func installAutostart(ctx context.Context, mgr autostart.Manager, mode autostart.Mode, launch autostart.Launch, out io.Writer) error {
	installed, err := mgr.IsInstalled()
	if err != nil {
		return fmt.Errorf("checking %s: %w", mgr.ServiceName(), err)
	}
	if installed {
		fmt.Fprintf(out, "%s (%s) is already registered; run -uninstall %s first to change it\n",
			mgr.ServiceName(), mode, mode)
		return nil
	}
	if err := mgr.Install(ctx, launch); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered %s (%s); it is now running\n", mgr.ServiceName(), mode)
	return nil
}

// removeAutostart removes the registration if there is one.
func removeAutostart(ctx context.Context, mgr autostart.Manager, mode autostart.Mode, out io.Writer) error {
	installed, err := mgr.IsInstalled()
	if err != nil {
		return fmt.Errorf("checking %s: %w", mgr.ServiceName(), err)
	}
	if !installed {
		fmt.Fprintf(out, "%s (%s) is not registered\n", mgr.ServiceName(), mode)
		return nil
	}
	if err := mgr.Uninstall(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s (%s)\n", mgr.ServiceName(), mode)
	return nil
}

func loadConfig() (*config.Config, error) {
	cli := config.CLIOverrides{Listen: *listen, Debug: *debug}
	if *configPath != "" {
		return config.LoadLayered(cli, embeddedConfig, *configPath)
	}
	return config.LoadLayered(cli, embeddedConfig)
}

// runDashboard wires all components and serves until ctx is cancelled or,
// in watch mode, the user quits the terminal view.
func runDashboard(ctx context.Context, cfg *config.Config, logger *zap.Logger, watchMode bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runner := cmdrunner.New(cfg.Sampler.ProbeTimeout.Duration)
	plat := platform.New(runner)
	logger.Info("Platform detected", zap.String("platform", plat.Name()))

	stats := collector.NewHostStats(cfg.Sampler.DiskPath, cfg.Sampler.CPUWindow.Duration, runner)

	registry := collector.NewRegistry(logger.Named("collector"))
	registry.Register(collector.NewTemperatureCollector(plat, logger.Named("temperature")))
	registry.Register(collector.NewGPUCollector(plat))
	registry.Register(collector.NewBatteryCollector())

	// Some sources chain two probes (GPU list, then GPU temperature).
	smp, err := sampler.New(ctx, stats, registry,
		sampler.WithLogger(logger.Named("sampler")),
		sampler.WithProbeTimeout(2*cfg.Sampler.ProbeTimeout.Duration))
	if err != nil {
		return fmt.Errorf("initializing sampler: %w", err)
	}

	streaming := cfg.Server.StreamInterval.Duration > 0
	srv := server.New(server.Options{
		Addr:            cfg.Server.Listen,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		Stream:          streaming,
	}, smp, logger.Named("server"))

	if streaming || watchMode {
		interval := cfg.Server.StreamInterval.Duration
		if !streaming {
			interval = watchInterval
		}
		sched := scheduler.New(smp, interval, logger.Named("scheduler"))
		sched.OnSnapshot(srv.Publish)
		if watchMode {
			go func() {
				err := tui.Run(ctx, sched.OnSnapshot)
				if err != nil {
					logger.Error("Terminal view failed", zap.Error(err))
				}
				cancel()
			}()
		}
		go sched.Start(ctx)
		logger.Info("Scheduler running", zap.Duration("interval", interval))
	}

	return srv.Run(ctx)
}

// initLogger creates a zap logger based on the configuration.
// It outputs to the console (human-readable) unless disabled, and optionally
// to a JSON log file.
func initLogger(cfg *config.Config, console bool) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	// File output (structured JSON, if configured)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...))
}
