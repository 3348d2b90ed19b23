package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/carryapp/carry-config/internal/application"
	"github.com/carryapp/carry-config/internal/config"
	"github.com/carryapp/carry-config/internal/logging"
	"github.com/carryapp/carry-config/internal/metrics"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("carry-config", "Carry Config - exposes the bundled JSON configuration as a constants table")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	assetDir := kingpinApp.Flag("asset-dir", "Directory to read assets from instead of the bundled ones").String()
	assetName := kingpinApp.Flag("asset-name", "Name of the configuration asset").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFile := kingpinApp.Flag("log-file", "Also write logs to this file, with rotation").String()

	serveCmd := kingpinApp.Command("serve", "Serve constants tables over HTTP").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	moduleName := serveCmd.Flag("module", "Name of the constants module").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	dumpCmd := kingpinApp.Command("dump", "Print the constants table as JSON")
	dumpPath := dumpCmd.Flag("path", "Dotted path of a single value to print").String()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		Port:       port,
		AssetDir:   assetDir,
		AssetName:  assetName,
		ModuleName: moduleName,
		LogLevel:   logLevel,
		LogFile:    logFile,
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if command == dumpCmd.FullCommand() {
		if err := dump(os.Stdout, cfg, logger, *dumpPath); err != nil {
			logger.Error("dump failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
		return
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// dump writes the constants table, or the value at path, as indented JSON.
// An unavailable configuration prints null.
func dump(w io.Writer, cfg config.Config, logger *zap.Logger, path string) error {
	module, err := application.NewConfigModule(cfg, logger, metrics.Nop{})
	if err != nil {
		return err
	}

	var out any
	if path == "" {
		if table, ok := module.Constants(); ok {
			out = table
		}
	} else {
		v, available, err := module.Lookup(path)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", path, err)
		}
		if available {
			out = v
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
