package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/carryapp/carry-config/internal/api"
	"github.com/carryapp/carry-config/internal/asset"
	"github.com/carryapp/carry-config/internal/bridge"
	"github.com/carryapp/carry-config/internal/config"
	"github.com/carryapp/carry-config/internal/loader"
	"github.com/carryapp/carry-config/internal/metrics"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	registry *bridge.Registry
	module   *bridge.ConfigModule
	handler  *api.Handler
	router   http.Handler
	metrics  *prometheus.Registry
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
// The configuration module is loaded eagerly; its table is fixed before the
// first request.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	promRegistry := prometheus.NewRegistry()
	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.EnableMetrics {
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom, err := metrics.NewPrometheus(promRegistry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		recorder = prom
	}

	module, err := NewConfigModule(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	registry := bridge.NewRegistry()
	if err := registry.Register(module); err != nil {
		return nil, fmt.Errorf("failed to register module: %w", err)
	}

	if _, ok := module.Config(); ok {
		logger.Info("configuration module ready", zap.String("module", module.Name()))
	} else {
		logger.Warn("configuration module has no table; host defaults apply", zap.String("module", module.Name()))
	}

	handler := api.NewHandler(registry)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	var metricsHandler http.Handler
	if cfg.EnableMetrics {
		metricsHandler = promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
	}

	return &App{
		registry: registry,
		module:   module,
		handler:  handler,
		router:   apiRouter,
		metrics:  promRegistry,
		logger:   logger,
		server:   NewServer(cfg, BuildRootHandler(apiRouter, metricsHandler)),
	}, nil
}

// NewConfigModule builds the configuration constants module described by cfg.
func NewConfigModule(cfg config.Config, logger *zap.Logger, recorder metrics.Recorder) (*bridge.ConfigModule, error) {
	provider, err := NewProvider(cfg.AssetDir)
	if err != nil {
		return nil, err
	}

	ld := loader.New(provider, logger.With(zap.String("module", cfg.ModuleName)),
		loader.WithAssetName(cfg.AssetName),
		loader.WithMaxSize(cfg.MaxAssetSize),
		loader.WithRecorder(recorder),
	)
	return bridge.NewConfigModule(cfg.ModuleName, ld), nil
}

// NewProvider returns the bundled asset provider, or a directory provider when
// dir is set. Relative directories are resolved against the project root.
func NewProvider(dir string) (asset.Provider, error) {
	if dir == "" {
		return asset.Bundled(), nil
	}

	resolved := dir
	if !filepath.IsAbs(dir) {
		path, err := resolveProjectPath(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve asset dir: %w", err)
		}
		resolved = path
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %s is not a directory", resolved)
	}
	return asset.Dir(resolved), nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and, when metricsHandler is non-nil, serves /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/modules", http.StatusFound)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// resolveProjectPath locates a file or directory relative to the working
// directory, walking up towards the filesystem root.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
