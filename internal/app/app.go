package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/executor"
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/hclflow"
	"github.com/vk/edgeflow/internal/registry"
	"github.com/vk/edgeflow/internal/scheduler"
	"github.com/vk/edgeflow/internal/telemetry"
	"github.com/vk/edgeflow/internal/yamlflow"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowPath      string
	Strategy      scheduler.Strategy
	MaxWorkers    int
	OnError       scheduler.FailurePolicy
	RetryAttempts int
	RetryDelay    time.Duration
	SoftLimit     time.Duration
	HardLimit     time.Duration
	MetricsPort   int
	LogFormat     string
	LogLevel      string
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, config *Config, modules ...registry.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All processor modules registered.", "count", len(modules), "types", reg.Types())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Run loads the configured flow file and executes every flow it defines.
func (a *App) Run(ctx context.Context, config *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	graphs, err := loadFlows(config.FlowPath)
	if err != nil {
		return err
	}
	a.logger.Info("Flows loaded.", "path", config.FlowPath, "count", len(graphs))

	var listener executor.Listener
	if config.MetricsPort > 0 {
		promReg := prometheus.NewRegistry()
		listener = telemetry.NewListener(promReg)
		a.startMetricsServer(config.MetricsPort, promReg)
	}

	exec := executor.New(a.registry)
	opts := executor.Options{
		Strategy:   config.Strategy,
		MaxWorkers: config.MaxWorkers,
		OnError:    config.OnError,
		Retry: scheduler.RetryPolicy{
			MaxAttempts:  config.RetryAttempts,
			InitialDelay: config.RetryDelay,
			Backoff:      scheduler.BackoffExponential,
		},
		SoftLimit: config.SoftLimit,
		HardLimit: config.HardLimit,
		Listener:  listener,
	}

	var failed []string
	for _, g := range graphs {
		run, err := exec.Execute(ctx, g, opts)
		if err != nil {
			return fmt.Errorf("flow %q: %w", g.Name, err)
		}
		if status := run.Status(); status != flow.RunStatusCompleted {
			failed = append(failed, fmt.Sprintf("%s (%s)", g.Name, status))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("flows did not complete: %v", failed)
	}
	return nil
}

// loadFlows picks the loader by file extension.
func loadFlows(path string) ([]*flow.Graph, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return hclflow.ParseFile(path)
	case ".yaml", ".yml":
		g, err := yamlflow.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return []*flow.Graph{g}, nil
	default:
		return nil, fmt.Errorf("unsupported flow file extension: %s", path)
	}
}

// startMetricsServer runs the Prometheus scrape endpoint in the background.
func (a *App) startMetricsServer(port int, g prometheus.Gatherer) {
	addr := fmt.Sprintf(":%d", port)
	handler := telemetry.Handler(g)

	go func() {
		a.logger.Info("Metrics server starting", "address", fmt.Sprintf("http://localhost%s/metrics", addr))
		if err := http.ListenAndServe(addr, handler); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
}
