package app

import (
	"context"
	"errors"
	"fmt"
	"rtfctl/internal/discovery"
	"rtfctl/internal/orchestrator"
	"rtfctl/pkg/logging"
	"runtime/debug"
	"sync"
)

var (
	// ErrAssemblyRequired is returned by a headless run without a test assembly.
	ErrAssemblyRequired = errors.New("you must specify at least a test assembly")
	// ErrUnitsFailed is returned when a run completed with failed or timed out units.
	ErrUnitsFailed = errors.New("one or more units failed")
)

// Application is one rtfctl session, headless or interactive.
type Application struct {
	config *Config
	deps   Deps

	mu   sync.Mutex
	orch *orchestrator.Orchestrator
}

// NewApplication configures logging, validates the configured paths and
// discovers host instances. Finding none is fatal.
func NewApplication(ctx context.Context, cfg *Config, deps Deps) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Run.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, cfg.LogOutput)

	if cfg.Run.WorkingDirectory != "" {
		if err := cfg.Run.SetWorkingDirectory(cfg.Run.WorkingDirectory); err != nil {
			return nil, err
		}
	}
	if cfg.Run.TestAssemblyPath != "" {
		if err := cfg.Run.SetTestAssembly(cfg.Run.TestAssemblyPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Run.ValidateFilters(); err != nil {
		return nil, err
	}

	deps = deps.withDefaults(cfg)

	hosts, err := discovery.Hosts(ctx, deps.Discoverer)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to discover host instances")
		return nil, err
	}
	cfg.Run.Hosts = hosts
	cfg.Run.NormalizeSelectedHostIndex()
	logging.Debug("Bootstrap", "discovered %d host instance(s)", len(hosts))

	return &Application{config: cfg, deps: deps}, nil
}

// Run executes the session in the mode selected by the configuration. A
// panic anywhere below is reported as a single error.
func (a *Application) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debug("Bootstrap", "panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	if a.config.Run.GUI {
		return a.runInteractive(ctx)
	}
	return a.runHeadless(ctx)
}

// Shutdown releases the orchestrator's resources.
func (a *Application) Shutdown() error {
	a.mu.Lock()
	orch := a.orch
	a.mu.Unlock()
	if orch == nil {
		return nil
	}
	return orch.Cleanup()
}

func (a *Application) setOrchestrator(o *orchestrator.Orchestrator) {
	a.mu.Lock()
	a.orch = o
	a.mu.Unlock()
}
