package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"rtfctl/internal/agent"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/orchestrator"
	"rtfctl/internal/tui/model"
	"rtfctl/pkg/logging"
	"syscall"
)

// runHeadless resolves defaults, loads the assemblies and orchestrates a
// single pass.
func (a *Application) runHeadless(ctx context.Context) error {
	cfg := a.config.Run

	if cfg.HostPath == "" {
		hostPath, err := cfg.ResolveHostPath()
		if err != nil {
			return err
		}
		cfg.HostPath = hostPath
	}
	if cfg.WorkingDirectory == "" {
		cfg.WorkingDirectory = a.config.ExecutableDir
	}
	if cfg.TestAssemblyPath == "" {
		return ErrAssemblyRequired
	}

	assemblies, err := assembly.Load(cfg.TestAssemblyPath, cfg.WorkingDirectory)
	if err != nil {
		return fmt.Errorf("failed to load test assembly: %w", err)
	}
	cfg.Assemblies = assemblies

	printConfiguration(cfg)

	reporter, err := orchestrator.NewReporter(a.config.Output, a.config.Stdout, cfg.Debug)
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(a.deps, cfg, reporter)
	if err != nil {
		return err
	}
	a.setOrchestrator(orch)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go stopOnInterrupt(runCtx, orch, cancel)

	summary, err := orch.Execute(runCtx, cfg, assemblies)
	if err != nil {
		return err
	}
	if !summary.Succeeded() {
		return ErrUnitsFailed
	}
	return nil
}

// stopOnInterrupt stops the run between units on the first interrupt and
// aborts the unit in flight on the second.
func stopOnInterrupt(ctx context.Context, orch *orchestrator.Orchestrator, abort context.CancelFunc) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logging.Warn("Session", "interrupt received, stopping after the current unit (interrupt again to abort)")
		orch.Stop()
	case <-ctx.Done():
		return
	}

	select {
	case <-sigChan:
		logging.Warn("Session", "second interrupt, aborting current unit")
		abort()
	case <-ctx.Done():
	}
}

func printConfiguration(cfg *config.RunConfig) {
	logging.Info("Session", "host: %s", cfg.HostPath)
	logging.Info("Session", "working directory: %s", cfg.WorkingDirectory)
	logging.Info("Session", "test assembly: %s (%d assemblies, %d tests)",
		cfg.TestAssemblyPath, len(cfg.Assemblies), assembly.TotalTests(cfg.Assemblies))
	if cfg.ResultsPath != "" {
		logging.Info("Session", "results: %s (concatenate: %t)", cfg.ResultsPath, cfg.Concatenate)
	}
	if cfg.Fixture != "" {
		logging.Info("Session", "fixture: %s", cfg.Fixture)
	}
	if cfg.Test != "" {
		logging.Info("Session", "test: %s", cfg.Test)
	}
	logging.Info("Session", "timeout: %s", cfg.Timeout)
}

// runInteractive restores the persisted settings, hands control to the
// interactive front end and saves the settings when it returns.
func (a *Application) runInteractive(ctx context.Context) error {
	cfg := a.config.Run

	settings, err := config.LoadSettings()
	if err != nil {
		logging.Warn("Session", "could not load settings, using defaults: %v", err)
	}
	applySettingsKeepingFlags(cfg, settings, a.config.ExecutableDir, a.config.TimeoutSet)

	if cfg.TestAssemblyPath != "" {
		if err := refresh(cfg); err != nil {
			logging.Warn("Session", "could not load %s: %v", cfg.TestAssemblyPath, err)
		}
	}

	logLevel := logging.LevelInfo
	if cfg.Debug {
		logLevel = logging.LevelDebug
	}
	logChan := logging.InitForTUI(logLevel)
	defer logging.CloseTUIChannel()

	runErr := a.deps.Interactive(ctx, model.Options{
		Config: cfg,
		NewOrchestrator: func(c *config.RunConfig) (*orchestrator.Orchestrator, error) {
			orch, err := newOrchestrator(a.deps, c, nil)
			if err == nil {
				a.setOrchestrator(orch)
			}
			return orch, err
		},
		LogChannel: logChan,
	})

	if err := config.SaveSettings(cfg.Settings()); err != nil {
		logging.Warn("Session", "could not save settings: %v", err)
	}
	return runErr
}

// applySettingsKeepingFlags applies persisted settings but keeps the values
// given explicitly on the command line. keepTimeout is set when the timeout
// came from a flag.
func applySettingsKeepingFlags(cfg *config.RunConfig, s config.Settings, defaultWorkingDir string, keepTimeout bool) {
	explicit := *cfg
	cfg.ApplySettings(s, defaultWorkingDir)

	if explicit.WorkingDirectory != "" {
		cfg.WorkingDirectory = explicit.WorkingDirectory
	}
	if explicit.TestAssemblyPath != "" {
		cfg.TestAssemblyPath = explicit.TestAssemblyPath
	}
	if explicit.ResultsPath != "" {
		cfg.ResultsPath = explicit.ResultsPath
	}
	if explicit.Debug {
		cfg.Debug = true
	}
	if keepTimeout {
		cfg.Timeout = explicit.Timeout
	}
	if explicit.SelectedHostIndex != config.NoHostSelected {
		cfg.SelectedHostIndex = explicit.SelectedHostIndex
	}
}

// refresh reloads the assemblies when the configured assembly exists.
func refresh(cfg *config.RunConfig) error {
	if _, err := os.Stat(cfg.TestAssemblyPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	assemblies, err := assembly.Load(cfg.TestAssemblyPath, cfg.WorkingDirectory)
	if err != nil {
		return err
	}
	cfg.Assemblies = assemblies
	return nil
}

// ServeMCP serves the MCP tools over in and out until ctx is done. Run
// reports are discarded since out carries the protocol.
func (a *Application) ServeMCP(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	cfg := a.config.Run
	if cfg.WorkingDirectory == "" {
		cfg.WorkingDirectory = a.config.ExecutableDir
	}

	srv := agent.NewMCPServer(cfg, func(c *config.RunConfig) (*orchestrator.Orchestrator, error) {
		orch, err := newOrchestrator(a.deps, c, orchestrator.NewQuietReporter(io.Discard))
		if err == nil {
			a.setOrchestrator(orch)
		}
		return orch, err
	}, version)
	return srv.Start(ctx, in, out)
}

// Hosts returns the discovered host instances.
func (a *Application) Hosts() []config.HostInstance {
	return a.config.Run.Hosts
}
