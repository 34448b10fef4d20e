package app

import (
	"io"
	"os"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/internal/orchestrator"
)

// Config holds the application configuration
type Config struct {
	// Run is the run context filled from flags.
	Run *config.RunConfig
	// TimeoutSet records that Run.Timeout was given on the command line.
	TimeoutSet bool

	// Host discovery sources
	HostsFile string
	HostRoots []string

	// Output is the reporter format for headless runs.
	Output string

	// Stdout receives run reports, LogOutput receives log lines.
	Stdout    io.Writer
	LogOutput io.Writer

	// ExecutableDir is the default working directory.
	ExecutableDir string
}

// For mocking in tests
var osExecutable = os.Executable

// NewConfig creates a configuration with defaults for every field.
func NewConfig() *Config {
	return &Config{
		Run:           config.DefaultRunConfig(),
		Output:        orchestrator.OutputText,
		Stdout:        os.Stdout,
		LogOutput:     os.Stderr,
		ExecutableDir: executableDir(),
	}
}

func executableDir() string {
	exe, err := osExecutable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}
