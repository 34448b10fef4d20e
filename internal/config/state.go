package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"rtfctl/pkg/logging"
	"time"
)

var (
	// ErrInvalidPath is returned when a configured path does not exist or
	// has the wrong kind.
	ErrInvalidPath = errors.New("invalid path")
	// ErrConflictingFilters is returned when both a fixture and a test
	// filter are set.
	ErrConflictingFilters = errors.New("fixture and test filters are mutually exclusive")
	// ErrNoHosts is returned when no host instance is available.
	ErrNoHosts = errors.New("no host application instances found")
)

// SetWorkingDirectory stores the absolute form of path, which must be an
// existing directory.
func (c *RunConfig) SetWorkingDirectory(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: working directory %s does not exist", ErrInvalidPath, abs)
	}
	c.WorkingDirectory = abs
	return nil
}

// SetTestAssembly stores the absolute form of path, which must be an
// existing file.
func (c *RunConfig) SetTestAssembly(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: test assembly %s does not exist", ErrInvalidPath, abs)
	}
	c.TestAssemblyPath = abs
	return nil
}

// NormalizeSelectedHostIndex collapses an out-of-range selection to
// NoHostSelected.
func (c *RunConfig) NormalizeSelectedHostIndex() {
	if c.SelectedHostIndex < 0 || c.SelectedHostIndex >= len(c.Hosts) {
		c.SelectedHostIndex = NoHostSelected
	}
}

// ValidateFilters rejects a configuration with both filters set.
func (c *RunConfig) ValidateFilters() error {
	if c.Fixture != "" && c.Test != "" {
		return fmt.Errorf("%w: fixture %q, test %q", ErrConflictingFilters, c.Fixture, c.Test)
	}
	return nil
}

// SelectedHost returns the selected host instance, if any.
func (c *RunConfig) SelectedHost() (HostInstance, bool) {
	c.NormalizeSelectedHostIndex()
	if c.SelectedHostIndex == NoHostSelected {
		return HostInstance{}, false
	}
	return c.Hosts[c.SelectedHostIndex], true
}

// ResolveHostPath returns HostPath, deriving it from the selected host
// instance (or the first one when none is selected) if it is unset.
func (c *RunConfig) ResolveHostPath() (string, error) {
	if c.HostPath != "" {
		return c.HostPath, nil
	}
	host, ok := c.SelectedHost()
	if !ok {
		if len(c.Hosts) == 0 {
			return "", ErrNoHosts
		}
		host = c.Hosts[0]
	}
	exe := c.HostExecutable
	if exe == "" {
		exe = DefaultHostExecutable
	}
	return filepath.Join(host.InstallLocation, exe), nil
}

// ApplySettings copies persisted settings into the configuration.
// defaultWorkingDir is used when no working directory was saved or the saved
// one no longer exists.
func (c *RunConfig) ApplySettings(s Settings, defaultWorkingDir string) {
	c.WorkingDirectory = defaultWorkingDir
	if s.WorkingDirectory != "" {
		if err := c.SetWorkingDirectory(s.WorkingDirectory); err != nil {
			logging.Warn("Config", "ignoring saved working directory: %v", err)
			c.WorkingDirectory = defaultWorkingDir
		}
	}
	c.TestAssemblyPath = s.AssemblyPath
	c.ResultsPath = s.ResultsPath
	c.Debug = s.IsDebug
	if s.TimeoutMs > 0 {
		c.Timeout = time.Duration(s.TimeoutMs) * time.Millisecond
	}
	c.SelectedHostIndex = s.SelectedProduct
	c.NormalizeSelectedHostIndex()
}

// Settings extracts the persisted subset of the configuration.
func (c *RunConfig) Settings() Settings {
	return Settings{
		WorkingDirectory: c.WorkingDirectory,
		AssemblyPath:     c.TestAssemblyPath,
		ResultsPath:      c.ResultsPath,
		IsDebug:          c.Debug,
		TimeoutMs:        int(c.Timeout / time.Millisecond),
		SelectedProduct:  c.SelectedHostIndex,
	}
}
