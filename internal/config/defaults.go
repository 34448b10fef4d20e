package config

import (
	"time"
)

const (
	// DefaultTimeout bounds a single execution unit.
	DefaultTimeout = 120 * time.Second
	// DefaultHostExecutable is joined with an instance's install location.
	DefaultHostExecutable = "Revit.exe"
	// NoHostSelected means "use the default host instance".
	NoHostSelected = -1
)

// DefaultRunConfig returns the configuration a fresh invocation starts from.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Timeout:           DefaultTimeout,
		HostExecutable:    DefaultHostExecutable,
		SelectedHostIndex: NoHostSelected,
		Parallel:          1,
	}
}

// DefaultSettings returns the settings used when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		TimeoutMs:       int(DefaultTimeout / time.Millisecond),
		SelectedProduct: NoHostSelected,
	}
}
