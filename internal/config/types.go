package config

import (
	"rtfctl/internal/assembly"
	"time"
)

// HostInstance is a discovered installation of the host application.
type HostInstance struct {
	Name            string `yaml:"name" json:"name"`
	InstallLocation string `yaml:"installLocation" json:"installLocation"`
}

// RunConfig is the mutable run context shared by the selector, the
// orchestrator and the front ends. It is created once per invocation (or
// interactive session) and passed explicitly.
type RunConfig struct {
	WorkingDirectory string
	TestAssemblyPath string
	ResultsPath      string

	// Fixture and Test are the selection filters; at most one may be set.
	Fixture string
	Test    string

	// Concatenate appends to an existing results artifact instead of
	// replacing it.
	Concatenate bool
	GUI         bool
	Debug       bool

	// Timeout bounds the wait for a single execution unit.
	Timeout time.Duration

	// HostPath is the host executable; when empty it is derived from the
	// selected (or first) host instance and HostExecutable.
	HostPath          string
	HostExecutable    string
	SelectedHostIndex int
	Hosts             []HostInstance

	Assemblies []assembly.AssemblyData

	// RunCount is the number of tests expected by the current resolution.
	RunCount int

	// Parallel is the number of assemblies executed concurrently when the
	// whole set runs. 1 keeps execution sequential.
	Parallel int

	// ReportPath is a directory receiving a JSON run summary, if set.
	ReportPath string
}

// Settings is the subset of RunConfig persisted between interactive sessions.
type Settings struct {
	WorkingDirectory string `yaml:"workingDirectory,omitempty"`
	AssemblyPath     string `yaml:"assemblyPath,omitempty"`
	ResultsPath      string `yaml:"resultsPath,omitempty"`
	IsDebug          bool   `yaml:"isDebug"`
	// TimeoutMs is the unit timeout in milliseconds.
	TimeoutMs       int `yaml:"timeout"`
	SelectedProduct int `yaml:"selectedProduct"`
}
