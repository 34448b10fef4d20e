// Package host runs execution units against the external host application.
package host

import (
	"context"
	"fmt"
	"time"
)

// UnitKind is the granularity of an execution unit.
type UnitKind int

const (
	UnitAssembly UnitKind = iota
	UnitFixture
	UnitTest
)

func (k UnitKind) String() string {
	switch k {
	case UnitAssembly:
		return "assembly"
	case UnitFixture:
		return "fixture"
	case UnitTest:
		return "test"
	default:
		return fmt.Sprintf("UnitKind(%d)", int(k))
	}
}

// Unit is a single request to the host: run an assembly, a fixture or a
// single test.
type Unit struct {
	Kind         UnitKind
	AssemblyName string
	// Assembly is the path of the assembly under test.
	Assembly  string
	Fixture   string
	Test      string
	ModelPath string

	ResultsPath      string
	WorkingDirectory string

	// Expected is the number of tests the unit covers.
	Expected int
}

// Name is a human readable label for the unit.
func (u Unit) Name() string {
	switch u.Kind {
	case UnitFixture:
		return u.Fixture
	case UnitTest:
		return u.Fixture + "." + u.Test
	default:
		return u.AssemblyName
	}
}

// Status is the result of executing a unit.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
	StatusSkipped Status = "skipped"
)

// Outcome describes how a unit finished.
type Outcome struct {
	Status     Status        `json:"status"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Output     string        `json:"output,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Adapter executes units. Implementations must be safe for concurrent use
// when the orchestrator runs in parallel mode.
type Adapter interface {
	// Execute runs unit and blocks until the host finishes or the unit
	// times out. appendResults asks the host to append to ResultsPath
	// instead of replacing it.
	Execute(ctx context.Context, unit Unit, appendResults bool) Outcome
	// Cleanup releases resources held by the adapter.
	Cleanup() error
}
