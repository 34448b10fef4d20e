// Package selector resolves the run target from the selection filters.
//
// Resolution follows the hierarchy assembly, fixture, test. With no filter
// the whole loaded set runs. A fixture filter selects the first fixture with
// that exact name across assemblies in load order. A test filter selects the
// first test with that exact name across assemblies, fixtures and tests in
// declaration order. A filter that matches nothing is an error; nothing runs.
package selector

import (
	"errors"
	"fmt"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
)

var (
	// ErrFixtureNotFound is returned when no fixture has the requested name.
	ErrFixtureNotFound = errors.New("fixture not found")
	// ErrTestNotFound is returned when no test has the requested name.
	ErrTestNotFound = errors.New("test not found")
)

// Kind is the shape of a resolved target.
type Kind int

const (
	KindAll Kind = iota
	KindFixture
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindFixture:
		return "fixture"
	case KindTest:
		return "test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Target is the outcome of resolution.
type Target struct {
	Kind Kind

	// Assemblies is set for KindAll.
	Assemblies []assembly.AssemblyData

	// Assembly and Fixture are set for KindFixture and KindTest; Test for
	// KindTest only.
	Assembly *assembly.AssemblyData
	Fixture  *assembly.FixtureData
	Test     *assembly.TestData

	// RunCount is the number of tests the target covers.
	RunCount int
}

// Resolve picks the target for cfg's filters over assemblies. The filters
// are validated first; both set is rejected with config.ErrConflictingFilters.
func Resolve(cfg *config.RunConfig, assemblies []assembly.AssemblyData) (Target, error) {
	if err := cfg.ValidateFilters(); err != nil {
		return Target{}, err
	}

	switch {
	case cfg.Fixture != "":
		ref, ok := assembly.FindFixture(assemblies, cfg.Fixture)
		if !ok {
			return Target{}, fmt.Errorf("%w: %q", ErrFixtureNotFound, cfg.Fixture)
		}
		return Target{
			Kind:     KindFixture,
			Assembly: ref.Assembly,
			Fixture:  ref.Fixture,
			RunCount: ref.Fixture.TestCount(),
		}, nil

	case cfg.Test != "":
		ref, ok := assembly.FindTest(assemblies, cfg.Test)
		if !ok {
			return Target{}, fmt.Errorf("%w: %q", ErrTestNotFound, cfg.Test)
		}
		return Target{
			Kind:     KindTest,
			Assembly: ref.Assembly,
			Fixture:  ref.Fixture,
			Test:     ref.Test,
			RunCount: 1,
		}, nil

	default:
		return Target{
			Kind:       KindAll,
			Assemblies: assemblies,
			RunCount:   assembly.TotalTests(assemblies),
		}, nil
	}
}

// Units expands the target into execution units: one per assembly for
// KindAll, otherwise a single unit.
func (t Target) Units(resultsPath, workingDir string) []host.Unit {
	switch t.Kind {
	case KindFixture:
		return []host.Unit{{
			Kind:             host.UnitFixture,
			AssemblyName:     t.Assembly.Name,
			Assembly:         t.Assembly.Path,
			Fixture:          t.Fixture.Name,
			ResultsPath:      resultsPath,
			WorkingDirectory: workingDir,
			Expected:         t.RunCount,
		}}
	case KindTest:
		return []host.Unit{{
			Kind:             host.UnitTest,
			AssemblyName:     t.Assembly.Name,
			Assembly:         t.Assembly.Path,
			Fixture:          t.Fixture.Name,
			Test:             t.Test.Name,
			ModelPath:        t.Test.ModelPath,
			ResultsPath:      resultsPath,
			WorkingDirectory: workingDir,
			Expected:         1,
		}}
	}

	units := make([]host.Unit, 0, len(t.Assemblies))
	for _, a := range t.Assemblies {
		units = append(units, host.Unit{
			Kind:             host.UnitAssembly,
			AssemblyName:     a.Name,
			Assembly:         a.Path,
			ResultsPath:      resultsPath,
			WorkingDirectory: workingDir,
			Expected:         a.TestCount(),
		})
	}
	return units
}
