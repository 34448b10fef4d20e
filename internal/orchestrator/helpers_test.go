package orchestrator

import (
	"context"
	"os"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Execute(ctx context.Context, unit host.Unit, appendResults bool) host.Outcome {
	args := m.Called(ctx, unit, appendResults)
	return args.Get(0).(host.Outcome)
}

func (m *mockAdapter) Cleanup() error {
	return m.Called().Error(0)
}

func unitNamed(name string) interface{} {
	return mock.MatchedBy(func(u host.Unit) bool { return u.Name() == name })
}

// funcAdapter delegates Execute to fn and counts cleanups.
type funcAdapter struct {
	fn       func(ctx context.Context, unit host.Unit, appendResults bool) host.Outcome
	cleanups atomic.Int32

	mu    sync.Mutex
	units []host.Unit
}

func (f *funcAdapter) Execute(ctx context.Context, unit host.Unit, appendResults bool) host.Outcome {
	f.mu.Lock()
	f.units = append(f.units, unit)
	f.mu.Unlock()
	if f.fn == nil {
		return host.Outcome{Status: host.StatusSuccess}
	}
	return f.fn(ctx, unit, appendResults)
}

func (f *funcAdapter) Cleanup() error {
	f.cleanups.Add(1)
	return nil
}

func (f *funcAdapter) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.units))
	for _, u := range f.units {
		names = append(names, u.Name())
	}
	return names
}

// writingAdapter behaves like a host that records each unit name as one
// line in the unit's results file.
func writingAdapter(t *testing.T, tag string) *funcAdapter {
	t.Helper()
	return &funcAdapter{fn: func(_ context.Context, unit host.Unit, appendResults bool) host.Outcome {
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if appendResults {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(unit.ResultsPath, flags, 0644)
		require.NoError(t, err)
		defer f.Close()
		_, err = f.WriteString(tag + ":" + unit.Name() + "\n")
		require.NoError(t, err)
		return host.Outcome{Status: host.StatusSuccess}
	}}
}

// sampleAssembly is a single assembly with fixtures A[t1,t2] and B[t3].
func sampleAssembly() []assembly.AssemblyData {
	return []assembly.AssemblyData{{
		Name: "Sample",
		Path: "/bin/Sample.dll",
		Fixtures: []assembly.FixtureData{
			{Name: "A", Tests: []assembly.TestData{{Name: "t1"}, {Name: "t2"}}},
			{Name: "B", Tests: []assembly.TestData{{Name: "t3"}}},
		},
	}}
}

func threeAssemblies() []assembly.AssemblyData {
	return []assembly.AssemblyData{
		{Name: "One", Fixtures: []assembly.FixtureData{{Name: "F1", Tests: []assembly.TestData{{Name: "a"}}}}},
		{Name: "Two", Fixtures: []assembly.FixtureData{{Name: "F2", Tests: []assembly.TestData{{Name: "b"}, {Name: "c"}}}}},
		{Name: "Three", Fixtures: []assembly.FixtureData{{Name: "F3", Tests: []assembly.TestData{{Name: "d"}}}}},
	}
}

func newConfig() *config.RunConfig {
	cfg := config.DefaultRunConfig()
	cfg.WorkingDirectory = "/work"
	return cfg
}
