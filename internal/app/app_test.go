package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/internal/orchestrator"
	"rtfctl/internal/selector"
	"rtfctl/internal/tui/model"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `assemblies:
  - name: Sample
    path: Sample.dll
    fixtures:
      - name: A
        tests:
          - name: t1
          - name: t2
      - name: B
        tests:
          - name: t3
`

type staticDiscoverer []config.HostInstance

func (s staticDiscoverer) Discover(context.Context) ([]config.HostInstance, error) {
	return s, nil
}

type stubAdapter struct {
	status   host.Status
	executed []host.Unit
	cleanups atomic.Int32
}

func (s *stubAdapter) Execute(_ context.Context, unit host.Unit, _ bool) host.Outcome {
	s.executed = append(s.executed, unit)
	return host.Outcome{Status: s.status, Diagnostic: "stub"}
}

func (s *stubAdapter) Cleanup() error {
	s.cleanups.Add(1)
	return nil
}

type fixture struct {
	cfg      *Config
	deps     Deps
	adapter  *stubAdapter
	opts     *host.ProcessOptions
	stdout   *bytes.Buffer
	manifest string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0644))

	f := &fixture{
		adapter:  &stubAdapter{status: host.StatusSuccess},
		stdout:   &bytes.Buffer{},
		manifest: manifestPath,
	}
	f.cfg = NewConfig()
	f.cfg.Stdout = f.stdout
	f.cfg.LogOutput = io.Discard
	f.cfg.ExecutableDir = dir
	f.deps = Deps{
		Discoverer: staticDiscoverer{
			{Name: "Revit 2024", InstallLocation: "/opt/r24"},
			{Name: "Revit 2025", InstallLocation: "/opt/r25"},
		},
		NewAdapter: func(opts host.ProcessOptions) (host.Adapter, error) {
			f.opts = &opts
			return f.adapter, nil
		},
	}
	return f
}

func (f *fixture) app(t *testing.T) *Application {
	t.Helper()
	a, err := NewApplication(context.Background(), f.cfg, f.deps)
	require.NoError(t, err)
	return a
}

func TestNewApplication_NoHosts(t *testing.T) {
	f := newFixture(t)
	f.deps.Discoverer = staticDiscoverer{}

	_, err := NewApplication(context.Background(), f.cfg, f.deps)
	assert.ErrorIs(t, err, config.ErrNoHosts)
}

func TestNewApplication_ValidatesConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.RunConfig)
		wantErr error
	}{
		{
			name:    "missing working directory",
			mutate:  func(cfg *config.RunConfig) { cfg.WorkingDirectory = "/does/not/exist" },
			wantErr: config.ErrInvalidPath,
		},
		{
			name:    "missing assembly",
			mutate:  func(cfg *config.RunConfig) { cfg.TestAssemblyPath = "/does/not/exist.yaml" },
			wantErr: config.ErrInvalidPath,
		},
		{
			name: "both filters",
			mutate: func(cfg *config.RunConfig) {
				cfg.Fixture = "A"
				cfg.Test = "t1"
			},
			wantErr: config.ErrConflictingFilters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f.cfg.Run)
			_, err := NewApplication(context.Background(), f.cfg, f.deps)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewApplication_NormalizesHostIndex(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.SelectedHostIndex = 9
	f.app(t)
	assert.Equal(t, config.NoHostSelected, f.cfg.Run.SelectedHostIndex)
	assert.Len(t, f.cfg.Run.Hosts, 2)
}

func TestRun_HeadlessRequiresAssembly(t *testing.T) {
	f := newFixture(t)
	err := f.app(t).Run(context.Background())
	assert.ErrorIs(t, err, ErrAssemblyRequired)
	assert.Empty(t, f.adapter.executed)
}

func TestRun_HeadlessDefaults(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.TestAssemblyPath = f.manifest
	f.cfg.Run.Timeout = 3 * time.Second

	a := f.app(t)
	require.NoError(t, a.Run(context.Background()))

	require.NotNil(t, f.opts)
	assert.Equal(t, filepath.Join("/opt/r24", "Revit.exe"), f.opts.HostPath)
	assert.Equal(t, 3*time.Second, f.opts.Timeout)
	assert.Equal(t, f.cfg.ExecutableDir, f.cfg.Run.WorkingDirectory)

	require.Len(t, f.adapter.executed, 1)
	unit := f.adapter.executed[0]
	assert.Equal(t, host.UnitAssembly, unit.Kind)
	assert.Equal(t, filepath.Join(f.cfg.ExecutableDir, "Sample.dll"), unit.Assembly)
	assert.Equal(t, 3, f.cfg.Run.RunCount)
	assert.Contains(t, f.stdout.String(), "All units passed")

	require.NoError(t, a.Shutdown())
	assert.GreaterOrEqual(t, f.adapter.cleanups.Load(), int32(2))
}

func TestRun_HeadlessUsesSelectedHost(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.TestAssemblyPath = f.manifest
	f.cfg.Run.SelectedHostIndex = 1
	f.cfg.Run.Test = "t2"

	require.NoError(t, f.app(t).Run(context.Background()))
	assert.Equal(t, filepath.Join("/opt/r25", "Revit.exe"), f.opts.HostPath)
	require.Len(t, f.adapter.executed, 1)
	assert.Equal(t, "A.t2", f.adapter.executed[0].Name())
}

func TestRun_HeadlessReportsFailures(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.TestAssemblyPath = f.manifest
	f.cfg.Output = orchestrator.OutputQuiet
	f.adapter.status = host.StatusFailure

	err := f.app(t).Run(context.Background())
	assert.ErrorIs(t, err, ErrUnitsFailed)
	assert.Contains(t, f.stdout.String(), "1/1 units failed")
}

func TestRun_HeadlessMissingFixture(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.TestAssemblyPath = f.manifest
	f.cfg.Run.Fixture = "Z"

	err := f.app(t).Run(context.Background())
	assert.ErrorIs(t, err, selector.ErrFixtureNotFound)
	assert.Empty(t, f.adapter.executed)
}

func TestRun_HeadlessUnknownOutput(t *testing.T) {
	f := newFixture(t)
	f.cfg.Run.TestAssemblyPath = f.manifest
	f.cfg.Output = "yaml"

	err := f.app(t).Run(context.Background())
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRun_Interactive(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	f := newFixture(t)
	require.NoError(t, config.SaveSettings(config.Settings{
		AssemblyPath:    f.manifest,
		ResultsPath:     filepath.Join(home, "results.xml"),
		TimeoutMs:       5000,
		SelectedProduct: 1,
	}))
	f.cfg.Run.GUI = true

	var called bool
	f.deps.Interactive = func(ctx context.Context, opts model.Options) error {
		called = true
		cfg := opts.Config
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, 1, cfg.SelectedHostIndex)
		assert.Equal(t, f.cfg.ExecutableDir, cfg.WorkingDirectory)
		require.Len(t, cfg.Assemblies, 1)
		assert.NotNil(t, opts.LogChannel)

		orch, err := opts.NewOrchestrator(cfg)
		require.NoError(t, err)
		_, err = orch.Execute(ctx, cfg, cfg.Assemblies)
		require.NoError(t, err)

		cfg.Debug = true
		return nil
	}

	a := f.app(t)
	require.NoError(t, a.Run(context.Background()))
	require.True(t, called)
	assert.Equal(t, filepath.Join("/opt/r25", "Revit.exe"), f.opts.HostPath)
	require.NoError(t, a.Shutdown())

	saved, err := config.LoadSettings()
	require.NoError(t, err)
	assert.True(t, saved.IsDebug)
	assert.Equal(t, 5000, saved.TimeoutMs)
	assert.Equal(t, f.manifest, saved.AssemblyPath)
}

func TestRun_RecoversPanics(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	f := newFixture(t)
	f.cfg.Run.GUI = true
	f.deps.Interactive = func(context.Context, model.Options) error {
		panic("boom")
	}

	err := f.app(t).Run(context.Background())
	assert.EqualError(t, err, "unexpected error: boom")
}

func TestApplySettingsKeepingFlags(t *testing.T) {
	savedDir := t.TempDir()
	cfg := config.DefaultRunConfig()
	cfg.Hosts = make([]config.HostInstance, 3)
	cfg.TestAssemblyPath = "/flag/manifest.yaml"
	cfg.SelectedHostIndex = 2

	applySettingsKeepingFlags(cfg, config.Settings{
		WorkingDirectory: savedDir,
		AssemblyPath:     "/saved/manifest.yaml",
		ResultsPath:      "/saved/results.xml",
		TimeoutMs:        1000,
		SelectedProduct:  0,
	}, "/exe", false)

	assert.Equal(t, savedDir, cfg.WorkingDirectory)
	assert.Equal(t, "/flag/manifest.yaml", cfg.TestAssemblyPath)
	assert.Equal(t, "/saved/results.xml", cfg.ResultsPath)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.SelectedHostIndex)
}

func TestApplySettingsKeepingFlags_Timeout(t *testing.T) {
	tests := []struct {
		name        string
		keepTimeout bool
		saved       config.Settings
		want        time.Duration
	}{
		{name: "flag beats saved", keepTimeout: true, saved: config.Settings{TimeoutMs: 1000}, want: 5 * time.Second},
		{name: "flag beats defaults", keepTimeout: true, saved: config.DefaultSettings(), want: 5 * time.Second},
		{name: "saved without flag", saved: config.Settings{TimeoutMs: 1000}, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultRunConfig()
			cfg.Timeout = 5 * time.Second

			applySettingsKeepingFlags(cfg, tt.saved, "/exe", tt.keepTimeout)
			assert.Equal(t, tt.want, cfg.Timeout)
		})
	}
}

func TestRun_InteractiveKeepsTimeoutFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, config.SaveSettings(config.Settings{TimeoutMs: 1000, SelectedProduct: config.NoHostSelected}))

	f := newFixture(t)
	f.cfg.Run.GUI = true
	f.cfg.Run.Timeout = 5 * time.Second
	f.cfg.TimeoutSet = true

	var got time.Duration
	f.deps.Interactive = func(_ context.Context, opts model.Options) error {
		got = opts.Config.Timeout
		return nil
	}

	require.NoError(t, f.app(t).Run(context.Background()))
	assert.Equal(t, 5*time.Second, got)
}

func TestNewDiscoverer(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Revit 2024"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Revit 2024", "Revit.exe"), nil, 0755))

	hostsFile := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(hostsFile, []byte("hosts:\n  - name: Custom\n    installLocation: /opt/custom\n"), 0644))

	hosts, err := NewDiscoverer(hostsFile, []string{root}, "Revit.exe").Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "Custom", hosts[0].Name)
	assert.Equal(t, "Revit 2024", hosts[1].Name)
}

func TestHosts(t *testing.T) {
	f := newFixture(t)
	a := f.app(t)
	require.Len(t, a.Hosts(), 2)
	assert.Equal(t, "Revit 2025", a.Hosts()[1].Name)
}

func TestServeMCP_StopsWithContext(t *testing.T) {
	f := newFixture(t)
	a := f.app(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := a.ServeMCP(ctx, "test", bytes.NewReader(nil), &out)
	assert.NoError(t, err)
	assert.Equal(t, f.cfg.ExecutableDir, f.cfg.Run.WorkingDirectory)
}
