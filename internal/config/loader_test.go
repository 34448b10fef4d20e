package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSettingsPath(t *testing.T, path string) {
	t.Helper()
	original := getSettingsPath
	t.Cleanup(func() { getSettingsPath = original })
	getSettingsPath = func() (string, error) { return path, nil }
}

func TestLoadSettings_MissingFileYieldsDefaults(t *testing.T) {
	withSettingsPath(t, filepath.Join(t.TempDir(), "missing", "settings.yaml"))

	settings, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	assert.Equal(t, 120000, settings.TimeoutMs)
	assert.Equal(t, NoHostSelected, settings.SelectedProduct)
}

func TestSaveAndLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	withSettingsPath(t, path)

	want := Settings{
		WorkingDirectory: "/work",
		AssemblyPath:     "/work/manifest.yaml",
		ResultsPath:      "/work/results.xml",
		IsDebug:          true,
		TimeoutMs:        5000,
		SelectedProduct:  1,
	}
	require.NoError(t, SaveSettings(want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "selectedProduct: 1")
	assert.Contains(t, string(data), "timeout: 5000")

	got, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	withSettingsPath(t, path)
	require.NoError(t, os.WriteFile(path, []byte("isDebug: true\n"), 0644))

	got, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, got.IsDebug)
	assert.Equal(t, 120000, got.TimeoutMs)
	assert.Equal(t, NoHostSelected, got.SelectedProduct)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	withSettingsPath(t, path)
	require.NoError(t, os.WriteFile(path, []byte("timeout: [not a number\n"), 0644))

	got, err := LoadSettings()
	assert.Error(t, err)
	assert.Equal(t, DefaultSettings(), got)
}

func TestLoadSettings_PathError(t *testing.T) {
	original := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = original })
	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := LoadSettings()
	assert.ErrorContains(t, err, "could not determine settings path")

	_, err = GetUserConfigDir()
	assert.Error(t, err)
}

func TestGetUserConfigDir(t *testing.T) {
	original := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = original })
	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	dir, err := GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "rtfctl"), dir)
}

func TestApplySettings_RoundTrip(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Hosts = []HostInstance{{Name: "Revit 2024"}, {Name: "Revit 2025"}}

	cfg.ApplySettings(Settings{
		AssemblyPath:    "/a.yaml",
		ResultsPath:     "/r.xml",
		IsDebug:         true,
		TimeoutMs:       3000,
		SelectedProduct: 1,
	}, "/exe/dir")

	assert.Equal(t, "/exe/dir", cfg.WorkingDirectory)
	assert.Equal(t, "/a.yaml", cfg.TestAssemblyPath)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.SelectedHostIndex)
	assert.True(t, cfg.Debug)

	s := cfg.Settings()
	assert.Equal(t, "/exe/dir", s.WorkingDirectory)
	assert.Equal(t, 3000, s.TimeoutMs)
	assert.Equal(t, 1, s.SelectedProduct)
}

func TestApplySettings_WorkingDirectory(t *testing.T) {
	saved := t.TempDir()
	removed := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(removed, 0755))
	require.NoError(t, os.Remove(removed))
	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, nil, 0644))

	tests := []struct {
		name  string
		saved string
		want  string
	}{
		{name: "existing directory", saved: saved, want: saved},
		{name: "directory removed since save", saved: removed, want: "/exe/dir"},
		{name: "path is a file", saved: notDir, want: "/exe/dir"},
		{name: "nothing saved", saved: "", want: "/exe/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			cfg.ApplySettings(Settings{WorkingDirectory: tt.saved}, "/exe/dir")
			assert.Equal(t, tt.want, cfg.WorkingDirectory)
		})
	}
}

func TestGetSettingsPath_UsesUserConfigDir(t *testing.T) {
	original := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = original })
	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	path, err := getSettingsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "rtfctl", "settings.yaml"), path)
}

func TestApplySettings_OutOfRangeProduct(t *testing.T) {
	tests := []struct {
		name     string
		hosts    int
		selected int
		want     int
	}{
		{name: "beyond last", hosts: 2, selected: 5, want: NoHostSelected},
		{name: "equal to count", hosts: 2, selected: 2, want: NoHostSelected},
		{name: "no hosts", hosts: 0, selected: 0, want: NoHostSelected},
		{name: "negative", hosts: 2, selected: -3, want: NoHostSelected},
		{name: "last valid", hosts: 2, selected: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			cfg.Hosts = make([]HostInstance, tt.hosts)
			cfg.ApplySettings(Settings{SelectedProduct: tt.selected}, "")
			assert.Equal(t, tt.want, cfg.SelectedHostIndex)
			assert.Equal(t, DefaultTimeout, cfg.Timeout, "zero timeout keeps the default")
		})
	}
}
