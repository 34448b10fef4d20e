package view

import (
	"context"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/internal/orchestrator"
	"rtfctl/internal/tui/model"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func newTestModel(width, height int) *model.Model {
	cfg := config.DefaultRunConfig()
	cfg.WorkingDirectory = "/work"
	cfg.TestAssemblyPath = "/work/tests.yaml"
	cfg.Hosts = []config.HostInstance{{Name: "Revit 2024", InstallLocation: "/opt/r24"}}
	cfg.Assemblies = []assembly.AssemblyData{
		{
			Name: "Walls",
			Fixtures: []assembly.FixtureData{
				{Name: "WallTests", Tests: []assembly.TestData{{Name: "Create"}, {Name: "Delete"}}},
			},
		},
	}
	m := model.NewModel(context.Background(), model.Options{Config: cfg})
	m.Width = width
	m.Height = height
	return m
}

func TestRender_WaitsForWindowSize(t *testing.T) {
	m := newTestModel(0, 0)
	assert.Contains(t, Render(m), "Initializing")

	m = newTestModel(20, 5)
	assert.Contains(t, Render(m), "too small")
}

func TestRender_Main(t *testing.T) {
	m := newTestModel(100, 30)
	m.Config.Fixture = "WallTests"
	m.Results["Walls"] = host.StatusSuccess

	out := Render(m)
	for _, want := range []string{
		"rtfctl",
		"/work/tests.yaml",
		"default: Revit 2024",
		"fixture WallTests",
		"Walls (2)",
		IconFilter + " WallTests",
		IconCheck,
		"Create",
		"idle",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_HeaderStates(t *testing.T) {
	m := newTestModel(100, 30)
	m.Running = true
	m.CurrentUnit = "Walls"
	m.Completed, m.Total = 1, 2
	assert.Contains(t, renderHeader(m, 100), "Walls  1/2")

	m.Stopping = true
	assert.Contains(t, renderHeader(m, 100), "stopping after Walls")

	m.Running, m.Stopping = false, false
	m.LastSummary = &orchestrator.RunSummary{Passed: 1, Failed: 1, Duration: 1500 * time.Millisecond}
	assert.Contains(t, renderHeader(m, 100), "1 passed, 1 failed, 0 timed out, 0 skipped in 1.5s")
}

func TestRender_StatusBar(t *testing.T) {
	m := newTestModel(100, 30)
	assert.Contains(t, renderStatusBar(m, 100), "run")

	m.StatusBarMessage = "Loaded 1 assemblies"
	m.StatusBarMessageType = model.StatusBarSuccess
	assert.Contains(t, renderStatusBar(m, 100), "Loaded 1 assemblies")
}

func TestRender_HelpOverlay(t *testing.T) {
	m := newTestModel(100, 30)
	m.CurrentAppMode = model.ModeHelpOverlay
	out := Render(m)
	assert.Contains(t, out, "toggle concatenate")
	assert.Contains(t, out, "next host")
	assert.False(t, m.Help.ShowAll, "rendering must not change the model")
}

func TestRender_LogOverlay(t *testing.T) {
	m := newTestModel(100, 30)
	m.CurrentAppMode = model.ModeLogOverlay
	assert.Contains(t, Render(m), "Activity Log")
}

func TestHostLabel(t *testing.T) {
	cfg := config.DefaultRunConfig()
	assert.Equal(t, "(none)", hostLabel(cfg))

	cfg.Hosts = []config.HostInstance{{Name: "A"}, {Name: "B"}}
	cfg.SelectedHostIndex = 1
	assert.Equal(t, "B (2/2)", hostLabel(cfg))

	cfg.HostPath = "/x/Revit.exe"
	assert.Equal(t, "/x/Revit.exe", hostLabel(cfg))
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		n, cursor, height int
		start, end        int
	}{
		{5, 0, 10, 0, 5},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.n, tt.cursor, tt.height)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("界", 10)
	got := truncate(long, 9)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 9)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Empty(t, truncate("x", 0))
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, IconCheck, StatusIcon(host.StatusSuccess))
	assert.Equal(t, IconCross, StatusIcon(host.StatusFailure))
	assert.Equal(t, IconHourglass, StatusIcon(host.StatusTimeout))
	assert.Equal(t, IconSkip, StatusIcon(host.StatusSkipped))
	assert.Equal(t, "x ", SafeIcon("x"))
}

func TestPrepareLogContent(t *testing.T) {
	out := PrepareLogContent([]string{"a [ERROR] b", "c [INFO] d"})
	assert.Contains(t, out, "a [ERROR] b")
	assert.Contains(t, out, "c [INFO] d")
}
