package controller

import (
	"fmt"
	"rtfctl/internal/config"
	"rtfctl/internal/tui/model"
	"rtfctl/pkg/logging"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

func handleKeyMsg(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if key.Matches(keyMsg, m.Keys.Quit) {
		return handleQuit(m)
	}

	switch m.CurrentAppMode {
	case model.ModeLogOverlay:
		return handleLogOverlayKey(m, keyMsg)
	case model.ModeHelpOverlay:
		if key.Matches(keyMsg, m.Keys.Help, m.Keys.ClearFilter) {
			m.CurrentAppMode = model.ModeMain
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Help):
		m.CurrentAppMode = model.ModeHelpOverlay
		return m, nil
	case key.Matches(keyMsg, m.Keys.ToggleLog):
		m.CurrentAppMode = model.ModeLogOverlay
		refreshLogViewport(m)
		return m, nil
	case key.Matches(keyMsg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case key.Matches(keyMsg, m.Keys.Down):
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
		return m, nil
	case key.Matches(keyMsg, m.Keys.Select):
		return handleSelect(m)
	case key.Matches(keyMsg, m.Keys.ClearFilter):
		if m.Running {
			return m, nil
		}
		m.Config.Fixture, m.Config.Test = "", ""
		return m, m.SetStatusMessage("Target: all assemblies", model.StatusBarInfo, statusTimeout)
	case key.Matches(keyMsg, m.Keys.Run):
		return handleRun(m)
	case key.Matches(keyMsg, m.Keys.Stop):
		return handleStop(m)
	case key.Matches(keyMsg, m.Keys.Refresh):
		return handleRefresh(m)
	case key.Matches(keyMsg, m.Keys.NextHost):
		return handleNextHost(m)
	case key.Matches(keyMsg, m.Keys.ToggleConcat):
		if m.Running {
			return m, busy(m)
		}
		m.Config.Concatenate = !m.Config.Concatenate
		return m, m.SetStatusMessage(fmt.Sprintf("Concatenate results: %t", m.Config.Concatenate), model.StatusBarInfo, statusTimeout)
	case key.Matches(keyMsg, m.Keys.ToggleDebug):
		if m.Running {
			return m, busy(m)
		}
		m.Config.Debug = !m.Config.Debug
		return m, m.SetStatusMessage(fmt.Sprintf("Debug: %t", m.Config.Debug), model.StatusBarInfo, statusTimeout)
	case key.Matches(keyMsg, m.Keys.CopyResults):
		return handleCopyResults(m)
	}
	return m, nil
}

func busy(m *model.Model) tea.Cmd {
	return m.SetStatusMessage("A run is in progress", model.StatusBarWarning, statusTimeout)
}

func handleLogOverlayKey(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "L", "esc":
		m.CurrentAppMode = model.ModeMain
		return m, nil
	case "y":
		if err := clipboardWriteAll(strings.Join(m.ActivityLog, "\n")); err != nil {
			logging.Error("TUI", err, "failed to copy logs")
			return m, m.SetStatusMessage("Copy logs failed", model.StatusBarError, statusTimeout)
		}
		return m, m.SetStatusMessage("Logs copied to clipboard", model.StatusBarSuccess, statusTimeout)
	case "k", "up", "j", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.LogViewport, cmd = m.LogViewport.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

// handleQuit stops a run before quitting. A second quit while the run winds
// down exits immediately.
func handleQuit(m *model.Model) (*model.Model, tea.Cmd) {
	if !m.Running || m.QuitRequested {
		return m, tea.Quit
	}
	m.QuitRequested = true
	m.Stopping = true
	m.Orchestrator.Stop()
	return m, m.SetStatusMessage("Stopping run before quitting, press q again to abort", model.StatusBarWarning, 10*time.Second)
}

// handleSelect makes the row under the cursor the run target. Selecting the
// current target again, or an assembly row, clears the filters.
func handleSelect(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Running {
		return m, busy(m)
	}
	row, ok := m.SelectedRow()
	if !ok {
		return m, nil
	}

	cfg := m.Config
	switch {
	case row.Kind == model.RowAssembly || m.IsFiltered(row):
		cfg.Fixture, cfg.Test = "", ""
		return m, m.SetStatusMessage("Target: all assemblies", model.StatusBarInfo, statusTimeout)
	case row.Kind == model.RowFixture:
		cfg.Fixture, cfg.Test = row.Fixture, ""
		return m, m.SetStatusMessage("Target: fixture "+row.Fixture, model.StatusBarInfo, statusTimeout)
	default:
		cfg.Fixture, cfg.Test = "", row.Test
		return m, m.SetStatusMessage("Target: test "+row.Test, model.StatusBarInfo, statusTimeout)
	}
}

func handleRun(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Running {
		return m, busy(m)
	}
	if len(m.Config.Assemblies) == 0 {
		return m, m.SetStatusMessage("No test assembly loaded", model.StatusBarWarning, statusTimeout)
	}

	orch, err := m.NewOrchestrator(m.Config)
	if err != nil {
		logging.Error("TUI", err, "cannot start run")
		return m, m.SetStatusMessage(fmt.Sprintf("Cannot start run: %v", err), model.StatusBarError, 5*time.Second)
	}

	m.Orchestrator = orch
	m.RunEvents = orch.Subscribe()
	m.RunDone = make(chan struct{})
	m.Running = true
	m.Stopping = false
	m.CurrentUnit = ""
	m.Completed, m.Total = 0, 0
	clear(m.Results)

	// The run works on a snapshot so edits made meanwhile apply to the next run.
	snapshot := *m.Config
	return m, tea.Batch(
		model.RunCmd(m.Ctx, orch, snapshot, m.RunDone),
		model.ListenForRunEventsCmd(m.RunEvents, m.RunDone),
		m.Spinner.Tick,
	)
}

func handleStop(m *model.Model) (*model.Model, tea.Cmd) {
	if !m.Running || m.Stopping {
		return m, nil
	}
	m.Stopping = true
	m.Orchestrator.Stop()
	return m, m.SetStatusMessage("Stopping after the current unit", model.StatusBarWarning, statusTimeout)
}

func handleRefresh(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Running {
		return m, busy(m)
	}
	if m.Config.TestAssemblyPath == "" {
		return m, m.SetStatusMessage("No test assembly configured", model.StatusBarWarning, statusTimeout)
	}
	return m, model.LoadAssembliesCmd(m.Config.TestAssemblyPath, m.Config.WorkingDirectory)
}

// handleNextHost cycles through the default host and every discovered one.
func handleNextHost(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Running {
		return m, busy(m)
	}
	cfg := m.Config
	if len(cfg.Hosts) == 0 {
		return m, m.SetStatusMessage("No host instances found", model.StatusBarWarning, statusTimeout)
	}
	cfg.SelectedHostIndex++
	if cfg.SelectedHostIndex >= len(cfg.Hosts) {
		cfg.SelectedHostIndex = config.NoHostSelected
	}
	cfg.HostPath = ""

	label := "default host"
	if h, ok := cfg.SelectedHost(); ok {
		label = h.Name
	}
	return m, m.SetStatusMessage("Host: "+label, model.StatusBarInfo, statusTimeout)
}

func handleCopyResults(m *model.Model) (*model.Model, tea.Cmd) {
	if m.Config.ResultsPath == "" {
		return m, m.SetStatusMessage("No results path configured", model.StatusBarWarning, statusTimeout)
	}
	if err := clipboardWriteAll(m.Config.ResultsPath); err != nil {
		logging.Error("TUI", err, "failed to copy results path")
		return m, m.SetStatusMessage("Copy results path failed", model.StatusBarError, statusTimeout)
	}
	return m, m.SetStatusMessage("Results path copied", model.StatusBarSuccess, statusTimeout)
}
