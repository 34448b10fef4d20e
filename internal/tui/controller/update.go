package controller

import (
	"fmt"
	"rtfctl/internal/host"
	"rtfctl/internal/orchestrator"
	"rtfctl/internal/tui/model"
	"rtfctl/internal/tui/view"
	"rtfctl/pkg/logging"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTimeout = 3 * time.Second

// Update applies msg to m and returns the follow-up command.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return handleWindowSizeMsg(m, msg), nil

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case model.NewLogEntryMsg:
		m = handleNewLogEntry(m, msg)
		return m, model.ListenForLogEntriesCmd(m.LogChannel)

	case model.RunEventMsg:
		m = handleRunEvent(m, msg.Event)
		if !m.Running {
			return m, nil
		}
		return m, model.ListenForRunEventsCmd(m.RunEvents, m.RunDone)

	case model.RunFinishedMsg:
		return handleRunFinished(m, msg)

	case model.AssembliesLoadedMsg:
		return handleAssembliesLoaded(m, msg)

	case model.ClearStatusBarMsg:
		m.StatusBarMessage = ""
		if m.StatusBarClearCancel != nil {
			close(m.StatusBarClearCancel)
			m.StatusBarClearCancel = nil
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleWindowSizeMsg records the terminal size and resizes the log viewport.
func handleWindowSizeMsg(m *model.Model, msg tea.WindowSizeMsg) *model.Model {
	m.Width = msg.Width
	m.Height = msg.Height
	m.LogViewport.Width = max(msg.Width-6, 0)
	m.LogViewport.Height = max(msg.Height-5, 0)
	return m
}

func handleNewLogEntry(m *model.Model, msg model.NewLogEntryMsg) *model.Model {
	entry := msg.Entry

	// Debug lines only show up when debug mode is on.
	if entry.Level >= logging.LevelInfo || m.Config.Debug {
		logLine := fmt.Sprintf("%s [%s] [%s] %s",
			entry.Timestamp.Format("15:04:05.000"),
			entry.Level.String(),
			entry.Subsystem,
			entry.Message)

		if entry.Err != nil {
			logLine = fmt.Sprintf("%s -- Error: %v", logLine, entry.Err)
		}
		model.AddRawLineToActivityLog(m, logLine)
	}
	if m.CurrentAppMode == model.ModeLogOverlay && m.ActivityLogDirty {
		refreshLogViewport(m)
	}
	return m
}

func refreshLogViewport(m *model.Model) {
	m.LogViewport.SetContent(view.PrepareLogContent(m.ActivityLog))
	m.LogViewport.GotoBottom()
	m.ActivityLogDirty = false
}

func handleRunEvent(m *model.Model, ev orchestrator.Event) *model.Model {
	m.Completed = ev.Completed
	m.Total = ev.Total
	switch ev.Type {
	case orchestrator.EventUnitStarted:
		m.CurrentUnit = ev.Unit.Name()
	case orchestrator.EventUnitFinished:
		if ev.Result != nil {
			m.Results[ev.Result.Name] = ev.Result.Status
		}
	}
	return m
}

func handleRunFinished(m *model.Model, msg model.RunFinishedMsg) (*model.Model, tea.Cmd) {
	m.Running = false
	m.Stopping = false
	m.CurrentUnit = ""
	m.RunEvents = nil

	if msg.Err != nil {
		logging.Error("TUI", msg.Err, "run failed")
		if m.QuitRequested {
			return m, tea.Quit
		}
		return m, m.SetStatusMessage(fmt.Sprintf("Run failed: %v", msg.Err), model.StatusBarError, 5*time.Second)
	}

	s := msg.Summary
	m.LastSummary = s
	m.Completed, m.Total = 0, s.RunCount
	for _, r := range s.Units {
		m.Results[r.Name] = r.Status
		if r.Status != host.StatusSkipped {
			m.Completed += r.Expected
		}
	}
	if m.QuitRequested {
		return m, tea.Quit
	}

	switch {
	case s.Stopped:
		return m, m.SetStatusMessage("Run stopped", model.StatusBarWarning, statusTimeout)
	case s.Succeeded():
		return m, m.SetStatusMessage(fmt.Sprintf("Run finished: %d unit(s) passed", s.Passed), model.StatusBarSuccess, statusTimeout)
	default:
		return m, m.SetStatusMessage(fmt.Sprintf("Run finished: %d failed, %d timed out", s.Failed, s.TimedOut), model.StatusBarError, 5*time.Second)
	}
}

func handleAssembliesLoaded(m *model.Model, msg model.AssembliesLoadedMsg) (*model.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Error("TUI", msg.Err, "failed to load test assembly")
		return m, m.SetStatusMessage("Failed to load test assembly", model.StatusBarError, 5*time.Second)
	}
	m.SetAssemblies(msg.Assemblies)
	clear(m.Results)
	m.LastSummary = nil
	return m, m.SetStatusMessage(fmt.Sprintf("Loaded %d assemblies", len(msg.Assemblies)), model.StatusBarSuccess, statusTimeout)
}
