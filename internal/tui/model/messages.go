package model

import (
	"context"
	"rtfctl/internal/assembly"
	"rtfctl/internal/config"
	"rtfctl/internal/orchestrator"
	"rtfctl/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// NewLogEntryMsg carries a log entry from the logging channel.
type NewLogEntryMsg struct {
	Entry logging.LogEntry
}

// RunEventMsg carries a progress event of the current run.
type RunEventMsg struct {
	Event orchestrator.Event
}

// RunFinishedMsg is sent when Execute returns.
type RunFinishedMsg struct {
	Summary *orchestrator.RunSummary
	Err     error
}

// AssembliesLoadedMsg is sent when the assembly manifest was (re)loaded.
type AssembliesLoadedMsg struct {
	Assemblies []assembly.AssemblyData
	Err        error
}

// ClearStatusBarMsg clears the status bar message.
type ClearStatusBarMsg struct{}

// ListenForLogEntriesCmd waits for the next log entry.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return NewLogEntryMsg{Entry: entry}
	}
}

// ListenForRunEventsCmd waits for the next run event until done is closed.
func ListenForRunEventsCmd(events <-chan orchestrator.Event, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-events:
			return RunEventMsg{Event: ev}
		case <-done:
			return nil
		}
	}
}

// RunCmd executes one pass with a snapshot of cfg and closes done afterwards.
func RunCmd(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.RunConfig, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		defer close(done)
		summary, err := orch.Execute(ctx, &cfg, cfg.Assemblies)
		return RunFinishedMsg{Summary: summary, Err: err}
	}
}

// LoadAssembliesCmd reads the manifest at path.
func LoadAssembliesCmd(path, workingDir string) tea.Cmd {
	return func() tea.Msg {
		assemblies, err := assembly.Load(path, workingDir)
		return AssembliesLoadedMsg{Assemblies: assemblies, Err: err}
	}
}
