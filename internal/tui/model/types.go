package model

import (
	"context"
	"rtfctl/internal/config"
	"rtfctl/internal/host"
	"rtfctl/internal/orchestrator"
	"rtfctl/pkg/logging"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// MaxActivityLogLines bounds the in-memory activity log.
const MaxActivityLogLines = 500

// AppMode is the screen currently shown.
type AppMode int

const (
	ModeMain AppMode = iota
	ModeHelpOverlay
	ModeLogOverlay
)

// MessageType styles the status bar message.
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarWarning
	StatusBarError
)

// Options configure the interactive front end.
type Options struct {
	// Config is the session's run context. The front end edits it in place.
	Config *config.RunConfig
	// NewOrchestrator builds an orchestrator for the host currently selected
	// in the configuration.
	NewOrchestrator func(*config.RunConfig) (*orchestrator.Orchestrator, error)
	LogChannel      <-chan logging.LogEntry
}

// RowKind is the level of a row in the test tree.
type RowKind int

const (
	RowAssembly RowKind = iota
	RowFixture
	RowTest
)

// Row is one line of the flattened assembly, fixture and test tree.
type Row struct {
	Kind     RowKind
	Assembly string
	Fixture  string
	Test     string
	Tests    int
}

// Label is the text shown for the row.
func (r Row) Label() string {
	switch r.Kind {
	case RowFixture:
		return r.Fixture
	case RowTest:
		return r.Test
	default:
		return r.Assembly
	}
}

// ResultKey is the unit name a run reports for this row.
func (r Row) ResultKey() string {
	switch r.Kind {
	case RowFixture:
		return r.Fixture
	case RowTest:
		return r.Fixture + "." + r.Test
	default:
		return r.Assembly
	}
}

// KeyMap defines the key bindings of the interactive front end.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Select       key.Binding
	ClearFilter  key.Binding
	Run          key.Binding
	Stop         key.Binding
	Refresh      key.Binding
	NextHost     key.Binding
	ToggleConcat key.Binding
	ToggleDebug  key.Binding
	CopyResults  key.Binding
	ToggleLog    key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Stop, k.Select, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.ClearFilter},
		{k.Run, k.Stop, k.Refresh, k.NextHost},
		{k.ToggleConcat, k.ToggleDebug, k.CopyResults},
		{k.ToggleLog, k.Help, k.Quit},
	}
}

// Model is the state of the interactive front end.
type Model struct {
	Ctx             context.Context
	Config          *config.RunConfig
	NewOrchestrator func(*config.RunConfig) (*orchestrator.Orchestrator, error)

	// Current run
	Orchestrator *orchestrator.Orchestrator
	RunEvents    <-chan orchestrator.Event
	RunDone      chan struct{}
	Running      bool
	Stopping     bool
	CurrentUnit  string
	Completed    int
	Total        int
	LastSummary  *orchestrator.RunSummary
	Results      map[string]host.Status

	Rows   []Row
	Cursor int

	CurrentAppMode AppMode
	QuitRequested  bool
	Width          int
	Height         int

	LogChannel       <-chan logging.LogEntry
	ActivityLog      []string
	ActivityLogDirty bool
	LogViewport      viewport.Model

	Spinner spinner.Model
	Help    help.Model
	Keys    KeyMap

	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}
}

// SetStatusMessage shows message in the status bar and clears it after
// clearAfter unless another message replaces it first.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}

	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(t time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}

// SelectedRow returns the row under the cursor.
func (m *Model) SelectedRow() (Row, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return Row{}, false
	}
	return m.Rows[m.Cursor], true
}

// IsFiltered reports whether row is the current selection filter.
func (m *Model) IsFiltered(row Row) bool {
	switch row.Kind {
	case RowFixture:
		return m.Config.Fixture != "" && m.Config.Fixture == row.Fixture
	case RowTest:
		return m.Config.Test != "" && m.Config.Test == row.Test
	default:
		return false
	}
}
