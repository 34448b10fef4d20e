package model

import (
	"context"
	"rtfctl/internal/assembly"
	"rtfctl/internal/host"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "navigate up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "navigate down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select target"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "run everything"),
		),
		Run: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "run"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "f5"),
			key.WithHelp("R", "reload assembly"),
		),
		NextHost: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next host"),
		),
		ToggleConcat: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle concatenate"),
		),
		ToggleDebug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle debug"),
		),
		CopyResults: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy results path"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle log"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewModel creates the model for opts.
func NewModel(ctx context.Context, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		Ctx:             ctx,
		Config:          opts.Config,
		NewOrchestrator: opts.NewOrchestrator,
		LogChannel:      opts.LogChannel,
		Results:         make(map[string]host.Status),
		LogViewport:     viewport.New(0, 0),
		Spinner:         s,
		Help:            help.New(),
		Keys:            DefaultKeyMap(),
	}
	m.SetAssemblies(opts.Config.Assemblies)
	return m
}

// Init starts listening for log entries.
func (m *Model) Init() tea.Cmd {
	return ListenForLogEntriesCmd(m.LogChannel)
}

// SetAssemblies replaces the loaded assemblies and rebuilds the tree.
func (m *Model) SetAssemblies(assemblies []assembly.AssemblyData) {
	m.Config.Assemblies = assemblies
	m.Rows = BuildRows(assemblies)
	if m.Cursor >= len(m.Rows) {
		m.Cursor = max(len(m.Rows)-1, 0)
	}
}

// BuildRows flattens assemblies into tree rows in declaration order.
func BuildRows(assemblies []assembly.AssemblyData) []Row {
	var rows []Row
	for _, a := range assemblies {
		rows = append(rows, Row{Kind: RowAssembly, Assembly: a.Name, Tests: a.TestCount()})
		for _, f := range a.Fixtures {
			rows = append(rows, Row{Kind: RowFixture, Assembly: a.Name, Fixture: f.Name, Tests: f.TestCount()})
			for _, t := range f.Tests {
				rows = append(rows, Row{Kind: RowTest, Assembly: a.Name, Fixture: f.Name, Test: t.Name, Tests: 1})
			}
		}
	}
	return rows
}
