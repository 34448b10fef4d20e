package controller

import (
	"context"
	"fmt"
	"rtfctl/internal/tui/model"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the Bubble Tea program for opts together with its model.
func NewProgram(ctx context.Context, opts model.Options) (*tea.Program, *model.Model) {
	m := model.NewModel(ctx, opts)
	p := tea.NewProgram(NewAppModel(m), tea.WithAltScreen(), tea.WithContext(ctx))
	return p, m
}

// Run shows the interactive front end until the user quits. A run still in
// progress on exit is aborted and waited for.
func Run(ctx context.Context, opts model.Options) error {
	if opts.Config == nil {
		return fmt.Errorf("interactive mode requires a run configuration")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, m := NewProgram(runCtx, opts)
	_, err := p.Run()

	cancel()
	if m.Running && m.RunDone != nil {
		<-m.RunDone
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
