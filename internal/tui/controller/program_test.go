package controller

import (
	"context"
	"rtfctl/internal/tui/model"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgram(t *testing.T) {
	m := newTestModel(t, nil)
	p, built := NewProgram(context.Background(), model.Options{Config: m.Config})
	require.NotNil(t, p)
	require.NotNil(t, built)
	assert.Same(t, m.Config, built.Config)
	assert.Len(t, built.Rows, 7)
}

func TestRun_RequiresConfig(t *testing.T) {
	err := Run(context.Background(), model.Options{})
	assert.Error(t, err)
}

func TestAppModel_View(t *testing.T) {
	m := newTestModel(t, nil)
	app := NewAppModel(m)

	updated, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := updated.View()
	assert.Contains(t, out, "WallTests")
}
