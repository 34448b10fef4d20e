// Package view renders the interactive front end from the model state.
package view

import (
	"fmt"
	"path/filepath"
	"rtfctl/internal/config"
	"rtfctl/internal/tui/design"
	"rtfctl/internal/tui/model"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth  = 40
	minHeight = 12
	// logPanelLines is the number of activity log lines on the main screen.
	logPanelLines = 5
)

// Render renders the UI according to the current model state.
func Render(m *model.Model) string {
	if m.Width == 0 || m.Height == 0 {
		return design.TextSecondaryStyle.Render("Initializing... (waiting for window size)")
	}
	if m.Width < minWidth || m.Height < minHeight {
		return design.TextWarningStyle.Render("Window too small")
	}

	switch m.CurrentAppMode {
	case model.ModeHelpOverlay:
		return renderHelpOverlay(m)
	case model.ModeLogOverlay:
		return renderLogOverlay(m)
	}
	return renderMain(m)
}

func renderMain(m *model.Model) string {
	width := m.Width
	header := renderHeader(m, width)
	settings := renderSettingsPanel(m, width)
	logPanel := renderLogPanel(m, width)
	status := renderStatusBar(m, width)

	used := lipgloss.Height(header) + lipgloss.Height(settings) + lipgloss.Height(logPanel) + lipgloss.Height(status)
	tree := renderTree(m, width, m.Height-used)

	return lipgloss.JoinVertical(lipgloss.Left, header, settings, tree, logPanel, status)
}

func renderHeader(m *model.Model, width int) string {
	title := design.TitleStyle.Render("rtfctl")
	var right string
	switch {
	case m.Running && m.Stopping:
		right = design.TextWarningStyle.Render(fmt.Sprintf("%s stopping after %s", m.Spinner.View(), m.CurrentUnit))
	case m.Running:
		right = fmt.Sprintf("%s %s  %d/%d", m.Spinner.View(), m.CurrentUnit, m.Completed, m.Total)
	case m.LastSummary != nil:
		s := m.LastSummary
		text := fmt.Sprintf("last run: %d passed, %d failed, %d timed out, %d skipped in %s",
			s.Passed, s.Failed, s.TimedOut, s.Skipped, s.Duration.Round(time.Millisecond))
		if s.Succeeded() {
			right = design.TextSuccessStyle.Render(text)
		} else {
			right = design.TextErrorStyle.Render(text)
		}
	default:
		right = design.TextSecondaryStyle.Render("idle")
	}
	gap := width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		return truncate(title+" "+right, width)
	}
	return " " + title + strings.Repeat(" ", gap) + right + " "
}

func renderSettingsPanel(m *model.Model, width int) string {
	cfg := m.Config
	inner := width - design.PanelStyle.GetHorizontalFrameSize()
	lines := []string{
		field("Working dir", orNone(cfg.WorkingDirectory)),
		field("Assembly", orNone(cfg.TestAssemblyPath)),
		field("Results", orNone(cfg.ResultsPath)),
		field("Host", hostLabel(cfg)),
		field("Target", targetLabel(cfg)),
		field("Options", fmt.Sprintf("concatenate=%t debug=%t timeout=%s", cfg.Concatenate, cfg.Debug, cfg.Timeout)),
	}
	for i := range lines {
		lines[i] = truncate(lines[i], inner)
	}
	return design.PanelStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

func field(label, value string) string {
	return design.TextSecondaryStyle.Render(fmt.Sprintf("%-12s", label)) + value
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func hostLabel(cfg *config.RunConfig) string {
	if cfg.HostPath != "" {
		return cfg.HostPath
	}
	if h, ok := cfg.SelectedHost(); ok {
		return fmt.Sprintf("%s (%d/%d)", h.Name, cfg.SelectedHostIndex+1, len(cfg.Hosts))
	}
	if len(cfg.Hosts) > 0 {
		return fmt.Sprintf("default: %s", cfg.Hosts[0].Name)
	}
	return "(none)"
}

func targetLabel(cfg *config.RunConfig) string {
	switch {
	case cfg.Fixture != "":
		return "fixture " + cfg.Fixture
	case cfg.Test != "":
		return "test " + cfg.Test
	default:
		return "all assemblies"
	}
}

// renderTree shows the rows around the cursor that fit into height lines.
func renderTree(m *model.Model, width, height int) string {
	inner := width - design.PanelFocusedStyle.GetHorizontalFrameSize()
	visible := height - design.PanelFocusedStyle.GetVerticalFrameSize()
	if visible < 1 {
		visible = 1
	}

	var lines []string
	if len(m.Rows) == 0 {
		msg := "No assembly loaded"
		if m.Config.TestAssemblyPath != "" {
			msg = fmt.Sprintf("No tests in %s", filepath.Base(m.Config.TestAssemblyPath))
		}
		lines = append(lines, design.TextTertiaryStyle.Render(msg))
	} else {
		start, end := visibleRange(len(m.Rows), m.Cursor, visible)
		for i := start; i < end; i++ {
			lines = append(lines, renderRow(m, i, inner))
		}
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return design.PanelFocusedStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

// visibleRange returns the window of n rows of size height keeping cursor in view.
func visibleRange(n, cursor, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func renderRow(m *model.Model, i, width int) string {
	row := m.Rows[i]
	indent := strings.Repeat("  ", int(row.Kind))

	marker := " "
	if m.IsFiltered(row) {
		marker = IconFilter
	}
	text := indent + marker + " " + row.Label()
	if row.Kind != model.RowTest {
		text += fmt.Sprintf(" (%d)", row.Tests)
	}
	if status, ok := m.Results[row.ResultKey()]; ok {
		text = SafeIcon(StatusIcon(status)) + text
	} else if m.Running && m.CurrentUnit == row.ResultKey() {
		text = SafeIcon(IconPlay) + text
	} else {
		text = "  " + text
	}
	text = truncate(text, width-design.ListItemStyle.GetHorizontalFrameSize())

	if i == m.Cursor {
		return design.ListItemSelectedStyle.Render(text)
	}
	return design.ListItemStyle.Render(text)
}

func renderStatusBar(m *model.Model, width int) string {
	if m.StatusBarMessage == "" {
		return design.StatusBarStyle.Width(width).Render(truncate(m.Help.ShortHelpView(m.Keys.ShortHelp()), width-4))
	}
	style := design.StatusBarInfoStyle
	switch m.StatusBarMessageType {
	case model.StatusBarSuccess:
		style = design.StatusBarSuccessStyle
	case model.StatusBarWarning:
		style = design.StatusBarWarningStyle
	case model.StatusBarError:
		style = design.StatusBarErrorStyle
	}
	return style.Width(width).Render(truncate(m.StatusBarMessage, width-4))
}

func renderHelpOverlay(m *model.Model) string {
	h := m.Help
	h.ShowAll = true
	content := lipgloss.JoinVertical(lipgloss.Left,
		design.TitleStyle.Render(IconText(IconGear, "Keys")),
		"",
		h.View(m.Keys),
	)
	overlay := design.OverlayStyle.Render(content)
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, overlay)
}
