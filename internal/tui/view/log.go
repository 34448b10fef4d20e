package view

import (
	"rtfctl/internal/tui/design"
	"rtfctl/internal/tui/model"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderLogPanel(m *model.Model, width int) string {
	inner := width - design.PanelStyle.GetHorizontalFrameSize()
	lines := tail(m.ActivityLog, logPanelLines)
	for i, l := range lines {
		lines[i] = styleLogLine(truncate(l, inner))
	}
	for len(lines) < logPanelLines {
		lines = append(lines, "")
	}
	return design.PanelStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

func renderLogOverlay(m *model.Model) string {
	title := design.TitleStyle.Render(IconText(IconScroll, "Activity Log  (↑/↓ scroll  •  y copy  •  Esc close)"))
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.LogViewport.View())
	return design.OverlayStyle.
		Width(m.Width - design.OverlayStyle.GetHorizontalFrameSize()).
		Height(m.Height - design.OverlayStyle.GetVerticalFrameSize()).
		Render(content)
}

// PrepareLogContent styles lines for the log viewport.
func PrepareLogContent(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = styleLogLine(l)
	}
	return strings.Join(out, "\n")
}

func styleLogLine(l string) string {
	switch {
	case strings.Contains(l, "[ERROR]"):
		return design.TextErrorStyle.Render(l)
	case strings.Contains(l, "[WARN]"):
		return design.TextWarningStyle.Render(l)
	case strings.Contains(l, "[DEBUG]"):
		return design.TextTertiaryStyle.Render(l)
	default:
		return design.TextStyle.Render(l)
	}
}

func tail(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
