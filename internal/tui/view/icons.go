package view

import (
	"fmt"
	"rtfctl/internal/host"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Icon constants
const (
	IconCheck     = "✔" // U+2714
	IconCross     = "✘" // U+2718
	IconHourglass = "⏳" // U+23F3
	IconSkip      = "⏭" // U+23ED without VS16
	IconPlay      = "▶" // U+25B6 without VS16
	IconFilter    = "●" // U+25CF
	IconScroll    = "📜" // U+1F4DC
	IconGear      = "⚙" // U+2699 without VS16
)

// SafeIcon pads icon so that wide glyphs do not swallow the next character.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return fmt.Sprintf("%s%s", icon, strings.Repeat(" ", spaces))
}

// IconText formats an icon with text, handling spacing properly
func IconText(icon string, text string) string {
	return SafeIcon(icon) + text
}

// StatusIcon returns the icon shown next to a unit with the given outcome.
func StatusIcon(status host.Status) string {
	switch status {
	case host.StatusSuccess:
		return IconCheck
	case host.StatusFailure:
		return IconCross
	case host.StatusTimeout:
		return IconHourglass
	case host.StatusSkipped:
		return IconSkip
	default:
		return " "
	}
}

// truncate cuts line to at most maxWidth cells.
func truncate(line string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(line) > maxWidth {
		return runewidth.Truncate(line, maxWidth-1, "") + "…"
	}
	return line
}
