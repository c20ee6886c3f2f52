package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/texyhq/texy/internal/otel"
)

// debugPanelChrome is the number of lines taken by DebugPanel's border and
// vertical padding.
const debugPanelChrome = 4

// DebugPanel frames the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted).
	Padding(1, 2)

// DebugHeaderStyle titles the overlay sections.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// debugOverlay renders refresh and chat counters plus the most recent
// events. Returns "" when ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Activity"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors, %d refreshes",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError], stats[otel.KindRefresh]))
	lines = append(lines, fmt.Sprintf("  Chat:       %d requests, %d replies, %d errors",
		stats[otel.KindChatRequest], stats[otel.KindChatResponse], stats[otel.KindChatError]))
	lines = append(lines, fmt.Sprintf("  Analysis:   %d articles, %d errors",
		stats[otel.KindAnalyze], stats[otel.KindAnalyzeError]))
	lines = append(lines, fmt.Sprintf("  Highlights: %d added, %d deleted",
		stats[otel.KindHighlightAdd], stats[otel.KindHighlightDelete]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Source != "" {
			line += "  " + truncate(e.Source, 24)
		}
		if e.Msg != "" {
			line += "  " + truncate(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncate(e.Err, 30)
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string. Negative
// durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
