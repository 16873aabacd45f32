package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ytmdeck/internal/tail"
	"github.com/tessro/ytmdeck/internal/tui/styles"
)

// MaxHistory is the number of events the history panel keeps.
const MaxHistory = 50

// History displays recent playback events, newest first.
type History struct {
	formatter *tail.Formatter
	entries   []tail.Event
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{formatter: tail.NewFormatter(tail.WithEmoji(false))}
}

// Add records events, newest first.
func (h *History) Add(events ...tail.Event) {
	for _, e := range events {
		h.entries = append([]tail.Event{e}, h.entries...)
	}
	if len(h.entries) > MaxHistory {
		h.entries = h.entries[:MaxHistory]
	}
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	return len(h.entries)
}

// Render renders the history panel
func (h *History) Render(now time.Time, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(h.entries) == 0 {
		content = styles.Muted.Render("No events yet")
	} else {
		content = h.renderHistory(now, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderHistory(now time.Time, width, maxLines int) string {
	lines := make([]string, 0, max(maxLines, 0))

	for i, e := range h.entries {
		if i >= maxLines {
			break
		}

		timeAgo := formatTimeAgo(e.Timestamp, now)
		desc := truncate(h.formatter.Format(e), width-len(timeAgo)-2)

		padding := max(width-lipgloss.Width(desc)-len(timeAgo), 1)

		lines = append(lines, fmt.Sprintf("%s%s%s",
			desc,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
