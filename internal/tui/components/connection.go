package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/tui/styles"
)

// Connection displays the realtime channel and freshness status.
type Connection struct{}

// NewConnection creates a new Connection component
func NewConnection() *Connection {
	return &Connection{}
}

// Render renders the connection panel. spinner is shown while connecting.
func (c *Connection) Render(conn core.ConnectionState, status core.Status, since time.Time, now time.Time, spinner string, width, height int, focused bool) string {
	title := styles.PanelTitle("Connection", focused)

	lines := []string{
		fmt.Sprintf("%s %s", styles.Label.Render("status "), styles.StatusBadge(status)),
		fmt.Sprintf("%s %s", styles.Label.Render("channel"), c.phase(conn, spinner)),
	}
	if conn.Phase == core.PhaseReconnecting {
		lines = append(lines, fmt.Sprintf("%s attempt %d, next in %v",
			styles.Label.Render("retry  "), conn.Attempt, conn.Delay.Round(time.Millisecond)))
	}
	if conn.GaveUp {
		lines = append(lines, styles.Failure.Render("gave up reconnecting"))
	}
	if conn.Reason != "" {
		lines = append(lines, styles.Dim.Render(conn.Reason))
	}
	if !since.IsZero() {
		lines = append(lines, styles.Dim.Render("changed "+humanize.RelTime(since, now, "ago", "from now")))
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	))
}

func (c *Connection) phase(conn core.ConnectionState, spinner string) string {
	switch conn.Phase {
	case core.PhaseConnected:
		return styles.Playing.Render("connected")
	case core.PhaseConnecting, core.PhaseReconnecting:
		return spinner + " " + styles.Paused.Render(conn.Phase.String())
	default:
		return styles.Dim.Render("disconnected")
	}
}
