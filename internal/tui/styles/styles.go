package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ytmdeck/internal/core"
)

// Colors
var (
	Primary   = lipgloss.Color("#FF0033") // YouTube red
	Secondary = lipgloss.Color("#10B981")
	Accent    = lipgloss.Color("#F59E0B")

	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")

	Border    = lipgloss.Color("#4B5563")
	Text      = lipgloss.Color("#F9FAFB")
	TextMuted = lipgloss.Color("#9CA3AF")
	TextDim   = lipgloss.Color("#6B7280")
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	Failure = lipgloss.NewStyle().
		Foreground(Error)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// PlaybackIcon returns an icon for the snapshot's playback state.
func PlaybackIcon(s core.PlaybackSnapshot) string {
	switch s.TrackState() {
	case core.TrackStatePlaying:
		return Playing.Render("▶")
	case core.TrackStateBuffering:
		return Muted.Render("…")
	default:
		return Paused.Render("⏸")
	}
}

// StatusStyle returns the style used for a freshness status.
func StatusStyle(s core.Status) lipgloss.Style {
	switch s {
	case core.StatusLive:
		return Playing
	case core.StatusStale, core.StatusReconnecting:
		return Paused
	case core.StatusAuthRequired:
		return Failure
	default:
		return Dim
	}
}

// StatusBadge renders a status as a dot and its name.
func StatusBadge(s core.Status) string {
	return StatusStyle(s).Render("● " + s.String())
}

// LikeIcon returns an icon for a like status, or "" when indifferent.
func LikeIcon(l core.LikeStatus) string {
	switch l {
	case core.LikeStatusLike:
		return Highlight.Render("♥")
	case core.LikeStatusDislike:
		return Dim.Render("✗")
	default:
		return ""
	}
}

// RepeatIcon returns an icon for a repeat mode, or "" when repeat is off.
func RepeatIcon(r core.RepeatMode) string {
	switch r {
	case core.RepeatModeAll:
		return "🔁"
	case core.RepeatModeOne:
		return "🔂"
	default:
		return ""
	}
}
