package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/tui/styles"
)

// NowPlaying displays the currently playing track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(view core.View, now time.Time, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused) + " " + styles.StatusBadge(view.Status)

	var content string
	if !view.Snapshot.HasTrack() {
		content = styles.Muted.Render("No track playing")
	} else {
		content = n.renderTrack(view.Snapshot, now, width-4)
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

func (n *NowPlaying) renderTrack(s core.PlaybackSnapshot, now time.Time, width int) string {
	icon := styles.PlaybackIcon(s)
	titleStyle := styles.Title.Width(max(width-4, 1))
	title := titleStyle.Render(s.Title)

	artist := styles.Subtitle.Render(s.Artist)
	album := styles.Dim.Render(s.Album)

	progressWidth := max(width-14, 10)
	position := Position(s, now)
	percent := 0.0
	if s.Duration > 0 {
		percent = position / s.Duration * 100
	}
	progress := fmt.Sprintf("%s %s %s",
		FormatSeconds(position),
		styles.ProgressBar(percent, progressWidth),
		FormatSeconds(s.Duration))

	var flags []string
	if s.Muted {
		flags = append(flags, "🔇 muted")
	} else {
		flags = append(flags, fmt.Sprintf("🔊 %d%%", s.Volume))
	}
	if icon := styles.LikeIcon(s.LikeStatus); icon != "" {
		flags = append(flags, icon)
	}
	if icon := styles.RepeatIcon(s.RepeatMode); icon != "" {
		flags = append(flags, icon)
	}
	if s.AdPlaying {
		flags = append(flags, styles.Paused.Render("ad"))
	}

	updated := ""
	if at := s.UpdatedAt(); !at.IsZero() {
		updated = styles.Dim.Render("updated " + humanize.RelTime(at, now, "ago", "from now"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
		"",
		styles.Muted.Render(strings.Join(flags, "  ")),
		updated,
	)
}

// Position estimates the playback position at now. A playing snapshot keeps
// advancing from the moment it was accepted, capped at the track duration.
func Position(s core.PlaybackSnapshot, now time.Time) float64 {
	pos := s.Progress
	if s.IsPlaying && s.LastUpdate != 0 {
		if elapsed := now.Sub(s.UpdatedAt()); elapsed > 0 {
			pos += elapsed.Seconds()
		}
	}
	if s.Duration > 0 && pos > s.Duration {
		pos = s.Duration
	}
	return pos
}

// FormatSeconds renders seconds as m:ss.
func FormatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	m := d / time.Minute
	sec := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, sec)
}
