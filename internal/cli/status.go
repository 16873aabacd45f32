package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/ytmdeck/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long:  `Fetches the player state from YouTube Music Desktop and prints it.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Companion.Timeout())
	defer cancel()

	p, _, err := getPlayer()
	if err != nil {
		return err
	}

	snap, err := p.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}

	if JSONOutput() {
		return outputStatusJSON(snap)
	}
	return outputStatusTable(snap)
}

func outputStatusJSON(s core.PlaybackSnapshot) error {
	output := map[string]interface{}{
		"playing":          s.IsPlaying,
		"has_track":        s.HasTrack(),
		"snapshot":         s,
		"progress_percent": s.ProgressPercent(),
		"like_status":      s.LikeStatus.String(),
		"repeat_mode":      s.RepeatMode.String(),
	}
	return json.NewEncoder(os.Stdout).Encode(output)
}

func outputStatusTable(s core.PlaybackSnapshot) error {
	if !s.HasTrack() {
		fmt.Println("No track playing")
		return nil
	}

	playIcon := "▶"
	switch s.TrackState() {
	case core.TrackStatePaused, core.TrackStateUnknown:
		playIcon = "⏸"
	case core.TrackStateBuffering:
		playIcon = "…"
	}

	fmt.Printf("%s %s\n", playIcon, s.Title)
	if s.Album != "" {
		fmt.Printf("  %s — %s\n", s.Artist, s.Album)
	} else {
		fmt.Printf("  %s\n", s.Artist)
	}

	fmt.Printf("  %s %s / %s\n",
		FormatProgress(s, 30),
		FormatDuration(s.Progress),
		FormatDuration(s.Duration))

	var flags []string
	if s.Muted {
		flags = append(flags, "🔇 muted")
	} else {
		flags = append(flags, fmt.Sprintf("🔊 %d%%", s.Volume))
	}
	if s.LikeStatus == core.LikeStatusLike || s.LikeStatus == core.LikeStatusDislike {
		flags = append(flags, s.LikeStatus.String()+"d")
	}
	if s.RepeatMode == core.RepeatModeAll || s.RepeatMode == core.RepeatModeOne {
		flags = append(flags, "repeat "+s.RepeatMode.String())
	}
	if s.AdPlaying {
		flags = append(flags, "ad")
	}
	fmt.Printf("  %s\n", strings.Join(flags, "  "))

	if Verbose() {
		t := NewTable()
		t.Row("  video", s.VideoID)
		if s.PlaylistID != "" {
			t.Row("  playlist", s.PlaylistID)
		}
		t.Row("  updated", humanize.Time(s.UpdatedAt()))
		t.Flush()
	}

	return nil
}
