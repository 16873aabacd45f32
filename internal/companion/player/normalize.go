package player

import (
	"math"
	"strings"
	"time"

	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/core"
)

// Normalize maps a raw companion state into a snapshot stamped with now.
// It reports false when the payload has no usable track identity; callers keep
// their previous snapshot in that case. Normalize never fails on malformed input.
func Normalize(raw *client.State, now time.Time) (core.PlaybackSnapshot, bool) {
	if raw == nil || raw.Video == nil {
		return core.PlaybackSnapshot{}, false
	}

	v := raw.Video
	title := strings.TrimSpace(v.Title)
	videoID := strings.TrimSpace(v.ID)
	if title == "" && videoID == "" {
		return core.PlaybackSnapshot{}, false
	}

	p := raw.Player
	if p == nil {
		p = &client.PlayerState{}
	}

	snap := core.PlaybackSnapshot{
		Title:      title,
		Artist:     strings.TrimSpace(v.Author),
		Album:      strings.TrimSpace(v.Album),
		VideoID:    videoID,
		PlaylistID: strings.TrimSpace(raw.PlaylistID),
		AdPlaying:  p.AdPlaying,
		Progress:   nonNegative(p.VideoProgress),
		Duration:   nonNegative(v.DurationSeconds),
		Volume:     clampVolume(p.Volume),
		Muted:      p.Muted,
		LikeStatus: likeStatus(v.LikeStatus),
		RepeatMode: core.RepeatModeUnknown,
		Thumbnails: thumbnails(v.Thumbnails),
		LastUpdate: now.UnixMilli(),
	}
	if p.Queue != nil {
		snap.RepeatMode = repeatMode(p.Queue.RepeatMode)
	}

	switch trackState(p.TrackState) {
	case core.TrackStatePlaying:
		snap.IsPlaying = true
	case core.TrackStateBuffering:
		snap.IsBuffering = true
	default:
		snap.IsPaused = true
	}

	return snap, true
}

func trackState(n client.Number) core.TrackState {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return core.TrackStateUnknown
	}
	switch core.TrackState(n.Value) {
	case core.TrackStatePaused, core.TrackStatePlaying, core.TrackStateBuffering:
		return core.TrackState(n.Value)
	}
	return core.TrackStateUnknown
}

func likeStatus(n client.Number) core.LikeStatus {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return core.LikeStatusUnknown
	}
	switch s := core.LikeStatus(n.Value); s {
	case core.LikeStatusDislike, core.LikeStatusIndifferent, core.LikeStatusLike:
		return s
	}
	return core.LikeStatusUnknown
}

func repeatMode(n client.Number) core.RepeatMode {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return core.RepeatModeUnknown
	}
	switch m := core.RepeatMode(n.Value); m {
	case core.RepeatModeNone, core.RepeatModeAll, core.RepeatModeOne:
		return m
	}
	return core.RepeatModeUnknown
}

func nonNegative(n client.Number) float64 {
	v := n.Or(0)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clampVolume(n client.Number) int {
	v := math.Round(nonNegative(n))
	if v > 100 {
		return 100
	}
	return int(v)
}

func thumbnails(in []client.Thumbnail) []core.Thumbnail {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.Thumbnail, 0, len(in))
	for _, t := range in {
		url := strings.TrimSpace(t.URL)
		if url == "" {
			continue
		}
		out = append(out, core.Thumbnail{
			URL:    url,
			Width:  int(nonNegative(t.Width)),
			Height: int(nonNegative(t.Height)),
		})
	}
	return out
}
