package core

import (
	"math"
	"time"
)

// TrackState is the upstream playback enum carried by the companion server.
type TrackState int

const (
	TrackStateUnknown   TrackState = -1
	TrackStatePaused    TrackState = 0
	TrackStatePlaying   TrackState = 1
	TrackStateBuffering TrackState = 2
)

// LikeStatus indicates whether the current video is liked.
type LikeStatus int

const (
	LikeStatusUnknown     LikeStatus = -1
	LikeStatusDislike     LikeStatus = 0
	LikeStatusIndifferent LikeStatus = 1
	LikeStatusLike        LikeStatus = 2
)

func (l LikeStatus) String() string {
	switch l {
	case LikeStatusDislike:
		return "dislike"
	case LikeStatusIndifferent:
		return "indifferent"
	case LikeStatusLike:
		return "like"
	default:
		return "unknown"
	}
}

// RepeatMode is the queue repeat setting.
type RepeatMode int

const (
	RepeatModeUnknown RepeatMode = -1
	RepeatModeNone    RepeatMode = 0
	RepeatModeAll     RepeatMode = 1
	RepeatModeOne     RepeatMode = 2
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatModeNone:
		return "none"
	case RepeatModeAll:
		return "all"
	case RepeatModeOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows r when cycling through repeat settings.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatModeNone:
		return RepeatModeAll
	case RepeatModeAll:
		return RepeatModeOne
	default:
		return RepeatModeNone
	}
}

// Thumbnail is one rendition of the current video's artwork.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PlaybackSnapshot is an immutable point-in-time view of the player.
// Snapshots are replaced wholesale; nothing mutates one after it is accepted.
type PlaybackSnapshot struct {
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Album       string      `json:"album,omitempty"`
	VideoID     string      `json:"video_id,omitempty"`
	PlaylistID  string      `json:"playlist_id,omitempty"`
	IsPlaying   bool        `json:"is_playing"`
	IsPaused    bool        `json:"is_paused"`
	IsBuffering bool        `json:"is_buffering"`
	AdPlaying   bool        `json:"ad_playing"`
	Progress    float64     `json:"progress"`
	Duration    float64     `json:"duration"`
	Volume      int         `json:"volume"`
	Muted       bool        `json:"muted"`
	LikeStatus  LikeStatus  `json:"like_status"`
	RepeatMode  RepeatMode  `json:"repeat_mode"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`

	// LastUpdate is the epoch millisecond timestamp at which the snapshot was accepted.
	LastUpdate int64 `json:"last_update"`
}

// Empty returns the "nothing playing" sentinel snapshot.
func Empty() PlaybackSnapshot {
	return PlaybackSnapshot{
		LikeStatus: LikeStatusUnknown,
		RepeatMode: RepeatModeUnknown,
	}
}

// HasTrack returns true if the snapshot describes a track.
func (s PlaybackSnapshot) HasTrack() bool {
	return s.Title != "" || s.VideoID != ""
}

// TrackState reports the tri-state flags as a single enum.
func (s PlaybackSnapshot) TrackState() TrackState {
	switch {
	case s.IsPlaying:
		return TrackStatePlaying
	case s.IsBuffering:
		return TrackStateBuffering
	case s.IsPaused:
		return TrackStatePaused
	default:
		return TrackStateUnknown
	}
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s PlaybackSnapshot) ProgressPercent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.Progress / s.Duration * 100
	if p > 100 {
		return 100
	}
	return p
}

// UpdatedAt returns LastUpdate as a time.
func (s PlaybackSnapshot) UpdatedAt() time.Time {
	if s.LastUpdate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastUpdate)
}

// Age returns how long ago the snapshot was accepted, relative to now.
// A snapshot that was never accepted is infinitely old.
func (s PlaybackSnapshot) Age(now time.Time) time.Duration {
	if s.LastUpdate == 0 {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(s.UpdatedAt())
}

// BestThumbnail returns the thumbnail with the largest width, or false if there are none.
func (s PlaybackSnapshot) BestThumbnail() (Thumbnail, bool) {
	if len(s.Thumbnails) == 0 {
		return Thumbnail{}, false
	}
	best := s.Thumbnails[0]
	for _, t := range s.Thumbnails[1:] {
		if t.Width > best.Width {
			best = t
		}
	}
	return best, true
}
