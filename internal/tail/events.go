package tail

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/reconcile"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventSeek
	EventVolumeChange
	EventLikeChange
	EventStatusChange
)

// MarshalJSON encodes the event type by name.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventTypeName(t))
}

// Event represents a playback state change.
type Event struct {
	Type      EventType             `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	Previous  core.PlaybackSnapshot `json:"previous"`
	Current   core.PlaybackSnapshot `json:"current"`
	Status    core.Status           `json:"status"`
}

// completionThreshold is the fraction of a track that counts as finished.
const completionThreshold = 0.95

// Watch turns coordinator updates into events until ctx is done or the
// subscription closes.
func Watch(ctx context.Context, sub *reconcile.Subscription) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		var lastStatus core.Status = -1
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done:
				return
			case u := <-sub.Updates:
				for _, e := range Diff(u, lastStatus) {
					select {
					case out <- e:
					default:
						// Drop event if channel is full
					}
				}
				lastStatus = u.Status
			}
		}
	}()
	return out
}

// Diff derives events from one update. lastStatus is the status of the
// previous update, or -1 when there was none.
func Diff(u reconcile.Update, lastStatus core.Status) []Event {
	prev, curr := u.Previous, u.Current
	mk := func(t EventType) Event {
		return Event{Type: t, Timestamp: u.At, Previous: prev, Current: curr, Status: u.Status}
	}

	var events []Event
	if lastStatus >= 0 && u.Status != lastStatus {
		events = append(events, mk(EventStatusChange))
	}

	switch {
	case u.Reasons.Has(change.First):
		if curr.HasTrack() {
			events = append(events, mk(EventTrackChange))
		}
		return events
	case u.Reasons == change.None:
		return events
	}

	if trackChanged(prev, curr) {
		t := EventTrackChange
		if prev.HasTrack() {
			if wasCompleted(prev) {
				t = EventTrackComplete
			} else {
				t = EventTrackSkip
			}
		}
		events = append(events, mk(t))
	} else if u.Reasons.Has(change.ProgressJumped) {
		events = append(events, mk(EventSeek))
	}

	playing := func(s core.PlaybackSnapshot) bool { return s.IsPlaying || s.IsBuffering }
	if playing(prev) && !playing(curr) {
		events = append(events, mk(EventPause))
	} else if !playing(prev) && playing(curr) {
		events = append(events, mk(EventResume))
	}

	if prev.Volume != curr.Volume || prev.Muted != curr.Muted {
		events = append(events, mk(EventVolumeChange))
	}
	if prev.LikeStatus != curr.LikeStatus && !trackChanged(prev, curr) {
		events = append(events, mk(EventLikeChange))
	}
	return events
}

func trackChanged(prev, curr core.PlaybackSnapshot) bool {
	if prev.VideoID != "" || curr.VideoID != "" {
		return prev.VideoID != curr.VideoID
	}
	return prev.Title != curr.Title || prev.Artist != curr.Artist
}

// wasCompleted returns true if the track likely completed naturally.
func wasCompleted(s core.PlaybackSnapshot) bool {
	if s.Duration <= 0 {
		return false
	}
	// Pushes arrive about once a second, so allow for the last tick.
	return s.Progress >= math.Min(s.Duration*completionThreshold, s.Duration-2)
}
