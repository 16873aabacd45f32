package tail

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/reconcile"
)

func snap(title string, progress float64, playing bool) core.PlaybackSnapshot {
	return core.PlaybackSnapshot{
		Title:      title,
		Artist:     "Artist",
		VideoID:    "id-" + title,
		IsPlaying:  playing,
		IsPaused:   !playing,
		Progress:   progress,
		Duration:   200,
		Volume:     50,
		LikeStatus: core.LikeStatusIndifferent,
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDiff(t *testing.T) {
	muted := snap("A", 11, true)
	muted.Muted = true
	liked := snap("A", 11, true)
	liked.LikeStatus = core.LikeStatusLike

	tests := []struct {
		name       string
		update     reconcile.Update
		lastStatus core.Status
		want       []EventType
	}{
		{
			name:       "first snapshot",
			update:     reconcile.Update{Current: snap("A", 0, true), Reasons: change.First, Status: core.StatusLive},
			lastStatus: -1,
			want:       []EventType{EventTrackChange},
		},
		{
			name:       "skip",
			update:     reconcile.Update{Previous: snap("A", 30, true), Current: snap("B", 0, true), Reasons: change.Identity | change.ProgressJumped},
			lastStatus: core.StatusLive,
			want:       []EventType{EventTrackSkip},
		},
		{
			name:       "complete",
			update:     reconcile.Update{Previous: snap("A", 199, true), Current: snap("B", 0, true), Reasons: change.Identity | change.ProgressJumped},
			lastStatus: core.StatusLive,
			want:       []EventType{EventTrackComplete},
		},
		{
			name:       "seek",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: snap("A", 90, true), Reasons: change.ProgressJumped},
			lastStatus: core.StatusLive,
			want:       []EventType{EventSeek},
		},
		{
			name:       "pause",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: snap("A", 10, false), Reasons: change.Identity},
			lastStatus: core.StatusLive,
			want:       []EventType{EventPause},
		},
		{
			name:       "mute",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: muted, Reasons: change.Identity | change.ProgressTicked},
			lastStatus: core.StatusLive,
			want:       []EventType{EventVolumeChange},
		},
		{
			name:       "like",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: liked, Reasons: change.Identity | change.ProgressTicked},
			lastStatus: core.StatusLive,
			want:       []EventType{EventLikeChange},
		},
		{
			name:       "tick only",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: snap("A", 11, true), Reasons: change.ProgressTicked},
			lastStatus: core.StatusLive,
			want:       nil,
		},
		{
			name:       "status change",
			update:     reconcile.Update{Previous: snap("A", 10, true), Current: snap("A", 10, true), Status: core.StatusReconnecting},
			lastStatus: core.StatusLive,
			want:       []EventType{EventStatusChange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(Diff(tt.update, tt.lastStatus))
			if len(got) != len(tt.want) {
				t.Fatalf("Diff() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Diff()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatter(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	e := Event{Type: EventTrackChange, Timestamp: at, Current: snap("Song", 65, true), Status: core.StatusLive}

	tests := []struct {
		name string
		f    *Formatter
		want string
	}{
		{"default", NewFormatter(), "🎵 Now playing: Artist - Song"},
		{"no emoji", NewFormatter(WithEmoji(false)), "Now playing: Artist - Song"},
		{"timestamp", NewFormatter(WithEmoji(false), WithTimestamp(true)), "15:04:05 Now playing: Artist - Song"},
		{"template", NewFormatter(WithTemplate("{{.Type}} {{.Title}} {{.Progress}}/{{.Duration}} {{.Status}}")), "track_change Song 1:05/3:20 live"},
		{"bad template falls back", NewFormatter(WithEmoji(false), WithTemplate("{{.Nope")), "Now playing: Artist - Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Format(e); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventSeek, Status: core.StatusStale})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"type":"seek"`) || !strings.Contains(s, `"status":"stale"`) {
		t.Errorf("Marshal() = %s", s)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	c := reconcile.New(reconcile.Options{
		Channel: idleChannel{},
		Auth:    noAuth{},
	})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := Watch(ctx, c.Subscribe())
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("unexpected event")
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop")
	}
}

type idleChannel struct{}

func (idleChannel) Connect(context.Context) error            { return nil }
func (idleChannel) Disconnect()                              {}
func (idleChannel) State() core.ConnectionState              { return core.ConnectionState{} }
func (idleChannel) LastKnown() (core.PlaybackSnapshot, bool) { return core.PlaybackSnapshot{}, false }
func (idleChannel) IsFresh(time.Duration) bool               { return false }

type noAuth struct{}

func (noAuth) IsAuthenticated() bool { return false }
func (noAuth) Token() string         { return "" }
