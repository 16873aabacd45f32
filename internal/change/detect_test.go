package change

import (
	"testing"

	"github.com/tessro/ytmdeck/internal/core"
)

func snap(progress float64, at int64) core.PlaybackSnapshot {
	return core.PlaybackSnapshot{
		Title:      "A",
		Artist:     "B",
		VideoID:    "v1",
		IsPlaying:  true,
		Volume:     50,
		Progress:   progress,
		Duration:   300,
		LikeStatus: core.LikeStatusIndifferent,
		RepeatMode: core.RepeatModeNone,
		LastUpdate: at,
	}
}

func TestDetect(t *testing.T) {
	base := snap(100, 1_000_000)

	tests := []struct {
		name string
		prev *core.PlaybackSnapshot
		next core.PlaybackSnapshot
		want Reasons
	}{
		{
			name: "first",
			prev: nil,
			next: base,
			want: First,
		},
		{
			name: "tick over three seconds",
			prev: &base,
			next: snap(103, 1_003_000),
			want: ProgressTicked,
		},
		{
			name: "small tick with close timestamps",
			prev: &base,
			next: snap(101, 1_000_500),
			want: ProgressTicked,
		},
		{
			name: "seek forward",
			prev: &base,
			next: snap(140, 1_001_000),
			want: ProgressJumped,
		},
		{
			name: "seek backward",
			prev: &base,
			next: snap(10, 1_001_000),
			want: ProgressJumped,
		},
		{
			name: "no change",
			prev: &base,
			next: snap(100, 1_002_000),
			want: None,
		},
		{
			name: "track change with progress reset",
			prev: &base,
			next: func() core.PlaybackSnapshot {
				s := snap(0, 1_001_000)
				s.Title, s.VideoID = "C", "v2"
				return s
			}(),
			want: Identity | ProgressJumped,
		},
		{
			name: "like toggled",
			prev: &base,
			next: func() core.PlaybackSnapshot {
				s := base
				s.LikeStatus = core.LikeStatusLike
				return s
			}(),
			want: Identity,
		},
		{
			name: "volume changed",
			prev: &base,
			next: func() core.PlaybackSnapshot {
				s := base
				s.Volume = 60
				return s
			}(),
			want: Identity,
		},
		{
			name: "mute toggled",
			prev: &base,
			next: func() core.PlaybackSnapshot {
				s := base
				s.Muted = true
				return s
			}(),
			want: Identity,
		},
		{
			name: "album is cosmetic",
			prev: &base,
			next: func() core.PlaybackSnapshot {
				s := base
				s.Album = "Other"
				return s
			}(),
			want: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.prev, tt.next); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectPausedUsesRawDelta(t *testing.T) {
	prev := snap(100, 1_000_000)
	prev.IsPlaying, prev.IsPaused = false, true
	next := prev
	next.Progress = 103
	next.LastUpdate = 1_003_000

	if got := Detect(&prev, next); got != ProgressJumped {
		t.Errorf("Detect() = %v, want progress_jumped", got)
	}
}

func TestDetectDeterministic(t *testing.T) {
	prev := snap(100, 1_000_000)
	next := snap(140, 1_001_000)

	first := Detect(&prev, next)
	for i := 0; i < 100; i++ {
		if got := Detect(&prev, next); got != first {
			t.Fatalf("call %d: Detect() = %v, want %v", i, got, first)
		}
	}
	if prev.Progress != 100 {
		t.Error("Detect() mutated prev")
	}
}

func TestPolicyRedraw(t *testing.T) {
	tests := []struct {
		policy        Policy
		reasons       Reasons
		wantsProgress bool
		want          bool
	}{
		{PolicyTick, First, false, true},
		{PolicyTick, Identity, false, true},
		{PolicyTick, ProgressJumped, false, true},
		{PolicyTick, ProgressTicked, true, true},
		{PolicyTick, ProgressTicked, false, false},
		{PolicyJump, ProgressTicked, true, false},
		{PolicyJump, ProgressJumped, true, true},
		{PolicyTick, None, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+tt.reasons.String(), func(t *testing.T) {
			if got := tt.policy.Redraw(tt.reasons, tt.wantsProgress); got != tt.want {
				t.Errorf("Redraw(%v, %v) = %v, want %v", tt.reasons, tt.wantsProgress, got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyTick {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if p, err := ParsePolicy("Jump"); err != nil || p != PolicyJump {
		t.Errorf("ParsePolicy(Jump) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("always"); err == nil {
		t.Error("ParsePolicy(always) error = nil")
	}
}

func TestReasonsString(t *testing.T) {
	if got := (Identity | ProgressJumped).String(); got != "identity,progress_jumped" {
		t.Errorf("String() = %q", got)
	}
	if got := None.String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}
