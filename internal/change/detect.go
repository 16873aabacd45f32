// Package change classifies the difference between two snapshots so each
// consumer can decide whether it needs a redraw.
package change

import (
	"fmt"
	"math"
	"strings"

	"github.com/tessro/ytmdeck/internal/core"
)

// JumpThreshold is the progress drift, in seconds, treated as a seek.
const JumpThreshold = 2.0

// Reasons is a set of reasons a snapshot differs from its predecessor.
type Reasons uint8

const (
	// First marks the first snapshot ever seen.
	First Reasons = 1 << iota
	// Identity marks a change in track, play state, like status, volume, mute or repeat mode.
	Identity
	// ProgressJumped marks a progress change larger than JumpThreshold.
	ProgressJumped
	// ProgressTicked marks a smooth progress change.
	ProgressTicked
)

// None is the empty set.
const None Reasons = 0

// Has reports whether r contains all of other.
func (r Reasons) Has(other Reasons) bool {
	return r&other == other && other != 0
}

// Structural reports whether r forces a redraw regardless of what a consumer displays.
func (r Reasons) Structural() bool {
	return r&(First|Identity|ProgressJumped) != 0
}

func (r Reasons) String() string {
	if r == None {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		bit  Reasons
		name string
	}{
		{First, "first"},
		{Identity, "identity"},
		{ProgressJumped, "progress_jumped"},
		{ProgressTicked, "progress_ticked"},
	} {
		if r&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("reasons(%d)", uint8(r))
	}
	return strings.Join(parts, ",")
}

// Detect compares next against prev. prev is nil for the first snapshot.
//
// While prev is playing, the expected advance is the wall time between the two
// snapshots; drift beyond JumpThreshold from that is a jump. Detect is pure.
func Detect(prev *core.PlaybackSnapshot, next core.PlaybackSnapshot) Reasons {
	if prev == nil {
		return First
	}

	var r Reasons
	if identityChanged(*prev, next) {
		r |= Identity
	}

	if next.Progress != prev.Progress {
		if math.Abs(next.Progress-prev.Progress-expectedAdvance(*prev, next)) > JumpThreshold {
			r |= ProgressJumped
		} else {
			r |= ProgressTicked
		}
	}

	return r
}

func identityChanged(a, b core.PlaybackSnapshot) bool {
	return a.Title != b.Title ||
		a.Artist != b.Artist ||
		a.VideoID != b.VideoID ||
		a.IsPlaying != b.IsPlaying ||
		a.IsPaused != b.IsPaused ||
		a.LikeStatus != b.LikeStatus ||
		a.Volume != b.Volume ||
		a.Muted != b.Muted ||
		a.RepeatMode != b.RepeatMode
}

func expectedAdvance(prev, next core.PlaybackSnapshot) float64 {
	if !prev.IsPlaying || prev.LastUpdate == 0 || next.LastUpdate <= prev.LastUpdate {
		return 0
	}
	return float64(next.LastUpdate-prev.LastUpdate) / 1000
}

// Policy decides whether smooth progress ticks redraw consumers that display progress.
type Policy string

const (
	// PolicyTick redraws progress-displaying consumers on every tick.
	PolicyTick Policy = "tick"
	// PolicyJump redraws only on structural changes, including jumps.
	PolicyJump Policy = "jump"
)

// ParsePolicy parses a policy name, defaulting to PolicyTick.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyTick:
		return PolicyTick, nil
	case PolicyJump:
		return PolicyJump, nil
	}
	return PolicyTick, fmt.Errorf("unknown progress redraw policy %q", s)
}

// Redraw reports whether a consumer should redraw for reasons.
func (p Policy) Redraw(reasons Reasons, wantsProgress bool) bool {
	if reasons.Structural() {
		return true
	}
	return reasons.Has(ProgressTicked) && wantsProgress && p != PolicyJump
}
