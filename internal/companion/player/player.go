package player

import (
	"context"
	"time"

	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/core"
)

// Command names understood by the companion server.
const (
	CmdPlayPause     = "playPause"
	CmdPlay          = "play"
	CmdPause         = "pause"
	CmdVolumeUp      = "volumeUp"
	CmdVolumeDown    = "volumeDown"
	CmdSetVolume     = "setVolume"
	CmdMute          = "mute"
	CmdUnmute        = "unmute"
	CmdSeekTo        = "seekTo"
	CmdNext          = "next"
	CmdPrevious      = "previous"
	CmdRepeatMode    = "repeatMode"
	CmdShuffle       = "shuffle"
	CmdToggleLike    = "toggleLike"
	CmdToggleDislike = "toggleDislike"
)

// API is the subset of the companion client the player needs.
type API interface {
	FetchState(ctx context.Context) (*client.State, error)
	SendCommand(ctx context.Context, name string, data any) error
}

// Player issues named playback commands.
type Player struct {
	api API
	now func() time.Time
}

// New creates a player over api.
func New(api API) *Player {
	return &Player{api: api, now: time.Now}
}

// GetState fetches and normalizes the current state. A payload with no track
// yields core.Empty().
func (p *Player) GetState(ctx context.Context) (core.PlaybackSnapshot, error) {
	raw, err := p.api.FetchState(ctx)
	if err != nil {
		return core.Empty(), err
	}
	snap, ok := Normalize(raw, p.now())
	if !ok {
		return core.Empty(), nil
	}
	return snap, nil
}

// PlayPause toggles playback.
func (p *Player) PlayPause(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdPlayPause, nil)
}

// Play resumes playback.
func (p *Player) Play(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdPlay, nil)
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdPause, nil)
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdNext, nil)
}

// Previous goes back one track.
func (p *Player) Previous(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdPrevious, nil)
}

// ToggleLike likes the current track, or clears an existing like.
func (p *Player) ToggleLike(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdToggleLike, nil)
}

// ToggleDislike dislikes the current track, or clears an existing dislike.
func (p *Player) ToggleDislike(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdToggleDislike, nil)
}

// VolumeUp raises the volume one step.
func (p *Player) VolumeUp(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdVolumeUp, nil)
}

// VolumeDown lowers the volume one step.
func (p *Player) VolumeDown(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdVolumeDown, nil)
}

// SetVolume sets the volume, clamped to 0-100.
func (p *Player) SetVolume(ctx context.Context, percent int) error {
	percent = max(0, min(100, percent))
	return p.api.SendCommand(ctx, CmdSetVolume, percent)
}

// Mute mutes the player.
func (p *Player) Mute(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdMute, nil)
}

// Unmute unmutes the player.
func (p *Player) Unmute(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdUnmute, nil)
}

// SetRepeatMode sets the queue repeat mode.
func (p *Player) SetRepeatMode(ctx context.Context, mode core.RepeatMode) error {
	if mode == core.RepeatModeUnknown {
		mode = core.RepeatModeNone
	}
	return p.api.SendCommand(ctx, CmdRepeatMode, int(mode))
}

// SeekTo seeks to an absolute position in the current track.
func (p *Player) SeekTo(ctx context.Context, position time.Duration) error {
	return p.api.SendCommand(ctx, CmdSeekTo, int(position.Seconds()))
}

// Shuffle shuffles the queue.
func (p *Player) Shuffle(ctx context.Context) error {
	return p.api.SendCommand(ctx, CmdShuffle, nil)
}
