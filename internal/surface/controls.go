package surface

import (
	"context"
	"fmt"
	"image"

	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/render"
)

// NowPlaying shows album art and live progress.
type NowPlaying struct {
	base
	art ArtSource
}

func (s *NowPlaying) WantsProgress() bool { return true }

func (s *NowPlaying) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	snap := view.Snapshot

	var cover image.Image
	if s.art != nil && snap.HasTrack() {
		cover, _ = s.art.Lookup(snap.Thumbnails)
	}
	if cover != nil {
		c.DrawCentered(cover)
	} else {
		c.Glyph(render.GlyphMusicNote, s.theme.Subdued())
	}
	if snap.HasTrack() {
		c.ProgressBar(snap.ProgressPercent()/100, s.theme.Foreground, s.theme.Subdued())
	}

	title := ""
	if s.reg.Options.ShowTitle {
		title = snap.Title
	}
	return s.frame(c, view, title), nil
}

func (s *NowPlaying) Press(ctx context.Context) error {
	return s.deps.Player.PlayPause(ctx)
}

// PlayPause toggles playback.
type PlayPause struct{ base }

func (s *PlayPause) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	if view.Snapshot.IsPlaying || view.Snapshot.IsBuffering {
		c.Glyph(render.GlyphPause, s.theme.Foreground)
	} else {
		c.Glyph(render.GlyphPlay, s.theme.Foreground)
	}
	return s.frame(c, view, ""), nil
}

func (s *PlayPause) Press(ctx context.Context) error {
	return s.deps.Player.PlayPause(ctx)
}

// Skip moves to the next or previous track.
type Skip struct {
	base
	forward bool
}

func (s *Skip) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	if s.forward {
		c.Glyph(render.GlyphNext, s.theme.Foreground)
	} else {
		c.Glyph(render.GlyphPrevious, s.theme.Foreground)
	}
	return s.frame(c, view, ""), nil
}

func (s *Skip) Press(ctx context.Context) error {
	if s.forward {
		return s.deps.Player.Next(ctx)
	}
	return s.deps.Player.Previous(ctx)
}

// Rating toggles like or dislike and lights up when it is set.
type Rating struct {
	base
	like bool
}

func (s *Rating) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	want := core.LikeStatusDislike
	glyph := render.GlyphThumbDown
	if s.like {
		want = core.LikeStatusLike
		glyph = render.GlyphThumbUp
	}
	if view.Snapshot.LikeStatus == want {
		c.Glyph(glyph, s.theme.Foreground)
	} else {
		c.Glyph(glyph, s.theme.Subdued())
	}
	return s.frame(c, view, ""), nil
}

func (s *Rating) Press(ctx context.Context) error {
	if s.like {
		return s.deps.Player.ToggleLike(ctx)
	}
	return s.deps.Player.ToggleDislike(ctx)
}

// Volume steps the volume and shows the current level.
type Volume struct {
	base
	up bool
}

func (s *Volume) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	if s.up {
		c.Glyph(render.GlyphVolumeUp, s.theme.Foreground)
	} else {
		c.Glyph(render.GlyphVolumeDown, s.theme.Foreground)
	}
	title := ""
	if view.Snapshot.HasTrack() {
		title = fmt.Sprintf("%d%%", view.Snapshot.Volume)
	}
	return s.frame(c, view, title), nil
}

func (s *Volume) Press(ctx context.Context) error {
	if s.up {
		return s.deps.Player.VolumeUp(ctx)
	}
	return s.deps.Player.VolumeDown(ctx)
}

// Mute toggles mute based on the current snapshot.
type Mute struct{ base }

func (s *Mute) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	if view.Snapshot.Muted {
		c.Glyph(render.GlyphMuted, s.theme.Foreground)
	} else {
		c.Glyph(render.GlyphSpeaker, s.theme.Foreground)
	}
	return s.frame(c, view, ""), nil
}

func (s *Mute) Press(ctx context.Context) error {
	if s.deps.current().Muted {
		return s.deps.Player.Unmute(ctx)
	}
	return s.deps.Player.Mute(ctx)
}

// Repeat cycles none, all and one.
type Repeat struct{ base }

func (s *Repeat) Render(view core.View) (core.Frame, error) {
	c := s.canvas()
	switch view.Snapshot.RepeatMode {
	case core.RepeatModeOne:
		c.Glyph(render.GlyphRepeatOne, s.theme.Foreground)
	case core.RepeatModeAll:
		c.Glyph(render.GlyphRepeat, s.theme.Foreground)
	default:
		c.Glyph(render.GlyphRepeat, s.theme.Subdued())
	}
	return s.frame(c, view, ""), nil
}

func (s *Repeat) Press(ctx context.Context) error {
	return s.deps.Player.SetRepeatMode(ctx, s.deps.current().RepeatMode.Next())
}
