// Package surface implements one on-screen control type per control kind.
package surface

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/samber/lo"

	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/reconcile"
	"github.com/tessro/ytmdeck/internal/render"
)

// Controller sends playback commands.
type Controller interface {
	PlayPause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	ToggleLike(ctx context.Context) error
	ToggleDislike(ctx context.Context) error
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	SetRepeatMode(ctx context.Context, mode core.RepeatMode) error
}

// ArtSource supplies scaled album art without blocking.
type ArtSource interface {
	Lookup(thumbs []core.Thumbnail) (image.Image, bool)
}

// Deps are shared by every surface.
type Deps struct {
	Player Controller
	// Art is optional; without it the now-playing key shows a placeholder.
	Art   ArtSource
	Theme render.Theme
	Size  int
	// Current returns the coordinator's snapshot for toggles that depend on it.
	Current func() core.PlaybackSnapshot
}

func (d Deps) current() core.PlaybackSnapshot {
	if d.Current == nil {
		return core.Empty()
	}
	return d.Current()
}

type constructor func(b base, d Deps) reconcile.Surface

var constructors = map[core.ControlKind]constructor{
	core.KindNowPlaying: func(b base, d Deps) reconcile.Surface { return &NowPlaying{base: b, art: d.Art} },
	core.KindPlayPause:  func(b base, d Deps) reconcile.Surface { return &PlayPause{base: b} },
	core.KindNext:       func(b base, d Deps) reconcile.Surface { return &Skip{base: b, forward: true} },
	core.KindPrevious:   func(b base, d Deps) reconcile.Surface { return &Skip{base: b} },
	core.KindLike:       func(b base, d Deps) reconcile.Surface { return &Rating{base: b, like: true} },
	core.KindDislike:    func(b base, d Deps) reconcile.Surface { return &Rating{base: b} },
	core.KindVolumeUp:   func(b base, d Deps) reconcile.Surface { return &Volume{base: b, up: true} },
	core.KindVolumeDown: func(b base, d Deps) reconcile.Surface { return &Volume{base: b} },
	core.KindMute:       func(b base, d Deps) reconcile.Surface { return &Mute{base: b} },
	core.KindRepeat:     func(b base, d Deps) reconcile.Surface { return &Repeat{base: b} },
}

// Kinds lists every supported control kind, sorted.
func Kinds() []core.ControlKind {
	kinds := lo.Keys(constructors)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewFactory returns a factory building surfaces from registrations.
func NewFactory(deps Deps) reconcile.Factory {
	if deps.Size <= 0 {
		deps.Size = render.DefaultKeySize
	}
	return func(reg core.SurfaceRegistration) (reconcile.Surface, error) {
		build, ok := constructors[reg.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownControl, reg.Kind)
		}
		b := base{
			reg:   reg,
			deps:  deps,
			theme: deps.Theme.With(reg.Options),
		}
		return build(b, deps), nil
	}
}

type base struct {
	reg   core.SurfaceRegistration
	deps  Deps
	theme render.Theme
}

func (b base) ID() string             { return b.reg.ID }
func (b base) Kind() core.ControlKind { return b.reg.Kind }
func (b base) WantsProgress() bool    { return false }

func (b base) canvas() *render.Canvas {
	return render.NewCanvas(b.deps.Size, b.theme.Background)
}

// frame applies the status overlay and picks the key title.
func (b base) frame(c *render.Canvas, view core.View, title string) core.Frame {
	c.Status(view.Status)
	switch view.Status {
	case core.StatusAuthRequired:
		title = "Auth"
	case core.StatusOffline:
		if !view.Snapshot.HasTrack() {
			title = "Offline"
		}
	}
	return core.Frame{Image: c.Image(), Title: title}
}
