package surface

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/reconcile"
	"github.com/tessro/ytmdeck/internal/render"
)

type fakeController struct {
	calls  []string
	repeat core.RepeatMode
}

func (f *fakeController) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeController) PlayPause(context.Context) error     { return f.record("playPause") }
func (f *fakeController) Next(context.Context) error          { return f.record("next") }
func (f *fakeController) Previous(context.Context) error      { return f.record("previous") }
func (f *fakeController) ToggleLike(context.Context) error    { return f.record("toggleLike") }
func (f *fakeController) ToggleDislike(context.Context) error { return f.record("toggleDislike") }
func (f *fakeController) VolumeUp(context.Context) error      { return f.record("volumeUp") }
func (f *fakeController) VolumeDown(context.Context) error    { return f.record("volumeDown") }
func (f *fakeController) Mute(context.Context) error          { return f.record("mute") }
func (f *fakeController) Unmute(context.Context) error        { return f.record("unmute") }

func (f *fakeController) SetRepeatMode(_ context.Context, mode core.RepeatMode) error {
	f.repeat = mode
	return f.record("repeatMode")
}

type fakeArt struct{ img image.Image }

func (f fakeArt) Lookup([]core.Thumbnail) (image.Image, bool) {
	return f.img, f.img != nil
}

func solid(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func build(t *testing.T, deps Deps, kind core.ControlKind, opts core.DisplayOptions) reconcile.Surface {
	t.Helper()
	s, err := NewFactory(deps)(core.SurfaceRegistration{ID: "ctx-" + string(kind), Kind: kind, Options: opts})
	require.NoError(t, err)
	return s
}

func playing() core.PlaybackSnapshot {
	return core.PlaybackSnapshot{
		Title:      "A",
		Artist:     "B",
		IsPlaying:  true,
		Progress:   30,
		Duration:   120,
		Volume:     40,
		LikeStatus: core.LikeStatusLike,
		RepeatMode: core.RepeatModeAll,
		LastUpdate: 1,
	}
}

func TestFactoryUnknownKind(t *testing.T) {
	_, err := NewFactory(Deps{})(core.SurfaceRegistration{ID: "x", Kind: "lyrics"})
	require.ErrorIs(t, err, apperrors.ErrUnknownControl)
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 10)
	assert.Contains(t, kinds, core.KindNowPlaying)
	assert.True(t, sort.SliceIsSorted(kinds, func(i, j int) bool { return kinds[i] < kinds[j] }))
}

func TestPressDispatch(t *testing.T) {
	tests := []struct {
		kind    core.ControlKind
		current core.PlaybackSnapshot
		want    string
	}{
		{core.KindNowPlaying, playing(), "playPause"},
		{core.KindPlayPause, playing(), "playPause"},
		{core.KindNext, playing(), "next"},
		{core.KindPrevious, playing(), "previous"},
		{core.KindLike, playing(), "toggleLike"},
		{core.KindDislike, playing(), "toggleDislike"},
		{core.KindVolumeUp, playing(), "volumeUp"},
		{core.KindVolumeDown, playing(), "volumeDown"},
		{core.KindMute, playing(), "mute"},
		{core.KindMute, core.PlaybackSnapshot{Title: "A", Muted: true}, "unmute"},
		{core.KindRepeat, playing(), "repeatMode"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.want, func(t *testing.T) {
			ctrl := &fakeController{}
			deps := Deps{Player: ctrl, Current: func() core.PlaybackSnapshot { return tt.current }}
			s := build(t, deps, tt.kind, core.DisplayOptions{})

			require.NoError(t, s.Press(context.Background()))
			assert.Equal(t, []string{tt.want}, ctrl.calls)
		})
	}
}

func TestRepeatCycles(t *testing.T) {
	ctrl := &fakeController{}
	snap := playing()
	deps := Deps{Player: ctrl, Current: func() core.PlaybackSnapshot { return snap }}
	s := build(t, deps, core.KindRepeat, core.DisplayOptions{})

	require.NoError(t, s.Press(context.Background()))
	assert.Equal(t, core.RepeatModeOne, ctrl.repeat)

	snap.RepeatMode = core.RepeatModeUnknown
	require.NoError(t, s.Press(context.Background()))
	assert.Equal(t, core.RepeatModeNone, ctrl.repeat)
}

func TestWantsProgress(t *testing.T) {
	for _, kind := range Kinds() {
		s := build(t, Deps{}, kind, core.DisplayOptions{})
		assert.Equal(t, kind == core.KindNowPlaying, s.WantsProgress(), kind)
	}
}

func TestRenderEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		for _, status := range []core.Status{core.StatusLive, core.StatusStale, core.StatusReconnecting, core.StatusOffline, core.StatusAuthRequired} {
			s := build(t, Deps{Size: 36, Theme: render.DefaultTheme()}, kind, core.DisplayOptions{})
			frame, err := s.Render(core.View{Snapshot: playing(), Status: status})
			require.NoError(t, err)
			require.NotNil(t, frame.Image)
			assert.Equal(t, 36, frame.Image.Bounds().Dx())
		}
	}
}

func TestRenderTitles(t *testing.T) {
	deps := Deps{Theme: render.DefaultTheme()}

	frame, err := build(t, deps, core.KindVolumeUp, core.DisplayOptions{}).Render(core.View{Snapshot: playing(), Status: core.StatusLive})
	require.NoError(t, err)
	assert.Equal(t, "40%", frame.Title)

	frame, err = build(t, deps, core.KindNowPlaying, core.DisplayOptions{ShowTitle: true}).Render(core.View{Snapshot: playing(), Status: core.StatusLive})
	require.NoError(t, err)
	assert.Equal(t, "A", frame.Title)

	frame, err = build(t, deps, core.KindPlayPause, core.DisplayOptions{}).Render(core.View{Snapshot: playing(), Status: core.StatusAuthRequired})
	require.NoError(t, err)
	assert.Equal(t, "Auth", frame.Title)

	frame, err = build(t, deps, core.KindPlayPause, core.DisplayOptions{}).Render(core.View{Snapshot: core.Empty(), Status: core.StatusOffline})
	require.NoError(t, err)
	assert.Equal(t, "Offline", frame.Title)
}

func TestNowPlayingUsesArt(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	deps := Deps{Size: 48, Theme: render.DefaultTheme(), Art: fakeArt{img: solid(48, red)}}
	s := build(t, deps, core.KindNowPlaying, core.DisplayOptions{})

	frame, err := s.Render(core.View{Snapshot: playing(), Status: core.StatusLive})
	require.NoError(t, err)

	r, g, b, _ := frame.Image.At(24, 20).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestPlayPauseGlyphFollowsState(t *testing.T) {
	deps := Deps{Size: 72, Theme: render.DefaultTheme()}
	s := build(t, deps, core.KindPlayPause, core.DisplayOptions{})

	// The gap between the pause bars is background; the play triangle covers it.
	paused := playing()
	paused.IsPlaying = false
	paused.IsPaused = true

	playFrame, err := s.Render(core.View{Snapshot: paused, Status: core.StatusLive})
	require.NoError(t, err)
	pauseFrame, err := s.Render(core.View{Snapshot: playing(), Status: core.StatusLive})
	require.NoError(t, err)

	r, _, _, _ := playFrame.Image.At(36, 36).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = pauseFrame.Image.At(36, 36).RGBA()
	assert.Zero(t, r)
}
