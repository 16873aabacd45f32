package render

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/ytmdeck/internal/core"
)

// Theme holds the colours a key is drawn with.
type Theme struct {
	Background colorful.Color
	Foreground colorful.Color
}

// ParseTheme parses hex background and foreground colours.
func ParseTheme(background, foreground string) (Theme, error) {
	bg, err := colorful.Hex(background)
	if err != nil {
		return Theme{}, fmt.Errorf("background %q: %w", background, err)
	}
	fg, err := colorful.Hex(foreground)
	if err != nil {
		return Theme{}, fmt.Errorf("foreground %q: %w", foreground, err)
	}
	return Theme{Background: bg, Foreground: fg}, nil
}

// DefaultTheme is white on black.
func DefaultTheme() Theme {
	return Theme{
		Background: colorful.Color{R: 0, G: 0, B: 0},
		Foreground: colorful.Color{R: 1, G: 1, B: 1},
	}
}

// With applies per-key colour overrides. Unparseable overrides are ignored.
func (t Theme) With(opts core.DisplayOptions) Theme {
	if c, err := colorful.Hex(opts.Background); err == nil {
		t.Background = c
	}
	if c, err := colorful.Hex(opts.Foreground); err == nil {
		t.Foreground = c
	}
	return t
}

// Subdued returns the foreground blended most of the way toward the background,
// for inactive glyphs and progress tracks.
func (t Theme) Subdued() colorful.Color {
	return t.Foreground.BlendLab(t.Background, 0.65).Clamped()
}

var (
	badgeStale        = colorful.Color{R: 0.96, G: 0.65, B: 0.14}
	badgeReconnecting = colorful.Color{R: 0.97, G: 0.91, B: 0.11}
	badgeOffline      = colorful.Color{R: 0.61, G: 0.61, B: 0.61}
	badgeAuthRequired = colorful.Color{R: 0.82, G: 0.01, B: 0.11}
)

// BadgeColor returns the corner badge colour for status, or false when the
// status needs no badge.
func BadgeColor(status core.Status) (colorful.Color, bool) {
	switch status {
	case core.StatusStale:
		return badgeStale, true
	case core.StatusReconnecting:
		return badgeReconnecting, true
	case core.StatusOffline:
		return badgeOffline, true
	case core.StatusAuthRequired:
		return badgeAuthRequired, true
	default:
		return colorful.Color{}, false
	}
}
