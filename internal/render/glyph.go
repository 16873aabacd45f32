package render

// Glyph is a built-in key icon.
type Glyph int

const (
	GlyphPlay Glyph = iota
	GlyphPause
	GlyphNext
	GlyphPrevious
	GlyphThumbUp
	GlyphThumbDown
	GlyphVolumeUp
	GlyphVolumeDown
	GlyphSpeaker
	GlyphMuted
	GlyphRepeat
	GlyphRepeatOne
	GlyphMusicNote
)

type point struct{ x, y float64 }

func rect(x0, y0, x1, y1 float64) []point {
	return []point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func poly(coords ...float64) []point {
	pts := make([]point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, point{coords[i], coords[i+1]})
	}
	return pts
}

var (
	speaker = [][]point{
		rect(0.22, 0.40, 0.34, 0.60),
		poly(0.34, 0.40, 0.52, 0.26, 0.52, 0.74, 0.34, 0.60),
	}
	repeatLoop = [][]point{
		rect(0.24, 0.32, 0.70, 0.39),
		rect(0.30, 0.61, 0.76, 0.68),
		rect(0.24, 0.32, 0.31, 0.58),
		rect(0.69, 0.42, 0.76, 0.68),
		poly(0.66, 0.24, 0.78, 0.355, 0.66, 0.47),
		poly(0.34, 0.53, 0.22, 0.645, 0.34, 0.76),
	}
)

// Shapes are in unit coordinates, origin top-left.
var glyphs = map[Glyph][][]point{
	GlyphPlay:  {poly(0.34, 0.25, 0.34, 0.75, 0.76, 0.50)},
	GlyphPause: {rect(0.30, 0.25, 0.44, 0.75), rect(0.56, 0.25, 0.70, 0.75)},
	GlyphNext: {
		poly(0.26, 0.28, 0.26, 0.72, 0.62, 0.50),
		rect(0.64, 0.28, 0.73, 0.72),
	},
	GlyphPrevious: {
		rect(0.27, 0.28, 0.36, 0.72),
		poly(0.74, 0.28, 0.74, 0.72, 0.38, 0.50),
	},
	GlyphThumbUp: {
		poly(0.50, 0.22, 0.76, 0.50, 0.60, 0.50, 0.60, 0.78, 0.40, 0.78, 0.40, 0.50, 0.24, 0.50),
	},
	GlyphThumbDown: {
		poly(0.50, 0.78, 0.76, 0.50, 0.60, 0.50, 0.60, 0.22, 0.40, 0.22, 0.40, 0.50, 0.24, 0.50),
	},
	GlyphVolumeUp: append(append([][]point{}, speaker...),
		rect(0.58, 0.47, 0.80, 0.53),
		rect(0.66, 0.39, 0.72, 0.61),
	),
	GlyphVolumeDown: append(append([][]point{}, speaker...),
		rect(0.58, 0.47, 0.80, 0.53),
	),
	GlyphSpeaker: append(append([][]point{}, speaker...),
		rect(0.60, 0.42, 0.65, 0.58),
		rect(0.70, 0.34, 0.75, 0.66),
	),
	GlyphMuted: append(append([][]point{}, speaker...),
		poly(0.58, 0.38, 0.62, 0.34, 0.80, 0.62, 0.76, 0.66),
		poly(0.76, 0.34, 0.80, 0.38, 0.62, 0.66, 0.58, 0.62),
	),
	GlyphRepeat: repeatLoop,
	GlyphRepeatOne: append(append([][]point{}, repeatLoop...),
		rect(0.47, 0.42, 0.53, 0.58),
	),
	GlyphMusicNote: {
		rect(0.52, 0.22, 0.58, 0.66),
		poly(0.58, 0.22, 0.74, 0.30, 0.74, 0.38, 0.58, 0.30),
		poly(0.36, 0.62, 0.46, 0.58, 0.56, 0.62, 0.56, 0.72, 0.46, 0.76, 0.36, 0.72),
	},
}
