// Package render draws key bitmaps and caches album art.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/ytmdeck/internal/core"
)

// DefaultKeySize is the pixel size of a standard Stream Deck key at 2x.
const DefaultKeySize = 144

// Canvas is a square drawing surface.
type Canvas struct {
	img  *image.RGBA
	size int
}

// NewCanvas creates a canvas filled with bg.
func NewCanvas(size int, bg color.Color) *Canvas {
	if size <= 0 {
		size = DefaultKeySize
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Canvas{img: img, size: size}
}

// Image returns the canvas contents.
func (c *Canvas) Image() image.Image { return c.img }

// Size returns the edge length in pixels.
func (c *Canvas) Size() int { return c.size }

// FillRect fills r with col.
func (c *Canvas) FillRect(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// DrawCentered draws img centred on the canvas.
func (c *Canvas) DrawCentered(img image.Image) {
	b := img.Bounds()
	off := image.Pt((c.size-b.Dx())/2, (c.size-b.Dy())/2)
	draw.Draw(c.img, b.Sub(b.Min).Add(off), img, b.Min, draw.Over)
}

// Glyph draws a built-in icon in col.
func (c *Canvas) Glyph(g Glyph, col color.Color) {
	for _, poly := range glyphs[g] {
		c.fillPolygon(poly, col)
	}
}

// ProgressBar draws a bar along the bottom edge, filled to frac.
func (c *Canvas) ProgressBar(frac float64, fg, track color.Color) {
	frac = min(max(frac, 0), 1)
	h := max(c.size/16, 2)
	y0 := c.size - h
	c.FillRect(image.Rect(0, y0, c.size, c.size), track)
	if w := int(float64(c.size) * frac); w > 0 {
		c.FillRect(image.Rect(0, y0, w, c.size), fg)
	}
}

// Dim blends every pixel toward black by amount (0..1).
func (c *Canvas) Dim(amount float64) {
	if amount <= 0 {
		return
	}
	black := colorful.Color{}
	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px, _ := colorful.MakeColor(c.img.RGBAAt(x, y))
			c.img.Set(x, y, px.BlendRgb(black, amount).Clamped())
		}
	}
}

// Badge marks the top-right corner with the status colour, if the status has one.
func (c *Canvas) Badge(status core.Status) {
	col, ok := BadgeColor(status)
	if !ok {
		return
	}
	r := max(c.size/12, 3)
	cx, cy := c.size-r-r/2, r+r/2
	c.fillCircle(cx, cy, r, col)
}

// Status renders the standard overlay for status: stale and offline keys are
// dimmed, and any non-live status gets a badge.
func (c *Canvas) Status(status core.Status) {
	switch status {
	case core.StatusStale:
		c.Dim(0.35)
	case core.StatusOffline, core.StatusAuthRequired:
		c.Dim(0.6)
	}
	c.Badge(status)
}

func (c *Canvas) fillCircle(cx, cy, r int, col color.Color) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(c.img.Bounds()) {
				c.img.Set(x, y, col)
			}
		}
	}
}

// fillPolygon fills a polygon given in unit coordinates using the even-odd rule
// sampled at pixel centres.
func (c *Canvas) fillPolygon(poly []point, col color.Color) {
	if len(poly) < 3 {
		return
	}
	s := float64(c.size)
	minX, minY, maxX, maxY := 1.0, 1.0, 0.0, 0.0
	for _, p := range poly {
		minX, maxX = min(minX, p.x), max(maxX, p.x)
		minY, maxY = min(minY, p.y), max(maxY, p.y)
	}

	for y := int(minY * s); y <= int(maxY*s); y++ {
		py := (float64(y) + 0.5) / s
		for x := int(minX * s); x <= int(maxX*s); x++ {
			px := (float64(x) + 0.5) / s
			if inside(poly, px, py) && image.Pt(x, y).In(c.img.Bounds()) {
				c.img.Set(x, y, col)
			}
		}
	}
}

func inside(poly []point, x, y float64) bool {
	in := false
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.y > y) != (b.y > y) && x < (b.x-a.x)*(y-a.y)/(b.y-a.y)+a.x {
			in = !in
		}
		j = i
	}
	return in
}
