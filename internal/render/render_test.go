package render

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/ytmdeck/internal/core"
)

func TestGlyphDrawsForeground(t *testing.T) {
	theme := DefaultTheme()
	c := NewCanvas(72, theme.Background)
	c.Glyph(GlyphPlay, theme.Foreground)

	r, g, b, _ := c.Image().At(36, 36).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	// Corners stay background.
	r, _, _, _ = c.Image().At(1, 1).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestEveryGlyphHasShapes(t *testing.T) {
	for g := GlyphPlay; g <= GlyphMusicNote; g++ {
		assert.NotEmpty(t, glyphs[g], "glyph %d", g)
	}
}

func TestProgressBar(t *testing.T) {
	c := NewCanvas(100, color.Black)
	c.ProgressBar(0.5, color.White, color.Black)

	r, _, _, _ := c.Image().At(10, 99).RGBA()
	assert.Equal(t, uint32(0xffff), r, "filled part")
	r, _, _, _ = c.Image().At(90, 99).RGBA()
	assert.Equal(t, uint32(0), r, "unfilled part")
}

func TestStatusOverlay(t *testing.T) {
	live := NewCanvas(48, color.White)
	live.Status(core.StatusLive)
	r, _, _, _ := live.Image().At(24, 24).RGBA()
	assert.Equal(t, uint32(0xffff), r, "live keys are untouched")

	offline := NewCanvas(48, color.White)
	offline.Status(core.StatusOffline)
	r, _, _, _ = offline.Image().At(24, 24).RGBA()
	assert.Less(t, r, uint32(0xffff), "offline keys are dimmed")

	_, ok := BadgeColor(core.StatusLive)
	assert.False(t, ok)
	_, ok = BadgeColor(core.StatusAuthRequired)
	assert.True(t, ok)
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(NewCanvas(8, color.White).Image())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme("#102030", "#FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, "#102030", theme.Background.Hex())

	_, err = ParseTheme("black", "#FFFFFF")
	assert.Error(t, err)

	over := theme.With(core.DisplayOptions{Foreground: "#ff0000", Background: "nope"})
	assert.Equal(t, "#ff0000", over.Foreground.Hex())
	assert.Equal(t, "#102030", over.Background.Hex())
}

func TestPickThumbnail(t *testing.T) {
	thumbs := []core.Thumbnail{
		{URL: "", Width: 144},
		{URL: "small", Width: 60},
		{URL: "medium", Width: 120},
		{URL: "large", Width: 544},
	}

	got, ok := PickThumbnail(thumbs, 144)
	require.True(t, ok)
	assert.Equal(t, "medium", got.URL)

	_, ok = PickThumbnail([]core.Thumbnail{{URL: ""}}, 144)
	assert.False(t, ok)
}

func TestCoverCropsToSquare(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 160, 90))
	img := Cover(src, 72)
	assert.Equal(t, image.Rect(0, 0, 72, 72), img.Bounds())
}

func pngServer(t *testing.T, hits *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, image.NewRGBA(image.Rect(0, 0, 320, 180)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestArtCacheFetchesOnce(t *testing.T) {
	var hits atomic.Int32
	srv := pngServer(t, &hits, http.StatusOK)

	cache, err := NewArtCache(72, 4)
	require.NoError(t, err)
	defer cache.Close()

	ready := make(chan string, 4)
	cache.OnReady(func(url string) { ready <- url })

	thumbs := []core.Thumbnail{{URL: srv.URL + "/cover.png", Width: 320}}
	_, ok := cache.Lookup(thumbs)
	assert.False(t, ok, "first lookup is a miss")
	_, _ = cache.Lookup(thumbs)

	select {
	case url := <-ready:
		assert.Equal(t, thumbs[0].URL, url)
	case <-time.After(5 * time.Second):
		t.Fatal("art never became ready")
	}

	img, ok := cache.Lookup(thumbs)
	require.True(t, ok)
	assert.Equal(t, 72, img.Bounds().Dx())
	assert.Equal(t, int32(1), hits.Load())
}

func TestArtCacheBacksOffFailures(t *testing.T) {
	var hits atomic.Int32
	srv := pngServer(t, &hits, http.StatusNotFound)

	cache, err := NewArtCache(72, 4)
	require.NoError(t, err)

	thumbs := []core.Thumbnail{{URL: srv.URL + "/missing.png", Width: 320}}
	_, ok := cache.Lookup(thumbs)
	assert.False(t, ok)
	cache.wg.Wait()

	_, ok = cache.Lookup(thumbs)
	assert.False(t, ok)
	cache.Close()
	assert.Equal(t, int32(1), hits.Load(), "failed URLs are not refetched immediately")
}
