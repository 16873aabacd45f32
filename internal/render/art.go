package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // album art is usually JPEG
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/core"
)

const (
	// DefaultArtCacheSize is the number of scaled covers kept in memory.
	DefaultArtCacheSize = 32

	artFetchTimeout = 10 * time.Second
	artRetryDelay   = time.Minute
)

// ArtCache downloads, crops and scales album art to key size. Lookups never
// block; a miss starts one background fetch per URL and calls the ready
// callback when the image lands.
type ArtCache struct {
	client *http.Client
	size   int
	log    logrus.FieldLogger
	now    func() time.Time

	cache *lru.Cache[string, image.Image]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	failed   map[string]time.Time
	onReady  func(url string)
}

// ArtOption configures an ArtCache.
type ArtOption func(*ArtCache)

// WithArtHTTPClient sets the HTTP client used for downloads.
func WithArtHTTPClient(c *http.Client) ArtOption {
	return func(a *ArtCache) { a.client = c }
}

// WithArtLogger sets the logger.
func WithArtLogger(log logrus.FieldLogger) ArtOption {
	return func(a *ArtCache) { a.log = log }
}

// NewArtCache creates a cache holding up to entries images of size x size pixels.
func NewArtCache(size, entries int, opts ...ArtOption) (*ArtCache, error) {
	if size <= 0 {
		size = DefaultKeySize
	}
	if entries <= 0 {
		entries = DefaultArtCacheSize
	}
	cache, err := lru.New[string, image.Image](entries)
	if err != nil {
		return nil, fmt.Errorf("create art cache: %w", err)
	}

	a := &ArtCache{
		client:   &http.Client{Timeout: artFetchTimeout},
		size:     size,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		cache:    cache,
		inflight: make(map[string]struct{}),
		failed:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// OnReady sets the callback run after a background fetch stores an image.
func (a *ArtCache) OnReady(fn func(url string)) {
	a.mu.Lock()
	a.onReady = fn
	a.mu.Unlock()
}

// PickThumbnail returns the rendition whose width is closest to size.
func PickThumbnail(thumbs []core.Thumbnail, size int) (core.Thumbnail, bool) {
	usable := lo.Filter(thumbs, func(t core.Thumbnail, _ int) bool { return t.URL != "" })
	if len(usable) == 0 {
		return core.Thumbnail{}, false
	}
	distance := func(t core.Thumbnail) int {
		d := t.Width - size
		if d < 0 {
			// Upscaling looks worse than downscaling.
			return -d * 2
		}
		return d
	}
	return lo.MinBy(usable, func(a, b core.Thumbnail) bool {
		return distance(a) < distance(b)
	}), true
}

// Lookup returns the cached cover for thumbs. On a miss it schedules a fetch
// and returns false.
func (a *ArtCache) Lookup(thumbs []core.Thumbnail) (image.Image, bool) {
	t, ok := PickThumbnail(thumbs, a.size)
	if !ok {
		return nil, false
	}
	if img, ok := a.cache.Get(t.URL); ok {
		return img, true
	}
	a.prefetch(t.URL)
	return nil, false
}

func (a *ArtCache) prefetch(url string) {
	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		return
	}
	if _, busy := a.inflight[url]; busy {
		a.mu.Unlock()
		return
	}
	if at, ok := a.failed[url]; ok && a.now().Sub(at) < artRetryDelay {
		a.mu.Unlock()
		return
	}
	a.inflight[url] = struct{}{}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, artFetchTimeout)
		defer cancel()

		_, err := a.Fetch(ctx, url)

		a.mu.Lock()
		delete(a.inflight, url)
		if err != nil {
			a.failed[url] = a.now()
		} else {
			delete(a.failed, url)
		}
		ready := a.onReady
		a.mu.Unlock()

		if err != nil {
			a.log.WithError(err).WithField("url", url).Debug("album art fetch failed")
			return
		}
		if ready != nil {
			ready(url)
		}
	}()
}

// Fetch downloads url, scales it to key size and caches it.
func (a *ArtCache) Fetch(ctx context.Context, url string) (image.Image, error) {
	if img, ok := a.cache.Get(url); ok {
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch art: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch art: status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode art: %w", err)
	}

	img := Cover(src, a.size)
	a.cache.Add(url, img)
	return img, nil
}

// Cover centre-crops src to a square and scales it to size x size.
func Cover(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 {
		return image.NewRGBA(image.Rect(0, 0, size, size))
	}
	crop := image.Rect(0, 0, side, side)
	square := image.NewRGBA(crop)
	off := image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2)
	draw.Draw(square, crop, src, off, draw.Src)

	s := uint(size) //nolint:gosec // key sizes are small
	return resize.Resize(s, s, square, resize.Lanczos3)
}

// Close stops background fetches and waits for them to finish.
func (a *ArtCache) Close() {
	a.mu.Lock()
	a.cancel()
	a.mu.Unlock()
	a.wg.Wait()
}
