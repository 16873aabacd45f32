package reconcile

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/notify"
)

type fakeChannel struct {
	mu          sync.Mutex
	state       core.ConnectionState
	last        core.PlaybackSnapshot
	hasLast     bool
	fresh       bool
	connectErr  error
	connects    int
	disconnects int
}

func (f *fakeChannel) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.state = core.ConnectionState{Phase: core.PhaseConnected}
	return nil
}

func (f *fakeChannel) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.state = core.ConnectionState{Phase: core.PhaseDisconnected}
}

func (f *fakeChannel) State() core.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) LastKnown() (core.PlaybackSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

func (f *fakeChannel) IsFresh(time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fresh
}

func (f *fakeChannel) counts() (connects, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}

type fakeFetcher struct {
	mu    sync.Mutex
	state *client.State
	err   error
	calls int
	hook  func()
}

func (f *fakeFetcher) FetchState(context.Context) (*client.State, error) {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	state, err := f.state, f.err
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return state, err
}

type fakeAuth struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (a *fakeAuth) IsAuthenticated() bool { return a.Token() != "" }

func (a *fakeAuth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *fakeAuth) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.invalidated++
}

type fakeHost struct {
	mu      sync.Mutex
	active  []string
	draws   []string
	frames  map[string]core.Frame
	failFor map[string]error
}

func newFakeHost() *fakeHost {
	return &fakeHost{frames: make(map[string]core.Frame), failFor: make(map[string]error)}
}

func (h *fakeHost) DrawSurface(id string, frame core.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.failFor[id]; err != nil {
		return err
	}
	h.draws = append(h.draws, id)
	h.frames[id] = frame
	return nil
}

func (h *fakeHost) ActiveSurfaces() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.active...)
}

func (h *fakeHost) activate(ids ...string) {
	h.mu.Lock()
	h.active = append(h.active, ids...)
	h.mu.Unlock()
}

func (h *fakeHost) drawCount(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, d := range h.draws {
		if d == id {
			n++
		}
	}
	return n
}

func (h *fakeHost) reset() {
	h.mu.Lock()
	h.draws = nil
	h.mu.Unlock()
}

type fakeSurface struct {
	id       string
	kind     core.ControlKind
	progress bool
	panics   bool
	pressErr error
	pressed  int
}

func (s *fakeSurface) ID() string             { return s.id }
func (s *fakeSurface) Kind() core.ControlKind { return s.kind }
func (s *fakeSurface) WantsProgress() bool    { return s.progress }

func (s *fakeSurface) Render(view core.View) (core.Frame, error) {
	if s.panics {
		panic("renderer exploded")
	}
	return core.Frame{Title: view.Snapshot.Title + "|" + view.Status.String()}, nil
}

func (s *fakeSurface) Press(context.Context) error {
	s.pressed++
	return s.pressErr
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Severity
}

func (n *recordingNotifier) Notify(sev notify.Severity, _ string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, sev)
	n.mu.Unlock()
}

func (n *recordingNotifier) has(sev notify.Severity) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.msgs {
		if s == sev {
			return true
		}
	}
	return false
}

type fixture struct {
	c        *Coordinator
	channel  *fakeChannel
	fetcher  *fakeFetcher
	auth     *fakeAuth
	host     *fakeHost
	notifier *recordingNotifier
	surfaces map[string]*fakeSurface
	clock    *time.Time
}

func newFixture(t *testing.T, policy change.Policy) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.UnixMilli(1_700_000_000_000)
	f := &fixture{
		channel:  &fakeChannel{state: core.ConnectionState{Phase: core.PhaseConnected}, fresh: true},
		fetcher:  &fakeFetcher{err: errors.New("unexpected fetch")},
		auth:     &fakeAuth{token: "tok"},
		host:     newFakeHost(),
		notifier: &recordingNotifier{},
		surfaces: make(map[string]*fakeSurface),
		clock:    &now,
	}
	f.c = New(Options{
		Channel:  f.channel,
		Fetcher:  f.fetcher,
		Auth:     f.auth,
		Host:     f.host,
		Notifier: f.notifier,
		Policy:   policy,
		Logger:   logger,
		Factory: func(reg core.SurfaceRegistration) (Surface, error) {
			s, ok := f.surfaces[reg.ID]
			if !ok {
				s = &fakeSurface{id: reg.ID, kind: reg.Kind, progress: reg.Kind == core.KindNowPlaying}
				f.surfaces[reg.ID] = s
			}
			return s, nil
		},
	})
	f.c.now = func() time.Time { return *f.clock }
	t.Cleanup(f.c.Close)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) register(t *testing.T, id string, kind core.ControlKind) {
	t.Helper()
	f.host.activate(id)
	if err := f.c.RegisterSurface(core.SurfaceRegistration{ID: id, Kind: kind, Device: "dev1"}); err != nil {
		t.Fatalf("RegisterSurface(%s) error = %v", id, err)
	}
	f.c.bg.Wait()
}

func rawState(title string, progress float64) *client.State {
	return &client.State{
		Player: &client.PlayerState{
			TrackState:    client.Num(1),
			VideoProgress: client.Num(progress),
			Volume:        client.Num(50),
		},
		Video: &client.Video{Title: title, Author: "B", ID: "id-" + title, DurationSeconds: client.Num(300)},
	}
}
