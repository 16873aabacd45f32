// Package reconcile owns the authoritative playback snapshot. It merges pushed
// and pulled state, decides which surfaces need a redraw, and keeps the live
// connection up while anything is on screen.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/companion/player"
	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/notify"
)

const (
	// DefaultFreshWindow is how long pushed data is trusted without a pull.
	DefaultFreshWindow = 30 * time.Second

	// DefaultPollInterval is the fallback pull cadence while the push feed is stale.
	DefaultPollInterval = 5 * time.Second

	backgroundTimeout = 20 * time.Second
)

// ErrClosed is returned by operations on a coordinator that has shut down.
var ErrClosed = errors.New("coordinator closed")

// Surface is one on-screen control.
type Surface interface {
	ID() string
	Kind() core.ControlKind
	// WantsProgress reports whether the surface displays live progress.
	WantsProgress() bool
	Render(view core.View) (core.Frame, error)
	Press(ctx context.Context) error
}

// Factory builds the surface for a registration.
type Factory func(reg core.SurfaceRegistration) (Surface, error)

// Host draws frames and knows which surfaces still exist.
type Host interface {
	DrawSurface(id string, frame core.Frame) error
	ActiveSurfaces() []string
}

// Auth is the read side of the token owner.
type Auth interface {
	IsAuthenticated() bool
	Token() string
}

// Invalidator is implemented by auth collaborators that can drop a rejected token.
type Invalidator interface {
	Invalidate()
}

// Channel is the push feed.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() core.ConnectionState
	LastKnown() (core.PlaybackSnapshot, bool)
	IsFresh(maxAge time.Duration) bool
}

// Fetcher pulls state on demand.
type Fetcher interface {
	FetchState(ctx context.Context) (*client.State, error)
}

// Options configures a Coordinator.
type Options struct {
	Channel      Channel
	Fetcher      Fetcher
	Auth         Auth
	Host         Host
	Factory      Factory
	Notifier     notify.Notifier
	Policy       change.Policy
	FreshWindow  time.Duration
	PollInterval time.Duration
	Logger       logrus.FieldLogger
}

// Coordinator is the single owner of the current snapshot and the surface registry.
type Coordinator struct {
	channel      Channel
	fetcher      Fetcher
	auth         Auth
	host         Host
	factory      Factory
	notifier     notify.Notifier
	policy       change.Policy
	freshWindow  time.Duration
	pollInterval time.Duration
	log          logrus.FieldLogger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu          sync.Mutex
	snapshot    core.PlaybackSnapshot
	hasSnapshot bool
	registry    *Registry
	conn        core.ConnectionState
	status      core.Status
	authLost    bool
	closed      bool
	subs        map[*Subscription]struct{}

	// notifyMu serializes redraws so frames reach the host in snapshot order.
	notifyMu sync.Mutex
}

// New creates a coordinator holding the empty snapshot.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		channel:      opts.Channel,
		fetcher:      opts.Fetcher,
		auth:         opts.Auth,
		host:         opts.Host,
		factory:      opts.Factory,
		notifier:     opts.Notifier,
		policy:       opts.Policy,
		freshWindow:  opts.FreshWindow,
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
		now:          time.Now,
		snapshot:     core.Empty(),
		registry:     NewRegistry(),
		subs:         make(map[*Subscription]struct{}),
	}
	if c.notifier == nil {
		c.notifier = notify.Nop{}
	}
	if c.policy == "" {
		c.policy = change.PolicyTick
	}
	if c.freshWindow <= 0 {
		c.freshWindow = DefaultFreshWindow
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.conn = c.channel.State()
	c.status = c.computeStatusLocked()
	return c
}

// Snapshot returns the current snapshot without any I/O.
func (c *Coordinator) Snapshot() core.PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// View returns what surfaces currently render from.
func (c *Coordinator) View() core.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.View{Snapshot: c.snapshot, Status: c.status}
}

// Registrations lists the registered surfaces in order.
func (c *Coordinator) Registrations() []core.SurfaceRegistration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Registrations()
}

// EnsureLiveConnection makes sure the push feed is connected or connecting.
// It fails with ErrAuthRequired without dialing when there is no usable token.
func (c *Coordinator) EnsureLiveConnection(ctx context.Context) error {
	if c.channel.State().Connected() {
		return nil
	}

	c.mu.Lock()
	closed, lost := c.closed, c.authLost
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if lost || !c.auth.IsAuthenticated() {
		c.markAuthLost()
		return apperrors.ErrAuthRequired
	}

	err := c.channel.Connect(ctx)
	switch {
	case err == nil, errors.Is(err, apperrors.ErrAlreadyConnecting):
		return nil
	case errors.Is(err, apperrors.ErrAuthRequired):
		c.HandleError(err)
	}
	return err
}

// GetSnapshot returns the freshest snapshot available: the pushed one if it is
// within the fresh window, else a one-shot pull, else whatever is cached.
// It never fails; problems degrade to the cached or empty snapshot.
func (c *Coordinator) GetSnapshot(ctx context.Context) core.PlaybackSnapshot {
	if c.channel.IsFresh(c.freshWindow) {
		if snap, ok := c.channel.LastKnown(); ok {
			c.accept(snap)
			return c.Snapshot()
		}
	}

	if err := c.pull(ctx); err != nil {
		c.HandleError(err)
	}
	return c.Snapshot()
}

// pull fetches state and merges it, stamped with the time the request started.
func (c *Coordinator) pull(ctx context.Context) error {
	started := c.now()
	raw, err := c.fetcher.FetchState(ctx)
	if err != nil {
		return err
	}
	snap, ok := player.Normalize(raw, started)
	if !ok {
		c.log.Debug("pulled state has no track")
		return nil
	}
	c.accept(snap)
	return nil
}

// OnExternalUpdate handles one pushed state event.
func (c *Coordinator) OnExternalUpdate(raw *client.State, received time.Time) {
	snap, ok := player.Normalize(raw, received)
	if !ok {
		c.log.Debug("ignoring pushed state without a track")
		return
	}
	c.accept(snap)
}

// accept stores snap unless it is older than the current snapshot, then
// redraws the surfaces the change matters to.
func (c *Coordinator) accept(snap core.PlaybackSnapshot) bool {
	c.mu.Lock()
	if c.hasSnapshot && snap.LastUpdate < c.snapshot.LastUpdate {
		current := c.snapshot.LastUpdate
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{
			"stale":   snap.LastUpdate,
			"current": current,
		}).Debug("dropping out-of-order snapshot")
		return false
	}

	var prev *core.PlaybackSnapshot
	if c.hasSnapshot {
		p := c.snapshot
		prev = &p
	}
	reasons := change.Detect(prev, snap)

	previous := c.snapshot
	c.snapshot = snap
	c.hasSnapshot = true
	statusChanged := c.refreshStatusLocked()
	update := c.updateLocked(previous, reasons)
	c.mu.Unlock()

	if statusChanged || reasons != change.None {
		c.publish(update)
	}

	if statusChanged {
		c.notifyAll(nil)
	} else if reasons != change.None {
		c.notifyAll(func(s Surface) bool {
			return c.policy.Redraw(reasons, s.WantsProgress())
		})
	}
	return true
}

// NotifyAll redraws every active surface. Failures are isolated per surface
// and returned together.
func (c *Coordinator) NotifyAll() error {
	return c.notifyAll(nil).Err()
}

func (c *Coordinator) notifyAll(filter func(Surface) bool) *apperrors.PartialResult[int] {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	view := core.View{Snapshot: c.snapshot, Status: c.status}
	surfaces := c.registry.List()
	c.mu.Unlock()

	result := &apperrors.PartialResult[int]{}
	if len(surfaces) == 0 {
		return result
	}

	active := make(map[string]struct{})
	for _, id := range c.host.ActiveSurfaces() {
		active[id] = struct{}{}
	}

	var stale []string
	for _, s := range surfaces {
		if _, ok := active[s.ID()]; !ok {
			stale = append(stale, s.ID())
			continue
		}
		if filter != nil && !filter(s) {
			continue
		}
		if err := c.draw(s, view); err != nil {
			c.log.WithError(err).WithField("surface", s.ID()).Warn("redraw failed")
			result.AddError(fmt.Errorf("surface %s: %w", s.ID(), err))
			continue
		}
		result.Data++
	}

	if len(stale) > 0 {
		c.mu.Lock()
		for _, id := range stale {
			c.registry.Unregister(id)
		}
		c.mu.Unlock()
		c.log.WithField("surfaces", stale).Debug("pruned surfaces the host no longer lists")
	}

	return result
}

func (c *Coordinator) draw(s Surface, view core.View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while drawing: %v", r)
		}
	}()

	frame, err := s.Render(view)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return c.host.DrawSurface(s.ID(), frame)
}

// RegisterSurface adds a surface and draws it once immediately from the
// in-memory snapshot. The live connection and a refresh follow in the background.
func (c *Coordinator) RegisterSurface(reg core.SurfaceRegistration) error {
	s, err := c.factory(reg)
	if err != nil {
		return err
	}

	// Read the view under notifyMu: a newer frame drawn by accept must not be
	// overwritten by this first draw.
	c.notifyMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.notifyMu.Unlock()
		return ErrClosed
	}
	replaced := c.registry.Register(s, reg)
	view := core.View{Snapshot: c.snapshot, Status: c.status}
	c.mu.Unlock()

	if err := c.draw(s, view); err != nil {
		c.log.WithError(err).WithField("surface", reg.ID).Warn("initial draw failed")
	}
	c.notifyMu.Unlock()

	c.log.WithFields(logrus.Fields{"surface": reg.ID, "kind": reg.Kind, "replaced": replaced}).Debug("surface registered")

	c.background(func(ctx context.Context) {
		c.activate(ctx)
	})
	return nil
}

// UnregisterSurface removes a surface.
func (c *Coordinator) UnregisterSurface(id string) {
	c.mu.Lock()
	c.registry.Unregister(id)
	c.mu.Unlock()
}

// UnregisterDevice removes every surface on a device.
func (c *Coordinator) UnregisterDevice(device string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.UnregisterDevice(device)
}

// Redraw redraws every surface of one kind.
func (c *Coordinator) Redraw(kind core.ControlKind) {
	c.notifyAll(func(s Surface) bool { return s.Kind() == kind })
}

// Press forwards a key press. Actionable failures are returned so the host can
// flag the key, and reported at Error severity.
func (c *Coordinator) Press(ctx context.Context, id string) error {
	c.mu.Lock()
	s, ok := c.registry.Get(id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown surface %q", id)
	}

	if err := s.Press(ctx); err != nil {
		if errors.Is(err, apperrors.ErrAuthRequired) {
			c.HandleError(err)
			c.notifier.Notify(notify.Error, "Authentication required to control playback. "+apperrors.GetSuggestion(err))
		} else {
			c.notifier.Notify(notify.Warning, apperrors.Format(err))
		}
		return err
	}

	if !c.channel.State().Connected() {
		c.background(func(ctx context.Context) {
			c.activate(ctx)
		})
	}
	return nil
}

// OnStatus records a channel state transition. It never calls back into the
// channel synchronously.
func (c *Coordinator) OnStatus(st core.ConnectionState) {
	c.mu.Lock()
	c.conn = st
	changed := c.refreshStatusLocked()
	update := c.updateLocked(c.snapshot, change.None)
	hasSurfaces := c.registry.Len() > 0
	c.mu.Unlock()

	c.publish(update)

	switch {
	case st.Phase == core.PhaseDisconnected && errors.Is(st.Err, apperrors.ErrAuthRequired):
		c.HandleError(st.Err)
	case st.GaveUp:
		c.notifier.Notify(notify.Warning, "Lost connection to YouTube Music Desktop. "+apperrors.GetSuggestion(apperrors.ErrGaveUp))
	case st.Phase == core.PhaseReconnecting:
		c.notifier.Notify(notify.Debug, st.String())
	case st.Connected() && hasSurfaces && !c.channel.IsFresh(c.freshWindow):
		c.background(func(ctx context.Context) {
			if err := c.pull(ctx); err != nil {
				c.HandleError(err)
			}
		})
	}

	if changed {
		c.notifyAll(nil)
	}
}

// OnAuthChanged reacts to the auth collaborator gaining or losing a token.
func (c *Coordinator) OnAuthChanged(valid bool) {
	if !valid {
		c.markAuthLost()
		c.background(func(context.Context) { c.channel.Disconnect() })
		return
	}

	c.mu.Lock()
	c.authLost = false
	changed := c.refreshStatusLocked()
	hasSurfaces := c.registry.Len() > 0
	c.mu.Unlock()

	c.log.Info("authentication restored")
	if changed {
		c.notifyAll(nil)
	}
	if hasSurfaces {
		c.background(func(ctx context.Context) {
			c.activate(ctx)
		})
	}
}

// HandleError applies the coordinator's failure policy. Auth loss stops the
// live connection until re-authentication; everything else is reported and
// absorbed.
func (c *Coordinator) HandleError(err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrAuthRequired):
		if c.markAuthLost() {
			c.notifier.Notify(notify.Warning, "YouTube Music Desktop rejected the saved token. "+apperrors.GetSuggestion(err))
			c.background(func(context.Context) {
				c.channel.Disconnect()
				if inv, ok := c.auth.(Invalidator); ok {
					inv.Invalidate()
				}
			})
		}
	case errors.Is(err, apperrors.ErrRateLimited):
		c.notifier.Notify(notify.Debug, err.Error())
	case errors.Is(err, context.Canceled):
	default:
		c.notifier.Notify(notify.Info, apperrors.Format(err))
	}
}

// markAuthLost flips the coordinator into the auth-required state and redraws.
// It reports whether the state changed.
func (c *Coordinator) markAuthLost() bool {
	c.mu.Lock()
	if c.authLost {
		c.mu.Unlock()
		return false
	}
	c.authLost = true
	changed := c.refreshStatusLocked()
	update := c.updateLocked(c.snapshot, change.None)
	c.mu.Unlock()

	c.log.Warn("authentication lost; waiting for re-authentication")
	c.publish(update)
	if changed {
		c.notifyAll(nil)
	}
	return true
}

// activate brings the feed up and fills a stale snapshot.
func (c *Coordinator) activate(ctx context.Context) {
	if err := c.EnsureLiveConnection(ctx); err != nil {
		if !errors.Is(err, apperrors.ErrAuthRequired) && !errors.Is(err, ErrClosed) {
			c.log.WithError(err).Debug("live connection not available")
		}
	}
	if !c.channel.IsFresh(c.freshWindow) {
		c.GetSnapshot(ctx)
	}
}

// Run keeps the connection alive and polls while the push feed is stale.
// It disconnects cleanly and returns when ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var holdUntil time.Time
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return nil
		case <-ticker.C:
		}

		c.mu.Lock()
		idle := c.registry.Len() == 0
		lost := c.authLost
		changed := c.refreshStatusLocked()
		c.mu.Unlock()

		if changed {
			c.notifyAll(nil)
		}

		if idle || lost || c.now().Before(holdUntil) {
			continue
		}
		if c.channel.IsFresh(c.freshWindow) {
			continue
		}

		if err := c.pull(ctx); err != nil {
			if d, ok := apperrors.RetryAfter(err); ok {
				holdUntil = c.now().Add(d)
				c.log.WithField("retry_after", d).Debug("poll rate limited")
			}
			c.HandleError(err)
		}
	}
}

// Close stops background work and disconnects the channel. No reconnect can
// start after Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = make(map[*Subscription]struct{})
	c.mu.Unlock()

	c.cancel()
	c.channel.Disconnect()
	c.bg.Wait()

	for s := range subs {
		s.close()
	}
}

// Subscribe returns a subscription to accepted updates and status changes.
func (c *Coordinator) Subscribe() *Subscription {
	s := newSubscription()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		s.close()
		return s
	}
	c.subs[s] = struct{}{}
	return s
}

// Unsubscribe ends a subscription.
func (c *Coordinator) Unsubscribe(s *Subscription) {
	c.mu.Lock()
	delete(c.subs, s)
	c.mu.Unlock()
	s.close()
}

func (c *Coordinator) background(fn func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.bg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (c *Coordinator) publish(u Update) {
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s.send(u)
	}
}

func (c *Coordinator) updateLocked(previous core.PlaybackSnapshot, reasons change.Reasons) Update {
	return Update{
		Previous:   previous,
		Current:    c.snapshot,
		Reasons:    reasons,
		Status:     c.status,
		Connection: c.conn,
		At:         c.now(),
	}
}

// refreshStatusLocked recomputes the view status and reports whether it changed.
func (c *Coordinator) refreshStatusLocked() bool {
	next := c.computeStatusLocked()
	if next == c.status {
		return false
	}
	c.status = next
	return true
}

func (c *Coordinator) computeStatusLocked() core.Status {
	if c.authLost || !c.auth.IsAuthenticated() {
		return core.StatusAuthRequired
	}
	switch c.conn.Phase {
	case core.PhaseConnected:
		return core.StatusLive
	case core.PhaseConnecting, core.PhaseReconnecting:
		return core.StatusReconnecting
	}
	if c.hasSnapshot && c.snapshot.Age(c.now()) <= c.freshWindow {
		return core.StatusStale
	}
	return core.StatusOffline
}
