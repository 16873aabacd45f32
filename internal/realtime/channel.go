// Package realtime maintains the push connection to the companion server's
// Socket.IO endpoint: handshake, heartbeat, event delivery, and reconnection
// with exponential backoff.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/companion/player"
	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
)

// DefaultConnectTimeout bounds dial plus handshake.
const DefaultConnectTimeout = 15 * time.Second

// ErrAborted is returned by a connection attempt that Disconnect cancelled.
var ErrAborted = errors.New("connection attempt aborted")

// Event is one state push as received.
type Event struct {
	Raw      *client.State
	Received time.Time
}

// Options configures a Channel. Handlers are fixed at construction.
type Options struct {
	URL            string
	Tokens         client.TokenSource
	Dialer         Dialer
	ConnectTimeout time.Duration
	Backoff        Backoff
	Logger         logrus.FieldLogger

	// OnEvent is called from the read loop, in arrival order.
	OnEvent func(Event)

	// OnStatus is called after every state transition. It must not call
	// Connect synchronously.
	OnStatus func(core.ConnectionState)
}

type timer interface {
	Stop() bool
}

// Channel is the live feed. It is best-effort: the server only pushes on change
// and never answers queries.
type Channel struct {
	url            string
	tokens         client.TokenSource
	dialer         Dialer
	connectTimeout time.Duration
	backoff        Backoff
	log            logrus.FieldLogger
	onEvent        func(Event)
	onStatus       func(core.ConnectionState)

	now       func() time.Time
	afterFunc func(time.Duration, func()) timer

	mu         sync.Mutex
	state      core.ConnectionState
	gen        uint64
	failures   int
	conn       Conn
	timer      timer
	cancelDial context.CancelFunc
	last       core.PlaybackSnapshot
	hasLast    bool

	writeMu sync.Mutex

	emitMu      sync.Mutex
	lastEmitted *core.ConnectionState
}

// New creates a disconnected channel.
func New(opts Options) *Channel {
	c := &Channel{
		url:            opts.URL,
		tokens:         opts.Tokens,
		dialer:         opts.Dialer,
		connectTimeout: opts.ConnectTimeout,
		backoff:        opts.Backoff.withDefaults(),
		log:            opts.Logger,
		onEvent:        opts.OnEvent,
		onStatus:       opts.OnStatus,
		now:            time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		state: core.ConnectionState{Phase: core.PhaseDisconnected},
	}
	if c.dialer == nil {
		c.dialer = WebsocketDialer{}
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.tokens == nil {
		c.tokens = client.TokenFunc(func() string { return "" })
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() core.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastKnown returns the most recent snapshot pushed by the server.
func (c *Channel) LastKnown() (core.PlaybackSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// IsFresh reports whether the last pushed snapshot is younger than maxAge.
func (c *Channel) IsFresh(maxAge time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasLast && c.last.Age(c.now()) <= maxAge
}

// Connect opens the connection. It is a no-op when already connected and fails
// with ErrAlreadyConnecting while an attempt or a scheduled reconnect is pending.
// After a give-up, Connect starts a fresh backoff cycle.
func (c *Channel) Connect(ctx context.Context) error {
	return c.attempt(ctx, 0)
}

// Disconnect closes the connection, cancels any pending reconnect or in-flight
// dial, and leaves the channel disconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.stopTimerLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	conn := c.conn
	c.conn = nil
	c.failures = 0
	c.state = core.ConnectionState{Phase: core.PhaseDisconnected, Reason: "client disconnect"}
	c.mu.Unlock()

	if conn != nil {
		if err := c.write(conn, encodeDisconnect()); err != nil {
			c.log.WithError(err).Debug("failed to send namespace disconnect")
		}
		_ = conn.Close()
	}
	c.emit()
}

// attempt runs one connection attempt. scheduled is the generation of the
// reconnect timer that triggered it, or 0 for an explicit Connect.
func (c *Channel) attempt(ctx context.Context, scheduled uint64) error {
	token := c.tokens.Token()

	c.mu.Lock()
	if scheduled != 0 {
		if c.gen != scheduled || c.state.Phase != core.PhaseReconnecting {
			c.mu.Unlock()
			return nil
		}
	} else {
		switch c.state.Phase {
		case core.PhaseConnected:
			c.mu.Unlock()
			return nil
		case core.PhaseConnecting, core.PhaseReconnecting:
			c.mu.Unlock()
			return apperrors.ErrAlreadyConnecting
		}
		c.failures = 0
	}

	if token == "" {
		c.gen++
		c.stopTimerLocked()
		c.failures = 0
		c.state = core.ConnectionState{Phase: core.PhaseDisconnected, Reason: "no token", Err: apperrors.ErrAuthRequired}
		c.mu.Unlock()
		c.emit()
		return apperrors.ErrAuthRequired
	}

	c.gen++
	gen := c.gen
	attemptNo := c.failures + 1
	c.timer = nil
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	c.cancelDial = cancel
	c.state = core.ConnectionState{Phase: core.PhaseConnecting, Attempt: attemptNo}
	c.mu.Unlock()
	c.emit()

	c.log.WithFields(logrus.Fields{"url": c.url, "attempt": attemptNo}).Debug("connecting to realtime channel")
	conn, open, err := c.handshake(dialCtx, token)
	timedOut := errors.Is(dialCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return ErrAborted
	}
	c.cancelDial = nil

	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAuthRequired):
			c.failures = 0
			c.state = core.ConnectionState{Phase: core.PhaseDisconnected, Reason: "auth rejected", Err: err}
			c.mu.Unlock()
			c.log.WithError(err).Warn("realtime channel rejected token")
			c.emit()
			return err
		case ctx.Err() != nil:
			c.failures = 0
			c.state = core.ConnectionState{Phase: core.PhaseDisconnected, Reason: "connect cancelled", Err: ctx.Err()}
			c.mu.Unlock()
			c.emit()
			return ctx.Err()
		case timedOut:
			err = fmt.Errorf("%w after %v", apperrors.ErrTimeout, c.connectTimeout)
		}
		c.failLocked(err)
		c.mu.Unlock()
		c.emit()
		return err
	}

	c.conn = conn
	c.failures = 0
	c.state = core.ConnectionState{Phase: core.PhaseConnected}
	c.mu.Unlock()

	c.log.WithField("sid", open.SID).Info("realtime channel connected")
	c.emit()
	go c.readLoop(gen, conn, open.readTimeout())
	return nil
}

// handshake dials and joins the realtime namespace. Cancelling ctx aborts it.
func (c *Channel) handshake(ctx context.Context, token string) (Conn, openPayload, error) {
	var open openPayload

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, open, ctx.Err()
		}
		return nil, open, fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	fail := func(err error) (Conn, openPayload, error) {
		stop()
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, open, ctx.Err()
		}
		return nil, open, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	joined := false
	for !joined {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fail(fmt.Errorf("%w: handshake: %v", apperrors.ErrUnreachable, err))
		}
		p, err := parsePacket(msg)
		if err != nil {
			continue
		}

		switch p.engine {
		case engineOpen:
			if err := json.Unmarshal(p.data, &open); err != nil {
				return fail(fmt.Errorf("%w: bad open packet: %v", apperrors.ErrMalformedPayload, err))
			}
			if err := c.write(conn, encodeConnect(token)); err != nil {
				return fail(fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err))
			}
		case enginePing:
			if err := c.write(conn, encodePong()); err != nil {
				return fail(fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err))
			}
		case engineClose:
			return fail(fmt.Errorf("%w: server closed during handshake", apperrors.ErrUnreachable))
		case engineMessage:
			if p.nsp != Namespace {
				continue
			}
			switch p.kind {
			case socketConnect:
				joined = true
			case socketConnectError:
				msg := connectErrorMessage(p.data)
				if isAuthRejection(msg) {
					return fail(fmt.Errorf("%w: %s", apperrors.ErrAuthRequired, msg))
				}
				return fail(fmt.Errorf("connect error: %s", msg))
			}
		}
	}

	if !stop() {
		return nil, open, ctx.Err()
	}
	return conn, open, nil
}

func (c *Channel) readLoop(gen uint64, conn Conn, readTimeout time.Duration) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.dropped(gen, conn, "transport close", err)
			return
		}

		p, err := parsePacket(msg)
		if err != nil {
			continue
		}

		switch p.engine {
		case enginePing:
			if err := c.write(conn, encodePong()); err != nil {
				c.dropped(gen, conn, "transport error", err)
				return
			}
		case engineClose:
			c.dropped(gen, conn, "transport close", nil)
			return
		case engineMessage:
			if p.nsp != Namespace {
				continue
			}
			switch p.kind {
			case socketDisconnect:
				c.dropped(gen, conn, "io server disconnect", nil)
				return
			case socketEvent:
				c.handleEvent(gen, p.data)
			}
		}
	}
}

func (c *Channel) handleEvent(gen uint64, data []byte) {
	name, raw, err := decodeEvent(data)
	if err != nil {
		c.log.WithError(err).Debug("ignoring malformed realtime event")
		return
	}
	if raw == nil {
		c.log.WithField("event", name).Debug("ignoring realtime event")
		return
	}

	received := c.now()
	snap, ok := player.Normalize(raw, received)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	if ok {
		c.last = snap
		c.hasLast = true
	}
	c.mu.Unlock()

	if c.onEvent != nil {
		c.onEvent(Event{Raw: raw, Received: received})
	}
}

// dropped handles a connection lost without the caller asking.
func (c *Channel) dropped(gen uint64, conn Conn, reason string, err error) {
	_ = conn.Close()
	token := c.tokens.Token()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.failures = 0
	if token == "" {
		c.gen++
		c.state = core.ConnectionState{Phase: core.PhaseDisconnected, Reason: reason, Err: apperrors.ErrAuthRequired}
	} else {
		c.scheduleLocked(reason, err)
	}
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"reason": reason}).WithError(err).Warn("realtime channel dropped")
	c.emit()
}

// failLocked records a failed attempt and either schedules the next one or gives up.
func (c *Channel) failLocked(err error) {
	c.failures++
	if c.failures >= c.backoff.MaxAttempts {
		attempts := c.failures
		c.failures = 0
		c.gen++
		c.state = core.ConnectionState{
			Phase:  core.PhaseDisconnected,
			Reason: fmt.Sprintf("gave up after %d attempts", attempts),
			GaveUp: true,
			Err:    fmt.Errorf("%w: %w", apperrors.ErrGaveUp, err),
		}
		c.log.WithError(err).WithField("attempts", attempts).Warn("realtime channel gave up reconnecting")
		return
	}
	c.scheduleLocked("connect failed", err)
}

func (c *Channel) scheduleLocked(reason string, err error) {
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	delay := c.backoff.Delay(c.failures)
	c.state = core.ConnectionState{
		Phase:   core.PhaseReconnecting,
		Attempt: c.failures + 1,
		Delay:   delay,
		Reason:  reason,
		Err:     err,
	}
	c.log.WithFields(logrus.Fields{"attempt": c.failures + 1, "delay": delay}).Debug("scheduling reconnect")
	c.timer = c.afterFunc(delay, func() {
		_ = c.attempt(context.Background(), gen)
	})
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) write(conn Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// emit reports the current state if it differs from the last one reported.
func (c *Channel) emit() {
	if c.onStatus == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	st := c.State()
	if c.lastEmitted != nil && sameState(*c.lastEmitted, st) {
		return
	}
	c.lastEmitted = &st
	c.onStatus(st)
}

func sameState(a, b core.ConnectionState) bool {
	return a.Phase == b.Phase &&
		a.Attempt == b.Attempt &&
		a.Delay == b.Delay &&
		a.Reason == b.Reason &&
		a.GaveUp == b.GaveUp &&
		errText(a.Err) == errText(b.Err)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
