// Package streamdeck connects the plugin to the Stream Deck application.
package streamdeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/render"
)

const (
	writeTimeout = 5 * time.Second
	pressTimeout = 10 * time.Second
)

// ErrNotConnected is returned when writing before Connect succeeds.
var ErrNotConnected = errors.New("not connected to the Stream Deck application")

// Handler receives host events. The reconcile coordinator implements it.
type Handler interface {
	RegisterSurface(reg core.SurfaceRegistration) error
	UnregisterSurface(id string)
	UnregisterDevice(device string) []string
	Press(ctx context.Context, id string) error
	EnsureLiveConnection(ctx context.Context) error
	NotifyAll() error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(b *Bridge) { b.dialer = d }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Bridge) { b.log = log }
}

// WithHost overrides the host address, which defaults to 127.0.0.1.
func WithHost(host string) Option {
	return func(b *Bridge) { b.host = host }
}

// Bridge is the host side of the coordinator: it turns host events into
// registrations and presses, and frames into setImage/setTitle commands.
type Bridge struct {
	params Params
	host   string
	dialer *websocket.Dialer
	log    logrus.FieldLogger

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu         sync.Mutex
	handler    Handler
	onAuth     func()
	active     map[string]core.SurfaceRegistration
	lastImages map[string]string
	lastTitles map[string]string

	wg sync.WaitGroup
}

// New creates a bridge for the given launch parameters.
func New(params Params, opts ...Option) *Bridge {
	b := &Bridge{
		params:     params,
		host:       "127.0.0.1",
		dialer:     websocket.DefaultDialer,
		log:        logrus.StandardLogger(),
		active:     make(map[string]core.SurfaceRegistration),
		lastImages: make(map[string]string),
		lastTitles: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach sets the event handler. It must be called before Run.
func (b *Bridge) Attach(h Handler) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

// OnAuthRequired sets a callback run when a key press fails for lack of a token.
func (b *Bridge) OnAuthRequired(fn func()) {
	b.mu.Lock()
	b.onAuth = fn
	b.mu.Unlock()
}

// URL returns the host websocket address.
func (b *Bridge) URL() string {
	return "ws://" + net.JoinHostPort(b.host, strconv.Itoa(b.params.Port))
}

// Connect dials the host and registers the plugin.
func (b *Bridge) Connect(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.URL(), nil)
	if err != nil {
		return fmt.Errorf("dial stream deck: %w", err)
	}

	b.writeMu.Lock()
	b.conn = conn
	b.writeMu.Unlock()

	if err := b.send(registration{Event: b.params.RegisterEvent, UUID: b.params.PluginUUID}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("register plugin: %w", err)
	}

	b.log.WithFields(logrus.Fields{
		"port":    b.params.Port,
		"devices": len(b.params.Info.Devices),
		"host":    b.params.Info.Application.Version,
	}).Info("registered with Stream Deck")
	return nil
}

// Run reads host events until the connection closes or ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.writeMu.Lock()
	conn := b.conn
	b.writeMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer b.wg.Wait()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Info("Stream Deck closed the connection")
				return nil
			}
			return fmt.Errorf("read stream deck event: %w", err)
		}

		var ev inbound
		if err := json.Unmarshal(data, &ev); err != nil {
			b.log.WithError(err).Warn("ignoring malformed host event")
			continue
		}
		b.dispatch(ctx, ev)
	}
}

func (b *Bridge) dispatch(ctx context.Context, ev inbound) {
	log := b.log.WithFields(logrus.Fields{"event": ev.Event, "surface": ev.Context})

	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		log.Warn("no handler attached; dropping event")
		return
	}

	switch ev.Event {
	case EventWillAppear, EventDidReceiveSettings:
		reg, ok := b.registration(ev)
		if !ok {
			log.WithField("action", ev.Action).Warn("unknown action")
			return
		}
		b.mu.Lock()
		b.active[reg.ID] = reg
		if ev.Event == EventDidReceiveSettings {
			delete(b.lastImages, reg.ID)
			delete(b.lastTitles, reg.ID)
		}
		b.mu.Unlock()
		if err := h.RegisterSurface(reg); err != nil {
			log.WithError(err).Warn("register surface failed")
		}

	case EventWillDisappear:
		b.forget(ev.Context)
		h.UnregisterSurface(ev.Context)

	case EventKeyDown:
		b.press(ctx, h, ev.Context)

	case EventDeviceDidConnect:
		log.WithField("device", ev.Device).Debug("device connected")

	case EventDeviceDidDisconnect:
		ids := h.UnregisterDevice(ev.Device)
		for _, id := range ids {
			b.forget(id)
		}
		log.WithFields(logrus.Fields{"device": ev.Device, "surfaces": len(ids)}).Debug("device disconnected")

	case EventSystemDidWakeUp:
		b.goBackground(ctx, func(ctx context.Context) {
			if err := h.EnsureLiveConnection(ctx); err != nil {
				log.WithError(err).Debug("reconnect after wake failed")
			}
			if err := h.NotifyAll(); err != nil {
				log.WithError(err).Debug("redraw after wake failed")
			}
		})

	default:
		log.Trace("ignoring host event")
	}
}

func (b *Bridge) registration(ev inbound) (core.SurfaceRegistration, bool) {
	kind, ok := KindForAction(ev.Action)
	if !ok {
		return core.SurfaceRegistration{}, false
	}
	var payload actionPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			b.log.WithError(err).WithField("surface", ev.Context).Debug("ignoring malformed settings")
		}
	}
	return core.SurfaceRegistration{
		ID:      ev.Context,
		Kind:    kind,
		Device:  ev.Device,
		Options: payload.Settings.Options(),
	}, true
}

// press runs off the read loop so a slow command never stalls host events.
func (b *Bridge) press(ctx context.Context, h Handler, id string) {
	b.goBackground(ctx, func(ctx context.Context) {
		err := h.Press(ctx, id)
		if err == nil {
			b.mu.Lock()
			reg := b.active[id]
			b.mu.Unlock()
			// Skip keys look the same before and after; confirm them.
			if reg.Kind == core.KindNext || reg.Kind == core.KindPrevious {
				_ = b.ShowOk(id)
			}
			return
		}

		b.log.WithError(err).WithField("surface", id).Warn("key press failed")
		if alertErr := b.ShowAlert(id); alertErr != nil {
			b.log.WithError(alertErr).Debug("showAlert failed")
		}
		if errors.Is(err, apperrors.ErrAuthRequired) {
			b.mu.Lock()
			fn := b.onAuth
			b.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	})
}

func (b *Bridge) goBackground(ctx context.Context, fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, pressTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (b *Bridge) forget(id string) {
	b.mu.Lock()
	delete(b.active, id)
	delete(b.lastImages, id)
	delete(b.lastTitles, id)
	b.mu.Unlock()
}

// ActiveSurfaces lists the contexts currently on screen.
func (b *Bridge) ActiveSurfaces() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lo.Keys(b.active)
}

// DrawSurface sends a frame to a key. Unchanged images and titles are not resent.
func (b *Bridge) DrawSurface(id string, frame core.Frame) error {
	b.mu.Lock()
	_, visible := b.active[id]
	lastImage, lastTitle := b.lastImages[id], b.lastTitles[id]
	b.mu.Unlock()
	if !visible {
		return fmt.Errorf("surface %s is not visible", id)
	}

	if frame.Image != nil {
		uri, err := render.DataURI(frame.Image)
		if err != nil {
			return err
		}
		if uri != lastImage {
			if err := b.send(outbound{Event: CmdSetImage, Context: id, Payload: imagePayload{Image: uri}}); err != nil {
				return err
			}
			b.mu.Lock()
			b.lastImages[id] = uri
			b.mu.Unlock()
		}
	}

	if frame.Title != lastTitle {
		if err := b.send(outbound{Event: CmdSetTitle, Context: id, Payload: titlePayload{Title: frame.Title}}); err != nil {
			return err
		}
		b.mu.Lock()
		b.lastTitles[id] = frame.Title
		b.mu.Unlock()
	}
	return nil
}

// ShowAlert flashes the warning triangle on a key.
func (b *Bridge) ShowAlert(id string) error {
	return b.send(outbound{Event: CmdShowAlert, Context: id})
}

// ShowOk flashes the check mark on a key.
func (b *Bridge) ShowOk(id string) error {
	return b.send(outbound{Event: CmdShowOk, Context: id})
}

func (b *Bridge) send(msg any) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.conn == nil {
		return ErrNotConnected
	}
	if err := b.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := b.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write %T: %w", msg, err)
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (b *Bridge) Close() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if b.conn == nil {
		return nil
	}
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := b.conn.Close()
	b.conn = nil
	return err
}
