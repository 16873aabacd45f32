// Package auth owns the companion server API token: the code/approval
// handshake, persistence, and startup validation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/ytmdeck/internal/companion/client"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
)

// MaxValidateAttempts bounds retries of rate-limited validation requests.
const MaxValidateAttempts = 3

// Handshaker performs the code/approval exchange.
type Handshaker interface {
	RequestCode(ctx context.Context, app client.AppInfo) (string, error)
	RequestToken(ctx context.Context, appID, code string) (string, error)
}

// Prober performs an authenticated request used to validate the token.
type Prober interface {
	FetchState(ctx context.Context) (*client.State, error)
}

// Authenticator holds the current token and tells subscribers when its validity changes.
// It satisfies client.TokenSource.
type Authenticator struct {
	store Store
	app   client.AppInfo
	log   logrus.FieldLogger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	token string
	subs  map[int]func(valid bool)
	next  int
}

// New creates an authenticator backed by store.
func New(store Store, app client.AppInfo, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{
		store: store,
		app:   app,
		log:   log,
		now:   time.Now,
		sleep: sleepCtx,
		subs:  make(map[int]func(bool)),
	}
}

// Load reads the stored token, if any.
func (a *Authenticator) Load() error {
	tok, err := a.store.Load()
	if err != nil {
		return err
	}
	if tok.Valid() {
		a.set(tok.Value)
	}
	return nil
}

// IsAuthenticated reports whether a token is held.
func (a *Authenticator) IsAuthenticated() bool {
	return a.Token() != ""
}

// Token returns the current token, or "" if none.
func (a *Authenticator) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Subscribe registers fn to be called when the token becomes valid or invalid.
// The returned function removes the subscription.
func (a *Authenticator) Subscribe(fn func(valid bool)) func() {
	a.mu.Lock()
	id := a.next
	a.next++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// SetToken stores and activates a new token.
func (a *Authenticator) SetToken(value string) error {
	if value == "" {
		return errors.New("empty token")
	}
	if err := a.store.Save(&Token{Value: value, AppID: a.app.AppID, IssuedAt: a.now()}); err != nil {
		return err
	}
	a.set(value)
	return nil
}

// Invalidate drops the token after the server rejected it.
func (a *Authenticator) Invalidate() {
	if err := a.store.Delete(); err != nil {
		a.log.WithError(err).Warn("failed to delete rejected token")
	}
	a.set("")
}

// Logout forgets the token.
func (a *Authenticator) Logout() error {
	if err := a.store.Delete(); err != nil {
		return err
	}
	a.set("")
	return nil
}

// Login runs the handshake. approve is called with the code the desktop app
// will display; returning an error aborts before the token is requested.
func (a *Authenticator) Login(ctx context.Context, h Handshaker, approve func(code string) error) error {
	code, err := h.RequestCode(ctx, a.app)
	if err != nil {
		return fmt.Errorf("request auth code: %w", err)
	}

	if approve != nil {
		if err := approve(code); err != nil {
			return err
		}
	}

	a.log.WithField("code", code).Info("waiting for approval in YouTube Music Desktop")
	token, err := h.RequestToken(ctx, a.app.AppID, code)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}

	return a.SetToken(token)
}

// Validate checks the held token against the server. Rate-limited probes are
// retried up to MaxValidateAttempts times, waiting max(RetryAfter, attempt*1s).
// A rejected token is invalidated. Any other error ends validation.
func (a *Authenticator) Validate(ctx context.Context, p Prober) error {
	if !a.IsAuthenticated() {
		return apperrors.ErrAuthRequired
	}

	var lastErr error
	for attempt := 1; attempt <= MaxValidateAttempts; attempt++ {
		_, err := p.FetchState(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, apperrors.ErrAuthRequired) {
			a.log.Info("stored token was rejected")
			a.Invalidate()
			return err
		}

		retryAfter, limited := apperrors.RetryAfter(err)
		if !limited {
			return err
		}
		if attempt == MaxValidateAttempts {
			break
		}

		wait := max(retryAfter, time.Duration(attempt)*time.Second)
		a.log.WithFields(logrus.Fields{"attempt": attempt, "wait": wait}).Debug("token validation rate limited")
		if err := a.sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("token validation failed after %d attempts: %w", MaxValidateAttempts, lastErr)
}

func (a *Authenticator) set(value string) {
	a.mu.Lock()
	was := a.token != ""
	a.token = value
	now := value != ""
	var subs []func(bool)
	if was != now {
		subs = make([]func(bool), 0, len(a.subs))
		for _, fn := range a.subs {
			subs = append(subs, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(now)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
