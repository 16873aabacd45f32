package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/ytmdeck/internal/companion/client"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
)

type probeFunc func(ctx context.Context) (*client.State, error)

func (f probeFunc) FetchState(ctx context.Context) (*client.State, error) { return f(ctx) }

type fakeHandshaker struct {
	code, token string
	err         error
}

func (f fakeHandshaker) RequestCode(context.Context, client.AppInfo) (string, error) {
	return f.code, f.err
}

func (f fakeHandshaker) RequestToken(_ context.Context, _, code string) (string, error) {
	if code != f.code {
		return "", errors.New("wrong code")
	}
	return f.token, f.err
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *[]time.Duration) {
	t.Helper()
	store, err := NewFileStore(afero.NewMemMapFs(), "/token.json")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	a := New(store, client.AppInfo{AppID: "ytmdeck"}, logger)
	var waits []time.Duration
	a.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return a, &waits
}

func TestLoginAndSubscribe(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	var events []bool
	unsubscribe := a.Subscribe(func(valid bool) { events = append(events, valid) })

	var shown string
	err := a.Login(context.Background(), fakeHandshaker{code: "4821", token: "tok"}, func(code string) error {
		shown = code
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "4821", shown)
	assert.True(t, a.IsAuthenticated())
	assert.Equal(t, "tok", a.Token())

	// Re-setting a token while already valid is not a transition.
	require.NoError(t, a.SetToken("tok2"))
	require.NoError(t, a.Logout())
	assert.False(t, a.IsAuthenticated())
	assert.Equal(t, []bool{true, false}, events)

	unsubscribe()
	require.NoError(t, a.SetToken("tok3"))
	assert.Len(t, events, 2)

	// Token survives a reload from the store.
	b := New(a.store, a.app, a.log)
	require.NoError(t, b.Load())
	assert.Equal(t, "tok3", b.Token())
}

func TestLoginAborted(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	abort := errors.New("user declined")

	err := a.Login(context.Background(), fakeHandshaker{code: "1", token: "tok"}, func(string) error { return abort })
	assert.ErrorIs(t, err, abort)
	assert.False(t, a.IsAuthenticated())
}

func TestValidate(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		a, _ := newTestAuthenticator(t)
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			t.Fatal("probe should not be called")
			return nil, nil
		}))
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
	})

	t.Run("valid", func(t *testing.T) {
		a, waits := newTestAuthenticator(t)
		require.NoError(t, a.SetToken("tok"))
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			return &client.State{}, nil
		}))
		assert.NoError(t, err)
		assert.Empty(t, *waits)
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		a, _ := newTestAuthenticator(t)
		require.NoError(t, a.SetToken("tok"))
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			return nil, apperrors.ErrAuthRequired
		}))
		assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
		assert.False(t, a.IsAuthenticated())
	})

	t.Run("rate limit retried with increasing waits", func(t *testing.T) {
		a, waits := newTestAuthenticator(t)
		require.NoError(t, a.SetToken("tok"))
		calls := 0
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			calls++
			if calls < 3 {
				return nil, &apperrors.RateLimitError{RetryAfter: 500 * time.Millisecond}
			}
			return &client.State{}, nil
		}))
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
	})

	t.Run("rate limit honours long retry hint", func(t *testing.T) {
		a, waits := newTestAuthenticator(t)
		require.NoError(t, a.SetToken("tok"))
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			return nil, &apperrors.RateLimitError{RetryAfter: 7 * time.Second}
		}))
		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
		assert.Equal(t, []time.Duration{7 * time.Second, 7 * time.Second}, *waits)
		assert.True(t, a.IsAuthenticated())
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		a, waits := newTestAuthenticator(t)
		require.NoError(t, a.SetToken("tok"))
		calls := 0
		err := a.Validate(context.Background(), probeFunc(func(context.Context) (*client.State, error) {
			calls++
			return nil, apperrors.ErrUnreachable
		}))
		assert.ErrorIs(t, err, apperrors.ErrUnreachable)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *waits)
		assert.True(t, a.IsAuthenticated())
	})
}
