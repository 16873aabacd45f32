package cli

import (
	"fmt"

	"github.com/tessro/ytmdeck/internal/change"
	"github.com/tessro/ytmdeck/internal/companion/auth"
	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/companion/player"
	"github.com/tessro/ytmdeck/internal/core"
	"github.com/tessro/ytmdeck/internal/notify"
	"github.com/tessro/ytmdeck/internal/realtime"
	"github.com/tessro/ytmdeck/internal/reconcile"
)

func appInfo() client.AppInfo {
	return client.AppInfo{
		AppID:      cfg.Companion.AppID,
		AppName:    cfg.Companion.AppName,
		AppVersion: cfg.Companion.AppVersion,
	}
}

// newAuthenticator loads the stored token, if any.
func newAuthenticator() (*auth.Authenticator, auth.Store, error) {
	store, err := auth.NewStore(cfg.Auth, cfg.Companion.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	a := auth.New(store, appInfo(), logger)
	if err := a.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load token: %w", err)
	}
	return a, store, nil
}

func newClient(tokens client.TokenSource) *client.Client {
	return client.New(cfg.Companion.BaseURL(), tokens,
		client.WithTimeout(cfg.Companion.Timeout()),
		client.WithLogger(logger),
	)
}

// getPlayer returns a player for an authenticated session.
func getPlayer() (*player.Player, *client.Client, error) {
	a, _, err := newAuthenticator()
	if err != nil {
		return nil, nil, err
	}
	c := newClient(a)
	return player.New(c), c, nil
}

type coordinatorDeps struct {
	Auth     *auth.Authenticator
	Client   *client.Client
	Host     reconcile.Host
	Factory  reconcile.Factory
	Notifier notify.Notifier
}

// newCoordinator wires the realtime channel to a coordinator and keeps the
// coordinator informed of token changes. The returned function releases the
// auth subscription.
func newCoordinator(d coordinatorDeps) (*reconcile.Coordinator, func(), error) {
	policy, err := change.ParsePolicy(cfg.Sync.ProgressRedraw)
	if err != nil {
		return nil, nil, err
	}

	var coord *reconcile.Coordinator
	channel := realtime.New(realtime.Options{
		URL:            realtime.URL(cfg.Companion.Host, cfg.Companion.Port),
		Tokens:         d.Auth,
		ConnectTimeout: cfg.Realtime.ConnectTimeoutDuration(),
		Backoff: realtime.Backoff{
			Base:        cfg.Realtime.BackoffBaseDuration(),
			Max:         cfg.Realtime.BackoffMaxDuration(),
			MaxAttempts: cfg.Realtime.MaxAttempts,
		},
		Logger: logger.WithField("component", "realtime"),
		OnEvent: func(e realtime.Event) {
			coord.OnExternalUpdate(e.Raw, e.Received)
		},
		OnStatus: func(st core.ConnectionState) {
			coord.OnStatus(st)
		},
	})

	coord = reconcile.New(reconcile.Options{
		Channel:      channel,
		Fetcher:      d.Client,
		Auth:         d.Auth,
		Host:         d.Host,
		Factory:      d.Factory,
		Notifier:     d.Notifier,
		Policy:       policy,
		FreshWindow:  cfg.Sync.FreshWindowDuration(),
		PollInterval: cfg.Sync.PollIntervalDuration(),
		Logger:       logger.WithField("component", "reconcile"),
	})

	unsubscribe := d.Auth.Subscribe(coord.OnAuthChanged)
	return coord, unsubscribe, nil
}
