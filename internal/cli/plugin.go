package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tessro/ytmdeck/internal/companion/auth"
	"github.com/tessro/ytmdeck/internal/companion/client"
	"github.com/tessro/ytmdeck/internal/companion/player"
	"github.com/tessro/ytmdeck/internal/core"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/notify"
	"github.com/tessro/ytmdeck/internal/reconcile"
	"github.com/tessro/ytmdeck/internal/render"
	"github.com/tessro/ytmdeck/internal/streamdeck"
	"github.com/tessro/ytmdeck/internal/surface"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin -port N -pluginUUID U -registerEvent E -info JSON",
	Short: "Run as a Stream Deck plugin",
	Long: `Run as a Stream Deck plugin. The Stream Deck application starts the plugin
with the registration parameters; this command is not meant to be run by hand.`,
	DisableFlagParsing: true,
	Hidden:             true,
	RunE:               runPlugin,
}

func init() {
	rootCmd.AddCommand(pluginCmd)
}

func runPlugin(cmd *cobra.Command, args []string) error {
	params, err := streamdeck.ParseArgs(args)
	if err != nil {
		return err
	}

	log := logger.WithFields(logrus.Fields{
		"plugin":   params.PluginUUID,
		"platform": params.Info.Application.Platform,
	})

	a, _, err := newAuthenticator()
	if err != nil {
		return err
	}
	c := newClient(a)
	p := player.New(c)

	threshold, err := notify.ParseSeverity(cfg.Notify.Threshold)
	if err != nil {
		return err
	}
	notifier := notify.New(threshold, cfg.Notify.CooldownDuration(), notify.LogSink{Log: log})

	theme, err := render.ParseTheme(cfg.Render.Background, cfg.Render.Foreground)
	if err != nil {
		return err
	}
	art, err := render.NewArtCache(cfg.Render.KeySize, cfg.Render.ArtCacheSize, render.WithArtLogger(log))
	if err != nil {
		return err
	}
	defer art.Close()

	bridge := streamdeck.New(params, streamdeck.WithLogger(log))
	defer func() { _ = bridge.Close() }()

	var coord *reconcile.Coordinator
	factory := surface.NewFactory(surface.Deps{
		Player: p,
		Art:    art,
		Theme:  theme,
		Size:   cfg.Render.KeySize,
		Current: func() core.PlaybackSnapshot {
			return coord.Snapshot()
		},
	})

	coord, unsubscribe, err := newCoordinator(coordinatorDeps{
		Auth:     a,
		Client:   c,
		Host:     bridge,
		Factory:  factory,
		Notifier: notifier,
	})
	if err != nil {
		return err
	}
	defer unsubscribe()
	defer coord.Close()

	art.OnReady(func(string) { coord.Redraw(core.KindNowPlaying) })
	bridge.Attach(coord)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	login := newLoginRunner(ctx, a, c, notifier, log)
	bridge.OnAuthRequired(login.Start)

	if err := bridge.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Stream Deck: %w", err)
	}

	go validateToken(ctx, a, c, login, log)
	go func() {
		if err := coord.Run(ctx); err != nil {
			log.WithError(err).Warn("coordinator stopped")
		}
	}()

	log.WithField("url", bridge.URL()).Info("plugin registered")
	return bridge.Run(ctx)
}

// validateToken checks a stored token once at startup and starts a login when
// none is usable.
func validateToken(ctx context.Context, a *auth.Authenticator, c *client.Client, login *loginRunner, log logrus.FieldLogger) {
	err := a.Validate(ctx, c)
	switch {
	case err == nil:
		log.Debug("stored token accepted")
	case errors.Is(err, apperrors.ErrAuthRequired):
		login.Start()
	case errors.Is(err, context.Canceled):
	default:
		log.WithError(err).Warn("could not validate stored token")
	}
}

// loginRunner runs at most one background login at a time.
type loginRunner struct {
	ctx      context.Context
	auth     *auth.Authenticator
	client   *client.Client
	notifier notify.Notifier
	log      logrus.FieldLogger
	running  atomic.Bool
}

func newLoginRunner(ctx context.Context, a *auth.Authenticator, c *client.Client, n notify.Notifier, log logrus.FieldLogger) *loginRunner {
	return &loginRunner{ctx: ctx, auth: a, client: c, notifier: n, log: log}
}

// Start begins a login unless one is already in flight.
func (l *loginRunner) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer l.running.Store(false)

		ctx, cancel := context.WithTimeout(l.ctx, loginTimeout)
		defer cancel()

		err := l.auth.Login(ctx, l.client, func(code string) error {
			l.notifier.Notify(notify.Warning, fmt.Sprintf("Approve ytmdeck in YouTube Music Desktop (code %s)", code))
			return nil
		})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				l.log.WithError(err).Warn("login failed")
			}
			return
		}
		l.log.Info("authorized with YouTube Music Desktop")
	}()
}
