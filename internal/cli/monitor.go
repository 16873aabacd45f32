package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/ytmdeck/internal/companion/player"
	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"ui", "tui"},
	Short:   "Launch the live terminal monitor",
	Long: `Launch the live terminal monitor.

The monitor shows:
  • Now Playing - current track, progress, volume and rating
  • Connection - realtime feed phase, retries and freshness
  • History - playback events as they happen

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  n / p        Next / previous track
  + / -        Volume up/down
  l / d        Like / dislike
  m            Mute
  r            Cycle repeat
  Tab          Switch panel`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, _, err := newAuthenticator()
	if err != nil {
		return err
	}
	if !a.IsAuthenticated() {
		return apperrors.ErrAuthRequired
	}

	// Log lines would tear the alternate screen.
	if cfg.Log.File == "" {
		logger.SetOutput(io.Discard)
	}

	c := newClient(a)
	coord, unsubscribe, err := newCoordinator(coordinatorDeps{Auth: a, Client: c})
	if err != nil {
		return err
	}
	defer unsubscribe()
	defer coord.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		coord.GetSnapshot(ctx)
		_ = coord.EnsureLiveConnection(ctx)
		_ = coord.Run(ctx)
	}()

	return tui.Run(ctx, coord, player.New(c))
}
