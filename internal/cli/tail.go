package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/tessro/ytmdeck/internal/errors"
	"github.com/tessro/ytmdeck/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Follow the companion server's realtime feed and print changes as they happen.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Pause/Resume and seeks
  - Volume and rating changes
  - Connection status changes

Template fields for --format: .Type .Emoji .Time .Title .Artist .Album
.Volume .Progress .Duration .Status`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	a, _, err := newAuthenticator()
	if err != nil {
		return err
	}
	if !a.IsAuthenticated() {
		return apperrors.ErrAuthRequired
	}

	coord, unsubscribe, err := newCoordinator(coordinatorDeps{Auth: a, Client: newClient(a)})
	if err != nil {
		return err
	}
	defer unsubscribe()
	defer coord.Close()

	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	events := tail.Watch(ctx, coord.Subscribe())

	// The first snapshot is reported as a track change.
	coord.GetSnapshot(ctx)
	if err := coord.EnsureLiveConnection(ctx); err != nil {
		if errors.Is(err, apperrors.ErrAuthRequired) {
			return err
		}
		logger.WithError(err).Warn("realtime feed not connected yet; retrying in the background")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Run(ctx)
	}()

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if JSONOutput() {
				_ = enc.Encode(event)
			} else {
				fmt.Println(formatter.Format(event))
			}

		case err := <-errCh:
			return err
		}
	}
}
