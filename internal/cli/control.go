package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/ytmdeck/internal/companion/player"
	"github.com/tessro/ytmdeck/internal/core"
)

// simpleCommand is a control command that sends one player command.
type simpleCommand struct {
	use     string
	aliases []string
	short   string
	status  string
	message string
	run     func(p *player.Player, ctx context.Context) error
}

var simpleCommands = []simpleCommand{
	{use: "play", short: "Resume playback", status: "playing", message: "▶ Playing",
		run: (*player.Player).Play},
	{use: "pause", short: "Pause playback", status: "paused", message: "⏸ Paused",
		run: (*player.Player).Pause},
	{use: "toggle", short: "Toggle play/pause", status: "toggled", message: "⏯ Toggled playback",
		run: (*player.Player).PlayPause},
	{use: "next", aliases: []string{"skip"}, short: "Skip to next track", status: "skipped", message: "⏭ Skipped to next track",
		run: (*player.Player).Next},
	{use: "prev", aliases: []string{"previous"}, short: "Go to previous track", status: "previous", message: "⏮ Previous track",
		run: (*player.Player).Previous},
	{use: "like", short: "Toggle like on the current track", status: "like_toggled", message: "👍 Toggled like",
		run: (*player.Player).ToggleLike},
	{use: "dislike", short: "Toggle dislike on the current track", status: "dislike_toggled", message: "👎 Toggled dislike",
		run: (*player.Player).ToggleDislike},
}

var (
	volumeUp   bool
	volumeDown bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust volume",
	Long: `Set the playback volume (0-100) or adjust it up/down.

Examples:
  ytmdeck volume 50      # Set volume to 50%
  ytmdeck volume --up    # Step volume up
  ytmdeck volume --down  # Step volume down
  ytmdeck volume         # Show current volume`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Toggle mute",
	RunE:  runMute,
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [none|all|one]",
	Short: "Set or cycle the repeat mode",
	Long: `Set the repeat mode, or cycle none → all → one when no mode is given.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"none", "all", "one"},
	RunE:      runRepeat,
}

func init() {
	for _, sc := range simpleCommands {
		rootCmd.AddCommand(newSimpleCommand(sc))
	}

	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Step volume up")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Step volume down")
	volumeCmd.MarkFlagsMutuallyExclusive("up", "down")

	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(repeatCmd)
}

func newSimpleCommand(sc simpleCommand) *cobra.Command {
	return &cobra.Command{
		Use:     sc.use,
		Aliases: sc.aliases,
		Short:   sc.short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Companion.Timeout())
			defer cancel()

			p, _, err := getPlayer()
			if err != nil {
				return err
			}

			if err := sc.run(p, ctx); err != nil {
				return fmt.Errorf("failed to %s: %w", sc.use, err)
			}

			if JSONOutput() {
				_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": sc.status})
			} else {
				fmt.Println(sc.message)
			}
			return nil
		},
	}
}

func runVolume(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Companion.Timeout())
	defer cancel()

	var target *int
	if len(args) > 0 {
		if volumeUp || volumeDown {
			return fmt.Errorf("give a level or --up/--down, not both")
		}
		val, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid volume level: %s", args[0])
		}
		if val < 0 || val > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		target = &val
	}

	p, _, err := getPlayer()
	if err != nil {
		return err
	}

	switch {
	case target != nil:
		err = p.SetVolume(ctx, *target)
	case volumeUp:
		err = p.VolumeUp(ctx)
	case volumeDown:
		err = p.VolumeDown(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	if target != nil {
		return printVolume(*target, false)
	}

	state, err := p.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}
	return printVolume(state.Volume, state.Muted)
}

func printVolume(volume int, muted bool) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"volume": volume,
			"muted":  muted,
		})
	}
	if muted {
		fmt.Printf("🔇 Volume: %d%% (muted)\n", volume)
	} else {
		fmt.Printf("🔊 Volume: %d%%\n", volume)
	}
	return nil
}

func runMute(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Companion.Timeout())
	defer cancel()

	p, _, err := getPlayer()
	if err != nil {
		return err
	}

	state, err := p.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}

	if state.Muted {
		err = p.Unmute(ctx)
	} else {
		err = p.Mute(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to toggle mute: %w", err)
	}

	return printVolume(state.Volume, !state.Muted)
}

func runRepeat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Companion.Timeout())
	defer cancel()

	p, _, err := getPlayer()
	if err != nil {
		return err
	}

	var mode core.RepeatMode
	if len(args) > 0 {
		mode, err = parseRepeatMode(args[0])
		if err != nil {
			return err
		}
	} else {
		state, err := p.GetState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get playback state: %w", err)
		}
		mode = state.RepeatMode.Next()
	}

	if err := p.SetRepeatMode(ctx, mode); err != nil {
		return fmt.Errorf("failed to set repeat mode: %w", err)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"repeat": mode.String()})
	} else {
		fmt.Printf("🔁 Repeat: %s\n", mode)
	}
	return nil
}

func parseRepeatMode(s string) (core.RepeatMode, error) {
	switch strings.ToLower(s) {
	case "none", "off":
		return core.RepeatModeNone, nil
	case "all", "playlist":
		return core.RepeatModeAll, nil
	case "one", "track":
		return core.RepeatModeOne, nil
	default:
		return core.RepeatModeUnknown, fmt.Errorf("invalid repeat mode %q (want none, all or one)", s)
	}
}
