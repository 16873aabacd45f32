package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tessro/ytmdeck/internal/realtime"
	"github.com/tessro/ytmdeck/internal/streamdeck"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Realtime  string `json:"realtime_namespace"`
	Actions   string `json:"action_prefix"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			Realtime:  realtime.Namespace,
			Actions:   streamdeck.ActionPrefix,
		}

		if JSONOutput() {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ytmdeck %s\n", info.Version)
		if Verbose() {
			t := NewTableWriter(cmd.OutOrStdout())
			t.Row("  commit", info.Commit)
			t.Row("  built", info.BuildDate)
			t.Row("  go", info.GoVersion)
			t.Row("  platform", info.Platform)
			t.Row("  realtime", info.Realtime)
			t.Row("  actions", info.Actions+"*")
			t.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
