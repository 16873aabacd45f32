package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tessro/ytmdeck/internal/core"
)

// Table aligns key/value style CLI output in columns.
type Table struct {
	w *tabwriter.Writer
}

// NewTable writes to stdout.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter writes to out, printing headers first when given.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	if len(headers) > 0 {
		t.Row(headers...)
	}
	return t
}

// Row adds a row.
func (t *Table) Row(values ...string) {
	fmt.Fprintln(t.w, strings.Join(values, "\t"))
}

// Flush writes the aligned output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// FormatDuration renders whole seconds as m:ss, or h:mm:ss past an hour.
// Fractional seconds from the companion server are rounded down.
func FormatDuration(seconds float64) string {
	total := int(math.Max(0, math.Floor(seconds)))
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgress draws a bar for the snapshot's position in its track.
func FormatProgress(s core.PlaybackSnapshot, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(s.ProgressPercent() / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}
