// Package progress prints world generation progress to a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"

	"github.com/anyweez/glimpse/internal/world"
)

// Tracker prints one line per completed generation stage. Colors are used
// only when the output is a terminal.
type Tracker struct {
	out   io.Writer
	au    aurora.Aurora
	start time.Time
}

// NewTracker creates a tracker writing to out.
func NewTracker(out io.Writer) *Tracker {
	return &Tracker{
		out:   out,
		au:    aurora.NewAurora(isTerminal(out)),
		start: time.Now(),
	}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Stage reports a finished stage. It matches the world.Generate callback.
func (t *Tracker) Stage(ev world.StageEvent) {
	fmt.Fprintf(t.out, "%s %s %s\n",
		t.au.Cyan(fmt.Sprintf("[%d of %d]", ev.Index, ev.Total)),
		ev.Stage,
		t.au.Gray(12, fmt.Sprintf("(%s cells, %s)", humanize.Comma(int64(ev.Affected)), ev.Elapsed.Round(time.Millisecond))),
	)
	if ev.Index == ev.Total {
		t.Done()
	}
}

// Done prints the completion line.
func (t *Tracker) Done() {
	fmt.Fprintf(t.out, "%s in %s\n", t.au.Green("Done"), time.Since(t.start).Round(time.Millisecond))
}
