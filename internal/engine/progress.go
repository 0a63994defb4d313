package engine

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// progress prints one line per step, rewriting it in place on a terminal.
type progress struct {
	w      io.Writer
	inline bool
}

func newProgress(w io.Writer) *progress {
	inline := false
	if f, ok := w.(*os.File); ok {
		inline = term.IsTerminal(int(f.Fd()))
	}
	return &progress{w: w, inline: inline}
}

func (p *progress) step(done, total int, res StepResult) {
	if p.w == nil {
		return
	}
	status := "ok"
	if !res.OK {
		status = "FAILED"
	} else if res.Blank {
		status = "blank?"
	}
	line := fmt.Sprintf("[>] %d/%d %s %s %s (drift %+.2fs)", done, total, res.Address, res.Year, status, res.DriftSeconds)
	if p.inline {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		if done == total {
			fmt.Fprintln(p.w)
		}
		return
	}
	fmt.Fprintln(p.w, line)
}
