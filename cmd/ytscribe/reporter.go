package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"ytscribe/internal/batch"
)

// consoleReporter prints one line per job state change. On a terminal it also
// prints coarse progress ticks; in pipelines it stays quiet between
// transitions so logs remain grep-friendly.
type consoleReporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool

	lastState    map[string]batch.State
	lastProgress map[string]int
}

func newConsoleReporter(out io.Writer) *consoleReporter {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &consoleReporter{
		out:          out,
		interactive:  interactive,
		lastState:    make(map[string]batch.State),
		lastProgress: make(map[string]int),
	}
}

func (r *consoleReporter) JobUpdated(snapshot batch.JobSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, seen := r.lastState[snapshot.ID]; !seen || prev != snapshot.State {
		r.lastState[snapshot.ID] = snapshot.State
		switch snapshot.State {
		case batch.StateFailed:
			fmt.Fprintf(r.out, "[%s] %s: %s\n", snapshot.State, snapshot.SourceRef, snapshot.Error)
		default:
			fmt.Fprintf(r.out, "[%s] %s\n", snapshot.State, snapshot.SourceRef)
		}
		return
	}

	if !r.interactive || snapshot.State != batch.StateRunning {
		return
	}
	// Tick at 10% steps to keep the output readable.
	percent := int(snapshot.Progress*10) * 10
	if percent > r.lastProgress[snapshot.ID] {
		r.lastProgress[snapshot.ID] = percent
		fmt.Fprintf(r.out, "[%s] %s: %d%%\n", snapshot.State, snapshot.SourceRef, percent)
	}
}
