package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/client/batch"
)

const barWidth = 20

// progressView prints attempt events. On a terminal every progress step is
// drawn as a bar; otherwise only state changes are printed.
type progressView struct {
	mu   sync.Mutex
	out  io.Writer
	tty  bool
	last map[int]batch.State
}

func newProgressView(out io.Writer, tty bool) *progressView {
	return &progressView{out: out, tty: tty, last: make(map[int]batch.State)}
}

func (v *progressView) observe(s batch.AttemptState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	prev, seen := v.last[s.Index]
	v.last[s.Index] = s.State
	if s.Removed {
		delete(v.last, s.Index)
	}
	if !v.tty && seen && prev == s.State && !s.Removed {
		return
	}
	fmt.Fprintln(v.out, formatAttempt(s))
}

func formatAttempt(s batch.AttemptState) string {
	head := fmt.Sprintf("  #%d %-24s", s.Index, s.FileName)
	switch {
	case s.Removed:
		return head + " removed"
	case s.State == batch.StateUploading:
		return head + " " + renderBar(s.Progress)
	case s.State == batch.StateSucceeded:
		return head + " " + renderBar(100) + " " + s.URL
	case s.State == batch.StateFailed && s.Err != nil:
		return fmt.Sprintf("%s failed (%s): %v", head, s.Err.Kind, s.Err.Err)
	default:
		return head + " " + s.State.String()
	}
}

// renderBar draws "[#####...............]  25%".
func renderBar(pct int) string {
	pct = max(0, min(pct, 100))
	filled := pct * barWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), pct)
}
