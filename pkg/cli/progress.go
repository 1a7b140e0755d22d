package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"assetflow/internal/domain"
)

const progressBarWidth = 30

// progressPrinter renders job status updates. On a terminal the line is
// redrawn in place; otherwise each update is printed on its own line.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	drawn bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &progressPrinter{w: w, tty: tty}
}

// Update implements jobs.ProgressFunc.
func (p *progressPrinter) Update(st domain.JobStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := formatProgress(st, p.tty)
	if p.tty {
		_, _ = fmt.Fprintf(p.w, "\r\033[K%s", line)
		p.drawn = true
		return
	}
	_, _ = fmt.Fprintln(p.w, line)
}

// Done terminates an in-place progress line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		_, _ = fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func formatProgress(st domain.JobStatus, bar bool) string {
	pct := st.ProgressPercent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	var b strings.Builder
	fmt.Fprintf(&b, "job %s %-9s", st.JobID, st.Status)
	if bar {
		filled := int(pct / 100 * progressBarWidth)
		b.WriteString(" [")
		b.WriteString(strings.Repeat("#", filled))
		b.WriteString(strings.Repeat(".", progressBarWidth-filled))
		b.WriteString("]")
	}
	fmt.Fprintf(&b, " %5.1f%%", pct)
	if st.ProcessedCount > 0 {
		fmt.Fprintf(&b, " processed=%d", st.ProcessedCount)
	}
	if st.HiddenCount > 0 {
		fmt.Fprintf(&b, " hidden=%d", st.HiddenCount)
	}
	return b.String()
}
