package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"emojiharvest/pkg/collector"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
	barWidth      = 20
)

// ProgressDisplay renders collector progress. On a terminal it redraws one
// status line; elsewhere it prints a line per finished mode.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	live      bool
	quiet     bool
	startTime time.Time

	mode      collector.Mode
	modeIndex int
	modeTotal int
	cycle     int
	total     int
	lastWidth int
}

var _ collector.Observer = (*ProgressDisplay)(nil)

// NewProgressDisplay writes to out. A quiet display prints nothing but
// still tracks the running total.
func NewProgressDisplay(out io.Writer, quiet bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		live:      IsTerminal(out),
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (p *ProgressDisplay) ModeStarted(mode collector.Mode, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mode = mode
	p.modeIndex = index
	p.modeTotal = total
	p.cycle = 0
}

func (p *ProgressDisplay) CycleCompleted(stats collector.CycleStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cycle = stats.Cycle
	p.total = stats.Total
	if p.live && !p.quiet {
		p.redraw(p.statusLine(stats.Added))
	}
}

func (p *ProgressDisplay) ModeFinished(stats collector.ModeStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quiet {
		return
	}
	if p.live {
		p.redraw("")
		fmt.Fprint(p.out, "\r")
	}
	fmt.Fprintf(p.out, "%s %s %d cycles • +%d keys • %s\n",
		Green("✓"),
		Cyan(modeLabel(stats.Mode)),
		stats.Cycles,
		stats.Added,
		stats.Duration.Round(time.Millisecond))
}

// Total returns the number of distinct keys seen so far
func (p *ProgressDisplay) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *ProgressDisplay) statusLine(added int) string {
	line := fmt.Sprintf("[%s] %s %s cycle %d • %d keys",
		p.bar(),
		Magenta(fmt.Sprintf("%d/%d", p.modeIndex+1, p.modeTotal)),
		Cyan(modeLabel(p.mode)),
		p.cycle,
		p.total)
	if added > 0 {
		line += " " + Green(fmt.Sprintf("(+%d)", added))
	}
	return line + " • " + Dim(time.Since(p.startTime).Round(100*time.Millisecond).String())
}

// bar shows how many modes are done
func (p *ProgressDisplay) bar() string {
	filled := 0
	if p.modeTotal > 0 {
		filled = p.modeIndex * barWidth / p.modeTotal
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled)
}

func (p *ProgressDisplay) redraw(line string) {
	pad := ""
	if n := p.lastWidth - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
	p.lastWidth = len(line)
}

func modeLabel(m collector.Mode) string {
	if m == collector.DefaultMode {
		return "default"
	}
	return "mode " + string(m)
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
