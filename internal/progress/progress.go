// Package progress renders a single-line crawl status on a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/icscrawl/internal/metrics"
)

// Display redraws one status line from metrics snapshots.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	started bool
	stopped bool

	startTime time.Time
	lastLine  string
	last      *metrics.Snapshot
}

// New creates a new progress display writing to out.
func New(out io.Writer) *Display {
	return &Display{out: out}
}

// Start begins the progress display.
func (d *Display) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.startTime = time.Now()
}

// Processed is the number of URLs that reached a final outcome.
func Processed(s *metrics.Snapshot) int64 {
	var n int64
	for _, v := range s.Outcomes {
		n += v
	}
	return n
}

// Pending estimates the URLs admitted but not yet processed.
func Pending(s *metrics.Snapshot) int64 {
	return max(s.URLsAdmitted-Processed(s), 0)
}

// Update redraws the status line.
func (d *Display) Update(s *metrics.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped || s == nil {
		return
	}
	d.last = s

	processed := Processed(s)
	pending := Pending(s)

	elapsed := time.Since(d.startTime)
	speed := float64(0)
	if elapsed.Seconds() > 0 {
		speed = float64(processed) / elapsed.Seconds()
	}

	line := fmt.Sprintf("\rProcessed: %d | Pending: %d | Analyzed: %d | Errors: %d | Workers: %d | %.1f p/s | %s",
		processed, pending, s.PagesAnalyzed, errorTotal(s), s.ActiveWorkers, speed, FormatDuration(elapsed))

	if len(line) < len(d.lastLine) {
		fmt.Fprint(d.out, "\r"+strings.Repeat(" ", len(d.lastLine)))
	}
	fmt.Fprint(d.out, line)
	d.lastLine = line
}

// Stop ends the display and moves past the status line.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}

	d.stopped = true
	if d.lastLine != "" {
		fmt.Fprintln(d.out)
	}
}

// Run updates the display every interval from snapshot until done is closed.
func (d *Display) Run(done <-chan struct{}, interval time.Duration, snapshot func() *metrics.Snapshot) {
	d.Start()
	defer d.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			d.Update(snapshot())
			return
		case <-ticker.C:
			d.Update(snapshot())
		}
	}
}

// Last returns the most recent snapshot drawn.
func (d *Display) Last() *metrics.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func errorTotal(s *metrics.Snapshot) int64 {
	var n int64
	for _, v := range s.ErrorCounts {
		n += v
	}
	return n
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
