package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/icscrawl/internal/metrics"
)

func snapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		PagesAnalyzed: 3,
		URLsAdmitted:  10,
		ActiveWorkers: 2,
		Outcomes:      map[string]int64{"fetched-ok": 3, "fetch-error": 1},
		ErrorCounts:   map[string]int64{"http_status": 1, "parse": 1},
	}
}

// ===== Counter Tests =====

func TestProcessedAndPending(t *testing.T) {
	s := snapshot()
	if got := Processed(s); got != 4 {
		t.Errorf("Processed() = %d, want 4", got)
	}
	if got := Pending(s); got != 6 {
		t.Errorf("Pending() = %d, want 6", got)
	}

	s.URLsAdmitted = 2
	if got := Pending(s); got != 0 {
		t.Errorf("Pending() = %d, want 0 when outcomes exceed admissions", got)
	}
}

// ===== Display Tests =====

func TestDisplay_UpdateBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Update(snapshot())
	if buf.Len() != 0 {
		t.Errorf("Update() before Start wrote %q", buf.String())
	}
	d.Stop()
	if buf.Len() != 0 {
		t.Errorf("Stop() before Start wrote %q", buf.String())
	}
}

func TestDisplay_Update(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.Start()
	d.Update(snapshot())

	line := buf.String()
	for _, want := range []string{"Processed: 4", "Pending: 6", "Analyzed: 3", "Errors: 2", "Workers: 2"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if d.Last() == nil {
		t.Error("Last() = nil after Update")
	}

	d.Stop()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Stop() did not end the status line")
	}

	n := buf.Len()
	d.Update(snapshot())
	if buf.Len() != n {
		t.Error("Update() after Stop wrote output")
	}
}

func TestDisplay_Run(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	done := make(chan struct{})
	calls := 0
	finished := make(chan struct{})
	go func() {
		d.Run(done, time.Hour, func() *metrics.Snapshot {
			calls++
			return snapshot()
		})
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after done")
	}

	if calls != 1 {
		t.Errorf("snapshot calls = %d, want 1", calls)
	}
	if !strings.Contains(buf.String(), "Processed: 4") {
		t.Errorf("final update missing: %q", buf.String())
	}
}

// ===== Format Tests =====

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{1500 * time.Millisecond, "2s"},
		{90 * time.Second, "1m30s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
