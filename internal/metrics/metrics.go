// Package metrics counts what the crawler did during a run.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// counterSet is a set of named counters created on first use.
type counterSet[K comparable] struct {
	mu sync.RWMutex
	m  map[K]*atomic.Int64
}

func newCounterSet[K comparable]() *counterSet[K] {
	return &counterSet[K]{m: make(map[K]*atomic.Int64)}
}

func (s *counterSet[K]) inc(k K) {
	s.mu.RLock()
	c := s.m[k]
	s.mu.RUnlock()

	if c == nil {
		s.mu.Lock()
		if c = s.m[k]; c == nil {
			c = &atomic.Int64{}
			s.m[k] = c
		}
		s.mu.Unlock()
	}
	c.Add(1)
}

func (s *counterSet[K]) snapshot() map[K]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[K]int64, len(s.m))
	for k, v := range s.m {
		out[k] = v.Load()
	}
	return out
}

// Collector collects crawl metrics. All methods are safe for concurrent use.
type Collector struct {
	requestsTotal atomic.Int64
	bytesTotal    atomic.Int64
	pagesAnalyzed atomic.Int64
	linksFound    atomic.Int64
	urlsAdmitted  atomic.Int64
	activeWorkers atomic.Int64

	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	outcomes    *counterSet[string]
	rejections  *counterSet[string]
	errorCounts *counterSet[string]
	statusCodes *counterSet[int]

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		outcomes:    newCounterSet[string](),
		rejections:  newCounterSet[string](),
		errorCounts: newCounterSet[string](),
		statusCodes: newCounterSet[int](),
		startTime:   time.Now(),
	}
}

// RecordFetch records one download attempt.
func (c *Collector) RecordFetch(statusCode int, bytes int, d time.Duration) {
	c.requestsTotal.Add(1)
	c.bytesTotal.Add(int64(bytes))
	c.responseTimesSum.Add(d.Milliseconds())
	c.responseTimesNum.Add(1)
	if statusCode > 0 {
		c.statusCodes.inc(statusCode)
	}
}

// RecordError records an error by type.
func (c *Collector) RecordError(errorType string) {
	c.errorCounts.inc(errorType)
}

// RecordOutcome records the terminal status of one URL.
func (c *Collector) RecordOutcome(status string) {
	c.outcomes.inc(status)
}

// RecordRejection records a candidate link refused by the admission filter.
func (c *Collector) RecordRejection(reason string) {
	c.rejections.inc(reason)
}

// RecordAdmitted increments admitted URLs.
func (c *Collector) RecordAdmitted() {
	c.urlsAdmitted.Add(1)
}

// RecordAnalyzed increments analysed pages.
func (c *Collector) RecordAnalyzed() {
	c.pagesAnalyzed.Add(1)
}

// RecordLinks adds n extracted links.
func (c *Collector) RecordLinks(n int) {
	c.linksFound.Add(int64(n))
}

// WorkerStarted increments the active worker gauge.
func (c *Collector) WorkerStarted() {
	c.activeWorkers.Add(1)
}

// WorkerStopped decrements the active worker gauge.
func (c *Collector) WorkerStopped() {
	c.activeWorkers.Add(-1)
}

// AverageResponseTime returns the mean fetch duration.
func (c *Collector) AverageResponseTime() time.Duration {
	num := c.responseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(c.responseTimesSum.Load()/num) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	return &Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.startTime),
		RequestsTotal:       c.requestsTotal.Load(),
		BytesTotal:          c.bytesTotal.Load(),
		PagesAnalyzed:       c.pagesAnalyzed.Load(),
		LinksFound:          c.linksFound.Load(),
		URLsAdmitted:        c.urlsAdmitted.Load(),
		ActiveWorkers:       c.activeWorkers.Load(),
		AverageResponseTime: c.AverageResponseTime(),
		Outcomes:            c.outcomes.snapshot(),
		Rejections:          c.rejections.snapshot(),
		ErrorCounts:         c.errorCounts.snapshot(),
		StatusCodes:         c.statusCodes.snapshot(),
	}
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp           time.Time        `json:"timestamp"`
	Uptime              time.Duration    `json:"uptime"`
	RequestsTotal       int64            `json:"requests_total"`
	BytesTotal          int64            `json:"bytes_total"`
	PagesAnalyzed       int64            `json:"pages_analyzed"`
	LinksFound          int64            `json:"links_found"`
	URLsAdmitted        int64            `json:"urls_admitted"`
	ActiveWorkers       int64            `json:"active_workers"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	Outcomes            map[string]int64 `json:"outcomes"`
	Rejections          map[string]int64 `json:"rejections"`
	ErrorCounts         map[string]int64 `json:"error_counts"`
	StatusCodes         map[int]int64    `json:"status_codes"`
}

// ErrorRate returns failed fetches over all fetches.
func (s *Snapshot) ErrorRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	var errs int64
	for _, n := range s.ErrorCounts {
		errs += n
	}
	return float64(errs) / float64(s.RequestsTotal)
}

// Summary returns the headline numbers as loggable fields.
func (s *Snapshot) Summary() map[string]any {
	return map[string]any{
		"uptime":               s.Uptime.String(),
		"requests_total":       s.RequestsTotal,
		"error_rate":           s.ErrorRate(),
		"pages_analyzed":       s.PagesAnalyzed,
		"urls_admitted":        s.URLsAdmitted,
		"links_found":          s.LinksFound,
		"bytes_total":          s.BytesTotal,
		"avg_response_time_ms": s.AverageResponseTime.Milliseconds(),
	}
}
