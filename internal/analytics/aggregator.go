// Package analytics accumulates crawl-wide page statistics.
package analytics

import (
	"cmp"
	"slices"
	"sync"

	"github.com/PentesterFlow/icscrawl/internal/logger"
	"github.com/PentesterFlow/icscrawl/internal/scope"
	"github.com/PentesterFlow/icscrawl/internal/state"
	"github.com/PentesterFlow/icscrawl/internal/tokenizer"
)

// DefaultMinWords is the informativeness threshold.
const DefaultMinWords = 100

// WordCount is one row of the frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// HostCount is the number of analysed pages on one host.
type HostCount struct {
	Host  string `json:"host"`
	Pages int    `json:"pages"`
}

// Config configures an Aggregator.
type Config struct {
	MinWords      int
	StopWords     []string
	PrimaryDomain string
	LongestLog    *logger.Logger
	ThinLog       *logger.Logger
}

// Aggregator owns the word-frequency table, the longest-page record and
// the subdomain counters.
type Aggregator struct {
	mu         sync.Mutex
	minWords   int
	primary    string
	stop       map[string]struct{}
	words      map[string]int
	longest    state.PageRecord
	subdomains map[string]int

	longestLog *logger.Logger
	thinLog    *logger.Logger
}

// New creates an empty Aggregator.
func New(cfg Config) *Aggregator {
	if cfg.MinWords <= 0 {
		cfg.MinWords = DefaultMinWords
	}
	if cfg.StopWords == nil {
		cfg.StopWords = DefaultStopWords
	}
	if cfg.PrimaryDomain == "" {
		cfg.PrimaryDomain = "ics.uci.edu"
	}
	if cfg.LongestLog == nil {
		cfg.LongestLog = logger.Nop()
	}
	if cfg.ThinLog == nil {
		cfg.ThinLog = logger.Nop()
	}

	return &Aggregator{
		minWords:   cfg.MinWords,
		primary:    cfg.PrimaryDomain,
		stop:       StopWordSet(cfg.StopWords),
		words:      make(map[string]int),
		subdomains: make(map[string]int),
		longestLog: cfg.LongestLog,
		thinLog:    cfg.ThinLog,
	}
}

// MinWords returns the informativeness threshold.
func (a *Aggregator) MinWords() int {
	return a.minWords
}

// PrimaryDomain returns the domain whose subdomains are counted.
func (a *Aggregator) PrimaryDomain() string {
	return a.primary
}

// Analyze tokenizes text, updates the frequency table and the longest-page
// record, and returns the page's word count. When icsHost is set the
// page's hostname is counted by RecordSubdomain.
func (a *Aggregator) Analyze(url, text string, icsHost bool) int {
	counts := make(map[string]int)
	total := 0
	for tok := range tokenizer.Tokenize(text) {
		total++
		if _, stop := a.stop[tok]; !stop {
			counts[tok]++
		}
	}

	a.mu.Lock()
	for w, n := range counts {
		a.words[w] += n
	}
	replaced := total > a.longest.Words
	if replaced {
		a.longest = state.PageRecord{URL: url, Words: total}
	}
	a.mu.Unlock()

	if replaced {
		a.longestLog.PageEvent(url, total, "%s is the longest page with %d words", url, total)
	}
	if total < a.minWords {
		a.thinLog.PageEvent(url, total, "%s has only %d words", url, total)
	}

	if icsHost {
		a.RecordSubdomain(scope.Hostname(url))
	}

	return total
}

// IsThin reports whether words is below the informativeness threshold.
func (a *Aggregator) IsThin(words int) bool {
	return words < a.minWords
}

// RecordSubdomain counts one page for host if it lies under the primary domain.
func (a *Aggregator) RecordSubdomain(host string) {
	if host == "" || !scope.IsSubdomainOf(host, a.primary) {
		return
	}

	a.mu.Lock()
	a.subdomains[host]++
	a.mu.Unlock()
}

// Longest returns the longest-page record.
func (a *Aggregator) Longest() state.PageRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.longest
}

// Frequencies returns the frequency table sorted by descending count,
// ties broken by word.
func (a *Aggregator) Frequencies() []WordCount {
	a.mu.Lock()
	out := make([]WordCount, 0, len(a.words))
	for w, n := range a.words {
		out = append(out, WordCount{Word: w, Count: n})
	}
	a.mu.Unlock()

	slices.SortFunc(out, func(x, y WordCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Word, y.Word)
	})
	return out
}

// Subdomains returns the per-host page counts sorted by host.
func (a *Aggregator) Subdomains() []HostCount {
	a.mu.Lock()
	out := make([]HostCount, 0, len(a.subdomains))
	for h, n := range a.subdomains {
		out = append(out, HostCount{Host: h, Pages: n})
	}
	a.mu.Unlock()

	slices.SortFunc(out, func(x, y HostCount) int {
		return cmp.Compare(x.Host, y.Host)
	})
	return out
}

// Restore merges a saved snapshot into the aggregates.
func (a *Aggregator) Restore(snap *state.Snapshot) {
	if snap == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for w, n := range snap.Words {
		a.words[w] += n
	}
	for h, n := range snap.Subdomains {
		a.subdomains[h] += n
	}
	if snap.Longest.Words > a.longest.Words {
		a.longest = snap.Longest
	}
}

// Fill copies the aggregates into snap.
func (a *Aggregator) Fill(snap *state.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap.Words = make(map[string]int, len(a.words))
	for w, n := range a.words {
		snap.Words[w] = n
	}
	snap.Subdomains = make(map[string]int, len(a.subdomains))
	for h, n := range a.subdomains {
		snap.Subdomains[h] = n
	}
	snap.Longest = a.longest
}
