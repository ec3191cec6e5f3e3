package output

import (
	"fmt"
	"time"

	"github.com/PentesterFlow/icscrawl/internal/analytics"
	"github.com/PentesterFlow/icscrawl/internal/metrics"
	"github.com/PentesterFlow/icscrawl/internal/state"
)

// Summary is the end-of-run report.
type Summary struct {
	StartedAt       time.Time             `json:"started_at"`
	CompletedAt     time.Time             `json:"completed_at"`
	Duration        time.Duration         `json:"duration"`
	Interrupted     bool                  `json:"interrupted,omitempty"`
	UniqueURLs      int                   `json:"unique_urls"`
	UniqueDownloads int                   `json:"unique_downloads"`
	Longest         state.PageRecord      `json:"longest_page"`
	Subdomains      []analytics.HostCount `json:"subdomains"`
	Words           []analytics.WordCount `json:"words"`
	Metrics         *metrics.Snapshot     `json:"metrics,omitempty"`
}

// Lines returns the summary as the plain lines of the results log:
// unique URL count, unique download count, longest page, then one
// word:count line per token in frequency order.
func (s *Summary) Lines() []string {
	lines := make([]string, 0, 3+len(s.Words))
	lines = append(lines,
		fmt.Sprintf("%d unique urls", s.UniqueURLs),
		fmt.Sprintf("%d unique downloads", s.UniqueDownloads),
	)
	if s.Longest.URL != "" {
		lines = append(lines, fmt.Sprintf("%s is the longest page with %d words", s.Longest.URL, s.Longest.Words))
	}
	for _, w := range s.Words {
		lines = append(lines, fmt.Sprintf("%s:%d", w.Word, w.Count))
	}
	return lines
}

// SubdomainLines returns one "host, pages" line per subdomain.
func (s *Summary) SubdomainLines() []string {
	lines := make([]string, 0, len(s.Subdomains))
	for _, h := range s.Subdomains {
		lines = append(lines, fmt.Sprintf("%s, %d", h.Host, h.Pages))
	}
	return lines
}

// TopWords returns at most n entries from the frequency table.
func (s *Summary) TopWords(n int) []analytics.WordCount {
	if n <= 0 || n >= len(s.Words) {
		return s.Words
	}
	return s.Words[:n]
}
