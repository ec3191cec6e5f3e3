// Package crawler runs a restricted-domain crawl and collects page analytics.
package crawler

import (
	"context"

	crawlhttp "github.com/PentesterFlow/icscrawl/internal/http"
	"github.com/PentesterFlow/icscrawl/internal/output"
	"github.com/PentesterFlow/icscrawl/internal/parser"
)

// Status is the terminal outcome of one pulled URL.
type Status string

const (
	// StatusFetchedOK means the page was analysed and its links admitted.
	StatusFetchedOK Status = "fetched-ok"
	// StatusFetchError covers transport failures and non-200 responses.
	StatusFetchError Status = "fetch-error"
	// StatusDuplicate means the body matched an earlier page.
	StatusDuplicate Status = "duplicate-content"
	// StatusFilteredInvalid means the URL no longer passes the admission rules.
	StatusFilteredInvalid Status = "filtered-invalid"
	// StatusTooFewWords means the page was analysed but its links were not followed.
	StatusTooFewWords Status = "too-few-words"
)

// Summary is the end-of-run report.
type Summary = output.Summary

// Downloader fetches one URL. It never returns nil.
type Downloader interface {
	Fetch(ctx context.Context, url string) *crawlhttp.Response
}

// Parser extracts visible text and anchor targets from a page.
type Parser interface {
	Parse(base string, body []byte, contentType string) (*parser.Document, error)
}

// WorkerStats counts the outcomes one worker produced.
type WorkerStats struct {
	Processed int `json:"processed"`
	OK        int `json:"ok"`
	Errors    int `json:"errors"`
	Duplicate int `json:"duplicate"`
	Filtered  int `json:"filtered"`
	Thin      int `json:"thin"`
}

func (s *WorkerStats) record(status Status) {
	s.Processed++
	switch status {
	case StatusFetchedOK:
		s.OK++
	case StatusFetchError:
		s.Errors++
	case StatusDuplicate:
		s.Duplicate++
	case StatusFilteredInvalid:
		s.Filtered++
	case StatusTooFewWords:
		s.Thin++
	}
}
