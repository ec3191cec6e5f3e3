package state

import "time"

// PageRecord identifies the page with the most words.
type PageRecord struct {
	URL   string `json:"url"`
	Words int    `json:"words"`
}

// Snapshot is the persisted state of a crawl run.
type Snapshot struct {
	Version      string         `json:"version"`
	StartedAt    time.Time      `json:"started_at"`
	SavedAt      time.Time      `json:"saved_at"`
	Completed    bool           `json:"completed"`
	SeenURLs     []string       `json:"seen_urls"`
	Fingerprints []string       `json:"fingerprints"`
	Words        map[string]int `json:"words"`
	Longest      PageRecord     `json:"longest"`
	Subdomains   map[string]int `json:"subdomains"`
}

// Store persists snapshots between runs.
type Store interface {
	Save(snap *Snapshot) error
	// Load returns nil, nil when nothing has been saved.
	Load() (*Snapshot, error)
	Close() error
}
