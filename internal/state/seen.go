// Package state holds the crawl's monotone sets and the run snapshot store.
package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// SeenSet records every URL ever admitted to the frontier.
// URLs are only ever added.
type SeenSet struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewSeenSet creates a SeenSet sized for estimatedItems.
func NewSeenSet(estimatedItems int) *SeenSet {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}

	return &SeenSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Has reports whether url has been added.
func (s *SeenSet) Has(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Bloom filter rules out most novel URLs without touching the map.
	if !s.filter.TestString(url) {
		return false
	}
	_, ok := s.exact[url]
	return ok
}

// AddIfNew inserts url and reports whether it was absent.
// Of several concurrent callers with the same url exactly one gets true.
func (s *SeenSet) AddIfNew(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exact[url]; ok {
		return false
	}
	s.filter.AddString(url)
	s.exact[url] = struct{}{}
	return true
}

// AddBatch inserts urls, ignoring ones already present.
func (s *SeenSet) AddBatch(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, url := range urls {
		if _, ok := s.exact[url]; !ok {
			s.filter.AddString(url)
			s.exact[url] = struct{}{}
		}
	}
}

// Len returns the number of distinct URLs.
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exact)
}

// All returns every URL in the set in no particular order.
func (s *SeenSet) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.exact))
	for url := range s.exact {
		urls = append(urls, url)
	}
	return urls
}
