package state

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Fingerprint returns the hex SHA-256 digest of body.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ContentStore records fingerprints of every page body fetched so far.
type ContentStore struct {
	mu     sync.Mutex
	hashes map[string]struct{}
}

// NewContentStore creates an empty ContentStore.
func NewContentStore() *ContentStore {
	return &ContentStore{hashes: make(map[string]struct{})}
}

// RecordIfNew fingerprints body and reports whether it had not been seen.
// The check and the insert happen under one lock.
func (c *ContentStore) RecordIfNew(body []byte) bool {
	return c.RecordFingerprint(Fingerprint(body))
}

// RecordFingerprint inserts a precomputed fingerprint and reports whether it was new.
func (c *ContentStore) RecordFingerprint(fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.hashes[fp]; ok {
		return false
	}
	c.hashes[fp] = struct{}{}
	return true
}

// Len returns the number of distinct fingerprints.
func (c *ContentStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hashes)
}

// All returns every recorded fingerprint.
func (c *ContentStore) All() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.hashes))
	for fp := range c.hashes {
		out = append(out, fp)
	}
	return out
}
