package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketPending   = []byte("pending")
	bucketCompleted = []byte("completed")
)

// PersistentFrontier is a MemoryFrontier mirrored to BoltDB so an
// interrupted crawl can resume. Pulled URLs stay in the pending bucket
// until they are completed.
type PersistentFrontier struct {
	mu       sync.Mutex
	db       *bolt.DB
	memory   *MemoryFrontier
	path     string
	restored int
	closed   bool
}

// NewPersistentFrontier opens the frontier file at path. With restart set
// any existing file is removed first; otherwise incomplete URLs from the
// previous run are queued again.
func NewPersistentFrontier(path string, restart bool) (*PersistentFrontier, error) {
	if restart {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove frontier file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPending); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketCompleted)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	pf := &PersistentFrontier{
		db:     db,
		memory: NewMemoryFrontier(),
		path:   path,
	}

	if err := pf.loadFromDisk(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load from disk: %w", err)
	}

	return pf, nil
}

// loadFromDisk queues pending items in their original order and marks
// completed ones as known.
func (pf *PersistentFrontier) loadFromDisk() error {
	var pending []Item

	err := pf.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketCompleted).ForEach(func(k, _ []byte) error {
			pf.memory.markDone(string(k))
			pf.restored++
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketPending).ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil // skip corrupt entries
			}
			pending = append(pending, item)
			return nil
		})
	})
	if err != nil {
		return err
	}

	slices.SortFunc(pending, func(a, b Item) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	for _, item := range pending {
		if _, err := pf.memory.push(item.URL); err != nil {
			return err
		}
		pf.restored++
	}
	return nil
}

// Restored returns the number of URLs, pending or completed, loaded from disk.
func (pf *PersistentFrontier) Restored() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.restored
}

// Pull returns the next pending URL.
func (pf *PersistentFrontier) Pull(ctx context.Context) (string, error) {
	return pf.memory.Pull(ctx)
}

// Push enqueues url and records it on disk.
func (pf *PersistentFrontier) Push(url string) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}

	added, err := pf.memory.push(url)
	if err != nil || !added {
		return err
	}

	return pf.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(Item{URL: url, Seq: seq, AddedAt: time.Now()})
		if err != nil {
			return err
		}
		return b.Put([]byte(url), data)
	})
}

// Complete marks url as done in memory and on disk.
func (pf *PersistentFrontier) Complete(url string) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}

	if err := pf.memory.Complete(url); err != nil {
		return err
	}

	return pf.db.Update(func(tx *bolt.Tx) error {
		pending := tx.Bucket(bucketPending)
		item := Item{URL: url}
		if data := pending.Get([]byte(url)); data != nil {
			_ = json.Unmarshal(data, &item)
		}
		item.Completed = true

		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCompleted).Put([]byte(url), data); err != nil {
			return err
		}
		return pending.Delete([]byte(url))
	})
}

// Len returns the number of pending URLs.
func (pf *PersistentFrontier) Len() int {
	return pf.memory.Len()
}

// Stats returns pending, in-flight and completed counts.
func (pf *PersistentFrontier) Stats() Stats {
	return pf.memory.Stats()
}

// Close closes the frontier and the database.
func (pf *PersistentFrontier) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil
	}
	pf.closed = true
	pf.memory.Close()
	return pf.db.Close()
}
