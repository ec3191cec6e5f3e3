package state

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketRun   = []byte("run")
	keySnapshot = []byte("snapshot")
)

// Open returns a Store for path: gzip JSON for ".json.gz", plain JSON for
// ".json", BoltDB otherwise.
func Open(path string) (Store, error) {
	switch {
	case strings.HasSuffix(path, ".json.gz"):
		return NewFileStore(strings.TrimSuffix(path, ".gz"), true), nil
	case strings.HasSuffix(path, ".json"):
		return NewFileStore(path, false), nil
	default:
		return NewBoltStore(path)
	}
}

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens or creates the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRun)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Save stores snap, replacing any previous snapshot.
func (s *BoltStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRun)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(keySnapshot, data)
	})
}

// Load returns the stored snapshot.
func (s *BoltStore) Load() (*Snapshot, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRun)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data := b.Get(keySnapshot)
		if data == nil {
			return nil
		}

		snap = &Snapshot{}
		return json.Unmarshal(data, snap)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// FileStore implements Store using a JSON file, optionally gzip-compressed.
type FileStore struct {
	path       string
	compressed bool
}

// NewFileStore creates a file-backed store. When compressed is set the file
// is written to path + ".gz".
func NewFileStore(path string, compressed bool) *FileStore {
	return &FileStore{path: path, compressed: compressed}
}

func (s *FileStore) filename() string {
	if s.compressed {
		return s.path + ".gz"
	}
	return s.path
}

// Save writes snap to disk.
func (s *FileStore) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if !s.compressed {
		return os.WriteFile(s.path, data, 0644)
	}

	file, err := os.Create(s.filename())
	if err != nil {
		return err
	}
	defer file.Close()

	gw := gzip.NewWriter(file)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}

// Load reads the snapshot from disk.
func (s *FileStore) Load() (*Snapshot, error) {
	file, err := os.Open(s.filename())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if s.compressed {
		gr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gr.Close()
		r = gr
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save keeps snap.
func (s *MemoryStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

// Load returns the last saved snapshot.
func (s *MemoryStore) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
