package state

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// SeenSet Tests
// =============================================================================

func TestSeenSet_AddIfNew(t *testing.T) {
	s := NewSeenSet(100)
	url := "https://www.ics.uci.edu/about"

	if s.Has(url) {
		t.Error("empty set should not contain url")
	}
	if !s.AddIfNew(url) {
		t.Error("first AddIfNew should return true")
	}
	if s.AddIfNew(url) {
		t.Error("second AddIfNew should return false")
	}
	if !s.Has(url) {
		t.Error("Has should return true after add")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSeenSet_AddBatch(t *testing.T) {
	s := NewSeenSet(100)
	s.AddBatch([]string{"a", "b", "a", "c"})

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if len(s.All()) != 3 {
		t.Errorf("len(All()) = %d, want 3", len(s.All()))
	}
}

func TestSeenSet_ConcurrentSingleWinner(t *testing.T) {
	s := NewSeenSet(100)
	var winners atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.AddIfNew("https://ics.uci.edu/") {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("winners = %d, want 1", winners.Load())
	}
}

// =============================================================================
// ContentStore Tests
// =============================================================================

func TestFingerprint(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Fingerprint([]byte("abc")); got != want {
		t.Errorf("Fingerprint(abc) = %s, want %s", got, want)
	}
}

func TestContentStore_RecordIfNew(t *testing.T) {
	c := NewContentStore()

	if !c.RecordIfNew([]byte("<html>a</html>")) {
		t.Error("first body should be new")
	}
	if c.RecordIfNew([]byte("<html>a</html>")) {
		t.Error("identical body should not be new")
	}
	if !c.RecordIfNew([]byte("<html>b</html>")) {
		t.Error("different body should be new")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestContentStore_RecordFingerprint(t *testing.T) {
	c := NewContentStore()
	fp := Fingerprint([]byte("page"))

	c.RecordFingerprint(fp)
	if c.RecordIfNew([]byte("page")) {
		t.Error("restored fingerprint should be recognised")
	}
	if len(c.All()) != 1 {
		t.Errorf("len(All()) = %d, want 1", len(c.All()))
	}
}

func TestContentStore_Concurrent(t *testing.T) {
	c := NewContentStore()
	var wg sync.WaitGroup
	var fresh atomic.Int32

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if c.RecordIfNew([]byte(fmt.Sprintf("body-%d", i%5))) {
				fresh.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if fresh.Load() != 5 {
		t.Errorf("new bodies = %d, want 5", fresh.Load())
	}
}

// =============================================================================
// Store Tests
// =============================================================================

func testSnapshot() *Snapshot {
	return &Snapshot{
		Version:      "1",
		StartedAt:    time.Now().Add(-time.Minute).UTC().Truncate(time.Second),
		SavedAt:      time.Now().UTC().Truncate(time.Second),
		SeenURLs:     []string{"https://www.ics.uci.edu/", "https://www.stat.uci.edu/"},
		Fingerprints: []string{Fingerprint([]byte("x"))},
		Words:        map[string]int{"research": 4, "students": 2},
		Longest:      PageRecord{URL: "https://www.ics.uci.edu/", Words: 812},
		Subdomains:   map[string]int{"www.ics.uci.edu": 1},
	}
}

func assertSnapshot(t *testing.T, got, want *Snapshot) {
	t.Helper()

	if got == nil {
		t.Fatal("Load() returned nil snapshot")
	}
	if len(got.SeenURLs) != len(want.SeenURLs) {
		t.Errorf("SeenURLs = %v, want %v", got.SeenURLs, want.SeenURLs)
	}
	if got.Words["research"] != 4 {
		t.Errorf("Words[research] = %d, want 4", got.Words["research"])
	}
	if got.Longest != want.Longest {
		t.Errorf("Longest = %+v, want %+v", got.Longest, want.Longest)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestBoltStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}

	snap, err := store.Load()
	if err != nil || snap != nil {
		t.Fatalf("Load() on empty store = %v, %v; want nil, nil", snap, err)
	}

	want := testSnapshot()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store, err = NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assertSnapshot(t, got, want)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		t.Run(fmt.Sprintf("compressed=%v", compressed), func(t *testing.T) {
			store := NewFileStore(filepath.Join(t.TempDir(), "state.json"), compressed)

			snap, err := store.Load()
			if err != nil || snap != nil {
				t.Fatalf("Load() on missing file = %v, %v; want nil, nil", snap, err)
			}

			want := testSnapshot()
			if err := store.Save(want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			assertSnapshot(t, got, want)
		})
	}
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := NewMemoryStore()

	if snap, _ := store.Load(); snap != nil {
		t.Error("empty MemoryStore should load nil")
	}

	want := testSnapshot()
	store.Save(want)

	got, _ := store.Load()
	if got != want {
		t.Error("Load() should return the saved snapshot")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(dir, "run.db"), "*state.BoltStore"},
		{filepath.Join(dir, "run.json"), "*state.FileStore"},
		{filepath.Join(dir, "run.json.gz"), "*state.FileStore"},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			store, err := Open(tt.path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			if got := fmt.Sprintf("%T", store); got != tt.want {
				t.Errorf("Open() type = %s, want %s", got, tt.want)
			}
		})
	}
}
