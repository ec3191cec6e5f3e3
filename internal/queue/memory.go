package queue

import (
	"context"
	"sync"
)

type urlState uint8

const (
	statePending urlState = iota + 1
	stateInFlight
	stateDone
)

// MemoryFrontier is a thread-safe FIFO frontier.
type MemoryFrontier struct {
	mu       sync.Mutex
	pending  []string
	known    map[string]urlState
	inFlight int
	done     int
	closed   bool
	// changed is closed and replaced whenever a waiting Pull may proceed.
	changed chan struct{}
}

// NewMemoryFrontier creates an empty frontier.
func NewMemoryFrontier() *MemoryFrontier {
	return &MemoryFrontier{
		known:   make(map[string]urlState),
		changed: make(chan struct{}),
	}
}

// notify wakes waiting pullers. Callers hold m.mu.
func (m *MemoryFrontier) notify() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Pull returns the next pending URL.
func (m *MemoryFrontier) Pull(ctx context.Context) (string, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return "", ErrClosed
		}

		if len(m.pending) > 0 {
			url := m.pending[0]
			m.pending[0] = ""
			m.pending = m.pending[1:]
			m.known[url] = stateInFlight
			m.inFlight++
			m.mu.Unlock()
			return url, nil
		}

		if m.inFlight == 0 {
			m.mu.Unlock()
			return "", ErrEmpty
		}

		wait := m.changed
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wait:
		}
	}
}

// Push enqueues url unless it is already known.
func (m *MemoryFrontier) Push(url string) error {
	_, err := m.push(url)
	return err
}

// push reports whether url was new.
func (m *MemoryFrontier) push(url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}
	if _, ok := m.known[url]; ok {
		return false, nil
	}

	m.known[url] = statePending
	m.pending = append(m.pending, url)
	m.notify()
	return true, nil
}

// markDone records url as completed without queueing it.
func (m *MemoryFrontier) markDone(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.known[url]; !ok {
		m.known[url] = stateDone
		m.done++
	}
}

// Complete marks url as done.
func (m *MemoryFrontier) Complete(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.known[url] {
	case stateDone:
		return nil
	case stateInFlight:
		m.inFlight--
		m.notify()
	case statePending:
		// Completed without being pulled.
		for i, u := range m.pending {
			if u == url {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				break
			}
		}
	}

	m.known[url] = stateDone
	m.done++
	return nil
}

// Len returns the number of pending URLs.
func (m *MemoryFrontier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Stats returns pending, in-flight and completed counts.
func (m *MemoryFrontier) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Pending: len(m.pending), InFlight: m.inFlight, Completed: m.done}
}

// Close stops the frontier. Waiting pullers return ErrClosed.
func (m *MemoryFrontier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		m.notify()
	}
	return nil
}
