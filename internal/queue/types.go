// Package queue provides the crawl frontier.
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmpty means nothing is pending and no pulled URL is still in flight.
	ErrEmpty = errors.New("frontier is empty")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("frontier is closed")
)

// Frontier hands URLs to workers and records their completion.
type Frontier interface {
	// Pull returns the next pending URL. While other URLs are in flight it
	// waits for a push or a completion; it returns ErrEmpty once nothing is
	// pending and nothing is in flight.
	Pull(ctx context.Context) (string, error)

	// Push enqueues url. URLs the frontier already knows are ignored.
	Push(url string) error

	// Complete marks a pulled URL as done.
	Complete(url string) error

	// Len returns the number of pending URLs.
	Len() int

	// Close releases resources and wakes any waiting Pull.
	Close() error
}

// Item is a frontier entry as persisted on disk.
type Item struct {
	URL       string    `json:"url"`
	Seq       uint64    `json:"seq"`
	AddedAt   time.Time `json:"added_at"`
	Completed bool      `json:"completed"`
}

// Stats is a point-in-time view of the frontier.
type Stats struct {
	Pending   int `json:"pending"`
	InFlight  int `json:"in_flight"`
	Completed int `json:"completed"`
}
