package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Diagnostic channel names.
const (
	ChannelAdmission  = "admission"
	ChannelDuplicates = "duplicates"
	ChannelTraps      = "traps"
	ChannelLongest    = "longest"
	ChannelThin       = "thin"
	ChannelResults    = "results"
)

// ChannelNames lists every diagnostic channel.
var ChannelNames = []string{
	ChannelAdmission,
	ChannelDuplicates,
	ChannelTraps,
	ChannelLongest,
	ChannelThin,
	ChannelResults,
}

// Channels is a set of named append-only diagnostic logs.
type Channels struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	files   []*os.File
}

// OpenChannels opens one "<name>.log" file per channel under dir.
// An empty dir sends every channel to fallback, tagged with its name.
func OpenChannels(dir string, fallback io.Writer) (*Channels, error) {
	c := &Channels{loggers: make(map[string]*Logger)}

	if dir == "" {
		if fallback == nil {
			fallback = io.Discard
		}
		for _, name := range ChannelNames {
			c.loggers[name] = New(Config{Level: InfoLevel, Output: fallback}).
				WithField("channel", name)
		}
		return c, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	for _, name := range ChannelNames {
		f, err := os.OpenFile(filepath.Join(dir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open %s log: %w", name, err)
		}
		c.files = append(c.files, f)
		c.loggers[name] = New(Config{Level: InfoLevel, Output: f})
	}

	return c, nil
}

// NopChannels returns channels that discard everything.
func NopChannels() *Channels {
	c := &Channels{loggers: make(map[string]*Logger)}
	for _, name := range ChannelNames {
		c.loggers[name] = Nop()
	}
	return c
}

// Get returns the logger for name. Unknown names get a discarding logger.
func (c *Channels) Get(name string) *Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.loggers[name]; ok {
		return l
	}
	return Nop()
}

// Close closes every channel file.
func (c *Channels) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, f := range c.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.files = nil
	return errors.Join(errs...)
}
