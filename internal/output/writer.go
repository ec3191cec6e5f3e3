// Package output renders the crawl summary.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Writer defines the interface for summary writers.
type Writer interface {
	// WriteSummary writes the run summary.
	WriteSummary(s *Summary) error

	// Close releases the underlying output if the writer owns it.
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format   string `json:"format" yaml:"format"`
	FilePath string `json:"file_path" yaml:"file_path"`
	Pretty   bool   `json:"pretty" yaml:"pretty"`
	// MaxWords limits the word table in markdown output. 0 means all.
	MaxWords int `json:"max_words" yaml:"max_words"`
}

// ValidFormat reports whether format is a known output format.
func ValidFormat(format string) bool {
	switch format {
	case "", FormatJSON, FormatText, FormatMarkdown, "md":
		return true
	}
	return false
}

// NewWriter creates a summary writer for the configured format.
func NewWriter(w io.Writer, config Config) Writer {
	switch config.Format {
	case FormatText:
		return NewTextWriter(w)
	case FormatMarkdown, "md":
		return NewMarkdownWriter(w, config.MaxWords)
	default:
		return NewJSONWriter(w, config.Pretty)
	}
}

// Open creates a writer for config, writing to config.FilePath when set
// and to fallback otherwise.
func Open(config Config, fallback io.Writer) (Writer, error) {
	if config.FilePath == "" {
		return NewWriter(fallback, config), nil
	}

	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &fileWriter{Writer: NewWriter(f, config), file: f}, nil
}

// fileWriter closes the file it writes to.
type fileWriter struct {
	Writer
	file *os.File
}

func (f *fileWriter) Close() error {
	if err := f.Writer.Close(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}
