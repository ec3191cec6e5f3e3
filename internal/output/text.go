package output

import (
	"bufio"
	"io"
	"sync"
)

// TextWriter writes the summary in the plain results-log format.
type TextWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewTextWriter creates a new text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{writer: w}
}

// WriteSummary writes the results lines, then subdomain counts.
func (t *TextWriter) WriteSummary(s *Summary) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bw := bufio.NewWriter(t.writer)
	for _, line := range s.Lines() {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	if len(s.Subdomains) > 0 {
		bw.WriteByte('\n')
		for _, line := range s.SubdomainLines() {
			bw.WriteString(line)
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// Close is a no-op.
func (t *TextWriter) Close() error {
	return nil
}
