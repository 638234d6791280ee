package export

import (
	"io"

	"github.com/nao1215/webcrawl/internal/model"
)

// Writer defines the interface for crawl result output.
// Implementations render results in various formats.
//
// Design decision: We use an interface to allow different output
// formats and destinations. This enables writing to files, stdout, or
// network connections with the same API. Records are always rendered
// in collection order and never sorted, so two exports of the same
// result are byte-identical.
type Writer interface {
	// Write outputs the result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.CrawlResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// Useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers. Returns the
// total bytes written and stops on the first error encountered.
func (m *MultiWriter) Write(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the common output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
