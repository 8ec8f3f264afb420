package report

import (
	"io"

	"github.com/nao1215/phishguard/internal/verdict"
)

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
type Writer interface {
	// Write outputs a full report.
	// Returns the number of bytes written and any error encountered.
	Write(report *Report) (int, error)

	// WriteVerdict outputs a single verdict without run metadata.
	WriteVerdict(v *verdict.Verdict) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteVerdict outputs the verdict to all configured Writers.
func (m *MultiWriter) WriteVerdict(v *verdict.Verdict) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteVerdict(v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
