// Package output reads and writes tab-delimited variant reports.
package output

import (
	"bufio"
	"io"
	"strings"
)

// TabWriter streams report rows in tab-delimited format, dropping rows that
// are byte-identical to one already written.
type TabWriter struct {
	w          *bufio.Writer
	seen       map[string]struct{}
	rows       int
	duplicates int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:    bufio.NewWriter(w),
		seen: make(map[string]struct{}),
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader(columns []string) error {
	_, err := tw.w.WriteString(strings.Join(columns, "\t") + "\n")
	return err
}

// Write writes a single row unless an identical row was written before.
func (tw *TabWriter) Write(row []string) error {
	line := strings.Join(row, "\t")
	if _, dup := tw.seen[line]; dup {
		tw.duplicates++
		return nil
	}
	tw.seen[line] = struct{}{}
	tw.rows++

	_, err := tw.w.WriteString(line + "\n")
	return err
}

// Rows returns the number of data rows written.
func (tw *TabWriter) Rows() int {
	return tw.rows
}

// Duplicates returns the number of rows dropped as duplicates.
func (tw *TabWriter) Duplicates() int {
	return tw.duplicates
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
