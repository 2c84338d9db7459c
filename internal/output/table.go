package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrColumnNotFound is returned when a report lacks a named column.
var ErrColumnNotFound = errors.New("column not found")

// Table is a whole report held in memory: a header line and its data rows.
// Cells are raw tab-split values; rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable loads a tab-delimited report file.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return t, nil
}

// ParseTable reads a tab-delimited report whose first line is the header.
func ParseTable(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty report: missing header line")
	}
	t := &Table{Header: strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		t.Rows = append(t.Rows, strings.Split(line, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Column returns the index of the named header cell.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// EnsureColumn returns the index of the named column, appending it with
// every row's cell set to fill when the report lacks it.
func (t *Table) EnsureColumn(name, fill string) int {
	if i, err := t.Column(name); err == nil {
		return i
	}
	t.Header = append(t.Header, name)
	idx := len(t.Header) - 1
	for i, row := range t.Rows {
		t.Rows[i] = SetCell(row, idx, fill)
	}
	return idx
}

// Cell returns row[idx], or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// SetCell stores value at idx, padding a short row with empty cells.
func SetCell(row []string, idx int, value string) []string {
	for len(row) <= idx {
		row = append(row, "")
	}
	row[idx] = value
	return row
}

// Filter returns a new table with the same header and the rows keep accepts.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := &Table{Header: t.Header}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// WriteTo writes the header and rows in tab-delimited format.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, row := range append([][]string{t.Header}, t.Rows...) {
		m, err := bw.WriteString(strings.Join(row, "\t") + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Dedupe removes rows equal to an earlier row, keeping first-seen order.
func Dedupe(rows [][]string) [][]string {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := strings.Join(row, "\t")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}
