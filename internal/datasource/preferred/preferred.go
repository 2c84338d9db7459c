// Package preferred loads a laboratory's preferred transcript list and marks
// report rows whose transcript is on it.
package preferred

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/vcfparse/internal/annotate"
	"github.com/inodb/vcfparse/internal/output"
)

// ErrNotLoaded is returned by Apply when no transcript list is available.
var ErrNotLoaded = errors.New("preferred transcripts not loaded")

// Strictness controls how transcript versions are compared.
type Strictness int

const (
	// VersionInsensitive compares identifiers up to the first '.'.
	VersionInsensitive Strictness = iota
	// Exact requires identical identifiers, version included.
	Exact
)

// ParseStrictness accepts "high"/"exact" and "low"/"version-insensitive".
func ParseStrictness(s string) (Strictness, error) {
	switch strings.ToLower(s) {
	case "high", "exact":
		return Exact, nil
	case "", "low", "version-insensitive":
		return VersionInsensitive, nil
	}
	return 0, fmt.Errorf("unknown strictness %q (want high or low)", s)
}

func (s Strictness) String() string {
	if s == Exact {
		return "high"
	}
	return "low"
}

// Set is an immutable set of preferred transcript identifiers.
type Set struct {
	ids      map[string]struct{}
	versions map[string]struct{} // identifiers without version suffix
}

// Load reads a preferred transcripts file.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preferred transcripts: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read preferred transcripts %s: %w", path, err)
	}
	return s, nil
}

// Parse reads tab-delimited lines holding the transcript identifier in the
// second column. A header line naming that column "Transcript" and lines
// with fewer than two columns are skipped.
func Parse(r io.Reader) (*Set, error) {
	s := NewSet()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) < 2 {
			continue
		}
		id := strings.TrimSpace(fields[1])
		if id == "" || id == "Transcript" {
			continue
		}
		s.add(id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSet creates a set from identifiers.
func NewSet(ids ...string) *Set {
	s := &Set{
		ids:      make(map[string]struct{}, len(ids)),
		versions: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Set) add(id string) {
	s.ids[id] = struct{}{}
	s.versions[stripVersion(id)] = struct{}{}
}

// Len returns the number of identifiers.
func (s *Set) Len() int {
	return len(s.ids)
}

// Contains reports whether id is preferred under st.
func (s *Set) Contains(id string, st Strictness) bool {
	if st == Exact {
		_, ok := s.ids[id]
		return ok
	}
	_, ok := s.versions[stripVersion(id)]
	return ok
}

func stripVersion(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// Columns names the report columns Apply reads and writes.
type Columns struct {
	Transcript string
	Preferred  string
}

// Apply rewrites the preferred column of the report at reportPath to
// "True" or "False". Rows without a transcript keep their cell. The report
// is replaced atomically and left untouched on any error.
func Apply(reportPath string, set *Set, st Strictness, cols Columns) error {
	if set == nil {
		return ErrNotLoaded
	}
	return output.RewriteTable(reportPath, func(t *output.Table) error {
		tIdx, err := t.Column(cols.Transcript)
		if err != nil {
			return err
		}
		pIdx, err := t.Column(cols.Preferred)
		if err != nil {
			return err
		}

		for i, row := range t.Rows {
			id := output.Cell(row, tIdx)
			if id == "" || id == annotate.NoAnnotation {
				continue
			}
			val := "False"
			if set.Contains(id, st) {
				val = "True"
			}
			t.Rows[i] = output.SetCell(row, pIdx, val)
		}
		return nil
	})
}
