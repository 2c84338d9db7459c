// Package bedfilter narrows variant reports to the variants overlapping the
// intervals of one or more BED files.
package bedfilter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/fileio"

	"github.com/inodb/vcfparse/internal/output"
	"github.com/inodb/vcfparse/internal/vcf"
)

// Interval is a 0-based half-open genomic interval tagged with the variant
// identifier it was derived from.
type Interval struct {
	Chrom string
	Start int
	End   int
	ID    string
}

// FromVariantID derives the interval of a report variant. A single-base
// reference covers [pos-1, pos). A longer reference covers
// [pos-1, pos-1+len(ref)+1), one base past its end so that indels ending on
// a BED boundary still overlap it.
func FromVariantID(id string) (Interval, error) {
	chrom, pos, ref, _, err := vcf.ParseVariantID(id)
	if err != nil {
		return Interval{}, err
	}
	if pos < 1 {
		return Interval{}, fmt.Errorf("variant %q: position must be 1-based", id)
	}

	start := int(pos) - 1
	end := start + 1
	if len(ref) > 1 {
		end = start + len(ref) + 1
	}
	return Interval{Chrom: chrom, Start: start, End: end, ID: id}, nil
}

// DeriveIntervals returns one interval per distinct identifier in column
// idCol of t, in first-seen order. Cells that are not variant identifiers
// are skipped.
func DeriveIntervals(t *output.Table, idCol int) []Interval {
	seen := make(map[string]struct{}, len(t.Rows))
	var ivs []Interval
	for _, row := range t.Rows {
		id := output.Cell(row, idCol)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		iv, err := FromVariantID(id)
		if err != nil {
			continue
		}
		ivs = append(ivs, iv)
	}
	return ivs
}

// ToBed converts an interval into a 4-column BED record named after its
// variant identifier.
func (iv Interval) ToBed() bed.Bed {
	return bed.Bed{
		Chrom:             iv.Chrom,
		ChromStart:        iv.Start,
		ChromEnd:          iv.End,
		Name:              iv.ID,
		FieldsInitialized: 4,
	}
}

// WriteBED writes intervals as a 4-column BED file.
func WriteBED(path string, ivs []Interval) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bed file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close bed file: %w", cerr)
		}
	}()
	return writeBed(f, ivs)
}

func writeBed(w io.Writer, ivs []Interval) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write bed: %v", r)
		}
	}()
	for _, iv := range ivs {
		bed.WriteBed(w, iv.ToBed())
	}
	return nil
}

// ReadBED reads the intervals of a BED file, plain or gzipped. Only the
// chrom, start and end columns are interpreted; a fourth column is kept as
// the record name. Blank, "#", "track" and "browser" lines are skipped.
func ReadBED(path string) (recs []bed.Bed, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(f) {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip bed file %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, ok, err := parseBedLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("read bed file %s line %d: %w", path, lineNo, err)
		}
		if ok {
			recs = append(recs, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bed file %s: %w", path, err)
	}
	return recs, nil
}

// isGzip sniffs the gzip magic bytes, converting gonomics' panic on an
// unseekable file into false.
func isGzip(f *os.File) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fileio.IsGzip(f)
}

// parseBedLine parses one BED line. The second result is false for lines
// that carry no interval.
func parseBedLine(line string) (bed.Bed, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser") {
		return bed.Bed{}, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return bed.Bed{}, false, fmt.Errorf("want at least 3 columns, got %d", len(fields))
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return bed.Bed{}, false, fmt.Errorf("invalid start %q", fields[1])
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return bed.Bed{}, false, fmt.Errorf("invalid end %q", fields[2])
	}
	if start < 0 || end < start {
		return bed.Bed{}, false, fmt.Errorf("invalid interval %d-%d", start, end)
	}

	b := bed.Bed{Chrom: fields[0], ChromStart: start, ChromEnd: end, FieldsInitialized: 3}
	if len(fields) > 3 {
		b.Name = fields[3]
		b.FieldsInitialized = 4
	}
	return b, true, nil
}

// bedName returns the BED file name up to its first '.'.
func bedName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
