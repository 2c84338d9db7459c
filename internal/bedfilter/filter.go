package bedfilter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/vcfparse/internal/output"
)

// DefaultVariantColumn is the report header of the variant identifier.
const DefaultVariantColumn = "Variant"

// Options configures a Filter.
type Options struct {
	VariantColumn string // "Variant" when empty; column 2 when absent from the report
	TempDir       string // parent of the scratch directory, os.TempDir() when empty
}

// Filter writes BED-filtered copies of a finished report. The base report
// is only ever read.
type Filter struct {
	intersector Intersector
	opts        Options
	logger      *zap.Logger
}

// NewFilter creates a filter backed by ix.
func NewFilter(ix Intersector, opts Options) *Filter {
	if opts.VariantColumn == "" {
		opts.VariantColumn = DefaultVariantColumn
	}
	return &Filter{intersector: ix, opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for intersection failures.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// OutputName returns the file name of the report filtered by bedPath.
func OutputName(sample, bedPath string) string {
	return sample + "_" + bedName(bedPath) + "_VariantReport.txt"
}

// session holds the base report and its derived intervals for the
// lifetime of one ApplySingle or ApplyFolder call.
type session struct {
	dir       string
	table     *output.Table
	idCol     int
	reportBED string
}

func (f *Filter) open(reportPath string) (*session, error) {
	t, err := output.ReadTable(reportPath)
	if err != nil {
		return nil, err
	}
	idCol, err := t.Column(f.opts.VariantColumn)
	if err != nil {
		idCol = 1
	}

	dir, err := os.MkdirTemp(f.opts.TempDir, "vcfparse-bed-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	s := &session{
		dir:       dir,
		table:     t,
		idCol:     idCol,
		reportBED: filepath.Join(dir, "report.bed"),
	}
	if err := WriteBED(s.reportBED, DeriveIntervals(t, idCol)); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	os.RemoveAll(s.dir)
}

// ApplySingle writes <outDir>/<sample>_<bed>_VariantReport.txt holding the
// rows of the report whose variant overlaps bedPath.
func (f *Filter) ApplySingle(ctx context.Context, reportPath, bedPath, outDir, sample string) (string, error) {
	s, err := f.open(reportPath)
	if err != nil {
		return "", err
	}
	defer s.close()

	out := filepath.Join(outDir, OutputName(sample, bedPath))
	if err := f.apply(ctx, s, bedPath, out); err != nil {
		return "", err
	}
	return out, nil
}

// ApplyFolder filters the report once per regular file of bedDir, in
// lexicographic order, writing into <outDir>/<bedDir name>/. The intervals
// of the report are derived once and shared by every pass.
func (f *Filter) ApplyFolder(ctx context.Context, reportPath, bedDir, outDir, sample string) ([]string, error) {
	entries, err := os.ReadDir(bedDir)
	if err != nil {
		return nil, fmt.Errorf("read bed folder: %w", err)
	}

	var beds []string
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name()[0] == '.' {
			continue
		}
		beds = append(beds, filepath.Join(bedDir, e.Name()))
	}
	if len(beds) == 0 {
		f.logger.Warn("no BED files in folder", zap.String("path", bedDir))
		return nil, nil
	}

	dest := filepath.Join(outDir, filepath.Base(filepath.Clean(bedDir)))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	s, err := f.open(reportPath)
	if err != nil {
		return nil, err
	}
	defer s.close()

	outs := make([]string, 0, len(beds))
	for _, b := range beds {
		out := filepath.Join(dest, OutputName(sample, b))
		if err := f.apply(ctx, s, b, out); err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// apply intersects one BED source and writes the kept rows to out. A failed
// intersection keeps no rows.
func (f *Filter) apply(ctx context.Context, s *session, bedPath, out string) error {
	hits, err := f.intersector.Intersect(ctx, s.reportBED, bedPath)
	if err != nil {
		f.logger.Warn("BED intersection failed, filtered report will be empty",
			zap.String("bed", bedPath),
			zap.Error(err))
		hits = nil
	}

	filtered := s.table.Filter(func(row []string) bool {
		_, ok := hits[output.Cell(row, s.idCol)]
		return ok
	})

	f.logger.Debug("BED filter applied",
		zap.String("bed", bedPath),
		zap.Int("rows", len(filtered.Rows)),
		zap.Int("of", len(s.table.Rows)))

	return output.WriteFileAtomic(out, func(w io.Writer) error {
		_, err := filtered.WriteTo(w)
		return err
	})
}
