package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcfparse/internal/annotate"
	"github.com/inodb/vcfparse/internal/bedfilter"
	"github.com/inodb/vcfparse/internal/datasource/known"
	"github.com/inodb/vcfparse/internal/datasource/ntc"
	"github.com/inodb/vcfparse/internal/datasource/preferred"
	"github.com/inodb/vcfparse/internal/duckdb"
	"github.com/inodb/vcfparse/internal/report"
	"github.com/inodb/vcfparse/internal/vcf"
)

// Intersection engines accepted by --intersect-engine.
const (
	engineTree   = "tree"
	engineDuckDB = "duckdb"
)

// reportSuffix ends the file name of every report written.
const reportSuffix = "_VariantReport.txt"

// runReport builds the base report and applies every requested
// post-processing step. Only input, column configuration and base report
// failures are fatal; each later step logs a warning and leaves the files
// written so far in place.
func runReport(ctx context.Context, v *viper.Viper, opts options, stdout io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	strictness, err := preferred.ParseStrictness(v.GetString("strictness"))
	if err != nil {
		return usage("%v", err)
	}
	engine := strings.ToLower(v.GetString("intersect_engine"))
	if engine != engineTree && engine != engineDuckDB {
		return usage("unknown intersect engine %q (want %s or %s)", engine, engineTree, engineDuckDB)
	}

	parser, err := vcf.NewParser(opts.input)
	if err != nil {
		return fatal(fmt.Errorf("open input: %w", err))
	}
	defer parser.Close()
	parser.SetLogger(logger)
	header := parser.Header()

	if opts.listColumns {
		if err := report.WriteColumnList(stdout, report.DefaultColumns(header)); err != nil {
			return fatal(fmt.Errorf("list columns: %w", err))
		}
		return nil
	}

	var cols []report.Column
	if opts.columns != "" {
		cols, err = report.LoadColumns(opts.columns, logger)
		if err != nil {
			return fatal(fmt.Errorf("load column config: %w", err))
		}
		report.Validate(cols, header, logger)
	}

	sample := chooseSample(opts.sample, header, opts.input)
	outDir := v.GetString("output")
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fatal(fmt.Errorf("create output directory: %w", err))
	}

	builder := report.NewBuilder(header, report.Options{
		Columns:          cols,
		Sample:           sample,
		PassOnly:         v.GetBool("filter_pass"),
		TranscriptPrefix: v.GetString("transcript_prefix"),
		SampleHeader:     v.GetString("columns.sample"),
		VariantHeader:    v.GetString("columns.variant"),
	})
	builder.SetLogger(logger)

	reportPath := filepath.Join(outDir, sample+reportSuffix)
	logger.Info("writing report", zap.String("sample", sample), zap.String("path", reportPath))
	stats, err := builder.WriteReport(parser, reportPath)
	if err != nil {
		return fatal(fmt.Errorf("write report: %w", err))
	}
	logger.Info("report written",
		zap.Int("variants", stats.Variants),
		zap.Int("skipped", stats.Skipped),
		zap.Int("rows", stats.Rows),
		zap.Int("duplicates", stats.Duplicates))

	hdr := reportHeaders(builder, v)

	if opts.preferred != "" {
		applyPreferred(reportPath, opts.preferred, strictness, hdr, logger)
	}
	if opts.known != "" {
		applyKnown(reportPath, opts.known, hdr, v.GetString("columns.classification"), logger)
	}
	if opts.ntc != "" {
		applyNTC(reportPath, opts.ntc, hdr.variant, logger)
	}

	outputs := []string{reportPath}

	var store *duckdb.Store
	if opts.duckdb != "" {
		store, err = duckdb.Open(opts.duckdb)
		if err != nil {
			logger.Warn("could not open DuckDB database, reports will not be stored",
				zap.String("path", opts.duckdb), zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	if opts.bed != "" || opts.bedFolder != "" {
		var ix bedfilter.Intersector = bedfilter.TreeIntersector{}
		if engine == engineDuckDB {
			if store == nil {
				scratch, err := duckdb.Open("")
				if err != nil {
					logger.Warn("could not open in-memory DuckDB, using interval tree", zap.Error(err))
				} else {
					defer scratch.Close()
					ix = duckdb.NewIntersector(scratch)
				}
			} else {
				ix = duckdb.NewIntersector(store)
			}
		}
		filter := bedfilter.NewFilter(ix, bedfilter.Options{VariantColumn: hdr.variant})
		filter.SetLogger(logger)

		if opts.bed != "" {
			out, err := filter.ApplySingle(ctx, reportPath, opts.bed, outDir, sample)
			if err != nil {
				logger.Warn("BED filtering failed", zap.String("bed", opts.bed), zap.Error(err))
			} else {
				outputs = append(outputs, out)
			}
		} else {
			outs, err := filter.ApplyFolder(ctx, reportPath, opts.bedFolder, outDir, sample)
			if err != nil {
				logger.Warn("BED folder filtering failed", zap.String("folder", opts.bedFolder), zap.Error(err))
			}
			outputs = append(outputs, outs...)
		}
	}

	if store != nil {
		for _, path := range outputs {
			name := strings.TrimSuffix(filepath.Base(path), reportSuffix)
			if err := store.ExportReport(name, path, hdr.variant); err != nil {
				logger.Warn("could not store report in DuckDB", zap.String("path", path), zap.Error(err))
			}
		}
	}

	for _, path := range outputs {
		fmt.Fprintln(stdout, path)
	}
	return nil
}

// chooseSample returns the reported sample: the flag value, else the first
// sample column, else the input file name without its VCF extension.
func chooseSample(flag string, h *vcf.Header, input string) string {
	if flag != "" {
		return flag
	}
	if len(h.SampleNames) > 0 {
		return h.SampleNames[0]
	}
	if input == "-" {
		return "stdin"
	}
	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".vcf"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// headers holds the report header cells post-processing steps look up.
type headers struct {
	variant    string
	transcript string
	preferred  string
}

// reportHeaders takes header cells from the builder schema, so renamed
// columns are found under their new names.
func reportHeaders(b *report.Builder, v *viper.Viper) headers {
	h := headers{
		variant:    v.GetString("columns.variant"),
		transcript: v.GetString("columns.transcript"),
		preferred:  v.GetString("columns.preferred"),
	}
	for _, c := range b.Columns() {
		switch {
		case c.Kind == report.FixedField && strings.EqualFold(c.Key, report.KeyVariant):
			h.variant = c.Name()
		case c.Kind == report.AnnotationField && c.Key == annotate.FeatureField:
			h.transcript = c.Name()
		case c.Kind == report.PreferredPlaceholder:
			h.preferred = c.Name()
		}
	}
	return h
}

func applyPreferred(reportPath, path string, st preferred.Strictness, hdr headers, logger *zap.Logger) {
	set, err := preferred.Load(path)
	if err != nil {
		logger.Warn("could not load preferred transcripts, column left as Unknown",
			zap.String("path", path), zap.Error(err))
	}
	err = preferred.Apply(reportPath, set, st, preferred.Columns{
		Transcript: hdr.transcript,
		Preferred:  hdr.preferred,
	})
	if err != nil && !errors.Is(err, preferred.ErrNotLoaded) {
		logger.Warn("could not mark preferred transcripts", zap.Error(err))
		return
	}
	if err == nil {
		logger.Info("marked preferred transcripts",
			zap.Int("transcripts", set.Len()), zap.Stringer("strictness", st))
	}
}

func applyKnown(reportPath, path string, hdr headers, classification string, logger *zap.Logger) {
	cat, err := known.Load(path)
	if err != nil {
		logger.Warn("could not load known variants, classifications not added",
			zap.String("path", path), zap.Error(err))
	}
	err = known.Apply(reportPath, cat, known.Columns{Variant: hdr.variant, Classification: classification})
	if err != nil && !errors.Is(err, known.ErrNotLoaded) {
		logger.Warn("could not add known variant classifications", zap.Error(err))
		return
	}
	if err == nil {
		logger.Info("added known variant classifications", zap.Int("variants", len(cat)))
	}
}

func applyNTC(reportPath, path, variantColumn string, logger *zap.Logger) {
	calls, err := ntc.Load(path)
	if err != nil {
		logger.Warn("could not load NTC variants, NTC columns not added",
			zap.String("path", path), zap.Error(err))
	}
	err = ntc.Apply(reportPath, calls, variantColumn)
	if err != nil && !errors.Is(err, ntc.ErrNotLoaded) {
		logger.Warn("could not add NTC columns", zap.Error(err))
		return
	}
	if err == nil {
		logger.Info("added NTC columns", zap.Int("variants", len(calls)))
	}
}
