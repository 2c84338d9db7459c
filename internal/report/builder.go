package report

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/vcfparse/internal/annotate"
	"github.com/inodb/vcfparse/internal/output"
	"github.com/inodb/vcfparse/internal/vcf"
)

// Default identity headers.
const (
	DefaultSampleHeader  = "SampleID"
	DefaultVariantHeader = "Variant"
)

// Options configures a Builder.
type Options struct {
	Columns          []Column // nil selects DefaultColumns
	Sample           string   // sample whose FORMAT values are reported
	PassOnly         bool     // skip records that failed a filter
	TranscriptPrefix string   // qualifying transcript prefix, "NM" when empty
	SampleHeader     string   // "SampleID" when empty
	VariantHeader    string   // "Variant" when empty
}

// Stats summarises one build.
type Stats struct {
	Variants   int // records read
	Skipped    int // records dropped by PassOnly
	Rows       int // rows written
	Duplicates int // rows dropped as duplicates
}

// Builder drives report generation for one VCF file.
type Builder struct {
	columns  []Column
	passOnly bool
	resolver *Resolver
	expander *annotate.Expander
	logger   *zap.Logger
}

// NewBuilder creates a builder for a file with header h.
func NewBuilder(h *vcf.Header, opts Options) *Builder {
	cols := opts.Columns
	if cols == nil {
		cols = DefaultColumns(h)
	}
	if !IdentityOverride(cols) {
		sampleHeader := opts.SampleHeader
		if sampleHeader == "" {
			sampleHeader = DefaultSampleHeader
		}
		variantHeader := opts.VariantHeader
		if variantHeader == "" {
			variantHeader = DefaultVariantHeader
		}
		identity := []Column{
			{Key: KeySample, Kind: FixedField, Header: sampleHeader},
			{Key: KeyVariant, Kind: FixedField, Header: variantHeader},
		}
		cols = append(identity, cols...)
	}

	prefix := opts.TranscriptPrefix
	if prefix == "" {
		prefix = annotate.DefaultTranscriptPrefix
	}

	return &Builder{
		columns:  cols,
		passOnly: opts.PassOnly,
		resolver: NewResolver(opts.Sample),
		expander: annotate.NewExpander(h.CSQFields, prefix),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Columns returns the full output schema, identity columns included.
func (b *Builder) Columns() []Column {
	return b.columns
}

// Header returns the header cells of the report.
func (b *Builder) Header() []string {
	header := make([]string, len(b.columns))
	for i, c := range b.columns {
		header[i] = c.Name()
	}
	return header
}

// Row resolves every column for one (variant, annotation) pair.
func (b *Builder) Row(p annotate.Pair) []string {
	row := make([]string, len(b.columns))
	for i, c := range b.columns {
		row[i] = b.resolver.Resolve(c, p.Variant, p.Annotation)
	}
	return row
}

// Build streams the report for every variant of parser to w. Rows are
// written once; later identical rows are dropped.
func (b *Builder) Build(parser vcf.VariantParser, w io.Writer) (Stats, error) {
	var stats Stats

	tw := output.NewTabWriter(w)
	if err := tw.WriteHeader(b.Header()); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for {
		v, err := parser.Next()
		if err != nil {
			return stats, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		stats.Variants++

		if b.passOnly && !v.Passed() {
			stats.Skipped++
			continue
		}

		for p := range b.expander.Expand(v) {
			if err := tw.Write(b.Row(p)); err != nil {
				return stats, fmt.Errorf("write row: %w", err)
			}
		}
	}

	if err := tw.Flush(); err != nil {
		return stats, fmt.Errorf("flush report: %w", err)
	}
	stats.Rows = tw.Rows()
	stats.Duplicates = tw.Duplicates()

	b.logger.Debug("report built",
		zap.Int("lines", parser.LineNumber()),
		zap.Int("variants", stats.Variants),
		zap.Int("skipped", stats.Skipped),
		zap.Int("rows", stats.Rows),
		zap.Int("duplicates", stats.Duplicates))

	return stats, nil
}

// WriteReport builds the report into path. The file only appears once the
// whole input was read; on error no file is left behind.
func (b *Builder) WriteReport(parser vcf.VariantParser, path string) (Stats, error) {
	var stats Stats
	err := output.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		stats, err = b.Build(parser, w)
		return err
	})
	return stats, err
}
