// Package report builds flattened variant reports: one tab-delimited row per
// (variant, transcript) pair, with columns drawn from the VCF record, its
// INFO and FORMAT fields and its CSQ annotations.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vcfparse/internal/vcf"
)

// SourceKind selects where a column takes its value from.
type SourceKind int

const (
	FixedField SourceKind = iota
	InfoField
	FormatField
	AnnotationField
	PreferredPlaceholder
	FilterPlaceholder
)

// ErrUnknownSourceKind is returned for an unrecognised source-kind token.
var ErrUnknownSourceKind = errors.New("unknown source kind")

// String returns the token written in column files and list output.
func (k SourceKind) String() string {
	switch k {
	case FixedField:
		return "var"
	case InfoField:
		return "info"
	case FormatField:
		return "format"
	case AnnotationField:
		return "vep"
	case PreferredPlaceholder:
		return "pref"
	case FilterPlaceholder:
		return "filter"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// ParseSourceKind parses a source-kind token (case-insensitive).
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "var", "fixed":
		return FixedField, nil
	case "info":
		return InfoField, nil
	case "format":
		return FormatField, nil
	case "vep", "annotation", "csq":
		return AnnotationField, nil
	case "pref", "preferred":
		return PreferredPlaceholder, nil
	case "filter":
		return FilterPlaceholder, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
}

// Fixed-field keys. Lookups are case-insensitive.
const (
	KeyChrom   = "CHROM"
	KeyPos     = "POS"
	KeyID      = "ID"
	KeyRef     = "REF"
	KeyAlt     = "ALT"
	KeyQual    = "QUAL"
	KeySample  = "SAMPLE"
	KeyVariant = "VARIANT"
)

// FrequencyKey is the derived FORMAT column computed from allele depths.
const FrequencyKey = "Frequency"

// Column describes one report column.
type Column struct {
	Key    string     // lookup key within the source
	Kind   SourceKind // data source
	Header string     // output header, Key when empty
}

// Name returns the header cell of the column.
func (c Column) Name() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Key
}

// LoadColumns reads a column file. A missing or unreadable file is an error;
// malformed lines are logged and skipped.
func LoadColumns(path string, logger *zap.Logger) ([]Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open column config: %w", err)
	}
	defer f.Close()

	cols, err := ParseColumns(f, logger)
	if err != nil {
		return nil, fmt.Errorf("read column config %s: %w", path, err)
	}
	return cols, nil
}

// ParseColumns parses tab-delimited column descriptors, one per line:
// key, source kind and an optional header rename.
func ParseColumns(r io.Reader, logger *zap.Logger) ([]Column, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cols []Column
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			logger.Warn("column descriptor without source kind, skipping",
				zap.Int("line", line),
				zap.String("descriptor", text))
			continue
		}

		kind, err := ParseSourceKind(fields[1])
		if err != nil {
			logger.Warn("column descriptor dropped",
				zap.Int("line", line),
				zap.Error(err))
			continue
		}

		col := Column{Key: strings.TrimSpace(fields[0]), Kind: kind}
		if len(fields) > 2 {
			col.Header = strings.TrimSpace(fields[2])
		}
		cols = append(cols, col)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cols, nil
}

// DefaultColumns returns every column the file can resolve: fixed fields,
// the filter and preferred placeholders, INFO keys except CSQ, FORMAT keys
// (plus Frequency when AD is declared) and CSQ sub-fields.
func DefaultColumns(h *vcf.Header) []Column {
	cols := []Column{
		{Key: KeyChrom, Kind: FixedField},
		{Key: KeyPos, Kind: FixedField},
		{Key: KeyID, Kind: FixedField},
		{Key: KeyRef, Kind: FixedField},
		{Key: KeyAlt, Kind: FixedField},
		{Key: KeyQual, Kind: FixedField},
		{Key: "Filter", Kind: FilterPlaceholder},
		{Key: "Preferred", Kind: PreferredPlaceholder},
	}
	for _, id := range h.InfoIDs {
		if id == vcf.CSQKey {
			continue
		}
		cols = append(cols, Column{Key: id, Kind: InfoField})
	}
	for _, id := range h.FormatIDs {
		cols = append(cols, Column{Key: id, Kind: FormatField})
	}
	if h.HasFormat("AD") {
		cols = append(cols, Column{Key: FrequencyKey, Kind: FormatField})
	}
	for _, f := range h.CSQFields {
		cols = append(cols, Column{Key: f, Kind: AnnotationField})
	}
	return cols
}

// Validate logs a warning for every column whose key the header does not
// declare. Such columns stay in the schema and resolve to empty cells.
func Validate(cols []Column, h *vcf.Header, logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	unresolved := 0
	for _, c := range cols {
		if resolvable(c, h) {
			continue
		}
		unresolved++
		logger.Warn("column not declared in VCF header, cells will be empty",
			zap.String("column", c.Name()),
			zap.String("key", c.Key),
			zap.Stringer("source", c.Kind))
	}
	return unresolved
}

func resolvable(c Column, h *vcf.Header) bool {
	switch c.Kind {
	case FixedField:
		_, ok := fixedKey(c.Key)
		return ok
	case InfoField:
		return h.HasInfo(c.Key)
	case FormatField:
		if c.Key == FrequencyKey {
			return h.HasFormat("AD")
		}
		return h.HasFormat(c.Key)
	case AnnotationField:
		return h.HasCSQField(c.Key)
	case PreferredPlaceholder, FilterPlaceholder:
		return true
	}
	return false
}

// IdentityOverride reports whether cols supply their own leading sample and
// variant columns.
func IdentityOverride(cols []Column) bool {
	if len(cols) < 2 || cols[0].Kind != FixedField || cols[1].Kind != FixedField {
		return false
	}
	k0, _ := fixedKey(cols[0].Key)
	k1, _ := fixedKey(cols[1].Key)
	return k0 == KeySample && k1 == KeyVariant
}

// fixedKey canonicalises a fixed-field key and its lower-case aliases.
func fixedKey(key string) (string, bool) {
	switch k := strings.ToUpper(strings.TrimSpace(key)); k {
	case "CHR":
		return KeyChrom, true
	case KeyChrom, KeyPos, KeyID, KeyRef, KeyAlt, KeyQual, KeySample, KeyVariant:
		return k, true
	}
	return "", false
}
