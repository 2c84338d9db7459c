// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant represents a single genomic variant from a VCF file.
type Variant struct {
	Chrom   string                       // Chromosome name (e.g., "12", "chr12")
	Pos     int64                        // 1-based genomic position
	ID      string                       // Variant identifier (e.g., rs ID)
	Ref     string                       // Reference allele
	Alt     []string                     // Alternate alleles, at least one
	Qual    float64                      // Quality score
	Filter  []string                     // Failed filters, empty when the record passed
	Info    map[string]interface{}       // INFO values: string, or true for flags
	Samples map[string]map[string]string // sample name -> FORMAT key -> raw value
}

// Passed reports whether the record passed all filters.
func (v *Variant) Passed() bool {
	return len(v.Filter) == 0
}

// FilterString renders the filter status as written in the FILTER column.
func (v *Variant) FilterString() string {
	if v.Passed() {
		return "PASS"
	}
	return strings.Join(v.Filter, ";")
}

// AltString returns the alternate alleles as a comma-separated list.
func (v *Variant) AltString() string {
	return strings.Join(v.Alt, ",")
}

// InfoValue returns the string form of an INFO value. Flags render as "True".
func (v *Variant) InfoValue(key string) (string, bool) {
	raw, ok := v.Info[key]
	if !ok {
		return "", false
	}
	switch val := raw.(type) {
	case string:
		return val, true
	case bool:
		if val {
			return "True", true
		}
		return "False", true
	default:
		return "", false
	}
}

// SampleValue returns the raw FORMAT value of key for the named sample.
func (v *Variant) SampleValue(sample, key string) (string, bool) {
	fields, ok := v.Samples[sample]
	if !ok {
		return "", false
	}
	val, ok := fields[key]
	return val, ok
}

// VariantID returns the chrom:posREF>ALT identifier used to join reports,
// BED intersections and catalogues.
func (v *Variant) VariantID() string {
	return FormatVariantID(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// FormatVariantID creates a variant identifier from components.
// Alleles are upper-cased and list punctuation is removed from alt alleles.
func FormatVariantID(chrom string, pos int64, ref string, alts []string) string {
	cleaned := make([]string, 0, len(alts))
	for _, a := range alts {
		a = strings.Trim(a, "[]' ")
		if a == "" {
			continue
		}
		cleaned = append(cleaned, strings.ToUpper(a))
	}
	return chrom + ":" + strconv.FormatInt(pos, 10) + strings.ToUpper(ref) + ">" + strings.Join(cleaned, ",")
}

// ParseVariantID splits an identifier produced by FormatVariantID.
func ParseVariantID(id string) (chrom string, pos int64, ref, alt string, err error) {
	colon := strings.LastIndexByte(id, ':')
	if colon <= 0 {
		return "", 0, "", "", fmt.Errorf("parse variant id %q: missing chromosome", id)
	}
	chrom = id[:colon]
	rest := id[colon+1:]

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return "", 0, "", "", fmt.Errorf("parse variant id %q: missing position", id)
	}
	pos, err = strconv.ParseInt(rest[:digits], 10, 64)
	if err != nil {
		return "", 0, "", "", fmt.Errorf("parse variant id %q: %w", id, err)
	}

	alleles := rest[digits:]
	gt := strings.IndexByte(alleles, '>')
	if gt < 0 {
		return "", 0, "", "", fmt.Errorf("parse variant id %q: missing '>'", id)
	}
	ref, alt = alleles[:gt], alleles[gt+1:]
	if ref == "" {
		return "", 0, "", "", fmt.Errorf("parse variant id %q: empty reference allele", id)
	}
	return chrom, pos, ref, alt, nil
}
