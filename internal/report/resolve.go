package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/inodb/vcfparse/internal/annotate"
	"github.com/inodb/vcfparse/internal/vcf"
)

// PreferredUnknown is the preferred-transcript cell before the preference
// annotator runs.
const PreferredUnknown = "Unknown"

// Resolver produces report cells for a single-sample report. Every lookup
// miss resolves to the empty cell, except annotation columns on a row
// without a transcript, which read annotate.NoAnnotation.
type Resolver struct {
	sample string
}

// NewResolver creates a resolver reading FORMAT values of sample.
func NewResolver(sample string) *Resolver {
	return &Resolver{sample: sample}
}

// Resolve returns the cell of col for the pair (v, ann). ann is nil when v
// has no qualifying transcript.
func (r *Resolver) Resolve(col Column, v *vcf.Variant, ann *annotate.Annotation) string {
	var (
		val string
		ok  bool
	)
	switch col.Kind {
	case FixedField:
		val, ok = r.fixed(col.Key, v)
	case InfoField:
		val, ok = v.InfoValue(col.Key)
	case FormatField:
		val, ok = r.format(col.Key, v)
	case AnnotationField:
		if ann == nil {
			return annotate.NoAnnotation
		}
		val, ok = annotationValue(col.Key, ann)
	case PreferredPlaceholder:
		return PreferredUnknown
	case FilterPlaceholder:
		return v.FilterString()
	}
	if !ok {
		return ""
	}
	return val
}

func (r *Resolver) fixed(key string, v *vcf.Variant) (string, bool) {
	k, ok := fixedKey(key)
	if !ok {
		return "", false
	}
	switch k {
	case KeyChrom:
		return v.Chrom, true
	case KeyPos:
		return strconv.FormatInt(v.Pos, 10), true
	case KeyID:
		return v.ID, true
	case KeyRef:
		return v.Ref, true
	case KeyAlt:
		return v.AltString(), true
	case KeyQual:
		return strconv.FormatFloat(v.Qual, 'f', -1, 64), true
	case KeySample:
		return r.sample, true
	case KeyVariant:
		return v.VariantID(), true
	}
	return "", false
}

func (r *Resolver) format(key string, v *vcf.Variant) (string, bool) {
	if key == FrequencyKey {
		ad, ok := v.SampleValue(r.sample, "AD")
		if !ok {
			return "", false
		}
		return AlleleFrequency(ad)
	}

	val, ok := v.SampleValue(r.sample, key)
	if !ok {
		return "", false
	}
	if key == "GT" {
		return ClassifyGenotype(val), true
	}
	return val, true
}

func annotationValue(field string, ann *annotate.Annotation) (string, bool) {
	val, ok := ann.Get(field)
	if !ok {
		return "", false
	}
	switch field {
	case "EXON", "INTRON":
		return strings.ReplaceAll(val, "/", "|"), true
	case "HGVSc", "HGVSp":
		if i := strings.IndexByte(val, ':'); i >= 0 {
			return val[i+1:], true
		}
	}
	return val, true
}

// AlleleFrequency computes alt/(ref+alt)*100 from a "ref,alt" AD value,
// rounded to two decimals and written with a trailing '%'. Depths must be
// non-negative integers with a positive sum.
func AlleleFrequency(ad string) (string, bool) {
	parts := strings.Split(ad, ",")
	if len(parts) < 2 {
		return "", false
	}
	ref, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || ref < 0 {
		return "", false
	}
	alt, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || alt < 0 {
		return "", false
	}
	if ref+alt == 0 {
		return "", false
	}

	pct := math.Round(float64(alt)/float64(ref+alt)*100*100) / 100
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%", true
}

// ClassifyGenotype maps diploid genotypes to HET, HOM_VAR and HOM_REF.
// Any other value is returned unchanged.
func ClassifyGenotype(gt string) string {
	switch gt {
	case "0/1":
		return "HET"
	case "1/1":
		return "HOM_VAR"
	case "0/0":
		return "HOM_REF"
	}
	return gt
}
