package annotate

import (
	"iter"
	"strings"

	"github.com/inodb/vcfparse/internal/vcf"
)

// Pair is one report row source: a variant and one of its transcript
// annotations. Annotation is nil when the variant has no qualifying transcript.
type Pair struct {
	Variant    *vcf.Variant
	Annotation *Annotation
}

// Expander turns a variant into one Pair per qualifying CSQ entry.
type Expander struct {
	fields []string
	prefix string
}

// NewExpander creates an expander for a file whose CSQ sub-fields are
// fields. Entries qualify when their Feature starts with prefix.
func NewExpander(fields []string, prefix string) *Expander {
	return &Expander{fields: fields, prefix: prefix}
}

// Expand returns the pairs of v in CSQ order. The sequence is lazy and can
// be ranged over more than once. A variant without a CSQ bundle, with a
// malformed one, or with no qualifying entry yields a single Pair with a
// nil Annotation.
func (e *Expander) Expand(v *vcf.Variant) iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		emitted := false
		for _, ann := range e.entries(v) {
			if !strings.HasPrefix(ann.TranscriptID(), e.prefix) {
				continue
			}
			emitted = true
			if !yield(Pair{Variant: v, Annotation: ann}) {
				return
			}
		}
		if !emitted {
			yield(Pair{Variant: v})
		}
	}
}

func (e *Expander) entries(v *vcf.Variant) []*Annotation {
	raw, ok := v.Info[vcf.CSQKey].(string)
	if !ok {
		return nil
	}
	return ParseBundle(raw, e.fields)
}
