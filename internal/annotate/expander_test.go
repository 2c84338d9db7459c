package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfparse/internal/vcf"
)

var testFields = []string{"Allele", "Consequence", "SYMBOL", "Feature", "EXON", "HGVSc"}

func csqVariant(csq interface{}) *vcf.Variant {
	v := &vcf.Variant{Chrom: "1", Pos: 100, Ref: "A", Alt: []string{"T"}, Info: map[string]interface{}{}}
	if csq != nil {
		v.Info[vcf.CSQKey] = csq
	}
	return v
}

func collect(e *Expander, v *vcf.Variant) []Pair {
	var pairs []Pair
	for p := range e.Expand(v) {
		pairs = append(pairs, p)
	}
	return pairs
}

func TestExpand_QualifyingEntries(t *testing.T) {
	v := csqVariant("T|missense_variant|GENE1|NM_001.1|2/5|NM_001.1:c.10A>T," +
		"T|missense_variant|GENE1|XM_001.1|2/5|XM_001.1:c.10A>T," +
		"T|synonymous_variant|GENE2|NM_002.3|3/6|NM_002.3:c.12A>T")

	pairs := collect(NewExpander(testFields, "NM"), v)
	require.Len(t, pairs, 2)
	assert.Equal(t, "NM_001.1", pairs[0].Annotation.TranscriptID())
	assert.Equal(t, "NM_002.3", pairs[1].Annotation.TranscriptID())
	for _, p := range pairs {
		assert.Same(t, v, p.Variant)
	}
}

func TestExpand_NoAnnotation(t *testing.T) {
	tests := []struct {
		name string
		csq  interface{}
	}{
		{"absent", nil},
		{"no qualifying entry", "T|intron_variant|GENE1|XM_002.1||"},
		{"flag instead of value", true},
		{"missing value", "."},
		{"no feature sub-field", "T"},
	}

	e := NewExpander(testFields, "NM")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := collect(e, csqVariant(tt.csq))
			require.Len(t, pairs, 1)
			assert.Nil(t, pairs[0].Annotation)
			assert.NotNil(t, pairs[0].Variant)
		})
	}
}

func TestExpand_NoDeclaredFields(t *testing.T) {
	pairs := collect(NewExpander(nil, "NM"), csqVariant("T|missense_variant|GENE1|NM_001.1||"))
	require.Len(t, pairs, 1)
	assert.Nil(t, pairs[0].Annotation)
}

func TestExpand_Restartable(t *testing.T) {
	v := csqVariant("T|a|G|NM_1.1||,T|b|G|NM_2.1||")
	seq := NewExpander(testFields, "NM").Expand(v)

	var first, second []string
	for p := range seq {
		first = append(first, p.Annotation.TranscriptID())
	}
	for p := range seq {
		second = append(second, p.Annotation.TranscriptID())
	}
	assert.Equal(t, []string{"NM_1.1", "NM_2.1"}, first)
	assert.Equal(t, first, second)
}

func TestExpand_EarlyStop(t *testing.T) {
	v := csqVariant("T|a|G|NM_1.1||,T|b|G|NM_2.1||")
	n := 0
	for range NewExpander(testFields, "NM").Expand(v) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestAnnotation_Get(t *testing.T) {
	ann := ParseCSQ("T|missense_variant|GENE1|NM_001.1", testFields)

	got, ok := ann.Get("SYMBOL")
	assert.True(t, ok)
	assert.Equal(t, "GENE1", got)

	// declared but past the end of a short entry
	_, ok = ann.Get("HGVSc")
	assert.False(t, ok)

	_, ok = ann.Get("BIOTYPE")
	assert.False(t, ok)

	var none *Annotation
	_, ok = none.Get("SYMBOL")
	assert.False(t, ok)
	assert.Equal(t, "", none.TranscriptID())
}

func TestParseBundle(t *testing.T) {
	assert.Nil(t, ParseBundle("", testFields))
	assert.Nil(t, ParseBundle("T|a", nil))
	assert.Len(t, ParseBundle("T|a,,T|b", testFields), 2)
}
