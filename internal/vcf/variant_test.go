package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVariantID(t *testing.T) {
	tests := []struct {
		name  string
		chrom string
		pos   int64
		ref   string
		alts  []string
		want  string
	}{
		{"SNV", "1", 100, "A", []string{"T"}, "1:100A>T"},
		{"lower case alleles", "chr1", 100, "a", []string{"t"}, "chr1:100A>T"},
		{"deletion", "3", 41265953, "CT", []string{"C"}, "3:41265953CT>C"},
		{"multi-allelic", "1", 5, "A", []string{"C", "G"}, "1:5A>C,G"},
		{"list punctuation", "1", 5, "A", []string{"['C'", " 'G']"}, "1:5A>C,G"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatVariantID(tt.chrom, tt.pos, tt.ref, tt.alts))
		})
	}
}

func TestParseVariantID_RoundTrip(t *testing.T) {
	ids := []string{"1:100A>T", "chr1:200G>C", "3:41265953CT>C", "HLA-A*01:01:1:5A>AT", "X:9A>C,G"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			chrom, pos, ref, alt, err := ParseVariantID(id)
			require.NoError(t, err)
			assert.Equal(t, id, FormatVariantID(chrom, pos, ref, []string{alt}))
		})
	}
}

func TestParseVariantID_Invalid(t *testing.T) {
	for _, id := range []string{"", "1-100A>T", "1:A>T", "1:100AT", "1:100>T"} {
		t.Run(id, func(t *testing.T) {
			_, _, _, _, err := ParseVariantID(id)
			assert.Error(t, err)
		})
	}
}

func TestVariant_FilterString(t *testing.T) {
	assert.Equal(t, "PASS", (&Variant{}).FilterString())
	assert.Equal(t, "LowQual;SB", (&Variant{Filter: []string{"LowQual", "SB"}}).FilterString())
}

func TestVariant_InfoValue(t *testing.T) {
	v := &Variant{Info: map[string]interface{}{"DP": "12", "DB": true, "X": 3}}

	got, ok := v.InfoValue("DP")
	assert.True(t, ok)
	assert.Equal(t, "12", got)

	got, ok = v.InfoValue("DB")
	assert.True(t, ok)
	assert.Equal(t, "True", got)

	_, ok = v.InfoValue("X")
	assert.False(t, ok)
	_, ok = v.InfoValue("MISSING")
	assert.False(t, ok)
}
