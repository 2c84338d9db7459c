package vcf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Header(t *testing.T) {
	parser, err := NewParser(findTestFile(t, "sample.vcf"))
	require.NoError(t, err)
	defer parser.Close()

	h := parser.Header()
	assert.Equal(t, []string{"DP", "AF", "SOMATIC", "CSQ"}, h.InfoIDs)
	assert.Equal(t, []string{"GT", "AD", "DP"}, h.FormatIDs)
	assert.Equal(t, []string{"SAMPLE1"}, h.SampleNames)
	assert.Equal(t, []string{
		"Allele", "Consequence", "IMPACT", "SYMBOL", "Gene", "Feature_type",
		"Feature", "BIOTYPE", "EXON", "INTRON", "HGVSc", "HGVSp",
	}, h.CSQFields)
	assert.Equal(t, "##fileformat=VCFv4.2", h.Lines[0])
	assert.True(t, strings.HasPrefix(h.Lines[len(h.Lines)-1], "#CHROM"))
}

func TestParser_Variants(t *testing.T) {
	parser, err := NewParser(findTestFile(t, "sample.vcf"))
	require.NoError(t, err)
	defer parser.Close()

	var variants []*Variant
	for {
		v, err := parser.Next()
		require.NoError(t, err)
		if v == nil {
			break
		}
		variants = append(variants, v)
	}
	require.Len(t, variants, 3)

	first := variants[0]
	assert.Equal(t, "1", first.Chrom)
	assert.Equal(t, int64(100), first.Pos)
	assert.Equal(t, "A", first.Ref)
	assert.Equal(t, []string{"T"}, first.Alt)
	assert.True(t, first.Passed())
	assert.Equal(t, "1:100A>T", first.VariantID())

	dp, ok := first.InfoValue("DP")
	require.True(t, ok)
	assert.Equal(t, "100", dp)

	gt, ok := first.SampleValue("SAMPLE1", "GT")
	require.True(t, ok)
	assert.Equal(t, "0/1", gt)
	ad, ok := first.SampleValue("SAMPLE1", "AD")
	require.True(t, ok)
	assert.Equal(t, "10,90", ad)

	third := variants[2]
	assert.False(t, third.Passed())
	assert.Equal(t, "LowQual", third.FilterString())
	somatic, ok := third.InfoValue("SOMATIC")
	require.True(t, ok)
	assert.Equal(t, "True", somatic)
	_, ok = third.InfoValue(CSQKey)
	assert.False(t, ok)
	assert.Equal(t, "2:300CTG>C", third.VariantID())
}

func TestParser_NoVariants(t *testing.T) {
	parser, err := NewParser(findTestFile(t, "empty.vcf"))
	require.NoError(t, err)
	defer parser.Close()

	v, err := parser.Next()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, []string{"SAMPLE1"}, parser.SampleNames())
}

func TestParser_FromReader(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"7\t55\t.\tg\tc\t.\t.\t.\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	v, err := parser.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Passed())
	assert.Empty(t, v.Info)
	assert.Equal(t, "7:55G>C", v.VariantID())
}

func TestParser_BlankLines(t *testing.T) {
	sample, err := os.ReadFile(findTestFile(t, "sample.vcf"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"trailing blank line", string(sample) + "\n"},
		{"trailing blank lines with spaces", string(sample) + "\n  \r\n\n"},
		{"blank line between records", strings.Replace(string(sample), "\n1\t200", "\n\n1\t200", 1)},
		{"no final newline", strings.TrimRight(string(sample), "\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, err := NewParserFromReader(strings.NewReader(tt.input))
			require.NoError(t, err)

			var ids []string
			for {
				v, err := parser.Next()
				require.NoError(t, err)
				if v == nil {
					break
				}
				ids = append(ids, v.VariantID())
			}
			assert.Equal(t, []string{"1:100A>T", "1:200G>C", "2:300CTG>C"}, ids)
		})
	}
}

func TestParser_MissingHeader(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("1\t100\t.\tA\tT\t.\t.\t.\n"))
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestParser_FileNotFound(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing.vcf"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err) || strings.Contains(err.Error(), "open vcf file"))
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected #CHROM header line",
	}

	expected := "vcf parse error at line 42: expected #CHROM header line"
	assert.Equal(t, expected, err.Error())
}

func TestParseInfo(t *testing.T) {
	info := parseInfo("DP=10;SOMATIC;CSQ=A|b|c,A|d|e")
	assert.Equal(t, "10", info["DP"])
	assert.Equal(t, true, info["SOMATIC"])
	assert.Equal(t, "A|b|c,A|d|e", info["CSQ"])
	assert.Empty(t, parseInfo("."))
}

func TestParseFilter(t *testing.T) {
	assert.Nil(t, parseFilter("PASS"))
	assert.Nil(t, parseFilter("."))
	assert.Equal(t, []string{"LowQual", "SB"}, parseFilter("LowQual;SB"))
}

func TestFormatGenotype(t *testing.T) {
	assert.Equal(t, "0/1", formatGenotype([]int{0, 1}, false))
	assert.Equal(t, "1|1", formatGenotype([]int{1, 1}, true))
	assert.Equal(t, "./.", formatGenotype([]int{-1, -1}, false))
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
