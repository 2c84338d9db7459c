package bedfilter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfparse/internal/output"
)

func TestFromVariantID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantStart int
		wantEnd   int
	}{
		{"substitution", "1:100A>T", 99, 100},
		{"insertion", "1:100A>AT", 99, 100},
		{"three base deletion", "1:100CTG>C", 99, 103},
		{"two base deletion", "1:100CT>C", 99, 102},
		{"complex", "1:100AT>GC", 99, 102},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := FromVariantID(tt.id)
			require.NoError(t, err)
			assert.Equal(t, "1", iv.Chrom)
			assert.Equal(t, tt.wantStart, iv.Start)
			assert.Equal(t, tt.wantEnd, iv.End)
			assert.Equal(t, tt.id, iv.ID)
		})
	}
}

func TestFromVariantID_Invalid(t *testing.T) {
	for _, id := range []string{"", "Variant", "1:0A>T", "No VEP output"} {
		_, err := FromVariantID(id)
		assert.Error(t, err, id)
	}
}

func TestDeriveIntervals(t *testing.T) {
	tbl, err := output.ParseTable(strings.NewReader("SampleID\tVariant\n" +
		"S1\t1:100A>T\n" +
		"S1\t1:100A>T\n" +
		"S1\tgarbage\n" +
		"S1\t2:300CTG>C\n"))
	require.NoError(t, err)

	ivs := DeriveIntervals(tbl, 1)
	assert.Equal(t, []Interval{
		{Chrom: "1", Start: 99, End: 100, ID: "1:100A>T"},
		{Chrom: "2", Start: 299, End: 303, ID: "2:300CTG>C"},
	}, ivs)
}

func TestWriteBED_ReadBED(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.bed")
	ivs := []Interval{
		{Chrom: "1", Start: 99, End: 100, ID: "1:100A>T"},
		{Chrom: "2", Start: 299, End: 303, ID: "2:300CTG>C"},
	}
	require.NoError(t, WriteBED(path, ivs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\t99\t100\t1:100A>T\n2\t299\t303\t2:300CTG>C\n", string(data))

	recs, err := ReadBED(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2:300CTG>C", recs[1].Name)
	assert.Equal(t, 303, recs[1].ChromEnd)
}

func TestReadBED_Formats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][3]any // chrom, start, end
	}{
		{"bed3", "chr1\t90\t110\n", [][3]any{{"chr1", 90, 110}}},
		{"no final newline", "chr1\t90\t110", [][3]any{{"chr1", 90, 110}}},
		{"crlf", "chr1\t90\t110\r\nchr2\t5\t6\r\n", [][3]any{{"chr1", 90, 110}, {"chr2", 5, 6}}},
		{"track line", "track name=panel\nchr1\t90\t110\n", [][3]any{{"chr1", 90, 110}}},
		{"browser line", "browser position chr1:1-200\nchr1\t90\t110\n", [][3]any{{"chr1", 90, 110}}},
		{"comment and blank lines", "# panel v2\n\nchr1\t90\t110\n\n", [][3]any{{"chr1", 90, 110}}},
		{"bed6 dot score", "chr1\t90\t110\tgeneA\t.\t+\n", [][3]any{{"chr1", 90, 110}}},
		{"bed5 decimal score", "chr1\t90\t110\tgeneA\t0.5\n", [][3]any{{"chr1", 90, 110}}},
		{"non-strand column 6", "chr1\t90\t110\tgeneA\t0\tNM_000001\n", [][3]any{{"chr1", 90, 110}}},
		{"space separated", "chr1 90 110 geneA\n", [][3]any{{"chr1", 90, 110}}},
		{"empty file", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "panel.bed")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			recs, err := ReadBED(path)
			require.NoError(t, err)
			var got [][3]any
			for _, r := range recs {
				got = append(got, [3]any{r.Chrom, r.ChromStart, r.ChromEnd})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBED_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.bed.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte("track name=panel\nchr1\t90\t110\tgeneA\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	recs, err := ReadBED(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "geneA", recs[0].Name)
	assert.Equal(t, 110, recs[0].ChromEnd)
}

func TestReadBED_BadCoordinates(t *testing.T) {
	for _, content := range []string{
		"chr1\t90\n",
		"chr1\tx\t110\n",
		"chr1\t90\t1.5e2\n",
		"chr1\t-5\t110\n",
		"chr1\t110\t90\n",
	} {
		t.Run(strings.TrimSpace(content), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "panel.bed")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := ReadBED(path)
			assert.ErrorContains(t, err, "line 1")
		})
	}
}

func TestReadBED_Missing(t *testing.T) {
	_, err := ReadBED(filepath.Join(t.TempDir(), "missing.bed"))
	assert.Error(t, err)
}

func TestBedName(t *testing.T) {
	assert.Equal(t, "a_panel", bedName("beds/a_panel.bed"))
	assert.Equal(t, "panel", bedName("/x/panel.v2.bed.gz"))
	assert.Equal(t, "S1_panel_VariantReport.txt", OutputName("S1", "/x/panel.bed"))
}
