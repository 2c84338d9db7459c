package preferred

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcfparse/internal/output"
)

const report = "SampleID\tVariant\tFeature\tPreferred\n" +
	"S1\t1:100A>T\tNM_001.1\tUnknown\n" +
	"S1\t1:100A>T\tNM_002.3\tUnknown\n" +
	"S1\t1:200G>C\tNo VEP output\tUnknown\n"

var cols = Columns{Transcript: "Feature", Preferred: "Preferred"}

func TestLoad(t *testing.T) {
	s, err := Load(findTestFile(t, "preferred_transcripts.txt"))
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("NM_001.2", Exact))
	assert.False(t, s.Contains("Transcript", Exact))
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("/nonexistent/path.txt")
	assert.Error(t, err)
}

func TestParse_SkipsShortLines(t *testing.T) {
	s, err := Parse(strings.NewReader("GENE1\n\nGENE2\tNM_1.1\textra\nGENE3\t\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("NM_1.1", Exact))
}

func TestSet_Contains(t *testing.T) {
	s := NewSet("NM_001007553.1", "NM_000546")

	tests := []struct {
		id         string
		strictness Strictness
		want       bool
	}{
		{"NM_001007553.1", Exact, true},
		{"NM_001007553.2", Exact, false},
		{"NM_001007553.2", VersionInsensitive, true},
		{"NM_001007553", VersionInsensitive, true},
		{"NM_000546.6", VersionInsensitive, true},
		{"NM_000546.6", Exact, false},
		{"NM_999.1", VersionInsensitive, false},
	}

	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.strictness.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, s.Contains(tt.id, tt.strictness))
		})
	}
}

func TestParseStrictness(t *testing.T) {
	for in, want := range map[string]Strictness{
		"high": Exact, "exact": Exact, "HIGH": Exact,
		"low": VersionInsensitive, "version-insensitive": VersionInsensitive, "": VersionInsensitive,
	} {
		got, err := ParseStrictness(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStrictness("medium")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		strictness Strictness
		want       []string
	}{
		{"exact", Exact, []string{"False", "False", "Unknown"}},
		{"version insensitive", VersionInsensitive, []string{"True", "False", "Unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeReport(t, report)
			require.NoError(t, Apply(path, NewSet("NM_001.2", "NM_009.1"), tt.strictness, cols))
			assert.Equal(t, tt.want, preferredCells(t, path))
		})
	}
}

func TestApply_RowWithoutTranscriptCell(t *testing.T) {
	path := writeReport(t, "SampleID\tVariant\tPreferred\tFeature\n"+
		"S1\t1:100A>T\tUnknown\n"+
		"S1\t1:200G>C\tUnknown\tNM_001.1\n")

	require.NoError(t, Apply(path, NewSet("NM_001.1"), Exact, cols))
	assert.Equal(t, []string{"Unknown", "True"}, preferredCells(t, path))
}

func TestApply_NotLoaded(t *testing.T) {
	path := writeReport(t, report)

	err := Apply(path, nil, Exact, cols)
	assert.True(t, errors.Is(err, ErrNotLoaded))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report, string(data))
}

func TestApply_MissingColumn(t *testing.T) {
	path := writeReport(t, report)

	err := Apply(path, NewSet("NM_001.1"), Exact, Columns{Transcript: "Transcript", Preferred: "Preferred"})
	assert.ErrorIs(t, err, output.ErrColumnNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, report, string(data))
}

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "S1_VariantReport.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func preferredCells(t *testing.T, path string) []string {
	t.Helper()
	tbl, err := output.ReadTable(path)
	require.NoError(t, err)
	idx, err := tbl.Column("Preferred")
	require.NoError(t, err)
	var cells []string
	for _, row := range tbl.Rows {
		cells = append(cells, output.Cell(row, idx))
	}
	return cells
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
