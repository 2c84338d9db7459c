// Package known annotates report rows with the classifications of a
// catalogue of previously classified variants.
package known

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vcfparse/internal/output"
	"github.com/inodb/vcfparse/internal/vcf"
)

// ClassificationKey is the INFO key holding a catalogue entry's class.
const ClassificationKey = "Classification"

// ErrNotLoaded is returned by Apply when no catalogue is available.
var ErrNotLoaded = errors.New("known variants not loaded")

// Catalogue maps variant identifiers to their distinct classifications in
// file order.
type Catalogue map[string][]string

// Load reads a known-variants VCF whose records carry a Classification
// INFO value. Records without one are skipped.
func Load(path string) (Catalogue, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, fmt.Errorf("open known variants: %w", err)
	}
	defer p.Close()

	cat := make(Catalogue)
	for {
		v, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("read known variants: %w", err)
		}
		if v == nil {
			break
		}
		class, ok := v.InfoValue(ClassificationKey)
		if !ok || class == "" || class == "." {
			continue
		}
		cat.add(v.VariantID(), class)
	}
	return cat, nil
}

func (c Catalogue) add(id, class string) {
	for _, existing := range c[id] {
		if existing == class {
			return
		}
	}
	c[id] = append(c[id], class)
}

// Columns names the report columns Apply reads and writes.
type Columns struct {
	Variant        string // variant identifier; column 2 when absent
	Classification string // added when absent
}

// Apply sets the classification cell of every row whose variant is in cat
// to the comma-joined union of the existing cell and the catalogue classes.
// Other rows keep their cell. The report is replaced atomically.
func Apply(reportPath string, cat Catalogue, cols Columns) error {
	if cat == nil {
		return ErrNotLoaded
	}
	return output.RewriteTable(reportPath, func(t *output.Table) error {
		vIdx, err := t.Column(cols.Variant)
		if err != nil {
			vIdx = 1
		}
		cIdx := t.EnsureColumn(cols.Classification, "")

		for i, row := range t.Rows {
			classes, ok := cat[output.Cell(row, vIdx)]
			if !ok {
				continue
			}
			t.Rows[i] = output.SetCell(row, cIdx, merge(output.Cell(row, cIdx), classes))
		}
		return nil
	})
}

// merge joins the classes of cell and extra, dropping repeats.
func merge(cell string, extra []string) string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range append(strings.Split(cell, ","), extra...) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return strings.Join(out, ",")
}
