// Package ntc flags report variants that were also called in the run's
// no-template control.
package ntc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/vcfparse/internal/output"
	"github.com/inodb/vcfparse/internal/vcf"
)

// Report columns written by Apply.
const (
	ColumnInNTC    = "in_ntc"
	ColumnVAF      = "ntc_vaf"
	ColumnDepth    = "ntc_depth"
	ColumnAltReads = "ntc_alt_reads"
)

// ErrNotLoaded is returned by Apply when no NTC calls are available.
var ErrNotLoaded = errors.New("ntc variants not loaded")

// Call holds the NTC evidence for one variant.
type Call struct {
	VAF      string
	Depth    string
	AltReads string
}

// Calls maps variant identifiers to NTC evidence.
type Calls map[string]Call

// Load reads the NTC VCF, taking FORMAT values from its first sample.
func Load(path string) (Calls, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, fmt.Errorf("open ntc vcf: %w", err)
	}
	defer p.Close()

	samples := p.SampleNames()
	if len(samples) == 0 {
		return nil, fmt.Errorf("ntc vcf %s: no sample columns", path)
	}
	sample := samples[0]

	calls := make(Calls)
	for {
		v, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("read ntc vcf: %w", err)
		}
		if v == nil {
			break
		}
		calls[v.VariantID()] = callFor(v, sample)
	}
	return calls, nil
}

func callFor(v *vcf.Variant, sample string) Call {
	var c Call
	c.Depth, _ = v.SampleValue(sample, "DP")

	ad, _ := v.SampleValue(sample, "AD")
	depths := strings.Split(ad, ",")
	if len(depths) > 1 {
		c.AltReads = depths[1]
	}

	if af, ok := v.SampleValue(sample, "AF"); ok && af != "." {
		c.VAF, _, _ = strings.Cut(af, ",")
	} else if len(depths) > 1 {
		c.VAF = fraction(depths[0], depths[1])
	}
	return c
}

// fraction returns alt/(ref+alt) rounded to four decimals, or "" when the
// depths are not non-negative integers or both zero.
func fraction(refDepth, altDepth string) string {
	ref, err := strconv.Atoi(refDepth)
	if err != nil || ref < 0 {
		return ""
	}
	alt, err := strconv.Atoi(altDepth)
	if err != nil || alt < 0 || ref+alt == 0 {
		return ""
	}
	return strconv.FormatFloat(math.Round(float64(alt)/float64(ref+alt)*1e4)/1e4, 'f', -1, 64)
}

// Apply sets the four NTC columns of every row, adding them when absent:
// "True" and the NTC evidence when the row's variant was called in the
// NTC, "False" and empty cells otherwise. variantColumn names the variant
// identifier column; the second column is used when it is absent.
func Apply(reportPath string, calls Calls, variantColumn string) error {
	if calls == nil {
		return ErrNotLoaded
	}
	return output.RewriteTable(reportPath, func(t *output.Table) error {
		vIdx, err := t.Column(variantColumn)
		if err != nil {
			vIdx = 1
		}
		inIdx := t.EnsureColumn(ColumnInNTC, "")
		vafIdx := t.EnsureColumn(ColumnVAF, "")
		dpIdx := t.EnsureColumn(ColumnDepth, "")
		altIdx := t.EnsureColumn(ColumnAltReads, "")

		for i, row := range t.Rows {
			c, ok := calls[output.Cell(row, vIdx)]
			in := "False"
			if ok {
				in = "True"
			}
			row = output.SetCell(row, inIdx, in)
			row = output.SetCell(row, vafIdx, c.VAF)
			row = output.SetCell(row, dpIdx, c.Depth)
			t.Rows[i] = output.SetCell(row, altIdx, c.AltReads)
		}
		return nil
	})
}
