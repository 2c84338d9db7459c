package bedfilter

import (
	"context"

	"github.com/vertgenlab/gonomics/interval"
)

// Intersector is the interval intersection primitive. It returns the names
// (variant identifiers) of the reportBED records overlapping at least one
// record of sourceBED.
type Intersector interface {
	Intersect(ctx context.Context, reportBED, sourceBED string) (map[string]struct{}, error)
}

// TreeIntersector intersects in memory with a gonomics interval tree built
// over the source BED.
type TreeIntersector struct{}

// Intersect implements Intersector.
func (TreeIntersector) Intersect(ctx context.Context, reportBED, sourceBED string) (map[string]struct{}, error) {
	report, err := ReadBED(reportBED)
	if err != nil {
		return nil, err
	}
	source, err := ReadBED(sourceBED)
	if err != nil {
		return nil, err
	}

	hits := make(map[string]struct{})
	if len(report) == 0 || len(source) == 0 {
		return hits, nil
	}

	targets := make([]interval.Interval, len(source))
	for i := range source {
		targets[i] = source[i]
	}
	tree := interval.BuildTree(targets)

	for _, r := range report {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, hit := range interval.Query(tree, r, "any") {
			if overlaps(r, hit) {
				hits[r.Name] = struct{}{}
				break
			}
		}
	}
	return hits, nil
}

// overlaps reports whether two half-open intervals share at least one base.
func overlaps(a, b interval.Interval) bool {
	return a.GetChrom() == b.GetChrom() &&
		a.GetChromStart() < b.GetChromEnd() &&
		b.GetChromStart() < a.GetChromEnd()
}
