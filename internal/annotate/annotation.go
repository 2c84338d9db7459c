// Package annotate parses VEP consequence bundles and expands variants into
// one (variant, transcript annotation) pair per qualifying transcript.
package annotate

import "strings"

// NoAnnotation is the cell value of every annotation-sourced column on a
// row whose variant has no qualifying transcript.
const NoAnnotation = "No VEP output"

// FeatureField is the CSQ sub-field holding the transcript identifier.
const FeatureField = "Feature"

// DefaultTranscriptPrefix selects RefSeq coding transcripts.
const DefaultTranscriptPrefix = "NM"

// Annotation is one transcript entry of a CSQ bundle.
type Annotation struct {
	fields []string // declared sub-field names, shared by every entry of a file
	values []string
}

// ParseCSQ splits one pipe-delimited CSQ entry against the declared field names.
func ParseCSQ(entry string, fields []string) *Annotation {
	return &Annotation{
		fields: fields,
		values: strings.Split(entry, "|"),
	}
}

// ParseBundle splits a raw CSQ INFO value into its transcript entries.
func ParseBundle(raw string, fields []string) []*Annotation {
	if raw == "" || raw == "." || len(fields) == 0 {
		return nil
	}
	entries := strings.Split(raw, ",")
	anns := make([]*Annotation, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		anns = append(anns, ParseCSQ(e, fields))
	}
	return anns
}

// Get returns the value of the named sub-field. The second result is false
// when the field is not declared or the entry is too short to hold it.
func (a *Annotation) Get(field string) (string, bool) {
	if a == nil {
		return "", false
	}
	for i, f := range a.fields {
		if f != field {
			continue
		}
		if i >= len(a.values) {
			return "", false
		}
		return a.values[i], true
	}
	return "", false
}

// TranscriptID returns the Feature sub-field, or "" when absent.
func (a *Annotation) TranscriptID() string {
	id, _ := a.Get(FeatureField)
	return id
}
