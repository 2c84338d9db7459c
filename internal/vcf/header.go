package vcf

import "strings"

// CSQKey is the INFO key carrying VEP consequence annotations.
const CSQKey = "CSQ"

// Header holds the declarations of a VCF header in file order.
type Header struct {
	Lines       []string // raw ## and #CHROM lines
	InfoIDs     []string // ##INFO IDs in declaration order
	FormatIDs   []string // ##FORMAT IDs in declaration order
	SampleNames []string // sample names from the #CHROM line
	CSQFields   []string // CSQ sub-field names, empty if CSQ is not declared
}

// HasInfo reports whether key is declared as an INFO field.
func (h *Header) HasInfo(key string) bool {
	return contains(h.InfoIDs, key)
}

// HasFormat reports whether key is declared as a FORMAT field.
func (h *Header) HasFormat(key string) bool {
	return contains(h.FormatIDs, key)
}

// HasCSQField reports whether field is one of the CSQ sub-fields.
func (h *Header) HasCSQField(field string) bool {
	return contains(h.CSQFields, field)
}

// add records a header line and extracts its declaration.
func (h *Header) add(line string) {
	h.Lines = append(h.Lines, line)

	switch {
	case strings.HasPrefix(line, "##INFO=<"):
		id := headerID(line)
		if id == "" {
			return
		}
		h.InfoIDs = append(h.InfoIDs, id)
		if id == CSQKey {
			h.CSQFields = csqFormat(line)
		}
	case strings.HasPrefix(line, "##FORMAT=<"):
		if id := headerID(line); id != "" {
			h.FormatIDs = append(h.FormatIDs, id)
		}
	case strings.HasPrefix(line, "#CHROM"):
		fields := strings.Split(line, "\t")
		if len(fields) > 9 {
			h.SampleNames = fields[9:]
		}
	}
}

// headerID extracts the ID=... value of a structured header line.
func headerID(line string) string {
	i := strings.Index(line, "ID=")
	if i < 0 {
		return ""
	}
	rest := line[i+3:]
	if end := strings.IndexAny(rest, ",>"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// csqFormat extracts the pipe-delimited field list from the CSQ description,
// e.g. Description="Consequence annotations from Ensembl VEP. Format: Allele|Consequence|...".
func csqFormat(line string) []string {
	i := strings.Index(line, "Format:")
	if i < 0 {
		return nil
	}
	rest := strings.TrimSpace(line[i+len("Format:"):])
	if end := strings.IndexAny(rest, "\">"); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "|")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
