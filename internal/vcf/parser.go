// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/brentp/vcfgo"
	"go.uber.org/zap"
)

// Parser reads variants from a VCF file.
type Parser struct {
	reader     *vcfgo.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     *Header
	logger     *zap.Logger
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file, logger: zap.NewNop()}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	var r io.Reader = file
	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r = p.gzipReader
	}

	if err := p.init(r); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{logger: zap.NewNop()}
	if err := p.init(r); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLogger sets the logger for record-level diagnostics.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// init scans the header to keep declaration order, then hands the header
// and the remaining records to vcfgo.
func (p *Parser) init(r io.Reader) error {
	br := bufio.NewReader(r)
	if err := p.parseHeader(br); err != nil {
		return err
	}

	headerText := strings.Join(p.header.Lines, "\n") + "\n"
	records := &recordReader{br: br}
	vr, err := vcfgo.NewReader(io.MultiReader(strings.NewReader(headerText), records), false)
	if err != nil {
		return &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid header: %v", err)}
	}
	p.reader = vr
	return nil
}

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader(br *bufio.Reader) error {
	p.header = &Header{}
	for {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, "##") {
			p.header.add(line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header.add(line)
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// recordReader passes the record section through, dropping blank lines
// that vcfgo cannot split and terminating the last line.
type recordReader struct {
	br  *bufio.Reader
	buf []byte
}

func (r *recordReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		line, err := r.br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
			r.buf = line
		}
		if err != nil {
			if len(r.buf) == 0 {
				return 0, err
			}
			break
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (v *Variant, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("malformed record: %v", r)}
		}
	}()

	rec := p.reader.Read()
	if rec == nil {
		return nil, nil
	}
	p.lineNumber++

	if verr := p.reader.Error(); verr != nil {
		p.logger.Debug("vcf record warnings",
			zap.Int("line", p.lineNumber),
			zap.Error(verr))
		p.reader.Clear()
	}

	if rec.Pos == 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: "invalid position",
		}
	}

	return p.convert(rec), nil
}

// convert maps a vcfgo record onto a Variant.
func (p *Parser) convert(rec *vcfgo.Variant) *Variant {
	v := &Variant{
		Chrom:  rec.Chromosome,
		Pos:    int64(rec.Pos),
		ID:     rec.Id(),
		Ref:    rec.Ref(),
		Alt:    rec.Alt(),
		Qual:   float64(rec.Quality),
		Filter: parseFilter(rec.Filter),
		Info:   parseInfo(string(rec.Info().Bytes())),
	}

	if len(rec.Samples) > 0 {
		v.Samples = make(map[string]map[string]string, len(rec.Samples))
		for i, sg := range rec.Samples {
			if sg == nil || i >= len(p.header.SampleNames) {
				continue
			}
			v.Samples[p.header.SampleNames[i]] = sampleFields(sg)
		}
	}

	return v
}

// parseFilter returns the failed filters; PASS and missing values mean passed.
func parseFilter(filter string) []string {
	switch filter {
	case "", ".", "PASS":
		return nil
	}
	return strings.Split(filter, ";")
}

// parseInfo parses the INFO field into a map.
func parseInfo(info string) map[string]interface{} {
	result := make(map[string]interface{})
	if info == "" || info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			// Flag-type INFO field
			result[parts[0]] = true
		}
	}

	return result
}

// sampleFields copies the raw FORMAT values of one sample, restoring the
// typed fields vcfgo decodes separately.
func sampleFields(sg *vcfgo.SampleGenotype) map[string]string {
	fields := make(map[string]string, len(sg.Fields)+1)
	for k, val := range sg.Fields {
		fields[k] = val
	}
	if _, ok := fields["GT"]; !ok && len(sg.GT) > 0 {
		fields["GT"] = formatGenotype(sg.GT, sg.Phased)
	}
	if _, ok := fields["DP"]; !ok && sg.DP > 0 {
		fields["DP"] = strconv.Itoa(sg.DP)
	}
	if _, ok := fields["GQ"]; !ok && sg.GQ > 0 {
		fields["GQ"] = strconv.Itoa(sg.GQ)
	}
	return fields
}

func formatGenotype(alleles []int, phased bool) string {
	sep := "/"
	if phased {
		sep = "|"
	}
	parts := make([]string, len(alleles))
	for i, a := range alleles {
		if a < 0 {
			parts[i] = "."
		} else {
			parts[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(parts, sep)
}

// Header returns the VCF header declarations.
func (p *Parser) Header() *Header {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.header.SampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
