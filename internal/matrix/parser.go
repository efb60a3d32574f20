// Package matrix provides streaming parsing of HTSeq-style counts matrices.
package matrix

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser reads rows from a tab-delimited counts matrix.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	headerLine string
	samples    []string
	columns    int
}

// NewParser creates a parser for the given file.
// Supports plain and gzipped input; use "-" for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open counts file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read counts file: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek counts file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads the header line and establishes the sample names and
// the column count every later row must match.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}

		if line == "" {
			continue
		}

		p.headerLine = line
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: "header has no sample columns",
			}
		}
		p.samples = fields[1:]
		p.columns = len(fields)
		return nil
	}
}

// readLine returns the next input line with the trailing newline trimmed.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			// Final line without a trailing newline
			p.lineNumber++
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// Next reads the next row from the matrix, skipping blank lines.
// Returns nil, nil when there are no more rows.
func (p *Parser) Next() (*Row, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		if line == "" {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single data or metacount line into a Row.
func (p *Parser) parseLine(line string) (*Row, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != p.columns {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d columns, found %d", p.columns, len(fields)),
		}
	}

	counts := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid count value: %q", f),
			}
		}
		counts = append(counts, v)
	}

	return &Row{
		Name:      fields[0],
		Counts:    counts,
		Metacount: IsMetacount(fields[0]),
		Text:      line,
		Line:      p.lineNumber,
	}, nil
}

// Header returns the raw header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Samples returns the sample names from the header.
func (p *Parser) Samples() []string {
	return p.samples
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

// ParseError represents an error during matrix parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("matrix parse error at line %d: %s", e.Line, e.Message)
}
