// Package rawtable provides the row-iterable table handle that the file
// acquisition collaborator hands to the pipeline: one hospital, one file,
// columns addressable by name or position.
package rawtable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies the raw layout of a source file.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
	// FormatXLSX identifies spreadsheet sources. The acquisition
	// collaborator delivers those as CSV handles; the registry still keys
	// rules on the original format.
	FormatXLSX Format = "XLSX"
)

// ParseFormat returns the Format for a token, or ok=false.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, true
	case FormatJSON:
		return FormatJSON, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

// Table is a readable, row-iterable handle over one hospital's source file.
// Columns may be addressed by name (via Columns) or by position. Next
// returns io.EOF when the table is exhausted.
type Table interface {
	Columns() []string
	Next() ([]string, error)
	Close() error
}

// Rows is an in-memory Table, used in tests and for pre-parsed sources.
type Rows struct {
	Cols []string
	Data [][]string
	pos  int
}

func (r *Rows) Columns() []string { return r.Cols }

func (r *Rows) Next() ([]string, error) {
	if r.pos >= len(r.Data) {
		return nil, io.EOF
	}
	row := r.Data[r.pos]
	r.pos++
	return row, nil
}

func (r *Rows) Close() error { return nil }

// DetectFormat sniffs a file's format from its extension, falling back to
// content inspection for extensionless or misnamed files. Servers and CDNs
// routinely lie about what they serve.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("detect format: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("detect format: %w", err)
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return FormatJSON, nil
		default:
			return FormatCSV, nil
		}
	}
	return FormatCSV, nil
}

// Open returns a Table for the file at path using the given format.
// XLSX handles arrive pre-converted to CSV by the acquisition collaborator.
func Open(path string, format Format, skipRows int) (Table, error) {
	switch format {
	case FormatCSV, FormatXLSX:
		return OpenCSV(path, skipRows)
	case FormatJSON:
		return OpenJSON(path)
	}
	return nil, fmt.Errorf("unsupported source format %q", format)
}
