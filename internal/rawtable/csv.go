package rawtable

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSVTable streams a delimited text file. Hospital files are messy: BOMs,
// lazy quoting, uneven record lengths, and lead-in banner rows before the
// real header all occur in the wild.
type CSVTable struct {
	file    *os.File
	csv     *csv.Reader
	columns []string
}

// OpenCSV opens a delimited file, skipping skipRows banner rows before the
// header row.
func OpenCSV(path string, skipRows int) (*CSVTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	t := &CSVTable{file: file, csv: reader}

	for i := 0; i < skipRows; i++ {
		if _, err := reader.Read(); err != nil {
			file.Close()
			return nil, fmt.Errorf("skip banner row %d: %w", i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	t.columns = header

	return t, nil
}

func (t *CSVTable) Columns() []string { return t.columns }

// Next returns the next data row. Short rows are returned as-is; callers
// bound-check positional access.
func (t *CSVTable) Next() ([]string, error) {
	return t.csv.Read()
}

func (t *CSVTable) Close() error { return t.file.Close() }
