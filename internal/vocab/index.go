// Package vocab builds the read-only procedure code index from an OHDSI
// Athena CONCEPT export. The index maps normalized procedure codes to
// stable concept identifiers and is shared read-only across all hospitals
// in a run.
package vocab

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ProcedureVocabularies are the vocabulary lineages retained when building
// the index. Rows from any other vocabulary are discarded before
// deduplication.
var ProcedureVocabularies = map[string]bool{
	"CPT4":  true,
	"HCPCS": true,
}

// Index is an immutable procedure code -> concept id lookup.
type Index struct {
	codes map[string]int64
}

// Len returns the number of distinct codes in the index.
func (ix *Index) Len() int {
	return len(ix.codes)
}

// Resolve returns the concept id for an exact code match. Not found is not
// an error; it signals that the record should be dropped downstream.
func (ix *Index) Resolve(code string) (int64, bool) {
	id, ok := ix.codes[code]
	return id, ok
}

// OpenFile loads the index from a CONCEPT file on disk, transparently
// decompressing a .gz suffix.
func OpenFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open vocabulary gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return Load(r)
}

// Load builds the index from a tab-separated CONCEPT table. The input may
// contain duplicate (code, concept_id) pairs from multiple vocabulary
// lineages; those collapse silently. The same code mapped to two different
// concept ids is a build error, caught before any hospital is processed.
func Load(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read vocabulary header: %w", err)
	}

	idIdx, codeIdx, vocabIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "concept_id":
			idIdx = i
		case "concept_code":
			codeIdx = i
		case "vocabulary_id":
			vocabIdx = i
		}
	}
	if idIdx < 0 || codeIdx < 0 || vocabIdx < 0 {
		return nil, fmt.Errorf("vocabulary missing required columns (need concept_id, concept_code, vocabulary_id), got: %s",
			strings.Join(header, ", "))
	}

	codes := make(map[string]int64)
	var rowNum int64 = 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read vocabulary row %d: %w", rowNum, err)
		}
		rowNum++

		max := idIdx
		if codeIdx > max {
			max = codeIdx
		}
		if vocabIdx > max {
			max = vocabIdx
		}
		if len(rec) <= max {
			continue
		}

		if !ProcedureVocabularies[strings.TrimSpace(rec[vocabIdx])] {
			continue
		}

		code := strings.TrimSpace(rec[codeIdx])
		if code == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idIdx]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("vocabulary row %d: bad concept_id %q: %w", rowNum, rec[idIdx], err)
		}

		if prev, ok := codes[code]; ok {
			if prev != id {
				return nil, fmt.Errorf("vocabulary code %q maps to both concept %d and %d", code, prev, id)
			}
			continue
		}
		codes[code] = id
	}

	return &Index{codes: codes}, nil
}

// FromPairs builds an index directly from code -> concept id pairs.
// Intended for tests and small fixtures.
func FromPairs(pairs map[string]int64) *Index {
	codes := make(map[string]int64, len(pairs))
	for code, id := range pairs {
		codes[code] = id
	}
	return &Index{codes: codes}
}
