// Package hospitals loads the hospital dimension: per-hospital identifier
// and affiliation labels. Affiliations annotate logs and reports only and
// never alter normalization logic.
package hospitals

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gyeh/pricefacts/internal/normalize"
)

// Hospital is one row of the hospital dimension.
type Hospital struct {
	ID             int64
	Name           string
	Affiliation    string
	AffiliationKey string // normalized grouping key
}

// Load reads the hospital dimension from a CSV with header
// hospital_id,name,affiliation. Duplicate hospital ids are an error.
func Load(r io.Reader) ([]Hospital, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read hospital header: %w", err)
	}
	idIdx, nameIdx, affIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\uFEFF"))) {
		case "hospital_id":
			idIdx = i
		case "name", "hospital", "hospital_name":
			nameIdx = i
		case "affiliation", "idn":
			affIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("hospital dimension missing hospital_id column, got: %s",
			strings.Join(header, ", "))
	}

	var out []Hospital
	seen := make(map[int64]bool)
	rowNum := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read hospital row %d: %w", rowNum, err)
		}
		rowNum++

		if len(rec) <= idIdx || strings.TrimSpace(rec[idIdx]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idIdx]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("hospital row %d: bad hospital_id %q: %w", rowNum, rec[idIdx], err)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate hospital_id %d", id)
		}
		seen[id] = true

		h := Hospital{ID: id}
		if nameIdx >= 0 && nameIdx < len(rec) {
			h.Name = strings.TrimSpace(rec[nameIdx])
		}
		if affIdx >= 0 && affIdx < len(rec) {
			h.Affiliation = strings.TrimSpace(rec[affIdx])
			h.AffiliationKey = normalize.NormalizeName(h.Affiliation)
		}
		out = append(out, h)
	}
	return out, nil
}

// OpenFile loads the hospital dimension from disk.
func OpenFile(path string) ([]Hospital, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hospital dimension: %w", err)
	}
	defer f.Close()
	return Load(f)
}
