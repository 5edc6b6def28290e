// Package extract applies an adapter rule to a raw source table, producing
// wide candidate records with canonical field names.
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/normalize"
	"github.com/gyeh/pricefacts/internal/rawtable"
	"github.com/gyeh/pricefacts/internal/registry"
)

// MissingColumnError reports an adapter rule referencing a raw column that
// does not exist in the actual file. It signals upstream format drift and
// must propagate to the per-hospital boundary rather than being swallowed.
type MissingColumnError struct {
	Column string
	Have   []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("raw column %q not found (have: %s)", e.Column, strings.Join(e.Have, ", "))
}

// Result holds the extracted candidates plus read metrics.
type Result struct {
	Candidates []model.CandidateRecord
	RowsRead   int64
}

// boundField is one canonical field resolved to a concrete column index.
type boundField struct {
	priceType model.PriceType // unset for the code field
	isCode    bool
	index     int
	binding   *registry.Binding
}

// Extract binds the rule's fields against the table's columns, applies each
// field's transform pipeline, and emits one candidate per source row.
// Identical candidates are collapsed, first occurrence wins. Fields absent
// from the rule stay absent on the candidate: absence means the hospital
// did not publish that price type.
func Extract(t rawtable.Table, rule *registry.Rule) (*Result, error) {
	// A columnless table is an empty delivery (a JSON file whose row array
	// has no items), not column drift: there is no header to bind against
	// and no rows to lose.
	if len(t.Columns()) == 0 {
		if _, err := t.Next(); err == io.EOF {
			return &Result{}, nil
		}
	}

	fields, err := bindFields(t.Columns(), rule)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	seen := make(map[[32]byte]bool)

	for {
		row, err := t.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source row %d: %w", res.RowsRead+1, err)
		}
		res.RowsRead++

		rec, any := buildCandidate(row, fields)
		if !any {
			continue
		}

		key := candidateKey(&rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		res.Candidates = append(res.Candidates, rec)
	}

	return res, nil
}

// bindFields resolves every bound field of the rule to a column index.
// Name bindings match case-insensitively on trimmed headers; positional
// bindings are validated against the header width.
func bindFields(columns []string, rule *registry.Rule) ([]boundField, error) {
	byName := make(map[string]int, len(columns))
	for i, c := range columns {
		byName[strings.ToLower(strings.TrimSpace(c))] = i
	}

	resolve := func(b *registry.Binding) (int, error) {
		if b.ByPosition() {
			if *b.Position >= len(columns) {
				return 0, &MissingColumnError{
					Column: fmt.Sprintf("position %d", *b.Position),
					Have:   columns,
				}
			}
			return *b.Position, nil
		}
		i, ok := byName[strings.ToLower(strings.TrimSpace(b.Column))]
		if !ok {
			return 0, &MissingColumnError{Column: b.Column, Have: columns}
		}
		return i, nil
	}

	codeIdx, err := resolve(&rule.Code)
	if err != nil {
		return nil, err
	}
	fields := []boundField{{isCode: true, index: codeIdx, binding: &rule.Code}}

	for _, pt := range rule.PriceFields() {
		b := rule.Price[pt]
		idx, err := resolve(b)
		if err != nil {
			return nil, err
		}
		fields = append(fields, boundField{priceType: pt, index: idx, binding: b})
	}
	return fields, nil
}

// buildCandidate applies the transform pipelines over one raw row. Short
// rows yield empty values for out-of-range fields. Returns any=false when
// every bound field came out empty (blank filler rows).
func buildCandidate(row []string, fields []boundField) (model.CandidateRecord, bool) {
	var rec model.CandidateRecord
	any := false

	for _, f := range fields {
		var raw string
		if f.index < len(row) {
			raw = row[f.index]
		}
		v := f.binding.Apply(raw)

		if f.isCode {
			rec.Code = v
			if v != "" {
				any = true
			}
			continue
		}
		val := v
		rec.SetAmount(f.priceType, &val)
		if v != "" {
			any = true
		}
	}
	return rec, any
}

func candidateKey(rec *model.CandidateRecord) [32]byte {
	values := []string{rec.Code}
	for _, pt := range model.AllPriceTypes {
		if v := rec.Amount(pt); v != nil {
			values = append(values, string(pt), *v)
		}
	}
	return normalize.RowKey(values...)
}
