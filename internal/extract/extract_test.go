package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/gyeh/pricefacts/internal/rawtable"
	"github.com/gyeh/pricefacts/internal/registry"
)

func ruleFromYAML(t *testing.T, doc string) *registry.Rule {
	t.Helper()
	reg, err := registry.LoadFrom(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load rule: %v", err)
	}
	return reg.Rules()[0]
}

const namedRule = `
rules:
  - name: test
    format: CSV
    hospitals: [1]
    fields:
      code:
        column: "CPT"
        transforms: [trim, strip_leading_zero]
      gross:
        column: "Gross Charge"
        transforms: [strip_currency, trim]
      cash:
        column: "Cash Price"
        transforms: [strip_currency, trim]
`

func TestExtract_NamedBindings(t *testing.T) {
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{"CPT", "Description", "Gross Charge", "Cash Price"},
		Data: [][]string{
			{"099213", "office visit", "$1,234.50", " 800.00 "},
			{"99214", "office visit ext", "200", "150"},
		},
	}

	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.RowsRead != 2 || len(res.Candidates) != 2 {
		t.Fatalf("rows=%d candidates=%d", res.RowsRead, len(res.Candidates))
	}

	c := res.Candidates[0]
	if c.Code != "99213" {
		t.Errorf("code = %q, want 99213 (leading zero stripped)", c.Code)
	}
	if c.Gross == nil || *c.Gross != "1234.50" {
		t.Errorf("gross = %v, want 1234.50", c.Gross)
	}
	if c.Cash == nil || *c.Cash != "800.00" {
		t.Errorf("cash = %v, want 800.00", c.Cash)
	}
	if c.Min != nil || c.Max != nil {
		t.Error("unbound fields must stay absent, not defaulted")
	}
}

func TestExtract_HeaderMatchingIsCaseInsensitive(t *testing.T) {
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{" cpt ", "gross charge", "CASH PRICE"},
		Data: [][]string{{"99213", "100", "80"}},
	}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
}

func TestExtract_MissingColumn(t *testing.T) {
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{"CPT", "Total Charge"}, // format drifted
		Data: [][]string{{"99213", "100"}},
	}
	_, err := Extract(tbl, rule)
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if mce.Column != "Gross Charge" {
		t.Errorf("offending column = %q", mce.Column)
	}
}

func TestExtract_PositionalBindings(t *testing.T) {
	rule := ruleFromYAML(t, `
rules:
  - name: positional
    format: CSV
    hospitals: [1]
    fields:
      code: {position: 0, transforms: [trim]}
      gross: {position: 2, transforms: [strip_currency]}
`)
	tbl := &rawtable.Rows{
		Cols: []string{"", "", ""}, // duplicate/unusable header names
		Data: [][]string{
			{"99213", "visit", "$150.00"},
			{"99215", "visit"}, // short row: positional field out of range
		},
	}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if *res.Candidates[0].Gross != "150.00" {
		t.Errorf("gross = %q", *res.Candidates[0].Gross)
	}
	if *res.Candidates[1].Gross != "" {
		t.Errorf("short row gross should be empty, got %q", *res.Candidates[1].Gross)
	}
}

func TestExtract_PositionOutOfRange(t *testing.T) {
	rule := ruleFromYAML(t, `
rules:
  - name: positional
    format: CSV
    hospitals: [1]
    fields:
      code: {position: 9}
      gross: {position: 1}
`)
	tbl := &rawtable.Rows{Cols: []string{"a", "b"}, Data: nil}
	_, err := Extract(tbl, rule)
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnError for out-of-range position, got %v", err)
	}
}

func TestExtract_ColumnlessTableIsEmpty(t *testing.T) {
	// A JSON delivery whose row array has no items presents no columns.
	// That is an empty extraction, not a missing-column failure.
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 0 || res.RowsRead != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestExtract_Dedup(t *testing.T) {
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{"CPT", "Gross Charge", "Cash Price"},
		Data: [][]string{
			{"99213", "100", "80"},
			{"99213", "100", "80"}, // exact duplicate
			{"99213", "120", "80"}, // different gross: kept
		},
	}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates after dedup, got %d", len(res.Candidates))
	}
	if res.RowsRead != 3 {
		t.Errorf("rows read = %d, want 3", res.RowsRead)
	}
}

func TestExtract_BlankRowsDropped(t *testing.T) {
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{"CPT", "Gross Charge", "Cash Price"},
		Data: [][]string{
			{"", "", ""},
			{"  ", " ", ""},
			{"99213", "100", "80"},
		},
	}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
}

func TestExtract_EmptyCodeWithPricesKept(t *testing.T) {
	// Rows with an empty code but populated prices survive extraction;
	// the conformance engine owns the code filter.
	rule := ruleFromYAML(t, namedRule)
	tbl := &rawtable.Rows{
		Cols: []string{"CPT", "Gross Charge", "Cash Price"},
		Data: [][]string{{"", "150", "100"}},
	}
	res, err := Extract(tbl, rule)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Code != "" {
		t.Fatalf("unexpected candidates: %+v", res.Candidates)
	}
	if res.Candidates[0].Gross == nil || *res.Candidates[0].Gross != "150" {
		t.Errorf("gross = %v, want 150", res.Candidates[0].Gross)
	}
}
