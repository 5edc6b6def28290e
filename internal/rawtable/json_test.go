package rawtable

import (
	"testing"
)

func colIndex(t *testing.T, tbl Table, name string) int {
	t.Helper()
	for i, c := range tbl.Columns() {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not found in %v", name, tbl.Columns())
	return -1
}

func TestOpenJSON_DataArray(t *testing.T) {
	path := writeFile(t, "prices.json", `{
		"hospital_name": "Covenant Fort Sanders",
		"version": "2.0.0",
		"data": [
			{"code type": "cpt", "code": "99213", "gross charge": "$150.00", "discounted cash price": "100.00"},
			{"code type": "cpt", "code": "99214", "gross charge": "250.00", "discounted cash price": "180.00"}
		]
	}`)

	tbl, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	defer tbl.Close()

	rows := readAll(t, tbl)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	code := colIndex(t, tbl, "code")
	gross := colIndex(t, tbl, "gross charge")
	if rows[0][code] != "99213" || rows[0][gross] != "$150.00" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
}

func TestOpenJSON_EmptyDataArray(t *testing.T) {
	path := writeFile(t, "prices.json", `{"hospital_name": "X", "data": []}`)

	tbl, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	defer tbl.Close()

	if len(tbl.Columns()) != 0 {
		t.Errorf("expected no columns, got %v", tbl.Columns())
	}
	if rows := readAll(t, tbl); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestOpenJSON_WrappedItems(t *testing.T) {
	// Some files wrap each row in a single-element array.
	path := writeFile(t, "prices.json", `{
		"data": [
			[{"code": "99213", "gross charge": "150"}],
			[{"code": "99215", "gross charge": "350"}],
			[]
		]
	}`)

	tbl, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	defer tbl.Close()

	rows := readAll(t, tbl)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (empty wrapper skipped), got %d", len(rows))
	}
	code := colIndex(t, tbl, "code")
	if rows[1][code] != "99215" {
		t.Errorf("unexpected second row: %v", rows[1])
	}
}

func TestOpenJSON_NestedObjects(t *testing.T) {
	path := writeFile(t, "prices.json", `{
		"data": [
			{"code": "99213", "charges": {"gross": 150.5, "cash": 100}}
		]
	}`)

	tbl, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	defer tbl.Close()

	rows := readAll(t, tbl)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	gross := colIndex(t, tbl, "charges.gross")
	if rows[0][gross] != "150.5" {
		t.Errorf("nested numeric value: got %q, want %q", rows[0][gross], "150.5")
	}
}

func TestOpenJSON_BareArray(t *testing.T) {
	path := writeFile(t, "prices.json", `[
		{"code": "99213", "gross": "150"}
	]`)

	tbl, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	defer tbl.Close()

	rows := readAll(t, tbl)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestOpenJSON_NoRowArray(t *testing.T) {
	path := writeFile(t, "prices.json", `{"hospital_name": "X"}`)
	if _, err := OpenJSON(path); err == nil {
		t.Fatal("expected error for document without a row array")
	}
}
