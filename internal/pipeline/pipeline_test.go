package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/pricefacts/internal/extract"
	"github.com/gyeh/pricefacts/internal/hospitals"
	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/registry"
	"github.com/gyeh/pricefacts/internal/vocab"
)

// memorySink records Write calls per hospital; safe for concurrent workers.
type memorySink struct {
	mu    sync.Mutex
	byID  map[int64][]model.PriceFact
	calls int
}

func newMemorySink() *memorySink {
	return &memorySink{byID: make(map[int64][]model.PriceFact)}
}

func (s *memorySink) Write(ctx context.Context, hospitalID int64, facts []model.PriceFact) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.byID[hospitalID] = append(s.byID[hospitalID], facts...)
	return int64(len(facts)), nil
}

const testRules = `
rules:
  - name: simple-csv
    format: CSV
    hospitals: [101, 102, 103]
    fields:
      code:
        column: "CPT"
        transforms: [trim]
      gross:
        column: "Gross Charge"
        transforms: [strip_currency, trim]
  - name: simple-json
    format: JSON
    hospitals: [301]
    fields:
      code: {column: "code"}
      gross: {column: "gross charge"}
  - name: four-price-csv
    format: CSV
    hospitals: [201]
    fields:
      code: {column: "Code"}
      gross: {column: "Gross"}
      cash: {column: "Cash"}
      min: {column: "Min"}
      max: {column: "Max"}
`

func testSetup(t *testing.T) (*registry.Registry, *vocab.Index, string) {
	t.Helper()
	reg, err := registry.LoadFrom(strings.NewReader(testRules))
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	idx := vocab.FromPairs(map[string]int64{"99213": 4001, "99214": 4002})
	return reg, idx, t.TempDir()
}

func writeSource(t *testing.T, dir string, hospitalID int64, content string) {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("%d.csv", hospitalID))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func runPipeline(t *testing.T, reg *registry.Registry, idx *vocab.Index, dir string, hs []hospitals.Hospital, sink *memorySink) *model.RunSummary {
	t.Helper()
	summary, err := Run(context.Background(), zerolog.Nop(), Options{
		Registry:  reg,
		Index:     idx,
		Hospitals: hs,
		Sources:   &DirSource{Dir: dir},
		Sink:      sink,
		Workers:   2,
		LoadRunID: "test-run",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func resultFor(t *testing.T, s *model.RunSummary, id int64) model.HospitalResult {
	t.Helper()
	for _, r := range s.Hospitals {
		if r.HospitalID == id {
			return r
		}
	}
	t.Fatalf("no result for hospital %d", id)
	return model.HospitalResult{}
}

func TestRun_SingleFactEndToEnd(t *testing.T) {
	reg, idx, dir := testSetup(t)
	writeSource(t, dir, 101, "CPT,Gross Charge\n99213,$150.00\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 101}}, sink)

	if summary.Emitted != 1 || summary.TotalFacts != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	facts := sink.byID[101]
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	want := model.PriceFact{HospitalID: 101, ConceptID: 4001, PriceType: model.PriceGross, Amount: 150.0}
	if facts[0] != want {
		t.Errorf("fact = %+v, want %+v", facts[0], want)
	}
}

func TestRun_EmptyCodeFiltered(t *testing.T) {
	reg, idx, dir := testSetup(t)
	writeSource(t, dir, 101, "CPT,Gross Charge\n,$150.00\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 101}}, sink)

	r := resultFor(t, summary, 101)
	if r.Status != model.StatusEmpty {
		t.Fatalf("status = %s, want empty", r.Status)
	}
	if r.EmptyCodes != 1 {
		t.Errorf("EmptyCodes = %d, want 1", r.EmptyCodes)
	}
	if sink.calls != 0 {
		t.Error("sink must not be called for a zero-fact hospital")
	}
}

func TestRun_AllFourPriceTypes(t *testing.T) {
	reg, idx, dir := testSetup(t)
	writeSource(t, dir, 201, "Code,Gross,Cash,Min,Max\n99213,300,200,150,280\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 201}}, sink)

	if summary.TotalFacts != 4 {
		t.Fatalf("expected 4 facts, got %d", summary.TotalFacts)
	}
	for _, f := range sink.byID[201] {
		if f.ConceptID != 4001 {
			t.Errorf("all facts should share concept 4001, got %d", f.ConceptID)
		}
	}
}

func TestRun_UnresolvedCodeDroppedWithoutError(t *testing.T) {
	reg, idx, dir := testSetup(t)
	writeSource(t, dir, 101, "CPT,Gross Charge\n00099,$150.00\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 101}}, sink)

	r := resultFor(t, summary, 101)
	if r.Status != model.StatusEmpty || r.Err != nil {
		t.Fatalf("unresolved code must not raise an error: %+v", r)
	}
	if r.UnresolvedCodes != 1 {
		t.Errorf("UnresolvedCodes = %d, want 1", r.UnresolvedCodes)
	}
}

func TestRun_UnsupportedHospital(t *testing.T) {
	reg, idx, dir := testSetup(t)
	writeSource(t, dir, 999, "CPT,Gross Charge\n99213,150\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 999}}, sink)

	r := resultFor(t, summary, 999)
	if r.Status != model.StatusUnsupported {
		t.Fatalf("status = %s, want unsupported", r.Status)
	}
	var ue *UnsupportedHospitalError
	if !errors.As(r.Err, &ue) || ue.HospitalID != 999 {
		t.Errorf("expected UnsupportedHospitalError, got %v", r.Err)
	}
	if sink.calls != 0 {
		t.Error("emitter must never be invoked for an unsupported hospital")
	}
}

func TestRun_MissingColumnFailsOnlyThatHospital(t *testing.T) {
	reg, idx, dir := testSetup(t)
	// 101 drifted; 102 is fine.
	writeSource(t, dir, 101, "CPT,Total Charge\n99213,150\n")
	writeSource(t, dir, 102, "CPT,Gross Charge\n99214,250\n")

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir,
		[]hospitals.Hospital{{ID: 101}, {ID: 102}}, sink)

	failed := resultFor(t, summary, 101)
	if failed.Status != model.StatusFailed {
		t.Fatalf("hospital 101 status = %s, want failed", failed.Status)
	}
	var mce *extract.MissingColumnError
	if !errors.As(failed.Err, &mce) {
		t.Errorf("expected MissingColumnError, got %v", failed.Err)
	}
	var he *HospitalError
	if !errors.As(failed.Err, &he) || he.Phase != "extract" {
		t.Errorf("expected HospitalError in phase extract, got %v", failed.Err)
	}
	if len(sink.byID[101]) != 0 {
		t.Error("failed hospital's output must be withheld entirely")
	}

	ok := resultFor(t, summary, 102)
	if ok.Status != model.StatusEmitted || ok.Facts != 1 {
		t.Errorf("hospital 102 should succeed despite 101 failing: %+v", ok)
	}
}

func TestRun_EmptyJSONDeliveryIsEmptyNotFailed(t *testing.T) {
	reg, idx, dir := testSetup(t)
	path := filepath.Join(dir, "301.json")
	if err := os.WriteFile(path, []byte(`{"hospital_name": "X", "data": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 301}}, sink)

	r := resultFor(t, summary, 301)
	if r.Status != model.StatusEmpty {
		t.Fatalf("status = %s (err %v), want %s", r.Status, r.Err, model.StatusEmpty)
	}
	if summary.Failed != 0 || summary.Empty != 1 {
		t.Errorf("summary: %+v", summary)
	}
	if sink.calls != 0 {
		t.Errorf("sink touched %d times for an empty delivery", sink.calls)
	}
}

func TestRun_MissingSourceFile(t *testing.T) {
	reg, idx, dir := testSetup(t)

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, []hospitals.Hospital{{ID: 101}}, sink)

	r := resultFor(t, summary, 101)
	if r.Status != model.StatusFailed {
		t.Fatalf("status = %s, want failed", r.Status)
	}
}

func TestRun_ManyHospitalsParallel(t *testing.T) {
	reg, idx, dir := testSetup(t)
	ids := []int64{101, 102, 103}
	var hs []hospitals.Hospital
	for _, id := range ids {
		writeSource(t, dir, id, "CPT,Gross Charge\n99213,100\n99214,200\n")
		hs = append(hs, hospitals.Hospital{ID: id})
	}

	sink := newMemorySink()
	summary := runPipeline(t, reg, idx, dir, hs, sink)

	if summary.Emitted != 3 || summary.TotalFacts != 6 {
		t.Fatalf("summary: emitted=%d facts=%d", summary.Emitted, summary.TotalFacts)
	}
	for _, id := range ids {
		if len(sink.byID[id]) != 2 {
			t.Errorf("hospital %d: %d facts, want 2", id, len(sink.byID[id]))
		}
	}
}

func TestDirSource_Resolve(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "101.csv"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "102.json"), []byte("{}"), 0644)
	os.WriteFile(filepath.Join(dir, "103.xlsx.csv"), []byte("x"), 0644)

	ds := &DirSource{Dir: dir}
	if src, ok := ds.Resolve(101); !ok || src.Format != "CSV" {
		t.Errorf("101: %+v %v", src, ok)
	}
	if src, ok := ds.Resolve(102); !ok || src.Format != "JSON" {
		t.Errorf("102: %+v %v", src, ok)
	}
	if src, ok := ds.Resolve(103); !ok || src.Format != "XLSX" {
		t.Errorf("103: %+v %v", src, ok)
	}
	if _, ok := ds.Resolve(104); ok {
		t.Error("104 has no source and should not resolve")
	}
}
