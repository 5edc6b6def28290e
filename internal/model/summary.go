package model

import "time"

// HospitalStatus describes the outcome of one hospital within a run.
type HospitalStatus string

const (
	StatusEmitted     HospitalStatus = "emitted"     // facts written to the sink
	StatusEmpty       HospitalStatus = "empty"       // adapter ran, zero facts survived
	StatusUnsupported HospitalStatus = "unsupported" // no adapter registered
	StatusFailed      HospitalStatus = "failed"      // structural error, output withheld
)

// HospitalResult captures metrics from processing a single hospital.
type HospitalResult struct {
	HospitalID  int64
	Affiliation string
	Status      HospitalStatus
	RowsRead    int64
	Candidates  int64
	Facts       int64

	// Per-row data-quality skips; expected noise, logged not errored.
	EmptyCodes      int64
	UnresolvedCodes int64
	BadAmounts      int64
	NonPositive     int64

	Duration time.Duration
	Err      error
}

// RunSummary aggregates metrics from a full load run.
type RunSummary struct {
	LoadRunID   string
	Hospitals   []HospitalResult
	Emitted     int
	Empty       int
	Unsupported int
	Failed      int
	TotalFacts  int64
	Duration    time.Duration
}

// Add folds one hospital result into the summary.
func (s *RunSummary) Add(r HospitalResult) {
	s.Hospitals = append(s.Hospitals, r)
	s.TotalFacts += r.Facts
	switch r.Status {
	case StatusEmitted:
		s.Emitted++
	case StatusEmpty:
		s.Empty++
	case StatusUnsupported:
		s.Unsupported++
	case StatusFailed:
		s.Failed++
	}
}
