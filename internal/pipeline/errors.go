package pipeline

import (
	"fmt"

	"github.com/gyeh/pricefacts/internal/rawtable"
)

// UnsupportedHospitalError reports that no adapter rule is registered for a
// hospital id and source format. It is raised exactly once per affected
// hospital and never aborts the run.
type UnsupportedHospitalError struct {
	HospitalID int64
	Format     rawtable.Format
}

func (e *UnsupportedHospitalError) Error() string {
	return fmt.Sprintf("no adapter registered for hospital %d (format %s)", e.HospitalID, e.Format)
}

// HospitalError wraps a structural failure with the hospital and phase
// where it occurred. The hospital's output is withheld for the run; other
// hospitals continue.
type HospitalError struct {
	HospitalID int64
	Phase      string
	Err        error
}

func (e *HospitalError) Error() string {
	return fmt.Sprintf("hospital %d %s: %s", e.HospitalID, e.Phase, e.Err)
}

func (e *HospitalError) Unwrap() error {
	return e.Err
}
