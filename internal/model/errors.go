package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Engine errors. Each is scoped to a single computation and never fatal.
var (
	// ErrInvalidConfiguration reports a zero or negative denominator or a negative cost input.
	ErrInvalidConfiguration = eris.New("invalid configuration")
	// ErrInvalidMargin reports a target margin of 100% or more.
	ErrInvalidMargin = eris.New("invalid margin")
	// ErrInsufficientData reports a calibration population below the minimum sample count.
	ErrInsufficientData = eris.New("insufficient data")
	// ErrUnknownFactor names a factor ID missing from the catalog. The multiplier
	// ignores unknown IDs, so this is only surfaced by catalog validation helpers.
	ErrUnknownFactor = eris.New("unknown factor")

	// ErrNotFound reports a missing job or template.
	ErrNotFound = eris.New("not found")
	// ErrAlreadyCompleted reports a second attempt to record actuals for a job.
	ErrAlreadyCompleted = eris.New("job already completed")
)

// InsufficientDataError carries the sample counts behind ErrInsufficientData.
type InsufficientDataError struct {
	ServiceType ServiceType
	Count       int
	Required    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d completed jobs, %d required", e.ServiceType, e.Count, e.Required)
}

// Is lets errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
