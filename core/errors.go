package core

import "errors"

// Fatal precondition and defect errors. These abort the stage with no
// partial output; every expected data-quality condition is reported as a
// warning on the result instead.
var (
	// ErrInsufficientSamples means a grid cannot be built from the input.
	ErrInsufficientSamples = errors.New("fewer than two unique timestamps in combined input")

	// ErrCorruptSpan means the observation period ends before it starts.
	ErrCorruptSpan = errors.New("observation span corrupted: end before start")

	// ErrEmptyGrid means no grid point fits inside the observation span.
	ErrEmptyGrid = errors.New("no grid points fit inside the observation span")

	// ErrDuplicateGridPoint indicates a grid builder defect, not a data defect.
	ErrDuplicateGridPoint = errors.New("duplicate grid timestamps produced")

	// ErrFullyExcluded means approved windows cover the whole period.
	ErrFullyExcluded = errors.New("approved exclusion windows cover the entire observation period")

	// ErrNoMandatoryData means no mandatory stream carries any samples.
	ErrNoMandatoryData = errors.New("no mandatory stream data present")

	// ErrUnsortedSamples means a stream violates the ordered-input contract.
	ErrUnsortedSamples = errors.New("stream samples not strictly increasing")
)
