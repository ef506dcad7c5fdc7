package calltrc

import "errors"

var (
	// ErrLevelUnderflow is returned when a parent ID is requested for a root.
	ErrLevelUnderflow = errors.New("trace level underflow")

	// ErrInvalidStatus is returned when a span is completed with a nil or
	// malformed status, e.g. one without a start time.
	ErrInvalidStatus = errors.New("invalid trace status")

	// ErrAlreadyCompleted is returned when a span is completed more than once.
	ErrAlreadyCompleted = errors.New("trace status already completed")
)
