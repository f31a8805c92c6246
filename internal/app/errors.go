package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrAlreadyMeasured is returned in strict-outcome mode when a second
	// measurement is attempted on an event that already left pending.
	ErrAlreadyMeasured = errors.New("outcome already measured")

	ErrInvalidFeedbackType = errors.New("invalid feedback type")
	ErrInvalidOutcomeType  = errors.New("invalid outcome type")
	ErrInvalidWindow       = errors.New("invalid time window")
)
