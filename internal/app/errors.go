package service

import "errors"

// Sentinel kinds for write-path policy errors.
var (
	ErrInvalidValue   = errors.New("invalid value")
	ErrFutureDate     = errors.New("cannot write a future date")
	ErrDayFinalized   = errors.New("today is already finalized")
	ErrPastEditLocked = errors.New("editing past days is locked")
	ErrPastEditTooOld = errors.New("past edit window exceeded")
)
