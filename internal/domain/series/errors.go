package series

import "errors"

// Sentinel kinds for series errors. These allow errors.Is/As from callers.
var (
	ErrInvalidRange    = errors.New("invalid date range")
	ErrInvalidArgument = errors.New("invalid argument")
)
