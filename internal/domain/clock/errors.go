package clock

import "errors"

// Sentinel kinds for clock errors.
var (
	ErrBadTimezone = errors.New("unresolvable timezone")
)
