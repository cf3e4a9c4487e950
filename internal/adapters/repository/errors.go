package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrObservationNotFound = errors.New("observation not found")
	ErrNameTaken           = errors.New("name already taken")
)
