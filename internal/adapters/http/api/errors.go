package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingUserID = errors.New("missing user_id")
	ErrMissingCoins  = errors.New("missing coins")
	ErrMissingName   = errors.New("missing name")
)
