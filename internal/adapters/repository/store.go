// Package repository defines the user/observation store interface and
// its in-memory and Postgres implementations.
package repository

import (
	"context"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// Store provides access to registered users and their observation
// histories. Implementations enforce at most one observation per
// (user, date); writes to an existing day overwrite it.
type Store interface {
	// ListUsers returns all registered users ordered by registration.
	ListUsers(ctx context.Context) ([]model.User, error)

	// RegisterUser creates a user with a fresh id. Names are unique,
	// compared case-insensitively; duplicates yield ErrNameTaken.
	RegisterUser(ctx context.Context, name string) (model.User, error)

	// ListObservations returns a user's observations sorted ascending
	// by date, optionally bounded by [from, to] inclusive. Nil bounds
	// are open.
	ListObservations(ctx context.Context, userID string, from, to *model.Date) ([]model.Observation, error)

	// GetObservation returns the observation for an exact (user, date),
	// or ErrObservationNotFound.
	GetObservation(ctx context.Context, userID string, date model.Date) (model.Observation, error)

	// PutObservation inserts or overwrites the observation for
	// (obs.UserID, obs.Date). The user must exist.
	PutObservation(ctx context.Context, obs model.Observation) error

	// Close releases any held resources.
	Close() error
}
