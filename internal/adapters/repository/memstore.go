package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// MemStore is an in-memory Store for development and tests. Per-user
// observation slices are kept sorted ascending by date so reads hand
// them straight to the series code without re-sorting.
type MemStore struct {
	mu           sync.RWMutex
	users        []model.User
	userIDs      map[string]int    // id -> index into users
	namesLower   map[string]string // lower(name) -> id
	observations map[string][]model.Observation
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		userIDs:      make(map[string]int),
		namesLower:   make(map[string]string),
		observations: make(map[string][]model.Observation),
	}
}

// ListUsers returns users in registration order.
func (s *MemStore) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// RegisterUser creates a user with a fresh uuid.
func (s *MemStore) RegisterUser(ctx context.Context, name string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, taken := s.namesLower[key]; taken {
		return model.User{}, ErrNameTaken
	}

	u := model.User{ID: uuid.NewString(), Name: name}
	s.userIDs[u.ID] = len(s.users)
	s.users = append(s.users, u)
	s.namesLower[key] = u.ID
	return u, nil
}

// ListObservations returns a sorted copy of a user's observations
// within the optional bounds.
func (s *MemStore) ListObservations(ctx context.Context, userID string, from, to *model.Date) ([]model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.userIDs[userID]; !ok {
		return nil, ErrUserNotFound
	}

	all := s.observations[userID]
	out := make([]model.Observation, 0, len(all))
	for _, o := range all {
		if from != nil && o.Date.Before(*from) {
			continue
		}
		if to != nil && o.Date.After(*to) {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

// GetObservation returns the exact-day observation if present.
func (s *MemStore) GetObservation(ctx context.Context, userID string, date model.Date) (model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.userIDs[userID]; !ok {
		return model.Observation{}, ErrUserNotFound
	}

	obs := s.observations[userID]
	i := sort.Search(len(obs), func(i int) bool { return !obs[i].Date.Before(date) })
	if i < len(obs) && obs[i].Date.Equal(date) {
		return obs[i], nil
	}
	return model.Observation{}, ErrObservationNotFound
}

// PutObservation upserts, keeping the per-user slice sorted.
func (s *MemStore) PutObservation(ctx context.Context, obs model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIDs[obs.UserID]; !ok {
		return ErrUserNotFound
	}

	list := s.observations[obs.UserID]
	i := sort.Search(len(list), func(i int) bool { return !list[i].Date.Before(obs.Date) })
	if i < len(list) && list[i].Date.Equal(obs.Date) {
		list[i].Value = obs.Value
		return nil
	}
	list = append(list, model.Observation{})
	copy(list[i+1:], list[i:])
	list[i] = obs
	s.observations[obs.UserID] = list
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }

// compile-time interface check
var _ Store = (*MemStore)(nil)
