package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// PostgresStore implements Store on a relational database. Schema
// lives in internal/database/migrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListUsers returns users in registration order.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// RegisterUser inserts a user with a fresh uuid. The case-insensitive
// unique index on name surfaces as ErrNameTaken.
func (s *PostgresStore) RegisterUser(ctx context.Context, name string) (model.User, error) {
	u := model.User{ID: uuid.NewString(), Name: name}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at) VALUES ($1, $2, now())`,
		u.ID, u.Name,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return model.User{}, ErrNameTaken
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// ListObservations returns a user's observations sorted ascending,
// bounded by the optional [from, to] range.
func (s *PostgresStore) ListObservations(ctx context.Context, userID string, from, to *model.Date) ([]model.Observation, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT date_ymd, coins FROM coin_logs WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, from.String())
		query += fmt.Sprintf(` AND date_ymd >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, to.String())
		query += fmt.Sprintf(` AND date_ymd <= $%d`, len(args))
	}
	query += ` ORDER BY date_ymd ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var raw string
		o := model.Observation{UserID: userID}
		if err := rows.Scan(&raw, &o.Value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		// DATE columns scan as "YYYY-MM-DD" or a full timestamp
		// depending on driver settings; keep only the day part.
		if len(raw) > len(model.DateFormat) {
			raw = raw[:len(model.DateFormat)]
		}
		if o.Date, err = model.ParseDate(raw); err != nil {
			return nil, fmt.Errorf("failed to parse observation date: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}
	return out, nil
}

// GetObservation returns the exact-day observation if present.
func (s *PostgresStore) GetObservation(ctx context.Context, userID string, date model.Date) (model.Observation, error) {
	o := model.Observation{UserID: userID, Date: date}
	err := s.db.QueryRowContext(ctx,
		`SELECT coins FROM coin_logs WHERE user_id = $1 AND date_ymd = $2`,
		userID, date.String(),
	).Scan(&o.Value)
	if err == sql.ErrNoRows {
		if err := s.checkUser(ctx, userID); err != nil {
			return model.Observation{}, err
		}
		return model.Observation{}, ErrObservationNotFound
	}
	if err != nil {
		return model.Observation{}, fmt.Errorf("failed to get observation: %w", err)
	}
	return o, nil
}

// PutObservation upserts on the (user_id, date_ymd) unique constraint.
func (s *PostgresStore) PutObservation(ctx context.Context, obs model.Observation) error {
	if err := s.checkUser(ctx, obs.UserID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coin_logs (user_id, date_ymd, coins, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, date_ymd)
		 DO UPDATE SET coins = EXCLUDED.coins, created_at = EXCLUDED.created_at`,
		obs.UserID, obs.Date.String(), obs.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert observation: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) checkUser(ctx context.Context, userID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
