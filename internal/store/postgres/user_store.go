package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	q querier
}

// GetOrCreate returns the user with the given canonical username, inserting
// a new row if none exists yet.
func (s *UserStore) GetOrCreate(ctx context.Context, username string) (domain.User, error) {
	var u domain.User

	// ON CONFLICT ... DO UPDATE is a no-op write that makes RETURNING yield
	// the existing row on conflict.
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, created_at`,
		uuid.NewString(), username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("postgres: get or create user %q: %w", username, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by canonical username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.q.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("postgres: get user %q: %w", username, err)
	}
	return u, nil
}
