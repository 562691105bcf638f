package sqlite

import (
	"context"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
)

// EnsureUser inserts the user, or refreshes the display name when a
// non-empty one is supplied.
func (s *Store) EnsureUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO users (id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name
		WHERE excluded.display_name <> ''`,
		user.ID, user.DisplayName, formatTime(user.CreatedAt),
	)
	return err
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user has never been seen.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &createdAt)
	if err != nil {
		return nil, notFound(err, "user %s not found", id)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}
