package badgerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rigbook/rigbook-server/internal/domain"
)

// EnsureUser inserts the user, or refreshes the display name when a
// non-empty one is supplied.
func (s *Store) EnsureUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec userRecord
		err := getJSON(txn, key(prefixUser, user.ID), &rec)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			rec = userRecord{CreatedAt: user.CreatedAt, ID: user.ID, DisplayName: user.DisplayName}
		case err != nil:
			return err
		case user.DisplayName == "" || user.DisplayName == rec.DisplayName:
			return nil
		default:
			rec.DisplayName = user.DisplayName
		}
		return setJSON(txn, key(prefixUser, user.ID), &rec)
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var rec userRecord
		if err := getRecord(txn, key(prefixUser, id), &rec, "user %s not found", id); err != nil {
			return err
		}
		u = &domain.User{CreatedAt: rec.CreatedAt, ID: rec.ID, DisplayName: rec.DisplayName}
		return nil
	})
	return u, err
}
