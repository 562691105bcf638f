package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

func TestEnsureUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "user-1", DisplayName: "Slash"}))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Slash", got.DisplayName)
	assert.False(t, got.CreatedAt.IsZero())

	// An empty name does not clobber the stored one.
	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "user-1"}))
	got, err = s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Slash", got.DisplayName)

	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "user-1", DisplayName: "Saul"}))
	got, err = s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Saul", got.DisplayName)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
