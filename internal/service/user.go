package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/store"
)

// maxUserIDLength bounds ids asserted by the gateway.
const maxUserIDLength = 128

// UserService keeps the local copy of identities asserted upstream.
type UserService struct {
	store  store.UserStore
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st store.UserStore, logger *slog.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

// Identify records the asserted user and returns the stored record. An
// empty displayName keeps whatever name is already known.
func (s *UserService) Identify(ctx context.Context, userID, displayName string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.Unauthorized("missing user identity")
	}
	if len(userID) > maxUserIDLength || strings.ContainsAny(userID, " \t\r\n") {
		return nil, domainerrors.Unauthorized("malformed user identity")
	}

	if err := s.store.EnsureUser(ctx, &domain.User{ID: userID, DisplayName: strings.TrimSpace(displayName)}); err != nil {
		return nil, translate("ensure user", err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate("get user", err)
	}
	return user, nil
}

// GetUser returns a known user.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	return user, translate("get user", err)
}
