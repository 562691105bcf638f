package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/store"
)

// translate maps store sentinels to domain errors. Domain errors and context
// cancellation pass through untouched; anything else is an infrastructure
// failure and is wrapped with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}

	var se *store.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.NotFound(se.Message)
		case errors.Is(err, store.ErrAlreadyExists):
			return domainerrors.Conflict(se.Message)
		case errors.Is(err, store.ErrInvalidInput):
			return domainerrors.InvalidArgument(se.Message)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// notVisible reports whether err means the entity is absent from the view
// that was asked.
func notVisible(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
