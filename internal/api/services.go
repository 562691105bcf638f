package api

import (
	"context"

	"github.com/rigbook/rigbook-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Setups   *service.SetupService
	Gear     *service.GearService
	Taxonomy *service.TaxonomyService
	Users    *service.UserService
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
