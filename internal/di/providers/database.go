package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/logger"
	"github.com/rigbook/rigbook-server/internal/store"
	"github.com/rigbook/rigbook-server/internal/store/badgerstore"
	"github.com/rigbook/rigbook-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the backend selected by Database.Driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st  store.Store
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverBadger:
		st, err = badgerstore.Open(cfg.Database.Path, log.Logger)
	case config.DriverSQLite:
		st, err = sqlite.Open(cfg.Database.Path, log.Logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Database.Driver, "path", cfg.Database.Path)
	return &StoreHandle{Store: st}, nil
}
