package providers

import (
	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/logger"
	"github.com/rigbook/rigbook-server/internal/metrics"
	"github.com/rigbook/rigbook-server/internal/service"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideUserService provides the identity service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideGearService provides the catalogue and ownership service.
func ProvideGearService(i do.Injector) (*service.GearService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGearService(storeHandle.Store, log.Logger), nil
}

// ProvideTaxonomyService provides the genre, band and song service.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaxonomyService(storeHandle.Store, log.Logger), nil
}

// ProvideSetupService provides the setup composition service. Operation
// outcomes feed the metrics when they are enabled.
func ProvideSetupService(i do.Injector) (*service.SetupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gearService := do.MustInvoke[*service.GearService](i)
	log := do.MustInvoke[*logger.Logger](i)

	setups := service.NewSetupService(
		storeHandle.Store,
		gearService,
		service.NewStoreTaxonomy(storeHandle.Store),
		log.Logger,
	)
	if cfg.Metrics.Enabled {
		setups.SetObserver(do.MustInvoke[*metrics.Metrics](i))
	}
	return setups, nil
}
