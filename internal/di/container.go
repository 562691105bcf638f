// Package di provides dependency injection configuration for the Rigbook server.
package di

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/di/providers"
	"github.com/rigbook/rigbook-server/internal/logger"
	"github.com/rigbook/rigbook-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideGearService)
	do.Provide(injector, providers.ProvideTaxonomyService)
	do.Provide(injector, providers.ProvideSetupService)

	// Servers
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMCPServer)

	return injector
}

// NewMCPContainer is NewContainer with logging moved to stderr, leaving
// stdout to the MCP stdio transport.
func NewMCPContainer() *do.RootScope {
	injector := NewContainer()
	do.Override(injector, providers.ProvideStderrLogger)
	return injector
}

// Bootstrap initializes the HTTP process. Invoking the server handle starts
// it listening.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.GearService](injector)
	_ = do.MustInvoke[*service.TaxonomyService](injector)
	_ = do.MustInvoke[*service.SetupService](injector)

	_ = do.MustInvoke[*providers.APIServerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}

// BootstrapMCP initializes the MCP process and returns its server.
func BootstrapMCP(injector *do.RootScope) (*server.MCPServer, error) {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return nil, err
	}
	return do.Invoke[*server.MCPServer](injector)
}
