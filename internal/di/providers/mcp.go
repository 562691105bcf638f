package providers

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/mcptools"
	"github.com/rigbook/rigbook-server/internal/service"
)

// ProvideMCPServer provides the MCP server acting for the configured user.
func ProvideMCPServer(i do.Injector) (*server.MCPServer, error) {
	cfg := do.MustInvoke[*config.Config](i)

	actor := mcptools.NewActor(
		do.MustInvoke[*service.UserService](i),
		cfg.MCP.User,
		cfg.MCP.DisplayName,
	)
	svc := mcptools.Services{
		Setups: do.MustInvoke[*service.SetupService](i),
		Gear:   do.MustInvoke[*service.GearService](i),
	}
	return mcptools.NewServer(svc, actor), nil
}
