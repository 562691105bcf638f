package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/rigbook/rigbook-server/internal/service"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

const instructions = `Rigbook manages guitar rigs. A setup is a named signal chain of gear the
user owns, optionally tagged with the genre, band and song it recreates.

Typical flow: list_owned_gear to find IDs, create_setup, then add_gear_to_setup
once per item from guitar to amp. Use get_setup to read the chain back, and
reorder_signal_chain with every item ID to rearrange it.`

// Services are the use cases the tools call.
type Services struct {
	Setups *service.SetupService
	Gear   *service.GearService
}

// NewServer creates an MCP server with every tool registered, acting as actor.
func NewServer(svc Services, actor *Actor) *server.MCPServer {
	s := server.NewMCPServer(
		"rigbook",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, svc, actor)
	return s
}

// Register adds every tool to s.
func Register(s *server.MCPServer, svc Services, actor *Actor) {
	listSetups := NewListSetupsTool(svc.Setups, actor)
	s.AddTool(listSetups.Definition(), listSetups.Handle)

	getSetup := NewGetSetupTool(svc.Setups, actor)
	s.AddTool(getSetup.Definition(), getSetup.Handle)

	createSetup := NewCreateSetupTool(svc.Setups, actor)
	s.AddTool(createSetup.Definition(), createSetup.Handle)

	community := NewCommunitySetupsTool(svc.Setups)
	s.AddTool(community.Definition(), community.Handle)

	addGear := NewAddGearTool(svc.Setups, actor)
	s.AddTool(addGear.Definition(), addGear.Handle)

	updateSettings := NewUpdateSettingsTool(svc.Setups, actor)
	s.AddTool(updateSettings.Definition(), updateSettings.Handle)

	reorder := NewReorderTool(svc.Setups, actor)
	s.AddTool(reorder.Definition(), reorder.Handle)

	removeGear := NewRemoveGearTool(svc.Setups, actor)
	s.AddTool(removeGear.Definition(), removeGear.Handle)

	ownedGear := NewListOwnedGearTool(svc.Gear, actor)
	s.AddTool(ownedGear.Definition(), ownedGear.Handle)
}
