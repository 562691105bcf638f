package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/service"
	"github.com/rigbook/rigbook-server/internal/store"
)

// ListOwnedGearTool handles the list_owned_gear MCP tool.
type ListOwnedGearTool struct {
	gear  *service.GearService
	actor *Actor
}

// NewListOwnedGearTool creates a ListOwnedGearTool.
func NewListOwnedGearTool(gear *service.GearService, actor *Actor) *ListOwnedGearTool {
	return &ListOwnedGearTool{gear: gear, actor: actor}
}

// Definition returns the MCP tool definition for list_owned_gear.
func (t *ListOwnedGearTool) Definition() mcp.Tool {
	return mcp.NewTool("list_owned_gear",
		mcp.WithDescription("List the gear you own. Use the IDs with add_gear_to_setup."),
		mcp.WithString("category",
			mcp.Description("Only this category"),
			mcp.Enum(string(domain.CategoryGuitar), string(domain.CategoryAmplifier), string(domain.CategoryPedal)),
		),
		mcp.WithString("query", mcp.Description("Case-insensitive text in the name or nickname")),
		mcp.WithBoolean("favorites_only", mcp.Description("Only favourites (default: false)")),
	)
}

// Handle processes the list_owned_gear tool call.
func (t *ListOwnedGearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.GearFilter{
		Search:        req.GetString("query", ""),
		FavoritesOnly: boolArg(req, "favorites_only", false),
	}
	if c := req.GetString("category", ""); c != "" {
		filter.Categories = []domain.GearCategory{domain.GearCategory(c)}
	}

	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}
	owned, err := t.gear.ListOwnedGear(ctx, actorID, filter)
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(owned)
}
