package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rigbook/rigbook-server/internal/service"
)

// ListSetupsTool handles the list_setups MCP tool.
type ListSetupsTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewListSetupsTool creates a ListSetupsTool.
func NewListSetupsTool(setups *service.SetupService, actor *Actor) *ListSetupsTool {
	return &ListSetupsTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for list_setups.
func (t *ListSetupsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_setups",
		mcp.WithDescription("List your gear setups, favourites first, then most recently updated."),
		mcp.WithBoolean("favorites_only",
			mcp.Description("Only setups marked as favourite (default: false)"),
		),
		mcp.WithBoolean("include_private",
			mcp.Description("Include unpublished setups (default: true)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20, max: 500)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Cursor from a previous page"),
		),
	)
}

// Handle processes the list_setups tool call.
func (t *ListSetupsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}

	params := pageArgs(req)
	var page any
	if boolArg(req, "favorites_only", false) {
		page, err = t.setups.ListFavorites(ctx, actorID, params)
	} else {
		page, err = t.setups.ListUserSetups(ctx, actorID, boolArg(req, "include_private", true), params)
	}
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(page)
}

// GetSetupTool handles the get_setup MCP tool.
type GetSetupTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewGetSetupTool creates a GetSetupTool.
func NewGetSetupTool(setups *service.SetupService, actor *Actor) *GetSetupTool {
	return &GetSetupTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for get_setup.
func (t *GetSetupTool) Definition() mcp.Tool {
	return mcp.NewTool("get_setup",
		mcp.WithDescription("Show one setup with its signal chain in order. Works for your own setups and for published ones."),
		mcp.WithString("setup_id",
			mcp.Required(),
			mcp.Description("Setup ID"),
		),
	)
}

// Handle processes the get_setup tool call. Viewing someone else's
// published setup counts as a view.
func (t *GetSetupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setupID := req.GetString("setup_id", "")
	if setupID == "" {
		return mcp.NewToolResultError("'setup_id' is required"), nil
	}
	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}

	setup, err := t.setups.ViewSetup(ctx, actorID, setupID)
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(setup)
}

// CreateSetupTool handles the create_setup MCP tool.
type CreateSetupTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewCreateSetupTool creates a CreateSetupTool.
func NewCreateSetupTool(setups *service.SetupService, actor *Actor) *CreateSetupTool {
	return &CreateSetupTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for create_setup.
func (t *CreateSetupTool) Definition() mcp.Tool {
	return mcp.NewTool("create_setup",
		mcp.WithDescription(
			"Create a new, empty gear setup. Tag it with a song and the band and genre are filled in; "+
				"tags that contradict each other are rejected.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Setup name, up to 200 characters"),
		),
		mcp.WithString("description",
			mcp.Description("What the setup is for"),
		),
		mcp.WithString("genre_id", mcp.Description("Genre ID")),
		mcp.WithString("band_id", mcp.Description("Band ID")),
		mcp.WithString("song_id", mcp.Description("Song ID")),
		mcp.WithBoolean("is_public",
			mcp.Description("Publish to the community (default: false)"),
		),
	)
}

// Handle processes the create_setup tool call.
func (t *CreateSetupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}

	setup, err := t.setups.CreateSetup(ctx, actorID, service.SetupInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		GenreID:     req.GetString("genre_id", ""),
		BandID:      req.GetString("band_id", ""),
		SongID:      req.GetString("song_id", ""),
		IsPublic:    boolArg(req, "is_public", false),
	})
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(setup)
}

// CommunitySetupsTool handles the community_setups MCP tool.
type CommunitySetupsTool struct {
	setups *service.SetupService
}

// NewCommunitySetupsTool creates a CommunitySetupsTool.
func NewCommunitySetupsTool(setups *service.SetupService) *CommunitySetupsTool {
	return &CommunitySetupsTool{setups: setups}
}

// Definition returns the MCP tool definition for community_setups.
func (t *CommunitySetupsTool) Definition() mcp.Tool {
	return mcp.NewTool("community_setups",
		mcp.WithDescription("Browse published setups, most viewed first. Filter by tag or by text in the name or description."),
		mcp.WithString("genre_id", mcp.Description("Only setups tagged with this genre")),
		mcp.WithString("band_id", mcp.Description("Only setups tagged with this band")),
		mcp.WithString("song_id", mcp.Description("Only setups tagged with this song")),
		mcp.WithString("query", mcp.Description("Case-insensitive text search")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20, max: 500)")),
		mcp.WithString("cursor", mcp.Description("Cursor from a previous page")),
	)
}

// Handle processes the community_setups tool call.
func (t *CommunitySetupsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := t.setups.ListPublicSetups(ctx, service.PublicSetupFilter{
		GenreID: req.GetString("genre_id", ""),
		BandID:  req.GetString("band_id", ""),
		SongID:  req.GetString("song_id", ""),
		Search:  req.GetString("query", ""),
	}, pageArgs(req))
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(page)
}
