package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/service"
)

// AddGearTool handles the add_gear_to_setup MCP tool.
type AddGearTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewAddGearTool creates an AddGearTool.
func NewAddGearTool(setups *service.SetupService, actor *Actor) *AddGearTool {
	return &AddGearTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for add_gear_to_setup.
func (t *AddGearTool) Definition() mcp.Tool {
	return mcp.NewTool("add_gear_to_setup",
		mcp.WithDescription(
			"Put one of your owned gear items into a setup's signal chain. Each item can appear once per setup. "+
				"Without a position it goes at the end.",
		),
		mcp.WithString("setup_id", mcp.Required(), mcp.Description("Setup ID")),
		mcp.WithString("owned_gear_id", mcp.Required(), mcp.Description("Owned gear ID (see list_owned_gear)")),
		mcp.WithNumber("order", mcp.Description("Position in the chain, 0 or more")),
		mcp.WithObject("settings",
			mcp.Description("Knob positions, e.g. {\"gain\": 7, \"voice\": \"bright\"}. Values are numbers or strings."),
		),
		mcp.WithString("notes", mcp.Description("Notes for this item")),
	)
}

// Handle processes the add_gear_to_setup tool call.
func (t *AddGearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setupID := req.GetString("setup_id", "")
	ownedGearID := req.GetString("owned_gear_id", "")
	if setupID == "" || ownedGearID == "" {
		return mcp.NewToolResultError("'setup_id' and 'owned_gear_id' are required"), nil
	}

	raw, err := objectArg(req, "settings")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settings, err := domain.SettingsFromMap(raw)
	if err != nil {
		return failure(err), nil
	}

	in := service.AddGearInput{
		OwnedGearID: ownedGearID,
		Settings:    settings,
		Notes:       req.GetString("notes", ""),
	}
	if _, ok := req.GetArguments()["order"]; ok {
		order := intArg(req, "order", 0)
		in.Order = &order
	}

	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}
	item, err := t.setups.AddGearToSetup(ctx, actorID, setupID, in)
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(item)
}

// UpdateSettingsTool handles the update_gear_settings MCP tool.
type UpdateSettingsTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewUpdateSettingsTool creates an UpdateSettingsTool.
func NewUpdateSettingsTool(setups *service.SetupService, actor *Actor) *UpdateSettingsTool {
	return &UpdateSettingsTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for update_gear_settings.
func (t *UpdateSettingsTool) Definition() mcp.Tool {
	return mcp.NewTool("update_gear_settings",
		mcp.WithDescription("Replace the settings of one chain item. Knobs you leave out are removed."),
		mcp.WithString("setup_id", mcp.Required(), mcp.Description("Setup ID")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Signal chain item ID")),
		mcp.WithObject("settings", mcp.Required(), mcp.Description("The complete new settings")),
	)
}

// Handle processes the update_gear_settings tool call.
func (t *UpdateSettingsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setupID := req.GetString("setup_id", "")
	itemID := req.GetString("item_id", "")
	if setupID == "" || itemID == "" {
		return mcp.NewToolResultError("'setup_id' and 'item_id' are required"), nil
	}

	raw, err := objectArg(req, "settings")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settings, err := domain.SettingsFromMap(raw)
	if err != nil {
		return failure(err), nil
	}

	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}
	item, err := t.setups.UpdateGearSettings(ctx, actorID, setupID, itemID, settings)
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(item)
}

// ReorderTool handles the reorder_signal_chain MCP tool.
type ReorderTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewReorderTool creates a ReorderTool.
func NewReorderTool(setups *service.SetupService, actor *Actor) *ReorderTool {
	return &ReorderTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for reorder_signal_chain.
func (t *ReorderTool) Definition() mcp.Tool {
	return mcp.NewTool("reorder_signal_chain",
		mcp.WithDescription("Set the order of a setup's signal chain. List every chain item ID exactly once, first to last."),
		mcp.WithString("setup_id", mcp.Required(), mcp.Description("Setup ID")),
		mcp.WithArray("item_ids",
			mcp.Required(),
			mcp.Description("Chain item IDs in the new order"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the reorder_signal_chain tool call and returns the
// chain as it now reads.
func (t *ReorderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setupID := req.GetString("setup_id", "")
	if setupID == "" {
		return mcp.NewToolResultError("'setup_id' is required"), nil
	}
	itemIDs, err := stringsArg(req, "item_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}
	if err := t.setups.ReorderSignalChain(ctx, actorID, setupID, itemIDs); err != nil {
		return failure(err), nil
	}
	chain, err := t.setups.ListChain(ctx, actorID, setupID)
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(chain)
}

// RemoveGearTool handles the remove_gear_from_setup MCP tool.
type RemoveGearTool struct {
	setups *service.SetupService
	actor  *Actor
}

// NewRemoveGearTool creates a RemoveGearTool.
func NewRemoveGearTool(setups *service.SetupService, actor *Actor) *RemoveGearTool {
	return &RemoveGearTool{setups: setups, actor: actor}
}

// Definition returns the MCP tool definition for remove_gear_from_setup.
func (t *RemoveGearTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_gear_from_setup",
		mcp.WithDescription("Take an item out of a setup's signal chain. The gear stays in your collection."),
		mcp.WithString("setup_id", mcp.Required(), mcp.Description("Setup ID")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Signal chain item ID")),
	)
}

// Handle processes the remove_gear_from_setup tool call.
func (t *RemoveGearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	setupID := req.GetString("setup_id", "")
	itemID := req.GetString("item_id", "")
	if setupID == "" || itemID == "" {
		return mcp.NewToolResultError("'setup_id' and 'item_id' are required"), nil
	}

	actorID, err := t.actor.ID(ctx)
	if err != nil {
		return failure(err), nil
	}
	if _, err := t.setups.RemoveGearFromSetup(ctx, actorID, setupID, itemID); err != nil {
		return failure(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %s from setup %s", itemID, setupID)), nil
}
