package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/service"
)

func (s *Server) registerChainRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSignalChain",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups/{id}/chain",
		Summary:     "Get signal chain",
		Description: "Returns the chain of an owned setup in order",
		Tags:        []string{"Signal chain"},
		Security:    identityRequired,
	}, s.handleGetChain)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addGearToSetup",
		Method:        http.MethodPost,
		Path:          "/api/v1/setups/{id}/chain",
		Summary:       "Add gear",
		Description:   "Places owned gear in the chain. Without an order the gear is appended.",
		Tags:          []string{"Signal chain"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddGear)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGearSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/setups/{id}/chain/{item_id}/settings",
		Summary:     "Replace settings",
		Description: "Replaces the settings of one chain item",
		Tags:        []string{"Signal chain"},
		Security:    identityRequired,
	}, s.handleUpdateSettings)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeGearFromSetup",
		Method:        http.MethodDelete,
		Path:          "/api/v1/setups/{id}/chain/{item_id}",
		Summary:       "Remove gear",
		Description:   "Removes one item; the others keep their order",
		Tags:          []string{"Signal chain"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveGear)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderSignalChain",
		Method:      http.MethodPut,
		Path:        "/api/v1/setups/{id}/chain/order",
		Summary:     "Reorder chain",
		Description: "Assigns orders 0..n-1 following item_ids, which must list every item exactly once",
		Tags:        []string{"Signal chain"},
		Security:    identityRequired,
	}, s.handleReorderChain)
}

// === DTOs ===

// ChainOutput wraps a signal chain for Huma.
type ChainOutput struct {
	Body ChainResponse
}

// ChainResponse lists a chain in order.
type ChainResponse struct {
	Items []ChainItemResponse `json:"items" doc:"Chain items in order"`
}

// ChainItemOutput wraps one chain item for Huma.
type ChainItemOutput struct {
	Body ChainItemResponse
}

// AddGearRequest is the request body for adding gear to a chain.
type AddGearRequest struct {
	OwnedGearID string       `json:"owned_gear_id" minLength:"1" doc:"Owned gear ID"`
	Order       *int         `json:"order,omitempty" minimum:"0" doc:"Position; omitted appends"`
	Settings    SettingsBody `json:"settings,omitempty" doc:"Initial settings"`
	Notes       string       `json:"notes,omitempty" maxLength:"2000" doc:"Notes"`
}

// AddGearInput wraps the add gear request for Huma.
type AddGearInput struct {
	ID   string `path:"id" doc:"Setup ID"`
	Body AddGearRequest
}

// UpdateSettingsRequest is the request body for replacing settings.
type UpdateSettingsRequest struct {
	Settings SettingsBody `json:"settings" doc:"New settings; keys not listed are dropped"`
}

// UpdateSettingsInput wraps the settings request for Huma.
type UpdateSettingsInput struct {
	ID     string `path:"id" doc:"Setup ID"`
	ItemID string `path:"item_id" doc:"Chain item ID"`
	Body   UpdateSettingsRequest
}

// ChainItemIDInput addresses one chain item.
type ChainItemIDInput struct {
	ID     string `path:"id" doc:"Setup ID"`
	ItemID string `path:"item_id" doc:"Chain item ID"`
}

// ReorderRequest is the request body for reordering a chain.
type ReorderRequest struct {
	ItemIDs []string `json:"item_ids" doc:"Every chain item ID in the new order"`
}

// ReorderInput wraps the reorder request for Huma.
type ReorderInput struct {
	ID   string `path:"id" doc:"Setup ID"`
	Body ReorderRequest
}

// === Handlers ===

func (s *Server) handleGetChain(ctx context.Context, input *SetupIDInput) (*ChainOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Setups.ListChain(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &ChainOutput{Body: ChainResponse{Items: newChainResponse(items)}}, nil
}

func (s *Server) handleAddGear(ctx context.Context, input *AddGearInput) (*ChainItemOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Setups.AddGearToSetup(ctx, actorID, input.ID, service.AddGearInput{
		OwnedGearID: input.Body.OwnedGearID,
		Order:       input.Body.Order,
		Settings:    domain.Settings(input.Body.Settings),
		Notes:       input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &ChainItemOutput{Body: newChainItemResponse(item)}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*ChainItemOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Setups.UpdateGearSettings(ctx, actorID, input.ID, input.ItemID,
		domain.Settings(input.Body.Settings))
	if err != nil {
		return nil, err
	}
	return &ChainItemOutput{Body: newChainItemResponse(item)}, nil
}

func (s *Server) handleRemoveGear(ctx context.Context, input *ChainItemIDInput) (*struct{}, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Setups.RemoveGearFromSetup(ctx, actorID, input.ID, input.ItemID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleReorderChain(ctx context.Context, input *ReorderInput) (*ChainOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Setups.ReorderSignalChain(ctx, actorID, input.ID, input.Body.ItemIDs); err != nil {
		return nil, err
	}

	items, err := s.services.Setups.ListChain(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &ChainOutput{Body: ChainResponse{Items: newChainResponse(items)}}, nil
}
