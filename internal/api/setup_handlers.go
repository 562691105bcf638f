package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/service"
)

func (s *Server) registerSetupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSetup",
		Method:        http.MethodPost,
		Path:          "/api/v1/setups",
		Summary:       "Create setup",
		Description:   "Creates a setup owned by the caller",
		Tags:          []string{"Setups"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSetups",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups",
		Summary:     "List my setups",
		Description: "Returns the caller's setups, favourites first, with their signal chains",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleListSetups)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavoriteSetups",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups/favorites",
		Summary:     "List favourite setups",
		Description: "Returns the caller's setups marked as favourite",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedSetups",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups/saved",
		Summary:     "List saved setups",
		Description: "Returns setups the caller bookmarked, most viewed first",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleListSaved)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSetupStatistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups/stats",
		Summary:     "Setup statistics",
		Description: "Counts the caller's setups and the gear used in their chains",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleSetupStatistics)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSetup",
		Method:      http.MethodGet,
		Path:        "/api/v1/setups/{id}",
		Summary:     "Get setup",
		Description: "Returns an owned or public setup with its signal chain. Views by other users are counted.",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleGetSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSetup",
		Method:      http.MethodPut,
		Path:        "/api/v1/setups/{id}",
		Summary:     "Update setup",
		Description: "Replaces the setup's name, description, tags and visibility",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleUpdateSetup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSetup",
		Method:        http.MethodDelete,
		Path:          "/api/v1/setups/{id}",
		Summary:       "Delete setup",
		Description:   "Deletes the setup and its signal chain",
		Tags:          []string{"Setups"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSetupFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/setups/{id}/favorite",
		Summary:     "Toggle favourite",
		Description: "Flips the favourite flag of an owned setup",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "publishSetup",
		Method:      http.MethodPost,
		Path:        "/api/v1/setups/{id}/publish",
		Summary:     "Publish setup",
		Description: "Makes an owned setup visible to everyone",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handlePublishSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "unpublishSetup",
		Method:      http.MethodPost,
		Path:        "/api/v1/setups/{id}/unpublish",
		Summary:     "Unpublish setup",
		Description: "Makes an owned setup private again",
		Tags:        []string{"Setups"},
		Security:    identityRequired,
	}, s.handleUnpublishSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSetupSave",
		Method:      http.MethodPost,
		Path:        "/api/v1/setups/{id}/save",
		Summary:     "Toggle save",
		Description: "Bookmarks or un-bookmarks a visible setup",
		Tags:        []string{"Community"},
		Security:    identityRequired,
	}, s.handleToggleSave)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSetupLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/setups/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes or un-likes a visible setup",
		Tags:        []string{"Community"},
		Security:    identityRequired,
	}, s.handleToggleLike)
}

// === DTOs ===

// SetupRequest is the request body for creating or replacing a setup.
type SetupRequest struct {
	Name        string `json:"name" maxLength:"400" doc:"Setup name, at most 200 characters after trimming"`
	Description string `json:"description,omitempty" maxLength:"10000" doc:"Description"`
	GenreID     string `json:"genre_id,omitempty" doc:"Genre ID"`
	BandID      string `json:"band_id,omitempty" doc:"Band ID"`
	SongID      string `json:"song_id,omitempty" doc:"Song ID; implies its band and genre"`
	IsPublic    bool   `json:"is_public,omitempty" doc:"Visible to everyone"`
}

func (r SetupRequest) input() service.SetupInput {
	return service.SetupInput{
		Name:        r.Name,
		Description: r.Description,
		GenreID:     r.GenreID,
		BandID:      r.BandID,
		SongID:      r.SongID,
		IsPublic:    r.IsPublic,
	}
}

// CreateSetupInput wraps the create setup request for Huma.
type CreateSetupInput struct {
	Body SetupRequest
}

// ListSetupsInput contains parameters for listing the caller's setups.
type ListSetupsInput struct {
	IncludePrivate bool `query:"include_private" default:"true" doc:"Include unpublished setups"`
	PaginationInput
}

// ListPageInput contains pagination parameters only.
type ListPageInput struct {
	PaginationInput
}

// SetupIDInput addresses one setup.
type SetupIDInput struct {
	ID string `path:"id" doc:"Setup ID"`
}

// UpdateSetupInput wraps the update setup request for Huma.
type UpdateSetupInput struct {
	ID   string `path:"id" doc:"Setup ID"`
	Body SetupRequest
}

// StatisticsOutput wraps setup statistics for Huma.
type StatisticsOutput struct {
	Body domain.SetupStatistics
}

// SaveResponse reports the caller's save state after a toggle.
type SaveResponse struct {
	Saved bool `json:"saved" doc:"Whether the setup is now saved"`
}

// SaveOutput wraps the save response for Huma.
type SaveOutput struct {
	Body SaveResponse
}

// LikeResponse reports the caller's like state after a toggle.
type LikeResponse struct {
	Liked bool `json:"liked" doc:"Whether the setup is now liked"`
}

// LikeOutput wraps the like response for Huma.
type LikeOutput struct {
	Body LikeResponse
}

// === Handlers ===

func (s *Server) handleCreateSetup(ctx context.Context, input *CreateSetupInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.CreateSetup(ctx, actorID, input.Body.input())
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handleListSetups(ctx context.Context, input *ListSetupsInput) (*SetupListOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Setups.ListUserSetups(ctx, actorID, input.IncludePrivate, input.params())
	if err != nil {
		return nil, err
	}
	return &SetupListOutput{Body: newSetupListResponse(page, actorID)}, nil
}

func (s *Server) handleListFavorites(ctx context.Context, input *ListPageInput) (*SetupListOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Setups.ListFavorites(ctx, actorID, input.params())
	if err != nil {
		return nil, err
	}
	return &SetupListOutput{Body: newSetupListResponse(page, actorID)}, nil
}

func (s *Server) handleListSaved(ctx context.Context, input *ListPageInput) (*SetupListOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Setups.ListSavedSetups(ctx, actorID, input.params())
	if err != nil {
		return nil, err
	}
	return &SetupListOutput{Body: newSetupListResponse(page, actorID)}, nil
}

func (s *Server) handleSetupStatistics(ctx context.Context, _ *struct{}) (*StatisticsOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Setups.GetStatistics(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &StatisticsOutput{Body: *stats}, nil
}

func (s *Server) handleGetSetup(ctx context.Context, input *SetupIDInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.ViewSetup(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handleUpdateSetup(ctx context.Context, input *UpdateSetupInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.UpdateSetup(ctx, actorID, input.ID, input.Body.input())
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handleDeleteSetup(ctx context.Context, input *SetupIDInput) (*struct{}, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Setups.DeleteSetup(ctx, actorID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *SetupIDInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.ToggleFavorite(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handlePublishSetup(ctx context.Context, input *SetupIDInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.PublishSetup(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handleUnpublishSetup(ctx context.Context, input *SetupIDInput) (*SetupOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := s.services.Setups.UnpublishSetup(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SetupOutput{Body: newSetupResponse(setup, actorID)}, nil
}

func (s *Server) handleToggleSave(ctx context.Context, input *SetupIDInput) (*SaveOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := s.services.Setups.ToggleSave(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SaveOutput{Body: SaveResponse{Saved: saved}}, nil
}

func (s *Server) handleToggleLike(ctx context.Context, input *SetupIDInput) (*LikeOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	liked, err := s.services.Setups.ToggleLike(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: LikeResponse{Liked: liked}}, nil
}
