package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/service"
)

func (s *Server) registerCommunityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCommunitySetups",
		Method:      http.MethodGet,
		Path:        "/api/v1/community/setups",
		Summary:     "Browse public setups",
		Description: "Returns published setups, most viewed first. Filters combine.",
		Tags:        []string{"Community"},
	}, s.handleListCommunitySetups)
}

// ListCommunityInput contains filters for the public listing.
type ListCommunityInput struct {
	Genre string `query:"genre" doc:"Genre ID"`
	Band  string `query:"band" doc:"Band ID"`
	Song  string `query:"song" doc:"Song ID"`
	Query string `query:"q" maxLength:"200" doc:"Case-insensitive substring of name or description"`
	PaginationInput
}

func (s *Server) handleListCommunitySetups(ctx context.Context, input *ListCommunityInput) (*SetupListOutput, error) {
	page, err := s.services.Setups.ListPublicSetups(ctx, service.PublicSetupFilter{
		GenreID: input.Genre,
		BandID:  input.Band,
		SongID:  input.Song,
		Search:  strings.TrimSpace(input.Query),
	}, input.params())
	if err != nil {
		return nil, err
	}

	// The caller is optional here; when known, saved_by_me and liked_by_me
	// are filled in.
	var viewerID string
	if id, ok := ctx.Value(identityKey).(identity); ok {
		viewerID = id.userID
	}
	return &SetupListOutput{Body: newSetupListResponse(page, viewerID)}, nil
}
