package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/service"
	"github.com/rigbook/rigbook-server/internal/store"
)

func (s *Server) registerCatalogueRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBrand",
		Method:        http.MethodPost,
		Path:          "/api/v1/brands",
		Summary:       "Create brand",
		Description:   "Registers a gear manufacturer. Names are unique regardless of case.",
		Tags:          []string{"Catalogue"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBrand)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBrands",
		Method:      http.MethodGet,
		Path:        "/api/v1/brands",
		Summary:     "List brands",
		Tags:        []string{"Catalogue"},
		Security:    identityRequired,
	}, s.handleListBrands)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGear",
		Method:        http.MethodPost,
		Path:          "/api/v1/gear",
		Summary:       "Create gear",
		Description:   "Adds a guitar, amplifier or pedal model to the catalogue",
		Tags:          []string{"Catalogue"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGear)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGear",
		Method:      http.MethodGet,
		Path:        "/api/v1/gear",
		Summary:     "List gear",
		Tags:        []string{"Catalogue"},
		Security:    identityRequired,
	}, s.handleListGear)

	huma.Register(s.api, huma.Operation{
		OperationID:   "takeOwnership",
		Method:        http.MethodPost,
		Path:          "/api/v1/owned-gear",
		Summary:       "Add to my gear",
		Description:   "Records that the caller owns an instance of a catalogue item",
		Tags:          []string{"My gear"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleTakeOwnership)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOwnedGear",
		Method:      http.MethodGet,
		Path:        "/api/v1/owned-gear",
		Summary:     "List my gear",
		Tags:        []string{"My gear"},
		Security:    identityRequired,
	}, s.handleListOwnedGear)

	huma.Register(s.api, huma.Operation{
		OperationID: "countOwnedGear",
		Method:      http.MethodGet,
		Path:        "/api/v1/owned-gear/counts",
		Summary:     "Count my gear",
		Description: "Counts the caller's gear per category",
		Tags:        []string{"My gear"},
		Security:    identityRequired,
	}, s.handleCountOwnedGear)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleOwnedGearFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/owned-gear/{id}/favorite",
		Summary:     "Toggle favourite gear",
		Tags:        []string{"My gear"},
		Security:    identityRequired,
	}, s.handleToggleOwnedFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID:   "releaseOwnedGear",
		Method:        http.MethodDelete,
		Path:          "/api/v1/owned-gear/{id}",
		Summary:       "Remove from my gear",
		Description:   "Deletes the owned gear and takes it out of every setup",
		Tags:          []string{"My gear"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleReleaseOwnedGear)
}

// === DTOs ===

// CreateBrandInput wraps the create brand request for Huma.
type CreateBrandInput struct {
	Body struct {
		Name    string `json:"name" maxLength:"100" doc:"Brand name"`
		Country string `json:"country,omitempty" maxLength:"100" doc:"Country of origin"`
		Website string `json:"website,omitempty" doc:"Website URL"`
	}
}

// BrandOutput wraps a brand for Huma.
type BrandOutput struct {
	Body BrandResponse
}

// BrandListOutput wraps the brand list for Huma.
type BrandListOutput struct {
	Body struct {
		Brands []BrandResponse `json:"brands" doc:"Brands by name"`
	}
}

// CreateGearRequest is the request body for creating catalogue gear.
type CreateGearRequest struct {
	Category    string         `json:"category" enum:"guitar,amplifier,pedal" doc:"Gear category"`
	BrandID     string         `json:"brand_id,omitempty" doc:"Brand ID; omitted means the Unknown brand"`
	Name        string         `json:"name" maxLength:"200" doc:"Model name"`
	Description string         `json:"description,omitempty" maxLength:"2000" doc:"Description"`
	Spec        map[string]any `json:"spec,omitempty" doc:"Category attributes, e.g. num_strings or wattage"`
}

// CreateGearInput wraps the create gear request for Huma.
type CreateGearInput struct {
	Body CreateGearRequest
}

// GearOutput wraps catalogue gear for Huma.
type GearOutput struct {
	Body GearResponse
}

// ListGearInput contains catalogue filters.
type ListGearInput struct {
	Category string `query:"category" enum:"guitar,amplifier,pedal" doc:"Category"`
	Brand    string `query:"brand" doc:"Brand ID"`
	Query    string `query:"q" maxLength:"200" doc:"Case-insensitive substring of the name"`
}

// GearListOutput wraps the catalogue list for Huma.
type GearListOutput struct {
	Body struct {
		Gear []GearResponse `json:"gear" doc:"Catalogue entries"`
	}
}

// TakeOwnershipInput wraps the ownership request for Huma.
type TakeOwnershipInput struct {
	Body struct {
		GearID       string     `json:"gear_id" minLength:"1" doc:"Catalogue gear ID"`
		Nickname     string     `json:"nickname,omitempty" maxLength:"100" doc:"Nickname"`
		SerialNumber string     `json:"serial_number,omitempty" maxLength:"100" doc:"Serial number"`
		Notes        string     `json:"notes,omitempty" maxLength:"2000" doc:"Notes"`
		IsFavorite   bool       `json:"is_favorite,omitempty" doc:"Mark as favourite"`
		AcquiredAt   *time.Time `json:"acquired_at,omitempty" doc:"Acquisition date"`
	}
}

// OwnedGearOutput wraps owned gear for Huma.
type OwnedGearOutput struct {
	Body OwnedGearResponse
}

// ListOwnedGearInput contains owned gear filters.
type ListOwnedGearInput struct {
	Type      []string `query:"type" doc:"Categories to include: guitar, amplifier, pedal"`
	Brand     string   `query:"brand" doc:"Brand ID"`
	Query     string   `query:"q" maxLength:"200" doc:"Case-insensitive substring of name or nickname"`
	Favorites bool     `query:"favorites" doc:"Only favourites"`
}

// OwnedGearListOutput wraps the owned gear list for Huma.
type OwnedGearListOutput struct {
	Body struct {
		Gear []OwnedGearResponse `json:"gear" doc:"Owned gear"`
	}
}

// OwnedGearCountsOutput wraps per-category counts for Huma.
type OwnedGearCountsOutput struct {
	Body struct {
		Counts map[string]int `json:"counts" doc:"Count per category"`
	}
}

// OwnedGearIDInput addresses one owned gear item.
type OwnedGearIDInput struct {
	ID string `path:"id" doc:"Owned gear ID"`
}

// === Handlers ===

func (s *Server) handleCreateBrand(ctx context.Context, input *CreateBrandInput) (*BrandOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	brand, err := s.services.Gear.CreateBrand(ctx, service.CreateBrandRequest{
		Name:    input.Body.Name,
		Country: input.Body.Country,
		Website: input.Body.Website,
	})
	if err != nil {
		return nil, err
	}
	return &BrandOutput{Body: *newBrandResponse(brand)}, nil
}

func (s *Server) handleListBrands(ctx context.Context, _ *struct{}) (*BrandListOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	brands, err := s.services.Gear.ListBrands(ctx)
	if err != nil {
		return nil, err
	}

	out := &BrandListOutput{}
	out.Body.Brands = make([]BrandResponse, len(brands))
	for i, b := range brands {
		out.Body.Brands[i] = *newBrandResponse(b)
	}
	return out, nil
}

func (s *Server) handleCreateGear(ctx context.Context, input *CreateGearInput) (*GearOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	kind, err := decodeSpec(input.Body.Category, input.Body.Spec)
	if err != nil {
		return nil, err
	}

	gear, err := s.services.Gear.CreateGear(ctx, service.CreateGearRequest{
		Kind:        kind,
		BrandID:     input.Body.BrandID,
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &GearOutput{Body: *newGearResponse(gear)}, nil
}

// decodeSpec builds the gear variant for category from its loose JSON form.
func decodeSpec(category string, spec map[string]any) (domain.GearKind, error) {
	if spec == nil {
		spec = map[string]any{}
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, domainerrors.InvalidField("spec", "spec is not valid JSON").WithCause(err)
	}
	kind, err := domain.DecodeGearKind(domain.GearCategory(category), data)
	if err != nil {
		return nil, domainerrors.InvalidField("spec", "spec does not match the "+category+" attributes").WithCause(err)
	}
	return kind, nil
}

func (s *Server) handleListGear(ctx context.Context, input *ListGearInput) (*GearListOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	filter := store.GearFilter{BrandID: input.Brand, Search: input.Query}
	if input.Category != "" {
		filter.Categories = []domain.GearCategory{domain.GearCategory(input.Category)}
	}

	gear, err := s.services.Gear.ListGear(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := &GearListOutput{}
	out.Body.Gear = make([]GearResponse, len(gear))
	for i, g := range gear {
		out.Body.Gear[i] = *newGearResponse(g)
	}
	return out, nil
}

func (s *Server) handleTakeOwnership(ctx context.Context, input *TakeOwnershipInput) (*OwnedGearOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.services.Gear.TakeOwnership(ctx, actorID, service.TakeOwnershipRequest{
		GearID:       input.Body.GearID,
		Nickname:     input.Body.Nickname,
		SerialNumber: input.Body.SerialNumber,
		Notes:        input.Body.Notes,
		IsFavorite:   input.Body.IsFavorite,
		AcquiredAt:   input.Body.AcquiredAt,
	})
	if err != nil {
		return nil, err
	}
	return &OwnedGearOutput{Body: *newOwnedGearResponse(owned)}, nil
}

func (s *Server) handleListOwnedGear(ctx context.Context, input *ListOwnedGearInput) (*OwnedGearListOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	filter := store.GearFilter{
		BrandID:       input.Brand,
		Search:        input.Query,
		FavoritesOnly: input.Favorites,
	}
	for _, t := range input.Type {
		filter.Categories = append(filter.Categories, domain.GearCategory(t))
	}

	owned, err := s.services.Gear.ListOwnedGear(ctx, actorID, filter)
	if err != nil {
		return nil, err
	}

	out := &OwnedGearListOutput{}
	out.Body.Gear = make([]OwnedGearResponse, len(owned))
	for i, o := range owned {
		out.Body.Gear[i] = *newOwnedGearResponse(o)
	}
	return out, nil
}

func (s *Server) handleCountOwnedGear(ctx context.Context, _ *struct{}) (*OwnedGearCountsOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.services.Gear.CountOwnedGear(ctx, actorID)
	if err != nil {
		return nil, err
	}

	out := &OwnedGearCountsOutput{}
	out.Body.Counts = make(map[string]int, len(counts))
	for category, n := range counts {
		out.Body.Counts[string(category)] = n
	}
	return out, nil
}

func (s *Server) handleToggleOwnedFavorite(ctx context.Context, input *OwnedGearIDInput) (*OwnedGearOutput, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.services.Gear.ToggleOwnedFavorite(ctx, actorID, input.ID)
	if err != nil {
		return nil, err
	}
	return &OwnedGearOutput{Body: *newOwnedGearResponse(owned)}, nil
}

func (s *Server) handleReleaseOwnedGear(ctx context.Context, input *OwnedGearIDInput) (*struct{}, error) {
	actorID, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Gear.ReleaseOwnership(ctx, actorID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
