package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// SettingsBody carries gear settings. Values are JSON numbers or strings;
// numbers are echoed back exactly as written.
type SettingsBody map[string]domain.SettingValue

// Schema implements huma.SchemaProvider.
func (SettingsBody) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:        huma.TypeObject,
		Description: "Control name to value. Values are numbers or strings.",
		AdditionalProperties: &huma.Schema{
			OneOf: []*huma.Schema{
				{Type: huma.TypeNumber},
				{Type: huma.TypeString},
			},
		},
	}
}

// PaginationInput is embedded by list inputs.
type PaginationInput struct {
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Cursor string `query:"cursor" doc:"Cursor returned by the previous page"`
}

func (p PaginationInput) params() store.PaginationParams {
	return store.PaginationParams{Limit: p.Limit, Cursor: p.Cursor}
}

// UserResponse identifies a setup owner.
type UserResponse struct {
	ID          string `json:"id" doc:"User ID"`
	DisplayName string `json:"display_name,omitempty" doc:"Display name"`
}

// GenreResponse contains genre data in API responses.
type GenreResponse struct {
	ID          string    `json:"id" doc:"Genre ID"`
	Name        string    `json:"name" doc:"Genre name"`
	Slug        string    `json:"slug" doc:"URL-safe slug"`
	Description string    `json:"description,omitempty" doc:"Description"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// BandResponse contains band data in API responses.
type BandResponse struct {
	ID          string         `json:"id" doc:"Band ID"`
	Name        string         `json:"name" doc:"Band name"`
	Slug        string         `json:"slug" doc:"URL-safe slug"`
	GenreID     string         `json:"genre_id,omitempty" doc:"Genre ID"`
	Genre       *GenreResponse `json:"genre,omitempty" doc:"Genre"`
	Description string         `json:"description,omitempty" doc:"Description"`
	CreatedAt   time.Time      `json:"created_at" doc:"Creation time"`
}

// SongResponse contains song data in API responses.
type SongResponse struct {
	ID        string        `json:"id" doc:"Song ID"`
	Title     string        `json:"title" doc:"Song title"`
	BandID    string        `json:"band_id" doc:"Band ID"`
	Band      *BandResponse `json:"band,omitempty" doc:"Band"`
	GenreID   string        `json:"genre_id,omitempty" doc:"Genre derived from the band"`
	Year      int           `json:"year,omitempty" doc:"Release year"`
	CreatedAt time.Time     `json:"created_at" doc:"Creation time"`
}

// BrandResponse contains brand data in API responses.
type BrandResponse struct {
	ID        string    `json:"id" doc:"Brand ID"`
	Name      string    `json:"name" doc:"Brand name"`
	Country   string    `json:"country,omitempty" doc:"Country of origin"`
	Website   string    `json:"website,omitempty" doc:"Website"`
	IsUnknown bool      `json:"is_unknown" doc:"Placeholder brand for gear of unknown make"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// GearResponse contains catalogue gear in API responses.
type GearResponse struct {
	ID          string         `json:"id" doc:"Gear ID"`
	BrandID     string         `json:"brand_id" doc:"Brand ID"`
	Brand       *BrandResponse `json:"brand,omitempty" doc:"Brand"`
	Name        string         `json:"name" doc:"Model name"`
	DisplayName string         `json:"display_name" doc:"Brand and model"`
	Description string         `json:"description,omitempty" doc:"Description"`
	Category    string         `json:"category" enum:"guitar,amplifier,pedal" doc:"Gear category"`
	Spec        any            `json:"spec" doc:"Category specific attributes"`
	CreatedAt   time.Time      `json:"created_at" doc:"Creation time"`
}

// OwnedGearResponse contains a user's gear in API responses.
type OwnedGearResponse struct {
	ID           string        `json:"id" doc:"Owned gear ID"`
	GearID       string        `json:"gear_id" doc:"Catalogue gear ID"`
	Gear         *GearResponse `json:"gear,omitempty" doc:"Catalogue entry"`
	Label        string        `json:"label" doc:"Nickname, or brand and model"`
	Nickname     string        `json:"nickname,omitempty" doc:"Nickname"`
	SerialNumber string        `json:"serial_number,omitempty" doc:"Serial number"`
	Notes        string        `json:"notes,omitempty" doc:"Notes"`
	IsFavorite   bool          `json:"is_favorite" doc:"Marked as favourite"`
	AcquiredAt   *time.Time    `json:"acquired_at,omitempty" doc:"Acquisition date"`
	CreatedAt    time.Time     `json:"created_at" doc:"Creation time"`
}

// ChainItemResponse is one position in a signal chain.
type ChainItemResponse struct {
	ID          string             `json:"id" doc:"Chain item ID"`
	SetupID     string             `json:"setup_id" doc:"Setup ID"`
	OwnedGearID string             `json:"owned_gear_id" doc:"Owned gear ID"`
	OwnedGear   *OwnedGearResponse `json:"owned_gear,omitempty" doc:"Owned gear"`
	Order       int                `json:"order" doc:"Position; lower comes first"`
	Settings    SettingsBody       `json:"settings" doc:"Control settings"`
	Notes       string             `json:"notes,omitempty" doc:"Notes"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time          `json:"updated_at" doc:"Last update time"`
}

// SetupResponse contains setup data in API responses. saved_by_me and
// liked_by_me are relative to the caller.
type SetupResponse struct {
	ID          string              `json:"id" doc:"Setup ID"`
	Name        string              `json:"name" doc:"Setup name"`
	Description string              `json:"description" doc:"Description"`
	Owner       UserResponse        `json:"owner" doc:"Owner"`
	GenreID     string              `json:"genre_id,omitempty" doc:"Genre ID"`
	Genre       *GenreResponse      `json:"genre,omitempty" doc:"Genre"`
	BandID      string              `json:"band_id,omitempty" doc:"Band ID"`
	Band        *BandResponse       `json:"band,omitempty" doc:"Band"`
	SongID      string              `json:"song_id,omitempty" doc:"Song ID"`
	Song        *SongResponse       `json:"song,omitempty" doc:"Song"`
	IsPublic    bool                `json:"is_public" doc:"Visible to everyone"`
	IsFavorite  bool                `json:"is_favorite" doc:"Owner's favourite"`
	Views       int                 `json:"views" doc:"View count"`
	SaveCount   int                 `json:"save_count" doc:"Number of users who saved it"`
	LikeCount   int                 `json:"like_count" doc:"Number of users who liked it"`
	SavedByMe   bool                `json:"saved_by_me" doc:"Saved by the caller"`
	LikedByMe   bool                `json:"liked_by_me" doc:"Liked by the caller"`
	SignalChain []ChainItemResponse `json:"signal_chain,omitempty" doc:"Ordered signal chain"`
	CreatedAt   time.Time           `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time           `json:"updated_at" doc:"Last update time"`
}

// SetupListResponse is one page of setups.
type SetupListResponse struct {
	Setups     []SetupResponse `json:"setups" doc:"Setups on this page"`
	NextCursor string          `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool            `json:"has_more" doc:"Whether more pages exist"`
}

// SetupOutput wraps a setup for Huma.
type SetupOutput struct {
	Body SetupResponse
}

// SetupListOutput wraps a setup page for Huma.
type SetupListOutput struct {
	Body SetupListResponse
}

func newGenreResponse(g *domain.Genre) *GenreResponse {
	if g == nil {
		return nil
	}
	return &GenreResponse{
		ID:          g.ID,
		Name:        g.Name,
		Slug:        g.Slug,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

func newBandResponse(b *domain.Band) *BandResponse {
	if b == nil {
		return nil
	}
	return &BandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		GenreID:     b.GenreID,
		Genre:       newGenreResponse(b.Genre),
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}
}

func newSongResponse(s *domain.Song) *SongResponse {
	if s == nil {
		return nil
	}
	return &SongResponse{
		ID:        s.ID,
		Title:     s.Title,
		BandID:    s.BandID,
		Band:      newBandResponse(s.Band),
		GenreID:   s.GenreID(),
		Year:      s.Year,
		CreatedAt: s.CreatedAt,
	}
}

func newBrandResponse(b *domain.Brand) *BrandResponse {
	if b == nil {
		return nil
	}
	return &BrandResponse{
		ID:        b.ID,
		Name:      b.Name,
		Country:   b.Country,
		Website:   b.Website,
		IsUnknown: b.IsUnknown(),
		CreatedAt: b.CreatedAt,
	}
}

func newGearResponse(g *domain.Gear) *GearResponse {
	if g == nil {
		return nil
	}
	return &GearResponse{
		ID:          g.ID,
		BrandID:     g.BrandID,
		Brand:       newBrandResponse(g.Brand),
		Name:        g.Name,
		DisplayName: g.DisplayName(),
		Description: g.Description,
		Category:    string(g.Category()),
		Spec:        g.Kind,
		CreatedAt:   g.CreatedAt,
	}
}

func newOwnedGearResponse(o *domain.OwnedGear) *OwnedGearResponse {
	if o == nil {
		return nil
	}
	return &OwnedGearResponse{
		ID:           o.ID,
		GearID:       o.GearID,
		Gear:         newGearResponse(o.Gear),
		Label:        o.Label(),
		Nickname:     o.Nickname,
		SerialNumber: o.SerialNumber,
		Notes:        o.Notes,
		IsFavorite:   o.IsFavorite,
		AcquiredAt:   o.AcquiredAt,
		CreatedAt:    o.CreatedAt,
	}
}

func newChainItemResponse(it *domain.SignalChainItem) ChainItemResponse {
	settings := SettingsBody(it.Settings)
	if settings == nil {
		settings = SettingsBody{}
	}
	return ChainItemResponse{
		ID:          it.ID,
		SetupID:     it.SetupID,
		OwnedGearID: it.OwnedGearID,
		OwnedGear:   newOwnedGearResponse(it.OwnedGear),
		Order:       it.Order,
		Settings:    settings,
		Notes:       it.Notes,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func newChainResponse(items []*domain.SignalChainItem) []ChainItemResponse {
	out := make([]ChainItemResponse, len(items))
	for i, it := range items {
		out[i] = newChainItemResponse(it)
	}
	return out
}

func newSetupResponse(s *domain.Setup, viewerID string) SetupResponse {
	resp := SetupResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Owner:       UserResponse{ID: s.Owner.ID, DisplayName: s.Owner.DisplayName},
		GenreID:     s.GenreID,
		Genre:       newGenreResponse(s.Genre),
		BandID:      s.BandID,
		Band:        newBandResponse(s.Band),
		SongID:      s.SongID,
		Song:        newSongResponse(s.Song),
		IsPublic:    s.IsPublic,
		IsFavorite:  s.IsFavorite,
		Views:       s.Views,
		SaveCount:   len(s.SavedBy),
		LikeCount:   len(s.LikedBy),
		SavedByMe:   viewerID != "" && s.IsSavedBy(viewerID),
		LikedByMe:   viewerID != "" && s.IsLikedBy(viewerID),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.SignalChain != nil {
		resp.SignalChain = newChainResponse(s.SignalChain)
	}
	return resp
}

func newSetupListResponse(page *store.PaginatedResult[*domain.Setup], viewerID string) SetupListResponse {
	setups := make([]SetupResponse, len(page.Items))
	for i, s := range page.Items {
		setups[i] = newSetupResponse(s, viewerID)
	}
	return SetupListResponse{
		Setups:     setups,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}
