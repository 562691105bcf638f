// Package store defines the persistence contracts for the Rigbook server.
//
// Two backends implement them: store/sqlite (the default) and store/badger.
// Stores persist what they are given. Tag normalisation, ownership checks
// and order assignment happen in the service layer before a write.
package store

import (
	"context"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
)

// Store is a persistence backend.
type Store interface {
	Repositories

	// WithTx runs fn as one atomic unit of work. The Repositories passed to fn
	// are bound to that unit; if fn returns an error nothing it wrote persists.
	// Calling WithTx on a Repositories already inside a unit joins it.
	WithTx(ctx context.Context, fn func(tx Repositories) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Repositories is every read and write a unit of work may perform.
type Repositories interface {
	UserStore
	SetupStore
	SignalChainStore
	TaxonomyStore
	GearStore
}

// UserStore keeps the local record of externally managed users.
type UserStore interface {
	// EnsureUser inserts the user or refreshes their display name.
	EnsureUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// SetupReader is the read contract shared by every setup view. A view never
// returns a setup outside its scope; such ids read as ErrNotFound.
//
// GetSetup pre-joins tags, owner, saved_by, liked_by and the ordered signal
// chain. ListSetups pre-joins the chain only when SetupFilter.WithChain is set.
type SetupReader interface {
	GetSetup(ctx context.Context, id string) (*domain.Setup, error)
	ListSetups(ctx context.Context, filter SetupFilter, params PaginationParams) (*PaginatedResult[*domain.Setup], error)
	CountSetups(ctx context.Context, filter SetupFilter) (int, error)
}

// SetupStore persists setups. Reads go through an explicitly chosen view.
type SetupStore interface {
	// ScopedView sees only setups owned by ownerID.
	ScopedView(ownerID string) SetupReader
	// GlobalView sees every setup regardless of owner or visibility.
	GlobalView() SetupReader
	// PublicView sees only published setups.
	PublicView() SetupReader
	// VisibleTo sees published setups plus those owned by viewerID.
	VisibleTo(viewerID string) SetupReader

	CreateSetup(ctx context.Context, setup *domain.Setup) error
	// UpdateSetup writes the scalar fields: name, description, tag ids,
	// is_public, is_favorite and updated_at.
	UpdateSetup(ctx context.Context, setup *domain.Setup) error
	// DeleteSetup removes the setup with its chain, saves and likes.
	DeleteSetup(ctx context.Context, id string) error
	// IncrementSetupViews adds one view and returns the new count.
	IncrementSetupViews(ctx context.Context, id string) (int, error)
	// SetSetupSaved adds or removes userID from saved_by.
	SetSetupSaved(ctx context.Context, setupID, userID string, saved bool) error
	// SetSetupLiked adds or removes userID from liked_by.
	SetSetupLiked(ctx context.Context, setupID, userID string, liked bool) error
}

// SignalChainStore persists chain items.
type SignalChainStore interface {
	// ListChainItems returns the items of a setup in read order.
	ListChainItems(ctx context.Context, setupID string) ([]*domain.SignalChainItem, error)
	GetChainItem(ctx context.Context, itemID string) (*domain.SignalChainItem, error)
	CountChainItems(ctx context.Context, setupID string) (int, error)
	// CountChainItemsBySetup returns chain length per setup id. Setups
	// without items are absent from the map.
	CountChainItemsBySetup(ctx context.Context, setupIDs []string) (map[string]int, error)
	// CreateChainItem inserts the item and assigns its Seq. A second item for
	// the same (setup, owned gear) pair fails with ErrAlreadyExists.
	CreateChainItem(ctx context.Context, item *domain.SignalChainItem) error
	// ReplaceChainItemSettings overwrites settings wholesale.
	ReplaceChainItemSettings(ctx context.Context, itemID string, settings domain.Settings, at time.Time) error
	// SetChainOrder assigns order = index for each id.
	SetChainOrder(ctx context.Context, setupID string, itemIDs []string, at time.Time) error
	DeleteChainItem(ctx context.Context, itemID string) error
}

// TaxonomyStore persists genres, bands and songs.
//
// Deleting a genre clears it from bands and setups. Deleting a band deletes
// its songs and clears it from setups. Deleting a song clears it from setups.
type TaxonomyStore interface {
	CreateGenre(ctx context.Context, genre *domain.Genre) error
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	DeleteGenre(ctx context.Context, id string) error

	CreateBand(ctx context.Context, band *domain.Band) error
	// GetBand loads the band with its genre.
	GetBand(ctx context.Context, id string) (*domain.Band, error)
	// ListBands lists bands, optionally restricted to one genre.
	ListBands(ctx context.Context, genreID string) ([]*domain.Band, error)
	DeleteBand(ctx context.Context, id string) error

	CreateSong(ctx context.Context, song *domain.Song) error
	// GetSong loads the song with its band and the band's genre.
	GetSong(ctx context.Context, id string) (*domain.Song, error)
	// ListSongs lists songs, optionally restricted to one band.
	ListSongs(ctx context.Context, bandID string) ([]*domain.Song, error)
	DeleteSong(ctx context.Context, id string) error
}

// GearStore persists the catalogue and users' owned gear.
type GearStore interface {
	CreateBrand(ctx context.Context, brand *domain.Brand) error
	GetBrand(ctx context.Context, id string) (*domain.Brand, error)
	GetBrandByName(ctx context.Context, name string) (*domain.Brand, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)

	CreateGear(ctx context.Context, gear *domain.Gear) error
	// GetGear loads the gear with its brand.
	GetGear(ctx context.Context, id string) (*domain.Gear, error)
	ListGear(ctx context.Context, filter GearFilter) ([]*domain.Gear, error)

	CreateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error
	// GetOwnedGear loads the owned item with its gear and brand.
	GetOwnedGear(ctx context.Context, id string) (*domain.OwnedGear, error)
	ListOwnedGear(ctx context.Context, ownerID string, filter GearFilter) ([]*domain.OwnedGear, error)
	CountOwnedGearByCategory(ctx context.Context, ownerID string) (map[domain.GearCategory]int, error)
	UpdateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error
	// DeleteOwnedGear removes the item and every chain item using it.
	DeleteOwnedGear(ctx context.Context, id string) error
}

// SetupSort selects a listing order.
type SetupSort int

const (
	// SortOwner puts favourites first, then newest first.
	SortOwner SetupSort = iota
	// SortPopular puts the most viewed first, then newest first.
	SortPopular
)

// SetupFilter narrows a setup listing. Zero values match everything.
type SetupFilter struct {
	GenreID string
	BandID  string
	SongID  string
	// Search matches case-insensitively against name, description, band
	// name and song title.
	Search        string
	SavedBy       string // only setups saved by this user
	FavoritesOnly bool
	PublicOnly    bool
	Sort          SetupSort
	WithChain     bool
}

// GearFilter narrows gear and owned gear listings.
type GearFilter struct {
	Categories    []domain.GearCategory
	BrandID       string
	Search        string // matches gear name, brand name and nickname
	FavoritesOnly bool   // owned gear only
}
