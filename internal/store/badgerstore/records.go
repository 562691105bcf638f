package badgerstore

import (
	"encoding/json"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
)

// Key prefixes.
const (
	prefixUser      = "user:"
	prefixGenre     = "genre:"
	prefixBand      = "band:"
	prefixSong      = "song:"
	prefixBrand     = "brand:"
	prefixGear      = "gear:"
	prefixOwnedGear = "ownedgear:"
	prefixSetup     = "setup:"
	prefixChainItem = "sci:"
	prefixSave      = "save:"
	prefixLike      = "like:"
)

// Persisted shapes. Pre-joined relations are rebuilt on read, so records
// only carry ids.

type userRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
}

type genreRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
}

func (r *genreRecord) domain() *domain.Genre {
	return &domain.Genre{ID: r.ID, Name: r.Name, Slug: r.Slug, Description: r.Description, CreatedAt: r.CreatedAt}
}

type bandRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	GenreID     string    `json:"genre_id,omitempty"`
	Description string    `json:"description,omitempty"`
}

func (r *bandRecord) domain() *domain.Band {
	return &domain.Band{ID: r.ID, Name: r.Name, Slug: r.Slug, GenreID: r.GenreID, Description: r.Description, CreatedAt: r.CreatedAt}
}

type songRecord struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	BandID    string    `json:"band_id"`
	Year      int       `json:"year,omitempty"`
}

func (r *songRecord) domain() *domain.Song {
	return &domain.Song{ID: r.ID, Title: r.Title, BandID: r.BandID, Year: r.Year, CreatedAt: r.CreatedAt}
}

type brandRecord struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	Website   string    `json:"website,omitempty"`
}

func (r *brandRecord) domain() *domain.Brand {
	return &domain.Brand{ID: r.ID, Name: r.Name, Country: r.Country, Website: r.Website, CreatedAt: r.CreatedAt}
}

type gearRecord struct {
	CreatedAt   time.Time           `json:"created_at"`
	ID          string              `json:"id"`
	BrandID     string              `json:"brand_id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Category    domain.GearCategory `json:"category"`
	Spec        json.RawMessage     `json:"spec"`
}

type ownedGearRecord struct {
	CreatedAt    time.Time  `json:"created_at"`
	AcquiredAt   *time.Time `json:"acquired_at,omitempty"`
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	GearID       string     `json:"gear_id"`
	Nickname     string     `json:"nickname,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	IsFavorite   bool       `json:"is_favorite"`
}

type setupRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	GenreID     string    `json:"genre_id,omitempty"`
	BandID      string    `json:"band_id,omitempty"`
	SongID      string    `json:"song_id,omitempty"`
	Seq         int64     `json:"seq"`
	Views       int       `json:"views"`
	IsPublic    bool      `json:"is_public"`
	IsFavorite  bool      `json:"is_favorite"`
}

func newSetupRecord(s *domain.Setup) *setupRecord {
	return &setupRecord{
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ID:          s.ID,
		OwnerID:     s.Owner.ID,
		Name:        s.Name,
		Description: s.Description,
		GenreID:     s.GenreID,
		BandID:      s.BandID,
		SongID:      s.SongID,
		Views:       s.Views,
		IsPublic:    s.IsPublic,
		IsFavorite:  s.IsFavorite,
	}
}

type chainItemRecord struct {
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Settings    domain.Settings `json:"settings"`
	ID          string          `json:"id"`
	SetupID     string          `json:"setup_id"`
	OwnedGearID string          `json:"owned_gear_id"`
	Notes       string          `json:"notes,omitempty"`
	Order       int             `json:"order"`
	Seq         int64           `json:"seq"`
}

// memberRecord is a saved_by or liked_by entry.
type memberRecord struct {
	At     time.Time `json:"at"`
	UserID string    `json:"user_id"`
	Seq    int64     `json:"seq"`
}
