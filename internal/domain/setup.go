package domain

import (
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

// MaxSetupNameLength bounds Setup.Name in characters.
const MaxSetupNameLength = 200

// Setup is a named, ordered composition of a user's gear, optionally tagged
// with the genre, band, and song it is meant to recreate.
//
// Setups are private to their owner until published. Other users may save and
// like public setups; only the owner may change them.
type Setup struct {
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Genre       *Genre             `json:"genre,omitempty"` // pre-joined on read
	Band        *Band              `json:"band,omitempty"`  // pre-joined on read
	Song        *Song              `json:"song,omitempty"`  // pre-joined on read
	Owner       UserRef            `json:"owner"`
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	GenreID     string             `json:"genre_id,omitempty"`
	BandID      string             `json:"band_id,omitempty"`
	SongID      string             `json:"song_id,omitempty"`
	SavedBy     []string           `json:"saved_by"`
	LikedBy     []string           `json:"liked_by"`
	SignalChain []*SignalChainItem `json:"signal_chain,omitempty"` // pre-joined when requested
	Views       int                `json:"views"`
	IsPublic    bool               `json:"is_public"`
	IsFavorite  bool               `json:"is_favorite"`
}

// IsOwnedBy reports whether userID owns the setup.
func (s *Setup) IsOwnedBy(userID string) bool {
	return userID != "" && s.Owner.ID == userID
}

// VisibleTo reports whether userID may read the setup.
func (s *Setup) VisibleTo(userID string) bool {
	return s.IsPublic || s.IsOwnedBy(userID)
}

// IsSavedBy reports whether userID bookmarked the setup.
func (s *Setup) IsSavedBy(userID string) bool {
	return slices.Contains(s.SavedBy, userID)
}

// IsLikedBy reports whether userID liked the setup.
func (s *Setup) IsLikedBy(userID string) bool {
	return slices.Contains(s.LikedBy, userID)
}

// ApplyTags stores the resolved tags on the setup, ids and joins alike.
func (s *Setup) ApplyTags(t Tags) {
	s.Genre, s.Band, s.Song = t.Genre, t.Band, t.Song
	s.GenreID, s.BandID, s.SongID = t.Genre.idOrEmpty(), t.Band.idOrEmpty(), t.Song.idOrEmpty()
}

func (g *Genre) idOrEmpty() string {
	if g == nil {
		return ""
	}
	return g.ID
}

func (b *Band) idOrEmpty() string {
	if b == nil {
		return ""
	}
	return b.ID
}

func (s *Song) idOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// NormalizeSetupText trims name and description and checks the name.
func NormalizeSetupText(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if name == "" {
		return "", "", domainerrors.InvalidField("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxSetupNameLength {
		return "", "", domainerrors.InvalidField("name", "name must not exceed 200 characters")
	}
	return name, description, nil
}

// Tags is the genre, band, and song a setup is tagged with. Any may be nil.
type Tags struct {
	Genre *Genre
	Band  *Band
	Song  *Song
}

// ResolveTags checks that the supplied tags form a consistent chain
// Song -> Band -> Genre and then fills in what the chain implies.
//
// The song must have its band loaded and bands their genre. On mismatch the
// returned INVALID_ARGUMENT error names the field at fault and the value it
// should have held. After a successful call:
//   - with a song, Band is the song's band and Genre that band's genre;
//   - with a band but no genre, Genre is the band's genre.
func ResolveTags(in Tags) (Tags, error) {
	if in.Song != nil && in.Band != nil && in.Song.BandID != in.Band.ID {
		return Tags{}, domainerrors.FieldMismatch("band", in.Song.BandName())
	}
	if in.Band != nil && in.Genre != nil && in.Band.GenreID != in.Genre.ID {
		return Tags{}, domainerrors.FieldMismatch("genre", genreName(in.Band.Genre))
	}
	if in.Song != nil && in.Genre != nil && in.Song.GenreID() != in.Genre.ID {
		return Tags{}, domainerrors.FieldMismatch("genre", genreName(in.Song.Genre()))
	}

	out := in
	switch {
	case in.Song != nil:
		out.Band = in.Song.Band
		if out.Band == nil {
			out.Band = &Band{ID: in.Song.BandID}
		}
		out.Genre = in.Song.Genre()
	case in.Band != nil && in.Genre == nil:
		out.Genre = in.Band.Genre
	}
	return out, nil
}

func genreName(g *Genre) string {
	if g == nil {
		return "none"
	}
	return g.Name
}

// SetupStatistics summarises one owner's setups.
type SetupStatistics struct {
	Public            int `json:"public"`
	Private           int `json:"private"`
	Favorites         int `json:"favorites"`
	TotalSetups       int `json:"total_setups"`
	TotalGearInChains int `json:"total_gear_in_chains"`
}

// SortSetupsForOwner orders setups favourites first, then newest first.
// The sort is stable, so equal keys keep their input (insertion) order.
func SortSetupsForOwner(setups []*Setup) {
	sort.SliceStable(setups, func(i, j int) bool {
		a, b := setups[i], setups[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// SortSetupsByPopularity orders setups by views, then newest first.
func SortSetupsByPopularity(setups []*Setup) {
	sort.SliceStable(setups, func(i, j int) bool {
		a, b := setups[i], setups[j]
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
