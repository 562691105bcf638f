package domain

import "time"

// Genre is a musical genre such as "Thrash Metal". Names are unique.
type Genre struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
}

// Band is a group or artist. A band may lack a genre.
type Band struct {
	CreatedAt   time.Time `json:"created_at"`
	Genre       *Genre    `json:"genre,omitempty"` // populated on read when GenreID is set
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	GenreID     string    `json:"genre_id,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Song always belongs to a band. Its genre is never stored; it is whatever
// genre the band has.
type Song struct {
	CreatedAt time.Time `json:"created_at"`
	Band      *Band     `json:"band,omitempty"` // populated on read
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	BandID    string    `json:"band_id"`
	Year      int       `json:"year,omitempty"`
}

// Genre returns the genre derived from the song's band, or nil when the band
// has no genre or was not loaded.
func (s *Song) Genre() *Genre {
	if s.Band == nil {
		return nil
	}
	return s.Band.Genre
}

// GenreID returns the id of the derived genre, or "".
func (s *Song) GenreID() string {
	if s.Band == nil {
		return ""
	}
	return s.Band.GenreID
}

// BandName returns the band's name when loaded, falling back to its id.
func (s *Song) BandName() string {
	if s.Band != nil {
		return s.Band.Name
	}
	return s.BandID
}
