package sqlite

import (
	"context"
	"database/sql"

	"github.com/rigbook/rigbook-server/internal/domain"
)

// genreColumns is the ordered list of columns selected in genre queries.
// Must match genreRow.dest.
const genreColumns = `g.id, g.name, g.slug, g.description, g.created_at`

type genreRow struct {
	id, name, slug, createdAt string
	description               sql.NullString
}

func (r *genreRow) dest() []any {
	return []any{&r.id, &r.name, &r.slug, &r.description, &r.createdAt}
}

func (r *genreRow) build() (*domain.Genre, error) {
	t, err := parseTime(r.createdAt)
	if err != nil {
		return nil, err
	}
	return &domain.Genre{
		ID:          r.id,
		Name:        r.name,
		Slug:        r.slug,
		Description: r.description.String,
		CreatedAt:   t,
	}, nil
}

// nullGenreRow scans the genre side of a LEFT JOIN.
type nullGenreRow struct {
	id, name, slug, createdAt sql.NullString
	description               sql.NullString
}

func (r *nullGenreRow) dest() []any {
	return []any{&r.id, &r.name, &r.slug, &r.description, &r.createdAt}
}

func (r *nullGenreRow) build() (*domain.Genre, error) {
	if !r.id.Valid {
		return nil, nil
	}
	g := genreRow{
		id: r.id.String, name: r.name.String, slug: r.slug.String,
		description: r.description, createdAt: r.createdAt.String,
	}
	return g.build()
}

const bandColumns = `b.id, b.name, b.slug, b.genre_id, b.description, b.created_at, ` + genreColumns

const bandJoin = `bands b LEFT JOIN genres g ON g.id = b.genre_id`

type bandRow struct {
	id, name, slug, createdAt string
	genreID, description      sql.NullString
	genre                     nullGenreRow
}

func (r *bandRow) dest() []any {
	return append([]any{&r.id, &r.name, &r.slug, &r.genreID, &r.description, &r.createdAt}, r.genre.dest()...)
}

func (r *bandRow) build() (*domain.Band, error) {
	b := &domain.Band{
		ID:          r.id,
		Name:        r.name,
		Slug:        r.slug,
		GenreID:     r.genreID.String,
		Description: r.description.String,
	}
	var err error
	if b.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if b.Genre, err = r.genre.build(); err != nil {
		return nil, err
	}
	return b, nil
}

const songColumns = `so.id, so.title, so.band_id, so.year, so.created_at, ` + bandColumns

const songJoin = `songs so JOIN bands b ON b.id = so.band_id LEFT JOIN genres g ON g.id = b.genre_id`

type songRow struct {
	id, title, bandID, createdAt string
	year                         sql.NullInt64
	band                         bandRow
}

func (r *songRow) dest() []any {
	return append([]any{&r.id, &r.title, &r.bandID, &r.year, &r.createdAt}, r.band.dest()...)
}

func (r *songRow) build() (*domain.Song, error) {
	s := &domain.Song{
		ID:     r.id,
		Title:  r.title,
		BandID: r.bandID,
		Year:   int(r.year.Int64),
	}
	var err error
	if s.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if s.Band, err = r.band.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateGenre inserts a genre. Name and slug are unique.
func (s *Store) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO genres (id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		genre.ID, genre.Name, genre.Slug, nullString(genre.Description), formatTime(genre.CreatedAt),
	)
	return mapWriteErr(err, "genre "+genre.Name)
}

// GetGenre retrieves a genre by ID.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	var r genreRow
	err := s.conn.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres g WHERE g.id = ?`, id).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "genre %s not found", id)
	}
	return r.build()
}

// ListGenres returns all genres ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+genreColumns+` FROM genres g ORDER BY g.name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Genre
	for rows.Next() {
		var r genreRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		g, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGenre removes a genre. Bands and setups referencing it are untagged.
func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "genre %s not found", id)
}

// CreateBand inserts a band.
func (s *Store) CreateBand(ctx context.Context, band *domain.Band) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO bands (id, name, slug, genre_id, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		band.ID, band.Name, band.Slug, nullString(band.GenreID), nullString(band.Description), formatTime(band.CreatedAt),
	)
	return mapWriteErr(err, "band "+band.Name)
}

// GetBand retrieves a band with its genre.
func (s *Store) GetBand(ctx context.Context, id string) (*domain.Band, error) {
	var r bandRow
	err := s.conn.QueryRowContext(ctx, `SELECT `+bandColumns+` FROM `+bandJoin+` WHERE b.id = ?`, id).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "band %s not found", id)
	}
	return r.build()
}

// ListBands returns bands ordered by name, optionally for one genre.
func (s *Store) ListBands(ctx context.Context, genreID string) ([]*domain.Band, error) {
	query := `SELECT ` + bandColumns + ` FROM ` + bandJoin
	var args []any
	if genreID != "" {
		query += ` WHERE b.genre_id = ?`
		args = append(args, genreID)
	}
	query += ` ORDER BY b.name COLLATE NOCASE`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Band
	for rows.Next() {
		var r bandRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		b, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBand removes a band and its songs. Setups referencing either are untagged.
func (s *Store) DeleteBand(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM bands WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "band %s not found", id)
}

// CreateSong inserts a song. Titles are unique per band.
func (s *Store) CreateSong(ctx context.Context, song *domain.Song) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO songs (id, title, band_id, year, created_at) VALUES (?, ?, ?, ?, ?)`,
		song.ID, song.Title, song.BandID, nullInt(song.Year), formatTime(song.CreatedAt),
	)
	return mapWriteErr(err, "song "+song.Title)
}

// GetSong retrieves a song with its band and the band's genre.
func (s *Store) GetSong(ctx context.Context, id string) (*domain.Song, error) {
	var r songRow
	err := s.conn.QueryRowContext(ctx, `SELECT `+songColumns+` FROM `+songJoin+` WHERE so.id = ?`, id).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "song %s not found", id)
	}
	return r.build()
}

// ListSongs returns songs ordered by band then title, optionally for one band.
func (s *Store) ListSongs(ctx context.Context, bandID string) ([]*domain.Song, error) {
	query := `SELECT ` + songColumns + ` FROM ` + songJoin
	var args []any
	if bandID != "" {
		query += ` WHERE so.band_id = ?`
		args = append(args, bandID)
	}
	query += ` ORDER BY b.name COLLATE NOCASE, so.title COLLATE NOCASE`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Song
	for rows.Next() {
		var r songRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		song, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, song)
	}
	return out, rows.Err()
}

// DeleteSong removes a song. Setups referencing it are untagged.
func (s *Store) DeleteSong(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "song %s not found", id)
}
