package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/id"
	"github.com/rigbook/rigbook-server/internal/store"
	"github.com/rigbook/rigbook-server/internal/taxonomy"
	"github.com/rigbook/rigbook-server/internal/validation"
)

// TaxonomyService manages genres, bands and songs.
type TaxonomyService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService(st store.Store, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// slugFor derives a slug from name. Names with no Latin letters or digits
// fall back to the id, which is already URL-safe.
func slugFor(name, entityID string) string {
	if slug := taxonomy.Slugify(name); slug != "" {
		return slug
	}
	return entityID
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateGenre creates a genre. Names and slugs are unique.
func (s *TaxonomyService) CreateGenre(ctx context.Context, req CreateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	genreID, err := id.Generate(id.PrefixGenre)
	if err != nil {
		return nil, fmt.Errorf("generate genre ID: %w", err)
	}
	name := taxonomy.NormalizeName(req.Name)
	g := &domain.Genre{
		ID:          genreID,
		Name:        name,
		Slug:        slugFor(name, genreID),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateGenre(ctx, g); err != nil {
		return nil, translate("create genre", err)
	}
	s.logger.Info("genre created", "genre_id", g.ID, "slug", g.Slug)
	return g, nil
}

// ListGenres lists every genre by name.
func (s *TaxonomyService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	genres, err := s.store.ListGenres(ctx)
	return genres, translate("list genres", err)
}

// DeleteGenre deletes a genre. Bands and setups tagged with it keep
// existing, untagged.
func (s *TaxonomyService) DeleteGenre(ctx context.Context, genreID string) error {
	if err := s.store.DeleteGenre(ctx, genreID); err != nil {
		return translate("delete genre", err)
	}
	s.logger.Info("genre deleted", "genre_id", genreID)
	return nil
}

// CreateBandRequest contains fields for creating a band.
type CreateBandRequest struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	GenreID     string `json:"genre_id"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateBand creates a band, optionally within a genre.
func (s *TaxonomyService) CreateBand(ctx context.Context, req CreateBandRequest) (*domain.Band, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var genre *domain.Genre
	if req.GenreID != "" {
		g, err := NewStoreTaxonomy(s.store).ResolveGenre(ctx, req.GenreID)
		if err != nil {
			return nil, err
		}
		genre = g
	}

	bandID, err := id.Generate(id.PrefixBand)
	if err != nil {
		return nil, fmt.Errorf("generate band ID: %w", err)
	}
	name := taxonomy.NormalizeName(req.Name)
	b := &domain.Band{
		ID:          bandID,
		Name:        name,
		Slug:        slugFor(name, bandID),
		GenreID:     req.GenreID,
		Genre:       genre,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateBand(ctx, b); err != nil {
		return nil, translate("create band", err)
	}
	s.logger.Info("band created", "band_id", b.ID, "genre_id", b.GenreID)
	return b, nil
}

// ListBands lists bands, all of them or those of one genre.
func (s *TaxonomyService) ListBands(ctx context.Context, genreID string) ([]*domain.Band, error) {
	bands, err := s.store.ListBands(ctx, genreID)
	return bands, translate("list bands", err)
}

// DeleteBand deletes a band with its songs. Setups tagged with either keep
// existing, untagged.
func (s *TaxonomyService) DeleteBand(ctx context.Context, bandID string) error {
	if err := s.store.DeleteBand(ctx, bandID); err != nil {
		return translate("delete band", err)
	}
	s.logger.Info("band deleted", "band_id", bandID)
	return nil
}

// CreateSongRequest contains fields for creating a song.
type CreateSongRequest struct {
	Title  string `json:"title" validate:"notblank,max=200"`
	BandID string `json:"band_id" validate:"notblank"`
	Year   int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

// CreateSong creates a song. Titles are unique per band.
func (s *TaxonomyService) CreateSong(ctx context.Context, req CreateSongRequest) (*domain.Song, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	band, err := NewStoreTaxonomy(s.store).ResolveBand(ctx, req.BandID)
	if err != nil {
		return nil, err
	}

	songID, err := id.Generate(id.PrefixSong)
	if err != nil {
		return nil, fmt.Errorf("generate song ID: %w", err)
	}
	song := &domain.Song{
		ID:        songID,
		Title:     taxonomy.NormalizeName(req.Title),
		BandID:    band.ID,
		Band:      band,
		Year:      req.Year,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSong(ctx, song); err != nil {
		return nil, translate("create song", err)
	}
	s.logger.Info("song created", "song_id", song.ID, "band_id", band.ID)
	return song, nil
}

// ListSongs lists songs, all of them or those of one band.
func (s *TaxonomyService) ListSongs(ctx context.Context, bandID string) ([]*domain.Song, error) {
	songs, err := s.store.ListSongs(ctx, bandID)
	return songs, translate("list songs", err)
}

// DeleteSong deletes a song. Setups tagged with it keep existing, untagged.
func (s *TaxonomyService) DeleteSong(ctx context.Context, songID string) error {
	if err := s.store.DeleteSong(ctx, songID); err != nil {
		return translate("delete song", err)
	}
	s.logger.Info("song deleted", "song_id", songID)
	return nil
}

