package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rigbook/rigbook-server/internal/service"
)

func (s *Server) registerTaxonomyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Create genre",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Tags:        []string{"Taxonomy"},
		Security:    identityRequired,
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteGenre",
		Method:        http.MethodDelete,
		Path:          "/api/v1/genres/{id}",
		Summary:       "Delete genre",
		Description:   "Deletes the genre and clears it from bands and setups",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteGenre)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBand",
		Method:        http.MethodPost,
		Path:          "/api/v1/bands",
		Summary:       "Create band",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBand)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBands",
		Method:      http.MethodGet,
		Path:        "/api/v1/bands",
		Summary:     "List bands",
		Tags:        []string{"Taxonomy"},
		Security:    identityRequired,
	}, s.handleListBands)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBand",
		Method:        http.MethodDelete,
		Path:          "/api/v1/bands/{id}",
		Summary:       "Delete band",
		Description:   "Deletes the band with its songs and clears it from setups",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBand)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSong",
		Method:        http.MethodPost,
		Path:          "/api/v1/songs",
		Summary:       "Create song",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSong)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSongs",
		Method:      http.MethodGet,
		Path:        "/api/v1/songs",
		Summary:     "List songs",
		Tags:        []string{"Taxonomy"},
		Security:    identityRequired,
	}, s.handleListSongs)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSong",
		Method:        http.MethodDelete,
		Path:          "/api/v1/songs/{id}",
		Summary:       "Delete song",
		Description:   "Deletes the song and clears it from setups",
		Tags:          []string{"Taxonomy"},
		Security:      identityRequired,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSong)
}

// === DTOs ===

// CreateGenreInput wraps the create genre request for Huma.
type CreateGenreInput struct {
	Body struct {
		Name        string `json:"name" maxLength:"100" doc:"Genre name"`
		Description string `json:"description,omitempty" maxLength:"2000" doc:"Description"`
	}
}

// GenreOutput wraps a genre for Huma.
type GenreOutput struct {
	Body GenreResponse
}

// GenreListOutput wraps the genre list for Huma.
type GenreListOutput struct {
	Body struct {
		Genres []GenreResponse `json:"genres" doc:"Genres by name"`
	}
}

// CreateBandInput wraps the create band request for Huma.
type CreateBandInput struct {
	Body struct {
		Name        string `json:"name" maxLength:"200" doc:"Band name"`
		GenreID     string `json:"genre_id,omitempty" doc:"Genre ID"`
		Description string `json:"description,omitempty" maxLength:"2000" doc:"Description"`
	}
}

// BandOutput wraps a band for Huma.
type BandOutput struct {
	Body BandResponse
}

// ListBandsInput filters the band list.
type ListBandsInput struct {
	Genre string `query:"genre" doc:"Only bands in this genre"`
}

// BandListOutput wraps the band list for Huma.
type BandListOutput struct {
	Body struct {
		Bands []BandResponse `json:"bands" doc:"Bands by name"`
	}
}

// CreateSongInput wraps the create song request for Huma.
type CreateSongInput struct {
	Body struct {
		Title  string `json:"title" maxLength:"200" doc:"Song title"`
		BandID string `json:"band_id" minLength:"1" doc:"Band ID"`
		Year   int    `json:"year,omitempty" doc:"Release year"`
	}
}

// SongOutput wraps a song for Huma.
type SongOutput struct {
	Body SongResponse
}

// ListSongsInput filters the song list.
type ListSongsInput struct {
	Band string `query:"band" doc:"Only songs by this band"`
}

// SongListOutput wraps the song list for Huma.
type SongListOutput struct {
	Body struct {
		Songs []SongResponse `json:"songs" doc:"Songs by title"`
	}
}

// TaxonomyIDInput addresses one genre, band or song.
type TaxonomyIDInput struct {
	ID string `path:"id" doc:"ID"`
}

// === Handlers ===

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	g, err := s.services.Taxonomy.CreateGenre(ctx, service.CreateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &GenreOutput{Body: *newGenreResponse(g)}, nil
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*GenreListOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	genres, err := s.services.Taxonomy.ListGenres(ctx)
	if err != nil {
		return nil, err
	}

	out := &GenreListOutput{}
	out.Body.Genres = make([]GenreResponse, len(genres))
	for i, g := range genres {
		out.Body.Genres[i] = *newGenreResponse(g)
	}
	return out, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *TaxonomyIDInput) (*struct{}, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return nil, s.services.Taxonomy.DeleteGenre(ctx, input.ID)
}

func (s *Server) handleCreateBand(ctx context.Context, input *CreateBandInput) (*BandOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	b, err := s.services.Taxonomy.CreateBand(ctx, service.CreateBandRequest{
		Name:        input.Body.Name,
		GenreID:     input.Body.GenreID,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &BandOutput{Body: *newBandResponse(b)}, nil
}

func (s *Server) handleListBands(ctx context.Context, input *ListBandsInput) (*BandListOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	bands, err := s.services.Taxonomy.ListBands(ctx, input.Genre)
	if err != nil {
		return nil, err
	}

	out := &BandListOutput{}
	out.Body.Bands = make([]BandResponse, len(bands))
	for i, b := range bands {
		out.Body.Bands[i] = *newBandResponse(b)
	}
	return out, nil
}

func (s *Server) handleDeleteBand(ctx context.Context, input *TaxonomyIDInput) (*struct{}, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return nil, s.services.Taxonomy.DeleteBand(ctx, input.ID)
}

func (s *Server) handleCreateSong(ctx context.Context, input *CreateSongInput) (*SongOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	song, err := s.services.Taxonomy.CreateSong(ctx, service.CreateSongRequest{
		Title:  input.Body.Title,
		BandID: input.Body.BandID,
		Year:   input.Body.Year,
	})
	if err != nil {
		return nil, err
	}
	return &SongOutput{Body: *newSongResponse(song)}, nil
}

func (s *Server) handleListSongs(ctx context.Context, input *ListSongsInput) (*SongListOutput, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	songs, err := s.services.Taxonomy.ListSongs(ctx, input.Band)
	if err != nil {
		return nil, err
	}

	out := &SongListOutput{}
	out.Body.Songs = make([]SongResponse, len(songs))
	for i, song := range songs {
		out.Body.Songs[i] = *newSongResponse(song)
	}
	return out, nil
}

func (s *Server) handleDeleteSong(ctx context.Context, input *TaxonomyIDInput) (*struct{}, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return nil, s.services.Taxonomy.DeleteSong(ctx, input.ID)
}
