package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createGenre(t *testing.T, name string) GenreResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/genres", asAlice, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeJSON[GenreResponse](t, resp)
}

// createTags creates Metal -> Metallica -> "Master of Puppets".
func (ts *testServer) createTags(t *testing.T) (GenreResponse, BandResponse, SongResponse) {
	t.Helper()
	genre := ts.createGenre(t, "Metal")

	resp := ts.api.Post("/api/v1/bands", asAlice, map[string]any{"name": "Metallica", "genre_id": genre.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	band := decodeJSON[BandResponse](t, resp)

	resp = ts.api.Post("/api/v1/songs", asAlice, map[string]any{"title": "Master of Puppets", "band_id": band.ID, "year": 1986})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	song := decodeJSON[SongResponse](t, resp)

	return genre, band, song
}

func TestTaxonomy_CreateAndList(t *testing.T) {
	ts := setupTestServer(t)
	genre, band, song := ts.createTags(t)

	assert.Equal(t, "metal", genre.Slug)
	assert.Equal(t, genre.ID, band.GenreID)
	require.NotNil(t, band.Genre)
	assert.Equal(t, "Metal", band.Genre.Name)
	assert.Equal(t, genre.ID, song.GenreID, "a song's genre is its band's")

	resp := ts.api.Get("/api/v1/genres", asAlice)
	require.Equal(t, http.StatusOK, resp.Code)
	genres := decodeJSON[struct {
		Genres []GenreResponse `json:"genres"`
	}](t, resp)
	require.Len(t, genres.Genres, 1)

	resp = ts.api.Get("/api/v1/bands?genre="+genre.ID, asAlice)
	bands := decodeJSON[struct {
		Bands []BandResponse `json:"bands"`
	}](t, resp)
	require.Len(t, bands.Bands, 1)

	resp = ts.api.Get("/api/v1/songs?band="+band.ID, asAlice)
	songs := decodeJSON[struct {
		Songs []SongResponse `json:"songs"`
	}](t, resp)
	require.Len(t, songs.Songs, 1)
	assert.Equal(t, 1986, songs.Songs[0].Year)
}

func TestTaxonomy_Conflicts(t *testing.T) {
	ts := setupTestServer(t)
	ts.createGenre(t, "Metal")

	resp := ts.api.Post("/api/v1/genres", asAlice, map[string]any{"name": "METAL"})
	requireProblem(t, resp, http.StatusConflict, "CONFLICT")

	resp = ts.api.Post("/api/v1/songs", asAlice, map[string]any{"title": "Orphan", "band_id": "band-missing"})
	requireProblem(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestTaxonomy_DeleteClearsSetups(t *testing.T) {
	ts := setupTestServer(t)
	genre, band, song := ts.createTags(t)
	setup := ts.createSetup(t, asAlice, map[string]any{"name": "Tagged", "song_id": song.ID})

	resp := ts.api.Delete("/api/v1/songs/"+song.ID, asAlice)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/setups/"+setup.ID, asAlice)
	got := decodeJSON[SetupResponse](t, resp)
	assert.Empty(t, got.SongID)
	assert.Equal(t, band.ID, got.BandID)
	assert.Equal(t, genre.ID, got.GenreID)

	resp = ts.api.Delete("/api/v1/bands/"+band.ID, asAlice)
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = ts.api.Delete("/api/v1/genres/"+genre.ID, asAlice)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/setups/"+setup.ID, asAlice)
	got = decodeJSON[SetupResponse](t, resp)
	assert.Empty(t, got.BandID)
	assert.Empty(t, got.GenreID)

	resp = ts.api.Delete("/api/v1/genres/"+genre.ID, asAlice)
	requireProblem(t, resp, http.StatusNotFound, "NOT_FOUND")
}
