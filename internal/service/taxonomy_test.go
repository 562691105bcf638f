package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

func TestTaxonomyService_Slugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.taxonomy.CreateGenre(ctx, CreateGenreRequest{Name: "  Nu   Metal "})
	require.NoError(t, err)
	assert.Equal(t, "Nu Metal", g.Name)
	assert.Equal(t, "nu-metal", g.Slug)

	b, err := env.taxonomy.CreateBand(ctx, CreateBandRequest{Name: "Motörhead"})
	require.NoError(t, err)
	assert.Equal(t, "motorhead", b.Slug)
	assert.Nil(t, b.Genre)

	jp, err := env.taxonomy.CreateBand(ctx, CreateBandRequest{Name: "人間椅子"})
	require.NoError(t, err)
	assert.Equal(t, jp.ID, jp.Slug)

	_, err = env.taxonomy.CreateGenre(ctx, CreateGenreRequest{Name: "nu metal"})
	requireCode(t, err, domainerrors.CodeConflict)
}

func TestTaxonomyService_SongRules(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)
	ctx := context.Background()

	assert.Equal(t, tags.metal.ID, tags.puppets.GenreID())

	_, err := env.taxonomy.CreateSong(ctx, CreateSongRequest{Title: "master of puppets", BandID: tags.metallica.ID})
	requireCode(t, err, domainerrors.CodeConflict)

	_, err = env.taxonomy.CreateSong(ctx, CreateSongRequest{Title: "Master of Puppets", BandID: tags.queen.ID})
	require.NoError(t, err, "titles are unique per band only")

	_, err = env.taxonomy.CreateSong(ctx, CreateSongRequest{Title: "Ghost", BandID: "band-missing"})
	requireCode(t, err, domainerrors.CodeNotFound)

	songs, err := env.taxonomy.ListSongs(ctx, tags.metallica.ID)
	require.NoError(t, err)
	require.Len(t, songs, 1)
}

func TestTaxonomyService_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)
	ctx := context.Background()

	setup, err := env.setups.CreateSetup(ctx, "alice", SetupInput{Name: "Tagged", SongID: tags.puppets.ID})
	require.NoError(t, err)

	require.NoError(t, env.taxonomy.DeleteSong(ctx, tags.puppets.ID))
	got, err := env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SongID)
	assert.Equal(t, tags.metallica.ID, got.BandID)

	require.NoError(t, env.taxonomy.DeleteGenre(ctx, tags.metal.ID))
	band, err := NewStoreTaxonomy(env.store).ResolveBand(ctx, tags.metallica.ID)
	require.NoError(t, err)
	assert.Empty(t, band.GenreID)
	got, err = env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Empty(t, got.GenreID)

	require.NoError(t, env.taxonomy.DeleteBand(ctx, tags.metallica.ID))
	got, err = env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BandID)

	requireCode(t, env.taxonomy.DeleteBand(ctx, tags.metallica.ID), domainerrors.CodeNotFound)
}

func TestUserService_Identify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Identify(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName)

	u, err = env.users.Identify(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName, "an empty name keeps the known one")

	_, err = env.users.Identify(ctx, "  ", "")
	requireCode(t, err, domainerrors.CodeUnauthorized)
	_, err = env.users.Identify(ctx, "bad id", "")
	requireCode(t, err, domainerrors.CodeUnauthorized)
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.len())
	unlockA()
	unlockB()
	assert.Zero(t, k.len())
}
