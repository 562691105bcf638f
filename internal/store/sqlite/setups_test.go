package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

func setupIDs(setups []*domain.Setup) []string {
	out := make([]string, len(setups))
	for i, s := range setups {
		out[i] = s.ID
	}
	return out
}

func TestCreateAndGetSetup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "user-1", DisplayName: "Jimi"}))
	genre := &domain.Genre{ID: "genre-1", Name: "Blues", Slug: "blues", CreatedAt: baseTime}
	require.NoError(t, s.CreateGenre(ctx, genre))
	band := &domain.Band{ID: "band-1", Name: "Cream", Slug: "cream", GenreID: genre.ID, CreatedAt: baseTime}
	require.NoError(t, s.CreateBand(ctx, band))
	song := &domain.Song{ID: "song-1", Title: "Crossroads", BandID: band.ID, Year: 1968, CreatedAt: baseTime}
	require.NoError(t, s.CreateSong(ctx, song))

	setup := makeTestSetup("setup-1", "user-1", 0)
	setup.Description = "Live at Winterland"
	setup.GenreID, setup.BandID, setup.SongID = genre.ID, band.ID, song.ID
	setup.IsPublic = true
	require.NoError(t, s.CreateSetup(ctx, setup))

	got, err := s.ScopedView("user-1").GetSetup(ctx, "setup-1")
	require.NoError(t, err)

	assert.Equal(t, "Setup setup-1", got.Name)
	assert.Equal(t, "Live at Winterland", got.Description)
	assert.Equal(t, domain.UserRef{ID: "user-1", DisplayName: "Jimi"}, got.Owner)
	assert.True(t, got.IsPublic)
	assert.False(t, got.IsFavorite)
	assert.True(t, got.CreatedAt.Equal(baseTime))
	require.NotNil(t, got.Genre)
	assert.Equal(t, "Blues", got.Genre.Name)
	require.NotNil(t, got.Band)
	assert.Equal(t, "Cream", got.Band.Name)
	require.NotNil(t, got.Song)
	assert.Equal(t, "Crossroads", got.Song.Title)
	assert.Equal(t, "Cream", got.Song.BandName())
	assert.Empty(t, got.SavedBy)
	assert.Empty(t, got.LikedBy)
	assert.NotNil(t, got.SignalChain)
}

func TestGetSetup_OwnerWithoutUserRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "ghost", 0)))

	got, err := s.GlobalView().GetSetup(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, "ghost", got.Owner.ID)
	assert.Empty(t, got.Owner.DisplayName)
}

func TestSetupViews_Scope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	private := makeTestSetup("private", "alice", 0)
	public := makeTestSetup("public", "alice", time.Minute)
	public.IsPublic = true
	other := makeTestSetup("other", "bob", 2*time.Minute)
	require.NoError(t, s.CreateSetup(ctx, private))
	require.NoError(t, s.CreateSetup(ctx, public))
	require.NoError(t, s.CreateSetup(ctx, other))

	tests := []struct {
		name string
		view store.SetupReader
		want []string
	}{
		{"scoped alice", s.ScopedView("alice"), []string{"public", "private"}},
		{"scoped bob", s.ScopedView("bob"), []string{"other"}},
		{"public", s.PublicView(), []string{"public"}},
		{"visible to bob", s.VisibleTo("bob"), []string{"other", "public"}},
		{"global", s.GlobalView(), []string{"other", "public", "private"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := tt.view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, setupIDs(page.Items))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}

	_, err := s.ScopedView("bob").GetSetup(ctx, "private")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.VisibleTo("bob").GetSetup(ctx, "private")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.VisibleTo("bob").GetSetup(ctx, "public")
	assert.NoError(t, err)
}

func TestListSetups_OwnerSort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makeTestSetup("a", "alice", 0)
	b := makeTestSetup("b", "alice", time.Minute)
	c := makeTestSetup("c", "alice", 2*time.Minute)
	a.IsFavorite = true
	// d shares c's timestamp; insertion order breaks the tie.
	d := makeTestSetup("d", "alice", 2*time.Minute)
	for _, setup := range []*domain.Setup{a, b, c, d} {
		require.NoError(t, s.CreateSetup(ctx, setup))
	}

	page, err := s.ScopedView("alice").ListSetups(ctx, store.SetupFilter{Sort: store.SortOwner}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "b"}, setupIDs(page.Items))
}

func TestListSetups_PopularSort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		setup := makeTestSetup(id, "alice", time.Duration(i)*time.Minute)
		setup.IsPublic = true
		require.NoError(t, s.CreateSetup(ctx, setup))
	}
	for range 3 {
		_, err := s.IncrementSetupViews(ctx, "a")
		require.NoError(t, err)
	}
	views, err := s.IncrementSetupViews(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	page, err := s.PublicView().ListSetups(ctx, store.SetupFilter{Sort: store.SortPopular}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, setupIDs(page.Items))
	assert.Equal(t, 3, page.Items[0].Views)
}

func TestListSetups_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		id := string(rune('a' + i))
		require.NoError(t, s.CreateSetup(ctx, makeTestSetup(id, "alice", time.Duration(-i)*time.Minute)))
	}

	view := s.ScopedView("alice")
	first, err := view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, setupIDs(first.Items))
	assert.True(t, first.HasMore)
	assert.Equal(t, 5, first.Total)

	second, err := view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, setupIDs(second.Items))

	last, err := view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, setupIDs(last.Items))
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)

	_, err = view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Cursor: "!!"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestListSetups_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBand(ctx, &domain.Band{ID: "band-1", Name: "Soundgarden", Slug: "soundgarden", CreatedAt: baseTime}))

	grunge := makeTestSetup("grunge", "alice", 0)
	grunge.BandID = "band-1"
	grunge.IsFavorite = true
	clean := makeTestSetup("clean", "alice", time.Minute)
	clean.Name = "Glassy 100% clean"
	require.NoError(t, s.CreateSetup(ctx, grunge))
	require.NoError(t, s.CreateSetup(ctx, clean))
	require.NoError(t, s.SetSetupSaved(ctx, "clean", "bob", true))

	view := s.GlobalView()
	count := func(f store.SetupFilter) []string {
		t.Helper()
		page, err := view.ListSetups(ctx, f, store.PaginationParams{})
		require.NoError(t, err)
		return setupIDs(page.Items)
	}

	assert.Equal(t, []string{"grunge"}, count(store.SetupFilter{BandID: "band-1"}))
	assert.Equal(t, []string{"grunge"}, count(store.SetupFilter{Search: "SOUNDGARDEN"}))
	assert.Equal(t, []string{"clean"}, count(store.SetupFilter{Search: "100%"}))
	assert.Empty(t, count(store.SetupFilter{Search: "_"}))
	assert.Equal(t, []string{"grunge"}, count(store.SetupFilter{FavoritesOnly: true}))
	assert.Equal(t, []string{"clean"}, count(store.SetupFilter{SavedBy: "bob"}))
	assert.Empty(t, count(store.SetupFilter{PublicOnly: true}))

	n, err := view.CountSetups(ctx, store.SetupFilter{Search: "setup"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListSetups_WithChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")
	require.NoError(t, s.CreateChainItem(ctx, &domain.SignalChainItem{
		ID: "sci-1", SetupID: "setup-1", OwnedGearID: owned.ID, Settings: domain.Settings{},
		CreatedAt: baseTime, UpdatedAt: baseTime,
	}))

	page, err := s.GlobalView().ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Nil(t, page.Items[0].SignalChain)

	page, err = s.GlobalView().ListSetups(ctx, store.SetupFilter{WithChain: true}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Items[0].SignalChain, 1)
	assert.Equal(t, "sci-1", page.Items[0].SignalChain[0].ID)
}

func TestUpdateSetup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	setup := makeTestSetup("setup-1", "alice", 0)
	require.NoError(t, s.CreateSetup(ctx, setup))

	setup.Name = "Renamed"
	setup.IsFavorite = true
	setup.UpdatedAt = baseTime.Add(time.Hour)
	require.NoError(t, s.UpdateSetup(ctx, setup))

	got, err := s.GlobalView().GetSetup(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.IsFavorite)
	assert.True(t, got.UpdatedAt.Equal(baseTime.Add(time.Hour)))

	missing := makeTestSetup("missing", "alice", 0)
	assert.ErrorIs(t, s.UpdateSetup(ctx, missing), store.ErrNotFound)
}

func TestUpdateSetup_MissingTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	setup := makeTestSetup("setup-1", "alice", 0)
	require.NoError(t, s.CreateSetup(ctx, setup))

	setup.GenreID = "genre-nope"
	assert.ErrorIs(t, s.UpdateSetup(ctx, setup), store.ErrNotFound)
}

func TestDeleteSetup_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")
	require.NoError(t, s.CreateChainItem(ctx, &domain.SignalChainItem{
		ID: "sci-1", SetupID: "setup-1", OwnedGearID: owned.ID, CreatedAt: baseTime, UpdatedAt: baseTime,
	}))
	require.NoError(t, s.SetSetupLiked(ctx, "setup-1", "bob", true))

	require.NoError(t, s.DeleteSetup(ctx, "setup-1"))

	_, err := s.GetChainItem(ctx, "sci-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	var likes int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM setup_likes`).Scan(&likes))
	assert.Zero(t, likes)

	_, err = s.GetOwnedGear(ctx, owned.ID)
	assert.NoError(t, err, "owned gear survives")

	assert.ErrorIs(t, s.DeleteSetup(ctx, "setup-1"), store.ErrNotFound)
}

func TestIncrementSetupViews_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.IncrementSetupViews(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetSetupSavedAndLiked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))

	require.NoError(t, s.SetSetupSaved(ctx, "setup-1", "bob", true))
	require.NoError(t, s.SetSetupSaved(ctx, "setup-1", "bob", true))
	require.NoError(t, s.SetSetupSaved(ctx, "setup-1", "carol", true))
	require.NoError(t, s.SetSetupLiked(ctx, "setup-1", "carol", true))

	got, err := s.GlobalView().GetSetup(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, got.SavedBy)
	assert.Equal(t, []string{"carol"}, got.LikedBy)

	require.NoError(t, s.SetSetupSaved(ctx, "setup-1", "bob", false))
	require.NoError(t, s.SetSetupSaved(ctx, "setup-1", "bob", false))
	got, err = s.GlobalView().GetSetup(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, got.SavedBy)

	assert.ErrorIs(t, s.SetSetupSaved(ctx, "missing", "bob", true), store.ErrNotFound)
}

func TestCreateSetup_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	assert.ErrorIs(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)), store.ErrAlreadyExists)
}
