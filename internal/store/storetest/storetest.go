// Package storetest is a conformance suite run against every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"SetupViews", testSetupViews},
		{"SetupSorting", testSetupSorting},
		{"SetupPagination", testSetupPagination},
		{"SetupFilters", testSetupFilters},
		{"SetupMembers", testSetupMembers},
		{"SetupDeleteCascades", testSetupDeleteCascades},
		{"IncrementViews", testIncrementViews},
		{"ChainOrdering", testChainOrdering},
		{"ChainDuplicatePair", testChainDuplicatePair},
		{"ChainReorder", testChainReorder},
		{"ChainSettings", testChainSettings},
		{"TaxonomyCascades", testTaxonomyCascades},
		{"GearCatalogue", testGearCatalogue},
		{"OwnedGear", testOwnedGear},
		{"Users", testUsers},
		{"WithTxRollback", testWithTxRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

func setup(id, owner string, offset time.Duration) *domain.Setup {
	at := base.Add(offset)
	return &domain.Setup{ID: id, Owner: domain.UserRef{ID: owner}, Name: "Setup " + id, CreatedAt: at, UpdatedAt: at}
}

func ids(setups []*domain.Setup) []string {
	out := make([]string, len(setups))
	for i, s := range setups {
		out[i] = s.ID
	}
	return out
}

func itemIDs(items []*domain.SignalChainItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func ownedGear(t *testing.T, s store.Store, id, owner string) *domain.OwnedGear {
	t.Helper()
	ctx := context.Background()

	brand, err := s.GetBrandByName(ctx, "Ibanez")
	if errors.Is(err, store.ErrNotFound) {
		brand = &domain.Brand{ID: "brand-ibanez", Name: "Ibanez", CreatedAt: base}
		require.NoError(t, s.CreateBrand(ctx, brand))
	} else {
		require.NoError(t, err)
	}
	gear := &domain.Gear{
		ID: "gear-" + id, BrandID: brand.ID, Name: "TS808 " + id,
		Kind: domain.Pedal{PedalType: "overdrive", AvailableControls: []string{"drive", "tone", "level"}}, CreatedAt: base,
	}
	require.NoError(t, s.CreateGear(ctx, gear))
	owned := &domain.OwnedGear{ID: id, OwnerID: owner, GearID: gear.ID, CreatedAt: base}
	require.NoError(t, s.CreateOwnedGear(ctx, owned))
	return owned
}

func item(id, setupID, ownedID string, order int) *domain.SignalChainItem {
	return &domain.SignalChainItem{
		ID: id, SetupID: setupID, OwnedGearID: ownedID, Order: order,
		Settings: domain.Settings{}, CreatedAt: base, UpdatedAt: base,
	}
}

func testSetupViews(t *testing.T, s store.Store) {
	ctx := context.Background()
	priv := setup("private", "alice", 0)
	pub := setup("public", "alice", time.Minute)
	pub.IsPublic = true
	require.NoError(t, s.CreateSetup(ctx, priv))
	require.NoError(t, s.CreateSetup(ctx, pub))
	require.NoError(t, s.CreateSetup(ctx, setup("other", "bob", 2*time.Minute)))

	cases := map[string]struct {
		view store.SetupReader
		want []string
	}{
		"scoped":  {s.ScopedView("alice"), []string{"public", "private"}},
		"public":  {s.PublicView(), []string{"public"}},
		"visible": {s.VisibleTo("bob"), []string{"other", "public"}},
		"global":  {s.GlobalView(), []string{"other", "public", "private"}},
	}
	for name, c := range cases {
		page, err := c.view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{})
		require.NoError(t, err, name)
		assert.Equal(t, c.want, ids(page.Items), name)

		n, err := c.view.CountSetups(ctx, store.SetupFilter{})
		require.NoError(t, err, name)
		assert.Equal(t, len(c.want), n, name)
	}

	_, err := s.VisibleTo("bob").GetSetup(ctx, "private")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ScopedView("bob").GetSetup(ctx, "public")
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := s.VisibleTo("bob").GetSetup(ctx, "public")
	require.NoError(t, err)
	assert.NotNil(t, got.SignalChain)
	assert.NotNil(t, got.SavedBy)
}

func testSetupSorting(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := setup("a", "alice", 0)
	a.IsFavorite = true
	a.IsPublic = true
	b := setup("b", "alice", time.Minute)
	b.IsPublic = true
	c := setup("c", "alice", time.Minute) // same instant as b, inserted later
	c.IsPublic = true
	for _, x := range []*domain.Setup{a, b, c} {
		require.NoError(t, s.CreateSetup(ctx, x))
	}

	page, err := s.ScopedView("alice").ListSetups(ctx, store.SetupFilter{Sort: store.SortOwner}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(page.Items))

	_, err = s.IncrementSetupViews(ctx, "c")
	require.NoError(t, err)
	page, err = s.PublicView().ListSetups(ctx, store.SetupFilter{Sort: store.SortPopular}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(page.Items))
}

func testSetupPagination(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateSetup(ctx, setup(id, "alice", -time.Duration(i)*time.Minute)))
	}

	view := s.ScopedView("alice")
	p1, err := view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(p1.Items))
	assert.True(t, p1.HasMore)
	assert.Equal(t, 3, p1.Total)

	p2, err := view.ListSetups(ctx, store.SetupFilter{}, store.PaginationParams{Limit: 2, Cursor: p1.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(p2.Items))
	assert.False(t, p2.HasMore)
}

func testSetupFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateGenre(ctx, &domain.Genre{ID: "genre-1", Name: "Metal", Slug: "metal", CreatedAt: base}))
	require.NoError(t, s.CreateBand(ctx, &domain.Band{ID: "band-1", Name: "Mastodon", Slug: "mastodon", GenreID: "genre-1", CreatedAt: base}))
	require.NoError(t, s.CreateSong(ctx, &domain.Song{ID: "song-1", Title: "Blood and Thunder", BandID: "band-1", CreatedAt: base}))

	tagged := setup("tagged", "alice", 0)
	tagged.GenreID, tagged.BandID, tagged.SongID = "genre-1", "band-1", "song-1"
	plain := setup("plain", "alice", time.Minute)
	plain.Description = "Clean jazz tone"
	require.NoError(t, s.CreateSetup(ctx, tagged))
	require.NoError(t, s.CreateSetup(ctx, plain))

	list := func(f store.SetupFilter) []string {
		t.Helper()
		page, err := s.GlobalView().ListSetups(ctx, f, store.PaginationParams{})
		require.NoError(t, err)
		return ids(page.Items)
	}
	assert.Equal(t, []string{"tagged"}, list(store.SetupFilter{GenreID: "genre-1"}))
	assert.Equal(t, []string{"tagged"}, list(store.SetupFilter{SongID: "song-1"}))
	assert.Equal(t, []string{"tagged"}, list(store.SetupFilter{Search: "thunder"}))
	assert.Equal(t, []string{"tagged"}, list(store.SetupFilter{Search: "MASTO"}))
	assert.Equal(t, []string{"plain"}, list(store.SetupFilter{Search: "jazz"}))

	got, err := s.GlobalView().GetSetup(ctx, "tagged")
	require.NoError(t, err)
	require.NotNil(t, got.Song)
	assert.Equal(t, "Blood and Thunder", got.Song.Title)
	require.NotNil(t, got.Genre)
	assert.Equal(t, "Metal", got.Genre.Name)
}

func testSetupMembers(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))

	require.NoError(t, s.SetSetupSaved(ctx, "s1", "bob", true))
	require.NoError(t, s.SetSetupSaved(ctx, "s1", "bob", true))
	require.NoError(t, s.SetSetupSaved(ctx, "s1", "carol", true))
	require.NoError(t, s.SetSetupLiked(ctx, "s1", "bob", true))

	got, err := s.GlobalView().GetSetup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, got.SavedBy)
	assert.Equal(t, []string{"bob"}, got.LikedBy)

	page, err := s.GlobalView().ListSetups(ctx, store.SetupFilter{SavedBy: "carol"}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(page.Items))

	require.NoError(t, s.SetSetupLiked(ctx, "s1", "bob", false))
	require.NoError(t, s.SetSetupLiked(ctx, "s1", "bob", false))
	got, err = s.GlobalView().GetSetup(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.LikedBy)

	assert.ErrorIs(t, s.SetSetupSaved(ctx, "missing", "bob", true), store.ErrNotFound)
}

func testSetupDeleteCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	og := ownedGear(t, s, "og-1", "alice")
	require.NoError(t, s.CreateChainItem(ctx, item("sci-1", "s1", og.ID, 0)))
	require.NoError(t, s.SetSetupSaved(ctx, "s1", "bob", true))

	require.NoError(t, s.DeleteSetup(ctx, "s1"))

	_, err := s.GetChainItem(ctx, "sci-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetOwnedGear(ctx, og.ID)
	assert.NoError(t, err)

	// The same id can be reused with no leftover members.
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	got, err := s.GlobalView().GetSetup(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.SavedBy)
	assert.Empty(t, got.SignalChain)

	assert.ErrorIs(t, s.DeleteSetup(ctx, "nope"), store.ErrNotFound)
}

func testIncrementViews(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))

	for want := 1; want <= 3; want++ {
		n, err := s.IncrementSetupViews(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	_, err := s.IncrementSetupViews(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testChainOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	a := ownedGear(t, s, "og-a", "alice")
	b := ownedGear(t, s, "og-b", "alice")
	c := ownedGear(t, s, "og-c", "alice")

	first := item("sci-a", "s1", a.ID, 4)
	require.NoError(t, s.CreateChainItem(ctx, first))
	second := item("sci-b", "s1", b.ID, 1)
	require.NoError(t, s.CreateChainItem(ctx, second))
	require.NoError(t, s.CreateChainItem(ctx, item("sci-c", "s1", c.ID, 1)))
	assert.Less(t, first.Seq, second.Seq)

	items, err := s.ListChainItems(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b", "sci-c", "sci-a"}, itemIDs(items))
	require.NotNil(t, items[0].OwnedGear)
	require.NotNil(t, items[0].OwnedGear.Gear)
	assert.Equal(t, domain.CategoryPedal, items[0].OwnedGear.Category())

	counts, err := s.CountChainItemsBySetup(ctx, []string{"s1", "none"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"s1": 3}, counts)

	require.NoError(t, s.DeleteChainItem(ctx, "sci-c"))
	n, err := s.CountChainItems(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.DeleteOwnedGear(ctx, a.ID))
	items, err = s.ListChainItems(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b"}, itemIDs(items))
}

func testChainDuplicatePair(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	require.NoError(t, s.CreateSetup(ctx, setup("s2", "alice", 0)))
	og := ownedGear(t, s, "og-1", "alice")

	require.NoError(t, s.CreateChainItem(ctx, item("sci-1", "s1", og.ID, 0)))
	assert.ErrorIs(t, s.CreateChainItem(ctx, item("sci-2", "s1", og.ID, 1)), store.ErrAlreadyExists)
	assert.NoError(t, s.CreateChainItem(ctx, item("sci-3", "s2", og.ID, 0)), "same gear in another setup")
	assert.ErrorIs(t, s.CreateChainItem(ctx, item("sci-4", "missing", og.ID, 0)), store.ErrNotFound)

	// Removing the item frees the pair.
	require.NoError(t, s.DeleteChainItem(ctx, "sci-1"))
	assert.NoError(t, s.CreateChainItem(ctx, item("sci-5", "s1", og.ID, 0)))
}

func testChainReorder(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	require.NoError(t, s.CreateSetup(ctx, setup("s2", "alice", 0)))
	a := ownedGear(t, s, "og-a", "alice")
	b := ownedGear(t, s, "og-b", "alice")
	require.NoError(t, s.CreateChainItem(ctx, item("sci-a", "s1", a.ID, 0)))
	require.NoError(t, s.CreateChainItem(ctx, item("sci-b", "s1", b.ID, 7)))
	require.NoError(t, s.CreateChainItem(ctx, item("sci-x", "s2", a.ID, 0)))

	require.NoError(t, s.SetChainOrder(ctx, "s1", []string{"sci-b", "sci-a"}, base.Add(time.Hour)))
	items, err := s.ListChainItems(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b", "sci-a"}, itemIDs(items))
	assert.Equal(t, []int{0, 1}, []int{items[0].Order, items[1].Order})

	err = s.SetChainOrder(ctx, "s1", []string{"sci-a", "sci-x"}, base)
	assert.ErrorIs(t, err, store.ErrNotFound)
	items, err = s.ListChainItems(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b", "sci-a"}, itemIDs(items), "failed reorder leaves no trace")
}

func testChainSettings(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSetup(ctx, setup("s1", "alice", 0)))
	og := ownedGear(t, s, "og-1", "alice")

	drive, err := domain.NumberLiteral("6.0")
	require.NoError(t, err)
	it := item("sci-1", "s1", og.ID, 0)
	it.Settings = domain.Settings{"drive": drive, "mode": domain.Text("mid-hump")}
	require.NoError(t, s.CreateChainItem(ctx, it))

	got, err := s.GetChainItem(ctx, "sci-1")
	require.NoError(t, err)
	assert.Equal(t, "6.0", got.Settings["drive"].String())
	assert.True(t, got.Settings["drive"].IsNumber())
	assert.False(t, got.Settings["mode"].IsNumber())

	require.NoError(t, s.ReplaceChainItemSettings(ctx, "sci-1", domain.Settings{"level": domain.Int(8)}, base))
	got, err = s.GetChainItem(ctx, "sci-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"level"}, keys(got.Settings))

	assert.ErrorIs(t, s.ReplaceChainItemSettings(ctx, "nope", nil, base), store.ErrNotFound)
}

func keys(m domain.Settings) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func testTaxonomyCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateGenre(ctx, &domain.Genre{ID: "g1", Name: "Rock", Slug: "rock", CreatedAt: base}))
	assert.ErrorIs(t, s.CreateGenre(ctx, &domain.Genre{ID: "g2", Name: "ROCK", Slug: "rock-2", CreatedAt: base}), store.ErrAlreadyExists)
	require.NoError(t, s.CreateBand(ctx, &domain.Band{ID: "b1", Name: "Rush", Slug: "rush", GenreID: "g1", CreatedAt: base}))
	require.NoError(t, s.CreateSong(ctx, &domain.Song{ID: "s1", Title: "YYZ", BandID: "b1", Year: 1981, CreatedAt: base}))
	assert.ErrorIs(t, s.CreateSong(ctx, &domain.Song{ID: "s2", Title: "yyz", BandID: "b1", CreatedAt: base}), store.ErrAlreadyExists)
	assert.ErrorIs(t, s.CreateSong(ctx, &domain.Song{ID: "s3", Title: "Orphan", BandID: "nope", CreatedAt: base}), store.ErrNotFound)

	song, err := s.GetSong(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Rush", song.BandName())
	assert.Equal(t, "g1", song.GenreID())

	x := setup("x", "alice", 0)
	x.GenreID, x.BandID, x.SongID = "g1", "b1", "s1"
	require.NoError(t, s.CreateSetup(ctx, x))

	bands, err := s.ListBands(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, bands, 1)

	require.NoError(t, s.DeleteGenre(ctx, "g1"))
	band, err := s.GetBand(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, band.GenreID)
	bands, err = s.ListBands(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, bands)

	require.NoError(t, s.DeleteBand(ctx, "b1"))
	_, err = s.GetSong(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GlobalView().GetSetup(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, got.GenreID)
	assert.Empty(t, got.BandID)
	assert.Empty(t, got.SongID)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	assert.Empty(t, genres)
}

func testGearCatalogue(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "fender", Name: "Fender", CreatedAt: base}))
	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "vox", Name: "Vox", CreatedAt: base}))
	assert.ErrorIs(t, s.CreateBrand(ctx, &domain.Brand{ID: "dup", Name: "fender", CreatedAt: base}), store.ErrAlreadyExists)

	strat := &domain.Gear{ID: "strat", BrandID: "fender", Name: "Stratocaster",
		Kind: domain.Guitar{GuitarType: "electric", NumStrings: 6, PickupConfig: "SSS"}, CreatedAt: base}
	ac30 := &domain.Gear{ID: "ac30", BrandID: "vox", Name: "AC30",
		Kind: domain.Amplifier{AmpType: "tube", Wattage: 30}, CreatedAt: base}
	require.NoError(t, s.CreateGear(ctx, strat))
	require.NoError(t, s.CreateGear(ctx, ac30))
	assert.ErrorIs(t, s.CreateGear(ctx, &domain.Gear{ID: "x", BrandID: "nope", Name: "X", Kind: domain.Pedal{}, CreatedAt: base}), store.ErrNotFound)

	got, err := s.GetGear(ctx, "strat")
	require.NoError(t, err)
	assert.Equal(t, strat.Kind, got.Kind)
	assert.Equal(t, "Fender", got.Brand.Name)

	amps, err := s.ListGear(ctx, store.GearFilter{Categories: []domain.GearCategory{domain.CategoryAmplifier}})
	require.NoError(t, err)
	require.Len(t, amps, 1)
	assert.Equal(t, "ac30", amps[0].ID)

	byBrand, err := s.ListGear(ctx, store.GearFilter{Search: "vox"})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)

	brands, err := s.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 2)

	b, err := s.GetBrandByName(ctx, "VOX")
	require.NoError(t, err)
	assert.Equal(t, "vox", b.ID)
}

func testOwnedGear(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := ownedGear(t, s, "og-a", "alice")
	ownedGear(t, s, "og-b", "alice")
	ownedGear(t, s, "og-c", "bob")

	a.IsFavorite = true
	a.Nickname = "Green Machine"
	require.NoError(t, s.UpdateOwnedGear(ctx, a))

	list, err := s.ListOwnedGear(ctx, "alice", store.GearFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "og-a", list[0].ID)

	found, err := s.ListOwnedGear(ctx, "alice", store.GearFilter{Search: "green"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Green Machine", found[0].Label())

	counts, err := s.CountOwnedGearByCategory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.CategoryPedal])

	require.NoError(t, s.DeleteOwnedGear(ctx, "og-a"))
	assert.ErrorIs(t, s.DeleteOwnedGear(ctx, "og-a"), store.ErrNotFound)
	list, err = s.ListOwnedGear(ctx, "alice", store.GearFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "u1", DisplayName: "Tosin"}))
	require.NoError(t, s.EnsureUser(ctx, &domain.User{ID: "u1"}))

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Tosin", u.DisplayName)

	require.NoError(t, s.CreateSetup(ctx, setup("s1", "u1", 0)))
	got, err := s.GlobalView().GetSetup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Tosin", got.Owner.DisplayName)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testWithTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Repositories) error {
		require.NoError(t, tx.CreateSetup(ctx, setup("s1", "alice", 0)))
		got, err := tx.GlobalView().GetSetup(ctx, "s1")
		require.NoError(t, err, "writes are visible inside the unit")
		assert.Equal(t, "s1", got.ID)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GlobalView().GetSetup(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Repositories) error {
		return tx.CreateSetup(ctx, setup("s2", "alice", 0))
	}))
	_, err = s.GlobalView().GetSetup(ctx, "s2")
	assert.NoError(t, err)
}
