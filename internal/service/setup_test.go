package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/store"
)

func requireCode(t *testing.T, err error, code domainerrors.Code) *domainerrors.Error {
	t.Helper()
	require.Error(t, err)
	var de *domainerrors.Error
	require.True(t, errors.As(err, &de), "expected a domain error, got %T: %v", err, err)
	require.Equal(t, code, de.Code, de.Message)
	return de
}

func TestCreateSetup_TrimsAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	setup, err := env.setups.CreateSetup(ctx, "alice", SetupInput{
		Name:        "  Clean Tone  ",
		Description: "  for ballads \n",
	})
	require.NoError(t, err)

	assert.Equal(t, "Clean Tone", setup.Name)
	assert.Equal(t, "for ballads", setup.Description)
	assert.Equal(t, "alice", setup.Owner.ID)
	assert.False(t, setup.IsPublic)
	assert.False(t, setup.IsFavorite)
	assert.Zero(t, setup.Views)
	assert.Empty(t, setup.SavedBy)
	assert.Empty(t, setup.LikedBy)
	assert.Empty(t, setup.SignalChain)
	assert.False(t, setup.CreatedAt.IsZero())
}

func TestCreateSetup_RejectsBlankName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.setups.CreateSetup(context.Background(), "alice", SetupInput{Name: " \t "})
	de := requireCode(t, err, domainerrors.CodeInvalidArgument)
	assert.Equal(t, "name", de.Field())
}

func TestCreateSetup_MissingTagIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.setups.CreateSetup(context.Background(), "alice", SetupInput{Name: "x", SongID: "song-missing"})
	de := requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "song", de.Field())
}

func TestCreateSetup_SongImpliesBandAndGenre(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)

	setup, err := env.setups.CreateSetup(context.Background(), "alice", SetupInput{
		Name:   "Puppets rhythm",
		SongID: tags.puppets.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, tags.puppets.ID, setup.SongID)
	assert.Equal(t, tags.metallica.ID, setup.BandID)
	assert.Equal(t, tags.metal.ID, setup.GenreID)
	require.NotNil(t, setup.Band)
	assert.Equal(t, "Metallica", setup.Band.Name)
}

func TestCreateSetup_BandImpliesGenre(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)

	setup, err := env.setups.CreateSetup(context.Background(), "alice", SetupInput{
		Name:   "Queen lead",
		BandID: tags.queen.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, tags.rock.ID, setup.GenreID)
	assert.Empty(t, setup.SongID)
}

func TestCreateSetup_InconsistentTags(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)
	ctx := context.Background()

	t.Run("song and band disagree", func(t *testing.T) {
		_, err := env.setups.CreateSetup(ctx, "alice", SetupInput{
			Name:   "x",
			SongID: tags.puppets.ID,
			BandID: tags.queen.ID,
		})
		de := requireCode(t, err, domainerrors.CodeInvalidArgument)
		assert.Equal(t, "band", de.Field())
		assert.Equal(t, "incorrect band, should be 'Metallica'", de.Message)
	})

	t.Run("band and genre disagree", func(t *testing.T) {
		_, err := env.setups.CreateSetup(ctx, "alice", SetupInput{
			Name:    "x",
			BandID:  tags.metallica.ID,
			GenreID: tags.rock.ID,
		})
		de := requireCode(t, err, domainerrors.CodeInvalidArgument)
		assert.Equal(t, "genre", de.Field())
		assert.Contains(t, de.Message, "Metal")
	})

	t.Run("song and genre disagree", func(t *testing.T) {
		_, err := env.setups.CreateSetup(ctx, "alice", SetupInput{
			Name:    "x",
			SongID:  tags.puppets.ID,
			GenreID: tags.rock.ID,
		})
		de := requireCode(t, err, domainerrors.CodeInvalidArgument)
		assert.Equal(t, "genre", de.Field())
	})

	page, err := env.setups.ListUserSetups(ctx, "alice", true, store.PaginationParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "rejected setups must not persist")
}

func TestUpdateSetup(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Draft", false)

	updated, err := env.setups.UpdateSetup(ctx, "alice", setup.ID, SetupInput{
		Name:     "Final",
		SongID:   tags.puppets.ID,
		IsPublic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Name)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, tags.metal.ID, updated.GenreID)

	got, err := env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, tags.metallica.ID, got.BandID)

	t.Run("not owner", func(t *testing.T) {
		_, err := env.setups.UpdateSetup(ctx, "bob", setup.ID, SetupInput{Name: "Mine now"})
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("inconsistent", func(t *testing.T) {
		_, err := env.setups.UpdateSetup(ctx, "alice", setup.ID, SetupInput{
			Name:   "Final",
			SongID: tags.puppets.ID,
			BandID: tags.queen.ID,
		})
		de := requireCode(t, err, domainerrors.CodeInvalidArgument)
		assert.Equal(t, "band", de.Field())
	})
}

func TestDeleteSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Doomed", true)
	owned := env.ownPedal(t, "alice", "SD-1")
	env.addGear(t, "alice", setup.ID, owned.ID)
	_, err := env.setups.ToggleSave(ctx, "bob", setup.ID)
	require.NoError(t, err)

	requireCode(t, env.setups.DeleteSetup(ctx, "bob", setup.ID), domainerrors.CodeNotFound)
	require.NoError(t, env.setups.DeleteSetup(ctx, "alice", setup.ID))

	_, err = env.setups.GetSetup(ctx, "alice", setup.ID)
	requireCode(t, err, domainerrors.CodeNotFound)

	saved, err := env.setups.ListSavedSetups(ctx, "bob", store.PaginationParams{})
	require.NoError(t, err)
	assert.Empty(t, saved.Items)

	// The owned gear survives; only the chain item went.
	_, err = env.gear.OwnedGear(ctx, "alice", owned.ID)
	require.NoError(t, err)
}

func TestToggleFavoriteAndOwnerOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	env.setups.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := env.createSetup(t, "alice", "first", false)
	second := env.createSetup(t, "alice", "second", false)
	third := env.createSetup(t, "alice", "third", false)

	fav, err := env.setups.ToggleFavorite(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	page, err := env.setups.ListUserSetups(ctx, "alice", true, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, third.ID, second.ID}, setupIDs(page.Items))

	favs, err := env.setups.ListFavorites(ctx, "alice", store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, setupIDs(favs.Items))

	unfav, err := env.setups.ToggleFavorite(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.False(t, unfav.IsFavorite)

	_, err = env.setups.ToggleFavorite(ctx, "bob", first.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestPublishIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Live rig", false)

	for range 2 {
		got, err := env.setups.PublishSetup(ctx, "alice", setup.ID)
		require.NoError(t, err)
		assert.True(t, got.IsPublic)
	}

	public, err := env.setups.ListPublicSetups(ctx, PublicSetupFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{setup.ID}, setupIDs(public.Items))

	for range 2 {
		got, err := env.setups.UnpublishSetup(ctx, "alice", setup.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
	}

	_, err = env.setups.PublishSetup(ctx, "bob", setup.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestToggleSave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	public := env.createSetup(t, "alice", "Public", true)
	private := env.createSetup(t, "alice", "Private", false)

	saved, err := env.setups.ToggleSave(ctx, "bob", public.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	got, err := env.setups.GetSetup(ctx, "alice", public.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got.SavedBy)

	list, err := env.setups.ListSavedSetups(ctx, "bob", store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, setupIDs(list.Items))

	saved, err = env.setups.ToggleSave(ctx, "bob", public.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	got, err = env.setups.GetSetup(ctx, "alice", public.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SavedBy)

	t.Run("private setup of another user is silently refused", func(t *testing.T) {
		saved, err := env.setups.ToggleSave(ctx, "bob", private.ID)
		require.NoError(t, err)
		assert.False(t, saved)

		got, err := env.setups.GetSetup(ctx, "alice", private.ID)
		require.NoError(t, err)
		assert.Empty(t, got.SavedBy)
	})

	t.Run("missing setup is silently refused", func(t *testing.T) {
		saved, err := env.setups.ToggleSave(ctx, "bob", "setup-missing")
		require.NoError(t, err)
		assert.False(t, saved)
	})

	t.Run("owner may save their own private setup", func(t *testing.T) {
		saved, err := env.setups.ToggleSave(ctx, "alice", private.ID)
		require.NoError(t, err)
		assert.True(t, saved)
	})
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Public", true)

	liked, err := env.setups.ToggleLike(ctx, "bob", setup.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = env.setups.ToggleLike(ctx, "carol", setup.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, got.LikedBy)
	assert.Empty(t, got.SavedBy)

	liked, err = env.setups.ToggleLike(ctx, "bob", setup.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = env.setups.UnpublishSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	liked, err = env.setups.ToggleLike(ctx, "bob", setup.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestViewSetup_CountsOnlyOtherViewers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Public", true)

	got, err := env.setups.ViewSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views)

	for want := 1; want <= 3; want++ {
		got, err := env.setups.ViewSetup(ctx, "bob", setup.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Views)
	}

	got, err = env.setups.ViewSetup(ctx, "", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Views)

	got, err = env.setups.ViewSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Views)
}

func TestViewSetup_PrivateIsNotFoundForOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Private", false)

	_, err := env.setups.ViewSetup(ctx, "bob", setup.ID)
	requireCode(t, err, domainerrors.CodeNotFound)

	got, err := env.setups.GetSetup(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views)
}

func TestIncrementViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Private", false)

	views, err := env.setups.IncrementViews(ctx, setup.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	_, err = env.setups.IncrementViews(ctx, "setup-missing")
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestListPublicSetups_FiltersAndPopularity(t *testing.T) {
	env := newTestEnv(t)
	tags := env.tags(t)
	ctx := context.Background()

	puppets, err := env.setups.CreateSetup(ctx, "alice", SetupInput{Name: "Rhythm", SongID: tags.puppets.ID, IsPublic: true})
	require.NoError(t, err)
	queen, err := env.setups.CreateSetup(ctx, "bob", SetupInput{Name: "Red Special", BandID: tags.queen.ID, IsPublic: true})
	require.NoError(t, err)
	_, err = env.setups.CreateSetup(ctx, "bob", SetupInput{Name: "Secret", BandID: tags.queen.ID})
	require.NoError(t, err)

	for range 2 {
		_, err := env.setups.ViewSetup(ctx, "carol", queen.ID)
		require.NoError(t, err)
	}

	all, err := env.setups.ListPublicSetups(ctx, PublicSetupFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{queen.ID, puppets.ID}, setupIDs(all.Items))

	byGenre, err := env.setups.ListPublicSetups(ctx, PublicSetupFilter{GenreID: tags.metal.ID}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{puppets.ID}, setupIDs(byGenre.Items))

	bySongTitle, err := env.setups.ListPublicSetups(ctx, PublicSetupFilter{Search: "master OF"}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{puppets.ID}, setupIDs(bySongTitle.Items))

	byBandName, err := env.setups.ListPublicSetups(ctx, PublicSetupFilter{Search: "QUEEN"}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{queen.ID}, setupIDs(byBandName.Items))
}

func TestListUserSetups_IncludePrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	public := env.createSetup(t, "alice", "Public", true)
	env.createSetup(t, "alice", "Private", false)
	env.createSetup(t, "bob", "Not mine", true)

	all, err := env.setups.ListUserSetups(ctx, "alice", true, store.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	onlyPublic, err := env.setups.ListUserSetups(ctx, "alice", false, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, setupIDs(onlyPublic.Items))
}

func TestGetStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createSetup(t, "alice", "A", true)
	b := env.createSetup(t, "alice", "B", false)
	env.createSetup(t, "alice", "C", false)
	env.createSetup(t, "bob", "Other", true)

	_, err := env.setups.ToggleFavorite(ctx, "alice", b.ID)
	require.NoError(t, err)

	og1 := env.ownPedal(t, "alice", "DS-1")
	og2 := env.ownPedal(t, "alice", "TS9")
	env.addGear(t, "alice", a.ID, og1.ID)
	env.addGear(t, "alice", a.ID, og2.ID)
	env.addGear(t, "alice", b.ID, og1.ID)

	stats, err := env.setups.GetStatistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &domain.SetupStatistics{
		Public:            1,
		Private:           2,
		Favorites:         1,
		TotalSetups:       3,
		TotalGearInChains: 3,
	}, stats)

	empty, err := env.setups.GetStatistics(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, &domain.SetupStatistics{}, empty)
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveSetupOperation(op, outcome string, _ time.Duration) {
	r.calls = append(r.calls, op+":"+outcome)
}

func TestSetupService_ObservesOutcomes(t *testing.T) {
	env := newTestEnv(t)
	obs := &recordingObserver{}
	env.setups.SetObserver(obs)
	ctx := context.Background()

	setup := env.createSetup(t, "alice", "Observed", false)
	_, err := env.setups.ToggleFavorite(ctx, "bob", setup.ID)
	require.Error(t, err)

	assert.Equal(t, []string{"create_setup:ok", "toggle_favorite:NOT_FOUND"}, obs.calls)
}
