package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store/sqlite"
)

type testEnv struct {
	store    *sqlite.Store
	setups   *SetupService
	gear     *GearService
	taxonomy *TaxonomyService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gear := NewGearService(st, logger)
	return &testEnv{
		store:    st,
		setups:   NewSetupService(st, gear, NewStoreTaxonomy(st), logger),
		gear:     gear,
		taxonomy: NewTaxonomyService(st, logger),
		users:    NewUserService(st, logger),
	}
}

// ownPedal registers a pedal in the catalogue and gives it to ownerID.
func (e *testEnv) ownPedal(t *testing.T, ownerID, name string) *domain.OwnedGear {
	t.Helper()
	ctx := context.Background()

	gear, err := e.gear.CreateGear(ctx, CreateGearRequest{
		Name: name,
		Kind: domain.Pedal{PedalType: "overdrive", AvailableControls: []string{"drive", "tone", "level"}},
	})
	require.NoError(t, err)

	owned, err := e.gear.TakeOwnership(ctx, ownerID, TakeOwnershipRequest{GearID: gear.ID})
	require.NoError(t, err)
	return owned
}

func (e *testEnv) createSetup(t *testing.T, ownerID, name string, public bool) *domain.Setup {
	t.Helper()
	setup, err := e.setups.CreateSetup(context.Background(), ownerID, SetupInput{Name: name, IsPublic: public})
	require.NoError(t, err)
	return setup
}

func (e *testEnv) addGear(t *testing.T, ownerID, setupID, ownedGearID string) *domain.SignalChainItem {
	t.Helper()
	item, err := e.setups.AddGearToSetup(context.Background(), ownerID, setupID, AddGearInput{OwnedGearID: ownedGearID})
	require.NoError(t, err)
	return item
}

// tagTree creates Metal -> Metallica -> "Master of Puppets" and a second,
// unrelated genre and band.
type tagTree struct {
	metal, rock      *domain.Genre
	metallica, queen *domain.Band
	puppets          *domain.Song
}

func (e *testEnv) tags(t *testing.T) tagTree {
	t.Helper()
	ctx := context.Background()

	metal, err := e.taxonomy.CreateGenre(ctx, CreateGenreRequest{Name: "Metal"})
	require.NoError(t, err)
	rock, err := e.taxonomy.CreateGenre(ctx, CreateGenreRequest{Name: "Rock"})
	require.NoError(t, err)
	metallica, err := e.taxonomy.CreateBand(ctx, CreateBandRequest{Name: "Metallica", GenreID: metal.ID})
	require.NoError(t, err)
	queen, err := e.taxonomy.CreateBand(ctx, CreateBandRequest{Name: "Queen", GenreID: rock.ID})
	require.NoError(t, err)
	puppets, err := e.taxonomy.CreateSong(ctx, CreateSongRequest{Title: "Master of Puppets", BandID: metallica.ID, Year: 1986})
	require.NoError(t, err)

	return tagTree{metal: metal, rock: rock, metallica: metallica, queen: queen, puppets: puppets}
}

func chainIDs(items []*domain.SignalChainItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func chainOrders(items []*domain.SignalChainItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Order
	}
	return out
}

func setupIDs(setups []*domain.Setup) []string {
	out := make([]string, len(setups))
	for i, s := range setups {
		out[i] = s.ID
	}
	return out
}
