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

func chainIDs(items []*domain.SignalChainItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newChainItem(id, setupID, ownedGearID string, order int) *domain.SignalChainItem {
	return &domain.SignalChainItem{
		ID:          id,
		SetupID:     setupID,
		OwnedGearID: ownedGearID,
		Order:       order,
		Settings:    domain.Settings{},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func TestCreateChainItem_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")

	level, err := domain.NumberLiteral("7.50")
	require.NoError(t, err)
	item := newChainItem("sci-1", "setup-1", owned.ID, 0)
	item.Settings = domain.Settings{"level": level, "mode": domain.Text("hot")}
	item.Notes = "always on"
	require.NoError(t, s.CreateChainItem(ctx, item))
	assert.NotZero(t, item.Seq)

	got, err := s.GetChainItem(ctx, "sci-1")
	require.NoError(t, err)
	assert.Equal(t, "7.50", got.Settings["level"].String())
	assert.True(t, got.Settings["level"].IsNumber())
	assert.Equal(t, "hot", got.Settings["mode"].String())
	assert.Equal(t, "always on", got.Notes)
	assert.Equal(t, item.Seq, got.Seq)
	require.NotNil(t, got.OwnedGear)
	require.NotNil(t, got.OwnedGear.Gear)
	assert.Equal(t, domain.CategoryPedal, got.OwnedGear.Category())
	assert.Equal(t, "Boss", got.OwnedGear.Gear.Brand.Name)
}

func TestCreateChainItem_DuplicateOwnedGear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")

	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-1", "setup-1", owned.ID, 0)))
	err := s.CreateChainItem(ctx, newChainItem("sci-2", "setup-1", owned.ID, 1))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateChainItem_MissingSetup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owned := seedOwnedGear(t, s, "og-1", "alice")
	err := s.CreateChainItem(ctx, newChainItem("sci-1", "nope", owned.ID, 0))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListChainItems_OrderThenInsertion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	a := seedOwnedGear(t, s, "og-a", "alice")
	b := seedOwnedGear(t, s, "og-b", "alice")
	c := seedOwnedGear(t, s, "og-c", "alice")

	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-a", "setup-1", a.ID, 5)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-b", "setup-1", b.ID, 2)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-c", "setup-1", c.ID, 2)))

	items, err := s.ListChainItems(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b", "sci-c", "sci-a"}, chainIDs(items))

	n, err := s.CountChainItems(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	empty, err := s.ListChainItems(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSetChainOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	a := seedOwnedGear(t, s, "og-a", "alice")
	b := seedOwnedGear(t, s, "og-b", "alice")
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-a", "setup-1", a.ID, 0)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-b", "setup-1", b.ID, 1)))

	later := baseTime.Add(time.Hour)
	require.NoError(t, s.SetChainOrder(ctx, "setup-1", []string{"sci-b", "sci-a"}, later))

	items, err := s.ListChainItems(ctx, "setup-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-b", "sci-a"}, chainIDs(items))
	assert.Equal(t, 0, items[0].Order)
	assert.Equal(t, 1, items[1].Order)
	assert.True(t, items[0].UpdatedAt.Equal(later))
}

func TestSetChainOrder_ForeignItemRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-2", "alice", 0)))
	a := seedOwnedGear(t, s, "og-a", "alice")
	b := seedOwnedGear(t, s, "og-b", "alice")
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-a", "setup-1", a.ID, 3)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-b", "setup-2", b.ID, 0)))

	err := s.SetChainOrder(ctx, "setup-1", []string{"sci-a", "sci-b"}, baseTime)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetChainItem(ctx, "sci-a")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Order, "partial reorder must not persist")
}

func TestReplaceChainItemSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")
	item := newChainItem("sci-1", "setup-1", owned.ID, 0)
	item.Settings = domain.Settings{"gain": domain.Int(5), "tone": domain.Int(3)}
	require.NoError(t, s.CreateChainItem(ctx, item))

	require.NoError(t, s.ReplaceChainItemSettings(ctx, "sci-1", domain.Settings{"gain": domain.Int(9)}, baseTime))

	got, err := s.GetChainItem(ctx, "sci-1")
	require.NoError(t, err)
	assert.Len(t, got.Settings, 1)
	assert.Equal(t, "9", got.Settings["gain"].String())

	err = s.ReplaceChainItemSettings(ctx, "nope", domain.Settings{}, baseTime)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteChainItem_LeavesGaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	a := seedOwnedGear(t, s, "og-a", "alice")
	b := seedOwnedGear(t, s, "og-b", "alice")
	c := seedOwnedGear(t, s, "og-c", "alice")
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-a", "setup-1", a.ID, 0)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-b", "setup-1", b.ID, 1)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-c", "setup-1", c.ID, 2)))

	require.NoError(t, s.DeleteChainItem(ctx, "sci-b"))

	items, err := s.ListChainItems(ctx, "setup-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Order)
	assert.Equal(t, 2, items[1].Order)

	assert.ErrorIs(t, s.DeleteChainItem(ctx, "sci-b"), store.ErrNotFound)
}

func TestCountChainItemsBySetup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-2", "alice", 0)))
	a := seedOwnedGear(t, s, "og-a", "alice")
	b := seedOwnedGear(t, s, "og-b", "alice")
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-a", "setup-1", a.ID, 0)))
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-b", "setup-1", b.ID, 1)))

	counts, err := s.CountChainItemsBySetup(ctx, []string{"setup-1", "setup-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"setup-1": 2}, counts)

	counts, err = s.CountChainItemsBySetup(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestDeleteOwnedGear_RemovesChainItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, makeTestSetup("setup-1", "alice", 0)))
	owned := seedOwnedGear(t, s, "og-1", "alice")
	require.NoError(t, s.CreateChainItem(ctx, newChainItem("sci-1", "setup-1", owned.ID, 0)))

	require.NoError(t, s.DeleteOwnedGear(ctx, owned.ID))

	n, err := s.CountChainItems(ctx, "setup-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
