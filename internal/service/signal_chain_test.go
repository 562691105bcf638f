package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

func TestAddGearToSetup_AppendsInOrder(t *testing.T) {
	env := newTestEnv(t)
	setup := env.createSetup(t, "alice", "Chain", false)

	var want []string
	for _, name := range []string{"TS9", "DD-3", "RV-6"} {
		owned := env.ownPedal(t, "alice", name)
		item := env.addGear(t, "alice", setup.ID, owned.ID)
		assert.Empty(t, item.Settings)
		assert.NotNil(t, item.Settings)
		want = append(want, item.ID)
	}

	chain, err := env.setups.ListChain(context.Background(), "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, want, chainIDs(chain))
	assert.Equal(t, []int{0, 1, 2}, chainOrders(chain))
	assert.Equal(t, "TS9", chain[0].OwnedGear.Label())
}

func TestAddGearToSetup_ExplicitOrderAndTies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Chain", false)
	a := env.ownPedal(t, "alice", "A")
	b := env.ownPedal(t, "alice", "B")
	c := env.ownPedal(t, "alice", "C")

	five := 5
	zero := 0
	itemA, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: a.ID, Order: &five})
	require.NoError(t, err)
	itemB, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: b.ID, Order: &zero})
	require.NoError(t, err)
	itemC, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: c.ID, Order: &zero})
	require.NoError(t, err)

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{itemB.ID, itemC.ID, itemA.ID}, chainIDs(chain))

	negative := -1
	_, err = env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: a.ID, Order: &negative})
	de := requireCode(t, err, domainerrors.CodeInvalidArgument)
	assert.Equal(t, "order", de.Field())
}

func TestAddGearToSetup_DuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Chain", false)
	owned := env.ownPedal(t, "alice", "Big Muff")
	env.addGear(t, "alice", setup.ID, owned.ID)

	_, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: owned.ID})
	requireCode(t, err, domainerrors.CodeConflict)

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Len(t, chain, 1)
}

func TestAddGearToSetup_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alicePublic := env.createSetup(t, "alice", "Public", true)
	aliceGear := env.ownPedal(t, "alice", "Fuzz Face")
	bobGear := env.ownPedal(t, "bob", "Tube Screamer")

	t.Run("setup not owned, even when public", func(t *testing.T) {
		_, err := env.setups.AddGearToSetup(ctx, "bob", alicePublic.ID, AddGearInput{OwnedGearID: bobGear.ID})
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("gear not owned", func(t *testing.T) {
		_, err := env.setups.AddGearToSetup(ctx, "alice", alicePublic.ID, AddGearInput{OwnedGearID: bobGear.ID})
		de := requireCode(t, err, domainerrors.CodeNotFound)
		assert.Equal(t, "owned_gear_id", de.Field())
	})

	t.Run("gear missing", func(t *testing.T) {
		_, err := env.setups.AddGearToSetup(ctx, "alice", alicePublic.ID, AddGearInput{OwnedGearID: "og-missing"})
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	chain, err := env.setups.ListChain(ctx, "alice", alicePublic.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)

	env.addGear(t, "alice", alicePublic.ID, aliceGear.ID)
}

func TestAddGearToSetup_ConcurrentAppendsGetDistinctOrders(t *testing.T) {
	env := newTestEnv(t)
	setup := env.createSetup(t, "alice", "Race", false)

	const n = 8
	owned := make([]*domain.OwnedGear, n)
	for i := range owned {
		owned[i] = env.ownPedal(t, "alice", "pedal")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.setups.AddGearToSetup(context.Background(), "alice", setup.ID,
				AddGearInput{OwnedGearID: owned[i].ID})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	chain, err := env.setups.ListChain(context.Background(), "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, chainOrders(chain))
	assert.Zero(t, env.setups.chains.len())
}

func TestRemoveGearFromSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Public", true)
	other := env.createSetup(t, "alice", "Other", false)

	a := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "A").ID)
	b := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "B").ID)
	c := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "C").ID)

	t.Run("non-owner of a public setup", func(t *testing.T) {
		_, err := env.setups.RemoveGearFromSetup(ctx, "bob", setup.ID, b.ID)
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("item of another setup", func(t *testing.T) {
		_, err := env.setups.RemoveGearFromSetup(ctx, "alice", other.ID, b.ID)
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	ok, err := env.setups.RemoveGearFromSetup(ctx, "alice", setup.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, chainIDs(chain))
	assert.Equal(t, []int{0, 2}, chainOrders(chain), "removal leaves a gap")

	// Appending after a gap uses the item count, so it ties with C and sorts after it.
	d := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "D").ID)
	chain, err = env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, d.ID}, chainIDs(chain))

	_, err = env.setups.RemoveGearFromSetup(ctx, "alice", setup.ID, b.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestUpdateGearSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Tone", false)
	other := env.createSetup(t, "alice", "Other", false)
	owned := env.ownPedal(t, "alice", "Klon")

	var initial domain.Settings
	require.NoError(t, json.Unmarshal([]byte(`{"gain": 7.50, "tone": "noon", "level": 10}`), &initial))
	item, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: owned.ID, Settings: initial})
	require.NoError(t, err)

	var replacement domain.Settings
	require.NoError(t, json.Unmarshal([]byte(`{"gain": 3, "treble": "1e2"}`), &replacement))
	updated, err := env.setups.UpdateGearSettings(ctx, "alice", setup.ID, item.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, replacement, updated.Settings)

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	raw, err := json.Marshal(chain[0].Settings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gain": 3, "treble": "1e2"}`, string(raw), "settings are replaced, not merged")

	t.Run("item of another setup leaves settings untouched", func(t *testing.T) {
		_, err := env.setups.UpdateGearSettings(ctx, "alice", other.ID, item.ID, domain.Settings{"gain": domain.Int(1)})
		requireCode(t, err, domainerrors.CodeNotFound)

		chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
		require.NoError(t, err)
		assert.Equal(t, "3", chain[0].Settings["gain"].String())
	})

	t.Run("not owner", func(t *testing.T) {
		_, err := env.setups.UpdateGearSettings(ctx, "bob", setup.ID, item.ID, domain.Settings{})
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := env.setups.UpdateGearSettings(ctx, "alice", setup.ID, item.ID, domain.Settings{"": domain.Int(1)})
		de := requireCode(t, err, domainerrors.CodeInvalidArgument)
		assert.Equal(t, "settings", de.Field())
	})
}

func TestSettingsKeepNumberLiterals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Literal", false)
	owned := env.ownPedal(t, "alice", "Rat")

	const body = `{"distortion":7.50,"filter":1E3,"mode":"vintage","level":-0.0}`
	var settings domain.Settings
	require.NoError(t, json.Unmarshal([]byte(body), &settings))
	_, err := env.setups.AddGearToSetup(ctx, "alice", setup.ID, AddGearInput{OwnedGearID: owned.ID, Settings: settings})
	require.NoError(t, err)

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	got := chain[0].Settings
	assert.Equal(t, "7.50", got["distortion"].String())
	assert.Equal(t, "1E3", got["filter"].String())
	assert.Equal(t, "-0.0", got["level"].String())
	assert.False(t, got["mode"].IsNumber())
}

func TestReorderSignalChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Reorder", false)
	a := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "A").ID)
	b := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "B").ID)
	c := env.addGear(t, "alice", setup.ID, env.ownPedal(t, "alice", "C").ID)

	require.NoError(t, env.setups.ReorderSignalChain(ctx, "alice", setup.ID, []string{c.ID, a.ID, b.ID}))

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, chainIDs(chain))
	assert.Equal(t, []int{0, 1, 2}, chainOrders(chain))

	rejected := map[string][]string{
		"missing":   {c.ID, a.ID},
		"extra":     {c.ID, a.ID, b.ID, "sci-extra"},
		"duplicate": {c.ID, a.ID, a.ID},
		"collapsed": {c.ID, c.ID, a.ID, b.ID},
		"empty":     {},
	}
	for name, ids := range rejected {
		t.Run(name, func(t *testing.T) {
			err := env.setups.ReorderSignalChain(ctx, "alice", setup.ID, ids)
			de := requireCode(t, err, domainerrors.CodeInvalidArgument)
			assert.Equal(t, "item_ids", de.Field())

			chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{c.ID, a.ID, b.ID}, chainIDs(chain))
		})
	}

	t.Run("not owner", func(t *testing.T) {
		err := env.setups.ReorderSignalChain(ctx, "bob", setup.ID, []string{a.ID, b.ID, c.ID})
		requireCode(t, err, domainerrors.CodeNotFound)
	})
}

func TestReleaseOwnershipRemovesChainItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setup := env.createSetup(t, "alice", "Sold", false)
	owned := env.ownPedal(t, "alice", "Sold pedal")
	env.addGear(t, "alice", setup.ID, owned.ID)

	requireCode(t, env.gear.ReleaseOwnership(ctx, "bob", owned.ID), domainerrors.CodeNotFound)
	require.NoError(t, env.gear.ReleaseOwnership(ctx, "alice", owned.ID))

	chain, err := env.setups.ListChain(ctx, "alice", setup.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)
}
