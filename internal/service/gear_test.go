package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/store"
)

func TestGearService_UnknownBrandCreatedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.gear.UnknownBrand(ctx)
	require.NoError(t, err)
	second, err := env.gear.UnknownBrand(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.IsUnknown())

	gear, err := env.gear.CreateGear(ctx, CreateGearRequest{
		Name: "Homebrew fuzz",
		Kind: domain.Pedal{PedalType: "fuzz"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, gear.BrandID)
	assert.Equal(t, "Homebrew fuzz", gear.DisplayName())
}

func TestGearService_CreateGearValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.gear.CreateGear(ctx, CreateGearRequest{Name: "No kind"})
	requireCode(t, err, domainerrors.CodeInvalidArgument)

	_, err = env.gear.CreateGear(ctx, CreateGearRequest{Name: "  ", Kind: domain.Guitar{GuitarType: "electric"}})
	requireCode(t, err, domainerrors.CodeInvalidArgument)

	_, err = env.gear.CreateGear(ctx, CreateGearRequest{Name: "Orphan", BrandID: "brand-missing", Kind: domain.Guitar{}})
	de := requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "brand_id", de.Field())

	_, err = env.gear.CreateBrand(ctx, CreateBrandRequest{Name: "Fender", Website: "not a url"})
	requireCode(t, err, domainerrors.CodeInvalidArgument)
}

func TestGearService_DuplicateBrandIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.gear.CreateBrand(ctx, CreateBrandRequest{Name: "Marshall", Country: "UK"})
	require.NoError(t, err)
	_, err = env.gear.CreateBrand(ctx, CreateBrandRequest{Name: "marshall"})
	requireCode(t, err, domainerrors.CodeConflict)
}

func TestGearService_OwnedGearFiltersAndCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fender, err := env.gear.CreateBrand(ctx, CreateBrandRequest{Name: "Fender"})
	require.NoError(t, err)
	marshall, err := env.gear.CreateBrand(ctx, CreateBrandRequest{Name: "Marshall"})
	require.NoError(t, err)

	strat, err := env.gear.CreateGear(ctx, CreateGearRequest{
		BrandID: fender.ID, Name: "Stratocaster",
		Kind: domain.Guitar{GuitarType: "electric", NumStrings: 6, PickupConfig: "SSS"},
	})
	require.NoError(t, err)
	jcm, err := env.gear.CreateGear(ctx, CreateGearRequest{
		BrandID: marshall.ID, Name: "JCM800",
		Kind: domain.Amplifier{AmpType: "tube", Wattage: 100, AvailableControls: []string{"gain", "bass"}},
	})
	require.NoError(t, err)

	myStrat, err := env.gear.TakeOwnership(ctx, "alice", TakeOwnershipRequest{GearID: strat.ID, Nickname: "Blackie"})
	require.NoError(t, err)
	myAmp, err := env.gear.TakeOwnership(ctx, "alice", TakeOwnershipRequest{GearID: jcm.ID})
	require.NoError(t, err)
	_, err = env.gear.TakeOwnership(ctx, "bob", TakeOwnershipRequest{GearID: jcm.ID})
	require.NoError(t, err)

	assert.Equal(t, "Blackie", myStrat.Label())
	assert.Equal(t, "Marshall JCM800", myAmp.Label())

	guitars, err := env.gear.ListOwnedGear(ctx, "alice", store.GearFilter{Categories: []domain.GearCategory{domain.CategoryGuitar}})
	require.NoError(t, err)
	require.Len(t, guitars, 1)
	assert.Equal(t, myStrat.ID, guitars[0].ID)

	byNickname, err := env.gear.ListOwnedGear(ctx, "alice", store.GearFilter{Search: "blackie"})
	require.NoError(t, err)
	require.Len(t, byNickname, 1)

	byBrand, err := env.gear.ListOwnedGear(ctx, "alice", store.GearFilter{BrandID: marshall.ID})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, myAmp.ID, byBrand[0].ID)

	_, err = env.gear.ToggleOwnedFavorite(ctx, "alice", myAmp.ID)
	require.NoError(t, err)
	favs, err := env.gear.ListOwnedGear(ctx, "alice", store.GearFilter{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, myAmp.ID, favs[0].ID)

	_, err = env.gear.ListOwnedGear(ctx, "alice", store.GearFilter{Categories: []domain.GearCategory{"synth"}})
	requireCode(t, err, domainerrors.CodeInvalidArgument)

	counts, err := env.gear.CountOwnedGear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[domain.GearCategory]int{
		domain.CategoryGuitar:    1,
		domain.CategoryAmplifier: 1,
		domain.CategoryPedal:     0,
	}, counts)

	_, err = env.gear.ToggleOwnedFavorite(ctx, "bob", myAmp.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestGearService_TakeOwnershipOfMissingGear(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.gear.TakeOwnership(context.Background(), "alice", TakeOwnershipRequest{GearID: "gear-missing"})
	de := requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "gear_id", de.Field())
}
