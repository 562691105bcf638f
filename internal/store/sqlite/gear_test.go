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

func TestBrands(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "brand-1", Name: "Fender", Website: "https://fender.com", CreatedAt: baseTime}))
	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "brand-2", Name: "boss", CreatedAt: baseTime}))

	err := s.CreateBrand(ctx, &domain.Brand{ID: "brand-3", Name: "FENDER", CreatedAt: baseTime})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	b, err := s.GetBrandByName(ctx, "fender")
	require.NoError(t, err)
	assert.Equal(t, "brand-1", b.ID)
	assert.Equal(t, "https://fender.com", b.Website)

	brands, err := s.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "boss", brands[0].Name)

	_, err = s.GetBrand(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGear_KindRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "brand-1", Name: "Marshall", CreatedAt: baseTime}))
	amp := &domain.Gear{
		ID:      "gear-1",
		BrandID: "brand-1",
		Name:    "JCM800",
		Kind: domain.Amplifier{
			AmpType:           "tube",
			Wattage:           100,
			HasEffectsLoop:    true,
			AvailableControls: []string{"presence", "bass", "middle", "treble"},
		},
		CreatedAt: baseTime,
	}
	require.NoError(t, s.CreateGear(ctx, amp))

	got, err := s.GetGear(ctx, "gear-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryAmplifier, got.Category())
	assert.Equal(t, amp.Kind, got.Kind)
	assert.Equal(t, "Marshall", got.Brand.Name)

	err = s.CreateGear(ctx, &domain.Gear{ID: "gear-2", BrandID: "brand-x", Name: "Ghost", Kind: domain.Guitar{GuitarType: "electric"}, CreatedAt: baseTime})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListGear_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "brand-1", Name: "Gibson", CreatedAt: baseTime}))
	require.NoError(t, s.CreateBrand(ctx, &domain.Brand{ID: "brand-2", Name: "Electro-Harmonix", CreatedAt: baseTime}))
	require.NoError(t, s.CreateGear(ctx, &domain.Gear{ID: "gear-1", BrandID: "brand-1", Name: "Les Paul", Kind: domain.Guitar{GuitarType: "electric", NumStrings: 6, PickupConfig: "HH"}, CreatedAt: baseTime}))
	require.NoError(t, s.CreateGear(ctx, &domain.Gear{ID: "gear-2", BrandID: "brand-2", Name: "Big Muff", Kind: domain.Pedal{PedalType: "fuzz"}, CreatedAt: baseTime}))

	all, err := s.ListGear(ctx, store.GearFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "gear-2", all[0].ID, "ordered by brand name")

	pedals, err := s.ListGear(ctx, store.GearFilter{Categories: []domain.GearCategory{domain.CategoryPedal}})
	require.NoError(t, err)
	require.Len(t, pedals, 1)
	assert.Equal(t, "Big Muff", pedals[0].Name)

	gibson, err := s.ListGear(ctx, store.GearFilter{Search: "gibs"})
	require.NoError(t, err)
	require.Len(t, gibson, 1)
	assert.Equal(t, "gear-1", gibson[0].ID)

	byBrand, err := s.ListGear(ctx, store.GearFilter{BrandID: "brand-2"})
	require.NoError(t, err)
	assert.Len(t, byBrand, 1)
}

func TestOwnedGear_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owned := seedOwnedGear(t, s, "og-1", "alice")
	seedOwnedGear(t, s, "og-2", "alice")
	seedOwnedGear(t, s, "og-3", "bob")

	acquired := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	owned.IsFavorite = true
	owned.SerialNumber = "SN-42"
	owned.AcquiredAt = &acquired
	require.NoError(t, s.UpdateOwnedGear(ctx, owned))

	got, err := s.GetOwnedGear(ctx, "og-1")
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "SN-42", got.SerialNumber)
	require.NotNil(t, got.AcquiredAt)
	assert.True(t, got.AcquiredAt.Equal(acquired))
	assert.Equal(t, "alice", got.OwnerID)

	list, err := s.ListOwnedGear(ctx, "alice", store.GearFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "og-1", list[0].ID, "favourites first")

	favs, err := s.ListOwnedGear(ctx, "alice", store.GearFilter{FavoritesOnly: true})
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	byNick, err := s.ListOwnedGear(ctx, "alice", store.GearFilter{Search: "orange box og-2"})
	require.NoError(t, err)
	require.Len(t, byNick, 1)
	assert.Equal(t, "og-2", byNick[0].ID)

	counts, err := s.CountOwnedGearByCategory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[domain.GearCategory]int{domain.CategoryPedal: 2}, counts)

	require.NoError(t, s.DeleteOwnedGear(ctx, "og-1"))
	_, err = s.GetOwnedGear(ctx, "og-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteOwnedGear(ctx, "og-1"), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateOwnedGear(ctx, owned), store.ErrNotFound)
}
