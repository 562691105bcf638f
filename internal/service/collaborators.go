package service

import (
	"context"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/store"
)

// GearOwnershipProvider answers whether a user owns a piece of gear.
type GearOwnershipProvider interface {
	// OwnedGear returns the item with its gear and brand. It fails with
	// NOT_FOUND when the item is missing or owned by someone else.
	OwnedGear(ctx context.Context, ownerID, ownedGearID string) (*domain.OwnedGear, error)
}

// TaxonomyResolver loads tag references with the chain of parents they
// imply: a band with its genre, a song with its band and that band's genre.
type TaxonomyResolver interface {
	ResolveGenre(ctx context.Context, id string) (*domain.Genre, error)
	ResolveBand(ctx context.Context, id string) (*domain.Band, error)
	ResolveSong(ctx context.Context, id string) (*domain.Song, error)
}

var (
	_ GearOwnershipProvider = (*StoreOwnership)(nil)
	_ TaxonomyResolver      = (*StoreTaxonomy)(nil)
)

// StoreOwnership implements GearOwnershipProvider over a GearStore.
type StoreOwnership struct {
	gear store.GearStore
}

// NewStoreOwnership creates an ownership provider backed by gear.
func NewStoreOwnership(gear store.GearStore) *StoreOwnership {
	return &StoreOwnership{gear: gear}
}

// OwnedGear implements GearOwnershipProvider.
func (p *StoreOwnership) OwnedGear(ctx context.Context, ownerID, ownedGearID string) (*domain.OwnedGear, error) {
	owned, err := p.gear.GetOwnedGear(ctx, ownedGearID)
	if notVisible(err) || (err == nil && owned.OwnerID != ownerID) {
		return nil, domainerrors.NotFoundf("owned gear %s not found", ownedGearID).
			WithDetails(domainerrors.FieldDetails{Field: "owned_gear_id"})
	}
	if err != nil {
		return nil, translate("get owned gear", err)
	}
	return owned, nil
}

// StoreTaxonomy implements TaxonomyResolver over a TaxonomyStore. The
// store's reads already join the parent chain.
type StoreTaxonomy struct {
	taxonomy store.TaxonomyStore
}

// NewStoreTaxonomy creates a resolver backed by taxonomy.
func NewStoreTaxonomy(taxonomy store.TaxonomyStore) *StoreTaxonomy {
	return &StoreTaxonomy{taxonomy: taxonomy}
}

// ResolveGenre implements TaxonomyResolver.
func (r *StoreTaxonomy) ResolveGenre(ctx context.Context, id string) (*domain.Genre, error) {
	g, err := r.taxonomy.GetGenre(ctx, id)
	if notVisible(err) {
		return nil, missingTag("genre", id)
	}
	return g, translate("get genre", err)
}

// ResolveBand implements TaxonomyResolver.
func (r *StoreTaxonomy) ResolveBand(ctx context.Context, id string) (*domain.Band, error) {
	b, err := r.taxonomy.GetBand(ctx, id)
	if notVisible(err) {
		return nil, missingTag("band", id)
	}
	return b, translate("get band", err)
}

// ResolveSong implements TaxonomyResolver.
func (r *StoreTaxonomy) ResolveSong(ctx context.Context, id string) (*domain.Song, error) {
	s, err := r.taxonomy.GetSong(ctx, id)
	if notVisible(err) {
		return nil, missingTag("song", id)
	}
	return s, translate("get song", err)
}

func missingTag(field, id string) error {
	return domainerrors.NotFoundf("%s %s not found", field, id).
		WithDetails(domainerrors.FieldDetails{Field: field})
}

// resolveTags loads the referenced tags and normalises them.
func resolveTags(ctx context.Context, r TaxonomyResolver, genreID, bandID, songID string) (domain.Tags, error) {
	var (
		in  domain.Tags
		err error
	)
	if genreID != "" {
		if in.Genre, err = r.ResolveGenre(ctx, genreID); err != nil {
			return domain.Tags{}, err
		}
	}
	if bandID != "" {
		if in.Band, err = r.ResolveBand(ctx, bandID); err != nil {
			return domain.Tags{}, err
		}
	}
	if songID != "" {
		if in.Song, err = r.ResolveSong(ctx, songID); err != nil {
			return domain.Tags{}, err
		}
	}
	return domain.ResolveTags(in)
}
