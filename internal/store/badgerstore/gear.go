package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// CreateBrand inserts a brand. Names are unique case-insensitively.
func (s *Store) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	rec := &brandRecord{
		CreatedAt: brand.CreatedAt, ID: brand.ID, Name: brand.Name, Country: brand.Country, Website: brand.Website,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		return createUnique(txn, prefixBrand, brand.ID, "brand "+brand.Name, rec,
			indexKey(prefixBrand, "name", fold(brand.Name)))
	})
}

func loadBrand(txn *badger.Txn, id string) (*domain.Brand, error) {
	var rec brandRecord
	if err := getRecord(txn, key(prefixBrand, id), &rec, "brand %s not found", id); err != nil {
		return nil, err
	}
	return rec.domain(), nil
}

// GetBrand retrieves a brand by ID.
func (s *Store) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	var b *domain.Brand
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		b, err = loadBrand(txn, id)
		return err
	})
	return b, err
}

// GetBrandByName retrieves a brand by case-insensitive name.
func (s *Store) GetBrandByName(ctx context.Context, name string) (*domain.Brand, error) {
	var b *domain.Brand
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := lookupIndex(txn, indexKey(prefixBrand, "name", fold(name)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound.WithMessagef("brand %q not found", name)
		}
		if err != nil {
			return err
		}
		b, err = loadBrand(txn, id)
		return err
	})
	return b, err
}

// ListBrands returns all brands ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	var out []*domain.Brand
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, prefixBrand, func(rec *brandRecord) error {
			out = append(out, rec.domain())
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return fold(out[i].Name) < fold(out[j].Name) })
	return out, err
}

// CreateGear inserts a catalogue entry.
func (s *Store) CreateGear(ctx context.Context, gear *domain.Gear) error {
	category, spec, err := domain.EncodeGearKind(gear.Kind)
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	rec := &gearRecord{
		CreatedAt: gear.CreatedAt, ID: gear.ID, BrandID: gear.BrandID, Name: gear.Name,
		Description: gear.Description, Category: category, Spec: spec,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireExists(txn, key(prefixBrand, gear.BrandID),
			"gear %s references a missing record", gear.Name); err != nil {
			return err
		}
		return createUnique(txn, prefixGear, gear.ID, "gear "+gear.Name, rec)
	})
}

func buildGear(txn *badger.Txn, rec *gearRecord) (*domain.Gear, error) {
	kind, err := domain.DecodeGearKind(rec.Category, rec.Spec)
	if err != nil {
		return nil, fmt.Errorf("gear %s: %w", rec.ID, err)
	}
	brand, err := optional(loadBrand(txn, rec.BrandID))
	if err != nil {
		return nil, err
	}
	return &domain.Gear{
		CreatedAt:   rec.CreatedAt,
		Kind:        kind,
		Brand:       brand,
		ID:          rec.ID,
		BrandID:     rec.BrandID,
		Name:        rec.Name,
		Description: rec.Description,
	}, nil
}

func loadGear(txn *badger.Txn, id string) (*domain.Gear, error) {
	var rec gearRecord
	if err := getRecord(txn, key(prefixGear, id), &rec, "gear %s not found", id); err != nil {
		return nil, err
	}
	return buildGear(txn, &rec)
}

// GetGear retrieves a catalogue entry with its brand.
func (s *Store) GetGear(ctx context.Context, id string) (*domain.Gear, error) {
	var g *domain.Gear
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		g, err = loadGear(txn, id)
		return err
	})
	return g, err
}

// gearMatches applies the catalogue part of a GearFilter. nickname joins the
// search when filtering owned gear.
func gearMatches(g *domain.Gear, f store.GearFilter, nickname string) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, g.Category()) {
		return false
	}
	if f.BrandID != "" && g.BrandID != f.BrandID {
		return false
	}
	if needle := fold(f.Search); needle != "" {
		brand := ""
		if g.Brand != nil {
			brand = g.Brand.Name
		}
		if !containsFold(g.Name, needle) && !containsFold(brand, needle) && !containsFold(nickname, needle) {
			return false
		}
	}
	return true
}

func brandName(g *domain.Gear) string {
	if g.Brand == nil {
		return ""
	}
	return g.Brand.Name
}

// ListGear lists catalogue entries ordered by brand then name.
func (s *Store) ListGear(ctx context.Context, filter store.GearFilter) ([]*domain.Gear, error) {
	var out []*domain.Gear
	err := s.view(ctx, func(txn *badger.Txn) error {
		var recs []*gearRecord
		if err := scan(txn, prefixGear, func(rec *gearRecord) error {
			recs = append(recs, rec)
			return nil
		}); err != nil {
			return err
		}
		for _, rec := range recs {
			g, err := buildGear(txn, rec)
			if err != nil {
				return err
			}
			if gearMatches(g, filter, "") {
				out = append(out, g)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := fold(brandName(out[i])), fold(brandName(out[j]))
		if a != b {
			return a < b
		}
		return fold(out[i].Name) < fold(out[j].Name)
	})
	return out, err
}

func ownerKey(ownerID, id string) []byte {
	return indexKey(prefixOwnedGear, "owner", ownerID, id)
}

// CreateOwnedGear records a user's claim on a catalogue entry.
func (s *Store) CreateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error {
	rec := &ownedGearRecord{
		CreatedAt: owned.CreatedAt, AcquiredAt: owned.AcquiredAt, ID: owned.ID, OwnerID: owned.OwnerID,
		GearID: owned.GearID, Nickname: owned.Nickname, SerialNumber: owned.SerialNumber,
		Notes: owned.Notes, IsFavorite: owned.IsFavorite,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireExists(txn, key(prefixGear, owned.GearID),
			"owned gear %s references a missing record", owned.ID); err != nil {
			return err
		}
		if err := createUnique(txn, prefixOwnedGear, owned.ID, "owned gear "+owned.ID, rec); err != nil {
			return err
		}
		return txn.Set(ownerKey(owned.OwnerID, owned.ID), []byte(owned.ID))
	})
}

func buildOwnedGear(txn *badger.Txn, rec *ownedGearRecord) (*domain.OwnedGear, error) {
	gear, err := optional(loadGear(txn, rec.GearID))
	if err != nil {
		return nil, err
	}
	return &domain.OwnedGear{
		CreatedAt:    rec.CreatedAt,
		AcquiredAt:   rec.AcquiredAt,
		Gear:         gear,
		ID:           rec.ID,
		OwnerID:      rec.OwnerID,
		GearID:       rec.GearID,
		Nickname:     rec.Nickname,
		SerialNumber: rec.SerialNumber,
		Notes:        rec.Notes,
		IsFavorite:   rec.IsFavorite,
	}, nil
}

func loadOwnedGear(txn *badger.Txn, id string) (*domain.OwnedGear, error) {
	var rec ownedGearRecord
	if err := getRecord(txn, key(prefixOwnedGear, id), &rec, "owned gear %s not found", id); err != nil {
		return nil, err
	}
	return buildOwnedGear(txn, &rec)
}

// GetOwnedGear retrieves an owned item with its gear and brand.
func (s *Store) GetOwnedGear(ctx context.Context, id string) (*domain.OwnedGear, error) {
	var o *domain.OwnedGear
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		o, err = loadOwnedGear(txn, id)
		return err
	})
	return o, err
}

func listOwned(txn *badger.Txn, ownerID string) ([]*domain.OwnedGear, error) {
	ids, err := scanIndex(txn, indexKey(prefixOwnedGear, "owner", ownerID, ""))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.OwnedGear, 0, len(ids))
	for _, id := range ids {
		o, err := loadOwnedGear(txn, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ListOwnedGear lists an owner's gear, favourites first then newest.
func (s *Store) ListOwnedGear(ctx context.Context, ownerID string, filter store.GearFilter) ([]*domain.OwnedGear, error) {
	var out []*domain.OwnedGear
	err := s.view(ctx, func(txn *badger.Txn) error {
		all, err := listOwned(txn, ownerID)
		if err != nil {
			return err
		}
		for _, o := range all {
			if filter.FavoritesOnly && !o.IsFavorite {
				continue
			}
			if o.Gear == nil || !gearMatches(o.Gear, filter, o.Nickname) {
				continue
			}
			out = append(out, o)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, err
}

// CountOwnedGearByCategory counts an owner's gear per category.
func (s *Store) CountOwnedGearByCategory(ctx context.Context, ownerID string) (map[domain.GearCategory]int, error) {
	counts := make(map[domain.GearCategory]int)
	err := s.view(ctx, func(txn *badger.Txn) error {
		all, err := listOwned(txn, ownerID)
		if err != nil {
			return err
		}
		for _, o := range all {
			if c := o.Category(); c != "" {
				counts[c]++
			}
		}
		return nil
	})
	return counts, err
}

// UpdateOwnedGear writes the user-editable fields of an owned item.
func (s *Store) UpdateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec ownedGearRecord
		if err := getRecord(txn, key(prefixOwnedGear, owned.ID), &rec, "owned gear %s not found", owned.ID); err != nil {
			return err
		}
		rec.Nickname = owned.Nickname
		rec.SerialNumber = owned.SerialNumber
		rec.Notes = owned.Notes
		rec.IsFavorite = owned.IsFavorite
		rec.AcquiredAt = owned.AcquiredAt
		return setJSON(txn, key(prefixOwnedGear, owned.ID), &rec)
	})
}

// DeleteOwnedGear removes an owned item and every chain item using it.
func (s *Store) DeleteOwnedGear(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec ownedGearRecord
		if err := getRecord(txn, key(prefixOwnedGear, id), &rec, "owned gear %s not found", id); err != nil {
			return err
		}
		items, err := scanIndex(txn, indexKey(prefixChainItem, "owned", id, ""))
		if err != nil {
			return err
		}
		for _, itemID := range items {
			if err := deleteChainItem(txn, itemID); err != nil {
				return err
			}
		}
		if err := txn.Delete(ownerKey(rec.OwnerID, id)); err != nil {
			return err
		}
		return txn.Delete(key(prefixOwnedGear, id))
	})
}
