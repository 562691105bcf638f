package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/id"
	"github.com/rigbook/rigbook-server/internal/store"
	"github.com/rigbook/rigbook-server/internal/validation"
)

// GearService manages the gear catalogue and what users own of it.
type GearService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewGearService creates a new gear service.
func NewGearService(st store.Store, logger *slog.Logger) *GearService {
	return &GearService{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateBrandRequest contains fields for registering a brand.
type CreateBrandRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Country string `json:"country" validate:"max=100"`
	Website string `json:"website" validate:"omitempty,url"`
}

// CreateBrand registers a manufacturer.
func (s *GearService) CreateBrand(ctx context.Context, req CreateBrandRequest) (*domain.Brand, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	brandID, err := id.Generate(id.PrefixBrand)
	if err != nil {
		return nil, fmt.Errorf("generate brand ID: %w", err)
	}
	brand := &domain.Brand{
		ID:        brandID,
		Name:      strings.TrimSpace(req.Name),
		Country:   strings.TrimSpace(req.Country),
		Website:   req.Website,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateBrand(ctx, brand); err != nil {
		return nil, translate("create brand", err)
	}
	s.logger.Info("brand created", "brand_id", brand.ID, "name", brand.Name)
	return brand, nil
}

// ListBrands lists every brand by name.
func (s *GearService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.store.ListBrands(ctx)
	return brands, translate("list brands", err)
}

// UnknownBrand returns the placeholder brand, creating it on first use.
func (s *GearService) UnknownBrand(ctx context.Context) (*domain.Brand, error) {
	brand, err := s.store.GetBrandByName(ctx, domain.UnknownBrandName)
	if err == nil {
		return brand, nil
	}
	if !notVisible(err) {
		return nil, translate("get unknown brand", err)
	}

	brand = &domain.Brand{
		ID:        id.MustGenerate(id.PrefixBrand),
		Name:      domain.UnknownBrandName,
		CreatedAt: time.Now(),
	}
	err = s.store.CreateBrand(ctx, brand)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with another caller creating it.
		brand, err = s.store.GetBrandByName(ctx, domain.UnknownBrandName)
		return brand, translate("get unknown brand", err)
	}
	if err != nil {
		return nil, translate("create unknown brand", err)
	}
	return brand, nil
}

// CreateGearRequest registers a catalogue entry. An empty BrandID files the
// gear under the Unknown brand.
type CreateGearRequest struct {
	Kind        domain.GearKind `json:"-"`
	BrandID     string          `json:"brand_id"`
	Name        string          `json:"name" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=2000"`
}

// CreateGear registers a guitar, amplifier or pedal.
func (s *GearService) CreateGear(ctx context.Context, req CreateGearRequest) (*domain.Gear, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateKind(req.Kind); err != nil {
		return nil, err
	}

	var brand *domain.Brand
	var err error
	if req.BrandID == "" {
		brand, err = s.UnknownBrand(ctx)
	} else {
		brand, err = s.store.GetBrand(ctx, req.BrandID)
		if notVisible(err) {
			return nil, domainerrors.NotFoundf("brand %s not found", req.BrandID).
				WithDetails(domainerrors.FieldDetails{Field: "brand_id"})
		}
		err = translate("get brand", err)
	}
	if err != nil {
		return nil, err
	}

	gearID, err := id.Generate(id.PrefixGear)
	if err != nil {
		return nil, fmt.Errorf("generate gear ID: %w", err)
	}
	gear := &domain.Gear{
		ID:          gearID,
		BrandID:     brand.ID,
		Brand:       brand,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Kind:        req.Kind,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateGear(ctx, gear); err != nil {
		return nil, translate("create gear", err)
	}

	s.logger.Info("gear created",
		"gear_id", gear.ID,
		"brand_id", brand.ID,
		"category", gear.Category(),
	)
	return gear, nil
}

func validateKind(k domain.GearKind) error {
	switch v := k.(type) {
	case nil:
		return domainerrors.InvalidField("category", "gear type is required")
	case domain.Guitar:
		if v.NumStrings < 0 {
			return domainerrors.InvalidField("num_strings", "num_strings must not be negative")
		}
	case domain.Amplifier:
		if v.Wattage < 0 {
			return domainerrors.InvalidField("wattage", "wattage must not be negative")
		}
	case domain.Pedal:
		return v.DefaultSettings.Validate()
	}
	return nil
}

// ListGear lists catalogue entries.
func (s *GearService) ListGear(ctx context.Context, filter store.GearFilter) ([]*domain.Gear, error) {
	filter.FavoritesOnly = false
	gear, err := s.store.ListGear(ctx, filter)
	return gear, translate("list gear", err)
}

// TakeOwnershipRequest records that the actor owns a catalogue item.
type TakeOwnershipRequest struct {
	AcquiredAt   *time.Time `json:"acquired_at"`
	GearID       string     `json:"gear_id" validate:"notblank"`
	Nickname     string     `json:"nickname" validate:"max=100"`
	SerialNumber string     `json:"serial_number" validate:"max=100"`
	Notes        string     `json:"notes" validate:"max=2000"`
	IsFavorite   bool       `json:"is_favorite"`
}

// TakeOwnership adds a catalogue item to the actor's gear.
func (s *GearService) TakeOwnership(ctx context.Context, actorID string, req TakeOwnershipRequest) (*domain.OwnedGear, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	gear, err := s.store.GetGear(ctx, req.GearID)
	if notVisible(err) {
		return nil, domainerrors.NotFoundf("gear %s not found", req.GearID).
			WithDetails(domainerrors.FieldDetails{Field: "gear_id"})
	}
	if err != nil {
		return nil, translate("get gear", err)
	}

	ownedID, err := id.Generate(id.PrefixOwnedGear)
	if err != nil {
		return nil, fmt.Errorf("generate owned gear ID: %w", err)
	}
	owned := &domain.OwnedGear{
		ID:           ownedID,
		OwnerID:      actorID,
		GearID:       gear.ID,
		Gear:         gear,
		Nickname:     strings.TrimSpace(req.Nickname),
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Notes:        req.Notes,
		IsFavorite:   req.IsFavorite,
		AcquiredAt:   req.AcquiredAt,
		CreatedAt:    time.Now(),
	}

	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if err := tx.EnsureUser(ctx, &domain.User{ID: actorID}); err != nil {
			return translate("ensure user", err)
		}
		return translate("create owned gear", tx.CreateOwnedGear(ctx, owned))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gear owned",
		"owned_gear_id", owned.ID,
		"owner_id", actorID,
		"gear_id", gear.ID,
	)
	return owned, nil
}

// OwnedGear implements GearOwnershipProvider.
func (s *GearService) OwnedGear(ctx context.Context, ownerID, ownedGearID string) (*domain.OwnedGear, error) {
	return NewStoreOwnership(s.store).OwnedGear(ctx, ownerID, ownedGearID)
}

// ListOwnedGear filters the actor's gear by category, brand, text and the
// favourite flag. Favourites come first, then newest.
func (s *GearService) ListOwnedGear(ctx context.Context, actorID string, filter store.GearFilter) ([]*domain.OwnedGear, error) {
	for _, c := range filter.Categories {
		if !c.Valid() {
			return nil, domainerrors.InvalidField("type", fmt.Sprintf("unknown gear type %q", c))
		}
	}
	filter.Search = strings.TrimSpace(filter.Search)
	owned, err := s.store.ListOwnedGear(ctx, actorID, filter)
	return owned, translate("list owned gear", err)
}

// CountOwnedGear returns how many of each category the actor owns. Every
// category is present, possibly as zero.
func (s *GearService) CountOwnedGear(ctx context.Context, actorID string) (map[domain.GearCategory]int, error) {
	counts, err := s.store.CountOwnedGearByCategory(ctx, actorID)
	if err != nil {
		return nil, translate("count owned gear", err)
	}
	for _, c := range []domain.GearCategory{domain.CategoryGuitar, domain.CategoryAmplifier, domain.CategoryPedal} {
		if _, ok := counts[c]; !ok {
			counts[c] = 0
		}
	}
	return counts, nil
}

// ToggleOwnedFavorite flips the favourite flag of one of the actor's items.
func (s *GearService) ToggleOwnedFavorite(ctx context.Context, actorID, ownedGearID string) (*domain.OwnedGear, error) {
	owned, err := s.OwnedGear(ctx, actorID, ownedGearID)
	if err != nil {
		return nil, err
	}
	owned.IsFavorite = !owned.IsFavorite
	if err := s.store.UpdateOwnedGear(ctx, owned); err != nil {
		return nil, translate("update owned gear", err)
	}
	return owned, nil
}

// ReleaseOwnership deletes one of the actor's items. Any signal chain items
// using it go with it.
func (s *GearService) ReleaseOwnership(ctx context.Context, actorID, ownedGearID string) error {
	err := s.store.WithTx(ctx, func(tx store.Repositories) error {
		if _, err := NewStoreOwnership(tx).OwnedGear(ctx, actorID, ownedGearID); err != nil {
			return err
		}
		return translate("delete owned gear", tx.DeleteOwnedGear(ctx, ownedGearID))
	})
	if err != nil {
		return err
	}
	s.logger.Info("gear released", "owned_gear_id", ownedGearID, "owner_id", actorID)
	return nil
}
