package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/id"
	"github.com/rigbook/rigbook-server/internal/store"
)

// chainItem loads itemID and checks it belongs to setupID. A foreign item
// reads as missing.
func chainItem(ctx context.Context, repos store.Repositories, setupID, itemID string) (*domain.SignalChainItem, error) {
	item, err := repos.GetChainItem(ctx, itemID)
	if notVisible(err) || (err == nil && item.SetupID != setupID) {
		return nil, domainerrors.NotFoundf("signal chain item %s not found in setup %s", itemID, setupID)
	}
	if err != nil {
		return nil, translate("get chain item", err)
	}
	return item, nil
}

// ListChain returns the owner's chain in read order.
func (s *SetupService) ListChain(ctx context.Context, actorID, setupID string) ([]*domain.SignalChainItem, error) {
	setup, err := ownedSetup(ctx, s.store, actorID, setupID)
	if err != nil {
		return nil, err
	}
	return setup.SignalChain, nil
}

// AddGearToSetup appends, or inserts at in.Order, one of the actor's owned
// gear items into one of the actor's setups.
//
// Order assignment is serialised per setup so concurrent appends get
// distinct positions.
func (s *SetupService) AddGearToSetup(ctx context.Context, actorID, setupID string, in AddGearInput) (_ *domain.SignalChainItem, err error) {
	defer s.observe("add_gear", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if in.Order != nil && *in.Order < 0 {
		return nil, domainerrors.InvalidField("order", "order must not be negative")
	}
	settings := in.Settings.Clone()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	itemID, err := id.Generate(id.PrefixChainItem)
	if err != nil {
		return nil, fmt.Errorf("generate chain item ID: %w", err)
	}

	unlock := s.chains.Lock(setupID)
	defer unlock()

	var item *domain.SignalChainItem
	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if _, err := ownedSetup(ctx, tx, actorID, setupID); err != nil {
			return err
		}
		owned, err := s.gear.OwnedGear(ctx, actorID, in.OwnedGearID)
		if err != nil {
			return err
		}

		order := 0
		if in.Order != nil {
			order = *in.Order
		} else if order, err = tx.CountChainItems(ctx, setupID); err != nil {
			return translate("count chain items", err)
		}

		now := s.now()
		item = &domain.SignalChainItem{
			ID:          itemID,
			SetupID:     setupID,
			OwnedGearID: owned.ID,
			OwnedGear:   owned,
			Order:       order,
			Settings:    settings,
			Notes:       in.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = tx.CreateChainItem(ctx, item)
		if errors.Is(err, store.ErrAlreadyExists) {
			return domainerrors.Conflictf("%s is already in this signal chain", owned.Label()).
				WithDetails(domainerrors.FieldDetails{Field: "owned_gear_id"})
		}
		return translate("create chain item", err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gear added to setup",
		"setup_id", setupID,
		"owner_id", actorID,
		"item_id", itemID,
		"owned_gear_id", in.OwnedGearID,
		"order", item.Order,
	)
	return item, nil
}

// RemoveGearFromSetup deletes an item from the actor's setup. Remaining
// items keep their order values.
func (s *SetupService) RemoveGearFromSetup(ctx context.Context, actorID, setupID, itemID string) (_ bool, err error) {
	defer s.observe("remove_gear", time.Now(), &err)

	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if _, err := ownedSetup(ctx, tx, actorID, setupID); err != nil {
			return err
		}
		if _, err := chainItem(ctx, tx, setupID, itemID); err != nil {
			return err
		}
		return translate("delete chain item", tx.DeleteChainItem(ctx, itemID))
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("gear removed from setup",
		"setup_id", setupID,
		"owner_id", actorID,
		"item_id", itemID,
	)
	return true, nil
}

// UpdateGearSettings replaces an item's settings wholesale.
func (s *SetupService) UpdateGearSettings(ctx context.Context, actorID, setupID, itemID string, settings domain.Settings) (_ *domain.SignalChainItem, err error) {
	defer s.observe("update_settings", time.Now(), &err)

	settings = settings.Clone()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var item *domain.SignalChainItem
	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if _, err := ownedSetup(ctx, tx, actorID, setupID); err != nil {
			return err
		}
		found, err := chainItem(ctx, tx, setupID, itemID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := tx.ReplaceChainItemSettings(ctx, itemID, settings, now); err != nil {
			return translate("replace settings", err)
		}
		found.Settings = settings
		found.UpdatedAt = now
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chain item settings replaced",
		"setup_id", setupID,
		"item_id", itemID,
		"settings", len(settings),
	)
	return item, nil
}

// ReorderSignalChain assigns order = index to each item. itemIDs must name
// every item of the chain exactly once; anything else is INVALID_ARGUMENT and
// leaves the chain untouched.
func (s *SetupService) ReorderSignalChain(ctx context.Context, actorID, setupID string, itemIDs []string) (err error) {
	defer s.observe("reorder_chain", time.Now(), &err)

	unlock := s.chains.Lock(setupID)
	defer unlock()

	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		setup, err := ownedSetup(ctx, tx, actorID, setupID)
		if err != nil {
			return err
		}
		current := make([]string, 0, len(setup.SignalChain))
		for _, it := range setup.SignalChain {
			current = append(current, it.ID)
		}
		if err := domain.ValidateReorder(current, itemIDs); err != nil {
			return err
		}
		return translate("set chain order", tx.SetChainOrder(ctx, setupID, itemIDs, s.now()))
	})
	if err != nil {
		return err
	}

	s.logger.Info("signal chain reordered",
		"setup_id", setupID,
		"owner_id", actorID,
		"items", len(itemIDs),
	)
	return nil
}
