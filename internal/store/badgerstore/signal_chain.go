package badgerstore

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

func chainSetupKey(setupID, itemID string) []byte {
	return indexKey(prefixChainItem, "setup", setupID, itemID)
}

func chainPairKey(setupID, ownedGearID string) []byte {
	return indexKey(prefixChainItem, "pair", setupID, ownedGearID)
}

func chainOwnedKey(ownedGearID, itemID string) []byte {
	return indexKey(prefixChainItem, "owned", ownedGearID, itemID)
}

func loadChainItem(txn *badger.Txn, id string) (*domain.SignalChainItem, error) {
	var rec chainItemRecord
	if err := getRecord(txn, key(prefixChainItem, id), &rec, "signal chain item %s not found", id); err != nil {
		return nil, err
	}
	owned, err := optional(loadOwnedGear(txn, rec.OwnedGearID))
	if err != nil {
		return nil, err
	}
	settings := rec.Settings
	if settings == nil {
		settings = domain.Settings{}
	}
	return &domain.SignalChainItem{
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		OwnedGear:   owned,
		Settings:    settings,
		ID:          rec.ID,
		SetupID:     rec.SetupID,
		OwnedGearID: rec.OwnedGearID,
		Notes:       rec.Notes,
		Order:       rec.Order,
		Seq:         rec.Seq,
	}, nil
}

// listChain returns a setup's items in read order.
func listChain(txn *badger.Txn, setupID string) ([]*domain.SignalChainItem, error) {
	ids, err := scanIndex(txn, indexKey(prefixChainItem, "setup", setupID, ""))
	if err != nil {
		return nil, err
	}
	items := make([]*domain.SignalChainItem, 0, len(ids))
	for _, id := range ids {
		item, err := loadChainItem(txn, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	domain.SortChain(items)
	return items, nil
}

// ListChainItems returns a setup's chain ordered by position then insertion.
func (s *Store) ListChainItems(ctx context.Context, setupID string) ([]*domain.SignalChainItem, error) {
	var items []*domain.SignalChainItem
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		items, err = listChain(txn, setupID)
		return err
	})
	return items, err
}

// GetChainItem retrieves a chain item with its owned gear.
func (s *Store) GetChainItem(ctx context.Context, itemID string) (*domain.SignalChainItem, error) {
	var item *domain.SignalChainItem
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		item, err = loadChainItem(txn, itemID)
		return err
	})
	return item, err
}

// CountChainItems returns the length of a setup's chain.
func (s *Store) CountChainItems(ctx context.Context, setupID string) (int, error) {
	var n int
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := scanIndex(txn, indexKey(prefixChainItem, "setup", setupID, ""))
		n = len(ids)
		return err
	})
	return n, err
}

// CountChainItemsBySetup returns chain lengths for the given setups.
func (s *Store) CountChainItemsBySetup(ctx context.Context, setupIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(setupIDs))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range setupIDs {
			ids, err := scanIndex(txn, indexKey(prefixChainItem, "setup", id, ""))
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				counts[id] = len(ids)
			}
		}
		return nil
	})
	return counts, err
}

// CreateChainItem inserts a chain item and sets item.Seq.
func (s *Store) CreateChainItem(ctx context.Context, item *domain.SignalChainItem) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, key(prefixChainItem, item.ID)); err != nil {
			return err
		} else if ok {
			return store.ErrAlreadyExists.WithMessagef("signal chain item %s already exists", item.ID)
		}
		if err := requireExists(txn, key(prefixSetup, item.SetupID),
			"signal chain item for owned gear %s references a missing record", item.OwnedGearID); err != nil {
			return err
		}
		if err := requireExists(txn, key(prefixOwnedGear, item.OwnedGearID),
			"signal chain item for owned gear %s references a missing record", item.OwnedGearID); err != nil {
			return err
		}
		if ok, err := exists(txn, chainPairKey(item.SetupID, item.OwnedGearID)); err != nil {
			return err
		} else if ok {
			return store.ErrAlreadyExists.WithMessagef("signal chain item for owned gear %s already exists", item.OwnedGearID)
		}

		seq, err := nextSeq(txn, "chain")
		if err != nil {
			return err
		}
		rec := &chainItemRecord{
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
			Settings:    item.Settings.Clone(),
			ID:          item.ID,
			SetupID:     item.SetupID,
			OwnedGearID: item.OwnedGearID,
			Notes:       item.Notes,
			Order:       item.Order,
			Seq:         seq,
		}
		if err := setJSON(txn, key(prefixChainItem, item.ID), rec); err != nil {
			return err
		}
		for _, k := range [][]byte{
			chainSetupKey(item.SetupID, item.ID),
			chainPairKey(item.SetupID, item.OwnedGearID),
			chainOwnedKey(item.OwnedGearID, item.ID),
		} {
			if err := txn.Set(k, []byte(item.ID)); err != nil {
				return err
			}
		}
		item.Seq = seq
		return nil
	})
}

// ReplaceChainItemSettings overwrites an item's settings.
func (s *Store) ReplaceChainItemSettings(ctx context.Context, itemID string, settings domain.Settings, at time.Time) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec chainItemRecord
		if err := getRecord(txn, key(prefixChainItem, itemID), &rec, "signal chain item %s not found", itemID); err != nil {
			return err
		}
		rec.Settings = settings.Clone()
		rec.UpdatedAt = at
		return setJSON(txn, key(prefixChainItem, itemID), &rec)
	})
}

// SetChainOrder assigns order = index to each listed item of the setup.
func (s *Store) SetChainOrder(ctx context.Context, setupID string, itemIDs []string, at time.Time) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		for i, id := range itemIDs {
			var rec chainItemRecord
			if err := getRecord(txn, key(prefixChainItem, id), &rec,
				"signal chain item %s not found in setup %s", id, setupID); err != nil {
				return err
			}
			if rec.SetupID != setupID {
				return store.ErrNotFound.WithMessagef("signal chain item %s not found in setup %s", id, setupID)
			}
			rec.Order = i
			rec.UpdatedAt = at
			if err := setJSON(txn, key(prefixChainItem, id), &rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteChainItem removes a chain item. Remaining orders are left as is.
func (s *Store) DeleteChainItem(ctx context.Context, itemID string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return deleteChainItem(txn, itemID)
	})
}

func deleteChainItem(txn *badger.Txn, itemID string) error {
	var rec chainItemRecord
	if err := getRecord(txn, key(prefixChainItem, itemID), &rec, "signal chain item %s not found", itemID); err != nil {
		return err
	}
	for _, k := range [][]byte{
		chainSetupKey(rec.SetupID, itemID),
		chainPairKey(rec.SetupID, rec.OwnedGearID),
		chainOwnedKey(rec.OwnedGearID, itemID),
		key(prefixChainItem, itemID),
	} {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
