package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

const chainItemColumns = `sci.seq, sci.id, sci.setup_id, sci.owned_gear_id, sci.position, sci.settings,
	sci.notes, sci.created_at, sci.updated_at, ` + ownedGearColumns

const chainItemJoin = `signal_chain_items sci
	JOIN owned_gear og ON og.id = sci.owned_gear_id
	JOIN gear g ON g.id = og.gear_id
	JOIN brands br ON br.id = g.brand_id`

type chainItemRow struct {
	seq                                int64
	id, setupID, ownedGearID, settings string
	createdAt, updatedAt               string
	notes                              sql.NullString
	position                           int
	owned                              ownedGearRow
}

func (r *chainItemRow) dest() []any {
	return append([]any{
		&r.seq, &r.id, &r.setupID, &r.ownedGearID, &r.position, &r.settings,
		&r.notes, &r.createdAt, &r.updatedAt,
	}, r.owned.dest()...)
}

func (r *chainItemRow) build() (*domain.SignalChainItem, error) {
	owned, err := r.owned.build()
	if err != nil {
		return nil, err
	}
	settings, err := domain.DecodeSettings([]byte(r.settings))
	if err != nil {
		return nil, err
	}
	item := &domain.SignalChainItem{
		ID:          r.id,
		SetupID:     r.setupID,
		OwnedGearID: r.ownedGearID,
		OwnedGear:   owned,
		Settings:    settings,
		Notes:       r.notes.String,
		Order:       r.position,
		Seq:         r.seq,
	}
	if item.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	return item, nil
}

func scanChainItems(rows *sql.Rows) ([]*domain.SignalChainItem, error) {
	defer rows.Close()

	var out []*domain.SignalChainItem
	for rows.Next() {
		var r chainItemRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		item, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListChainItems returns a setup's chain ordered by position then insertion.
func (s *Store) ListChainItems(ctx context.Context, setupID string) ([]*domain.SignalChainItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+chainItemColumns+` FROM `+chainItemJoin+
			` WHERE sci.setup_id = ? ORDER BY sci.position, sci.seq`, setupID)
	if err != nil {
		return nil, err
	}
	items, err := scanChainItems(rows)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.SignalChainItem{}
	}
	return items, nil
}

// chainsFor loads the chains of several setups in one query, keyed by setup id.
func (s *Store) chainsFor(ctx context.Context, setupIDs []string) (map[string][]*domain.SignalChainItem, error) {
	out := make(map[string][]*domain.SignalChainItem, len(setupIDs))
	if len(setupIDs) == 0 {
		return out, nil
	}
	ph, args := inClause(setupIDs)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+chainItemColumns+` FROM `+chainItemJoin+
			` WHERE sci.setup_id IN (`+ph+`) ORDER BY sci.setup_id, sci.position, sci.seq`, args...)
	if err != nil {
		return nil, err
	}
	items, err := scanChainItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.SetupID] = append(out[it.SetupID], it)
	}
	return out, nil
}

// GetChainItem retrieves a chain item with its owned gear.
func (s *Store) GetChainItem(ctx context.Context, itemID string) (*domain.SignalChainItem, error) {
	var r chainItemRow
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+chainItemColumns+` FROM `+chainItemJoin+` WHERE sci.id = ?`, itemID,
	).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "signal chain item %s not found", itemID)
	}
	return r.build()
}

// CountChainItems returns the length of a setup's chain.
func (s *Store) CountChainItems(ctx context.Context, setupID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signal_chain_items WHERE setup_id = ?`, setupID).Scan(&n)
	return n, err
}

// CountChainItemsBySetup returns chain lengths for the given setups.
func (s *Store) CountChainItemsBySetup(ctx context.Context, setupIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(setupIDs))
	if len(setupIDs) == 0 {
		return counts, nil
	}
	ph, args := inClause(setupIDs)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT setup_id, COUNT(*) FROM signal_chain_items WHERE setup_id IN (`+ph+`) GROUP BY setup_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// CreateChainItem inserts a chain item and sets item.Seq.
func (s *Store) CreateChainItem(ctx context.Context, item *domain.SignalChainItem) error {
	settings, err := item.Settings.Encode()
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO signal_chain_items (
			id, setup_id, owned_gear_id, position, settings, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SetupID, item.OwnedGearID, item.Order, string(settings),
		nullString(item.Notes), formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		return mapWriteErr(err, "signal chain item for owned gear "+item.OwnedGearID)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.Seq = seq
	return nil
}

// ReplaceChainItemSettings overwrites an item's settings.
func (s *Store) ReplaceChainItemSettings(ctx context.Context, itemID string, settings domain.Settings, at time.Time) error {
	data, err := settings.Encode()
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	res, err := s.conn.ExecContext(ctx,
		`UPDATE signal_chain_items SET settings = ?, updated_at = ? WHERE id = ?`,
		string(data), formatTime(at), itemID)
	if err != nil {
		return err
	}
	return requireAffected(res, "signal chain item %s not found", itemID)
}

// SetChainOrder assigns position = index to each listed item of the setup.
func (s *Store) SetChainOrder(ctx context.Context, setupID string, itemIDs []string, at time.Time) error {
	ts := formatTime(at)
	return s.atomic(ctx, func(q querier) error {
		for i, id := range itemIDs {
			res, err := q.ExecContext(ctx,
				`UPDATE signal_chain_items SET position = ?, updated_at = ? WHERE id = ? AND setup_id = ?`,
				i, ts, id, setupID)
			if err != nil {
				return err
			}
			if err := requireAffected(res, "signal chain item %s not found in setup %s", id, setupID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteChainItem removes a chain item. Remaining positions are left as is.
func (s *Store) DeleteChainItem(ctx context.Context, itemID string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM signal_chain_items WHERE id = ?`, itemID)
	if err != nil {
		return err
	}
	return requireAffected(res, "signal chain item %s not found", itemID)
}
