package badgerstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// setupView is a SetupReader restricted by a record predicate.
type setupView struct {
	s     *Store
	match func(r *setupRecord) bool
}

// ScopedView implements store.SetupStore.
func (s *Store) ScopedView(ownerID string) store.SetupReader {
	return &setupView{s: s, match: func(r *setupRecord) bool { return r.OwnerID == ownerID }}
}

// GlobalView implements store.SetupStore.
func (s *Store) GlobalView() store.SetupReader {
	return &setupView{s: s, match: func(*setupRecord) bool { return true }}
}

// PublicView implements store.SetupStore.
func (s *Store) PublicView() store.SetupReader {
	return &setupView{s: s, match: func(r *setupRecord) bool { return r.IsPublic }}
}

// VisibleTo implements store.SetupStore.
func (s *Store) VisibleTo(viewerID string) store.SetupReader {
	return &setupView{s: s, match: func(r *setupRecord) bool { return r.IsPublic || r.OwnerID == viewerID }}
}

// GetSetup returns a setup in the view with tags, owner, saves, likes and chain.
func (v *setupView) GetSetup(ctx context.Context, id string) (*domain.Setup, error) {
	var setup *domain.Setup
	err := v.s.view(ctx, func(txn *badger.Txn) error {
		var rec setupRecord
		if err := getRecord(txn, key(prefixSetup, id), &rec, "setup %s not found", id); err != nil {
			return err
		}
		if !v.match(&rec) {
			return store.ErrNotFound.WithMessagef("setup %s not found", id)
		}
		var err error
		setup, err = buildSetup(txn, &rec, true)
		return err
	})
	return setup, err
}

// ListSetups returns one page of the view.
func (v *setupView) ListSetups(ctx context.Context, filter store.SetupFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	var page *store.PaginatedResult[*domain.Setup]
	err := v.s.view(ctx, func(txn *badger.Txn) error {
		recs, err := v.matching(txn, filter)
		if err != nil {
			return err
		}
		sortRecords(recs, filter.Sort)

		pageRecs, err := store.Paginate(recs, params)
		if err != nil {
			return err
		}
		items := make([]*domain.Setup, 0, len(pageRecs.Items))
		for _, rec := range pageRecs.Items {
			setup, err := buildSetup(txn, rec, filter.WithChain)
			if err != nil {
				return err
			}
			items = append(items, setup)
		}
		page = &store.PaginatedResult[*domain.Setup]{
			Items:      items,
			NextCursor: pageRecs.NextCursor,
			HasMore:    pageRecs.HasMore,
			Total:      pageRecs.Total,
		}
		return nil
	})
	return page, err
}

// CountSetups counts the setups in the view matching filter.
func (v *setupView) CountSetups(ctx context.Context, filter store.SetupFilter) (int, error) {
	var n int
	err := v.s.view(ctx, func(txn *badger.Txn) error {
		recs, err := v.matching(txn, filter)
		n = len(recs)
		return err
	})
	return n, err
}

// matching returns the view's records that pass filter, in insertion order.
func (v *setupView) matching(txn *badger.Txn, f store.SetupFilter) ([]*setupRecord, error) {
	var recs []*setupRecord
	if err := scan(txn, prefixSetup, func(r *setupRecord) error {
		if v.match(r) && matchesFilter(r, f) {
			recs = append(recs, r)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	needle := fold(f.Search)
	if needle == "" && f.SavedBy == "" {
		return recs, nil
	}
	out := recs[:0]
	for _, r := range recs {
		if f.SavedBy != "" {
			ok, err := exists(txn, memberKey(prefixSave, r.ID, f.SavedBy))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if needle != "" {
			ok, err := searchMatches(txn, r, needle)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func matchesFilter(r *setupRecord, f store.SetupFilter) bool {
	switch {
	case f.GenreID != "" && r.GenreID != f.GenreID:
		return false
	case f.BandID != "" && r.BandID != f.BandID:
		return false
	case f.SongID != "" && r.SongID != f.SongID:
		return false
	case f.FavoritesOnly && !r.IsFavorite:
		return false
	case f.PublicOnly && !r.IsPublic:
		return false
	}
	return true
}

// searchMatches checks name, description, band name and song title.
func searchMatches(txn *badger.Txn, r *setupRecord, needle string) (bool, error) {
	if containsFold(r.Name, needle) || containsFold(r.Description, needle) {
		return true, nil
	}
	if r.BandID != "" {
		var band bandRecord
		err := getJSON(txn, key(prefixBand, r.BandID), &band)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return false, err
		}
		if containsFold(band.Name, needle) {
			return true, nil
		}
	}
	if r.SongID != "" {
		var song songRecord
		err := getJSON(txn, key(prefixSong, r.SongID), &song)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return false, err
		}
		if containsFold(song.Title, needle) {
			return true, nil
		}
	}
	return false, nil
}

// sortRecords orders records the way the SQL backend does.
func sortRecords(recs []*setupRecord, by store.SetupSort) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if by == store.SortPopular {
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		} else if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq < b.Seq
	})
}

// buildSetup rebuilds the pre-joined aggregate from its record.
func buildSetup(txn *badger.Txn, r *setupRecord, withChain bool) (*domain.Setup, error) {
	setup := &domain.Setup{
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Owner:       domain.UserRef{ID: r.OwnerID},
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		GenreID:     r.GenreID,
		BandID:      r.BandID,
		SongID:      r.SongID,
		Views:       r.Views,
		IsPublic:    r.IsPublic,
		IsFavorite:  r.IsFavorite,
	}

	var user userRecord
	switch err := getJSON(txn, key(prefixUser, r.OwnerID), &user); {
	case err == nil:
		setup.Owner.DisplayName = user.DisplayName
	case !errors.Is(err, badger.ErrKeyNotFound):
		return nil, err
	}

	var err error
	if r.GenreID != "" {
		if setup.Genre, err = optional(loadGenre(txn, r.GenreID)); err != nil {
			return nil, err
		}
	}
	if r.BandID != "" {
		if setup.Band, err = optional(loadBand(txn, r.BandID)); err != nil {
			return nil, err
		}
	}
	if r.SongID != "" {
		if setup.Song, err = optional(loadSong(txn, r.SongID)); err != nil {
			return nil, err
		}
	}

	if setup.SavedBy, err = members(txn, prefixSave, r.ID); err != nil {
		return nil, err
	}
	if setup.LikedBy, err = members(txn, prefixLike, r.ID); err != nil {
		return nil, err
	}

	if withChain {
		if setup.SignalChain, err = listChain(txn, r.ID); err != nil {
			return nil, err
		}
	}
	return setup, nil
}

// optional turns ErrNotFound into a nil value.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// updateSetups rewrites every setup record that matches.
func updateSetups(txn *badger.Txn, match func(*setupRecord) bool, mutate func(*setupRecord)) error {
	var hits []*setupRecord
	if err := scan(txn, prefixSetup, func(r *setupRecord) error {
		if match(r) {
			hits = append(hits, r)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, r := range hits {
		mutate(r)
		if err := setJSON(txn, key(prefixSetup, r.ID), r); err != nil {
			return err
		}
	}
	return nil
}

// checkTags verifies that referenced taxonomy rows exist.
func checkTags(txn *badger.Txn, s *domain.Setup) error {
	refs := []struct{ prefix, id string }{
		{prefixGenre, s.GenreID},
		{prefixBand, s.BandID},
		{prefixSong, s.SongID},
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		if err := requireExists(txn, key(ref.prefix, ref.id),
			"setup %s references a missing record", s.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateSetup inserts a setup together with any saved_by and liked_by members.
func (s *Store) CreateSetup(ctx context.Context, setup *domain.Setup) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		ok, err := exists(txn, key(prefixSetup, setup.ID))
		if err != nil {
			return err
		}
		if ok {
			return store.ErrAlreadyExists.WithMessagef("setup %s already exists", setup.ID)
		}
		if err := checkTags(txn, setup); err != nil {
			return err
		}

		rec := newSetupRecord(setup)
		if rec.Seq, err = nextSeq(txn, "setup"); err != nil {
			return err
		}
		if err := setJSON(txn, key(prefixSetup, setup.ID), rec); err != nil {
			return err
		}
		for _, u := range setup.SavedBy {
			if err := addMember(txn, prefixSave, setup.ID, u, setup.CreatedAt); err != nil {
				return err
			}
		}
		for _, u := range setup.LikedBy {
			if err := addMember(txn, prefixLike, setup.ID, u, setup.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateSetup writes the scalar fields of a setup.
func (s *Store) UpdateSetup(ctx context.Context, setup *domain.Setup) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec setupRecord
		if err := getRecord(txn, key(prefixSetup, setup.ID), &rec, "setup %s not found", setup.ID); err != nil {
			return err
		}
		if err := checkTags(txn, setup); err != nil {
			return err
		}
		rec.Name = setup.Name
		rec.Description = setup.Description
		rec.GenreID = setup.GenreID
		rec.BandID = setup.BandID
		rec.SongID = setup.SongID
		rec.IsPublic = setup.IsPublic
		rec.IsFavorite = setup.IsFavorite
		rec.UpdatedAt = setup.UpdatedAt
		return setJSON(txn, key(prefixSetup, setup.ID), &rec)
	})
}

// DeleteSetup removes a setup with its chain, saves and likes.
func (s *Store) DeleteSetup(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireExists(txn, key(prefixSetup, id), "setup %s not found", id); err != nil {
			return err
		}
		items, err := scanIndex(txn, indexKey(prefixChainItem, "setup", id, ""))
		if err != nil {
			return err
		}
		for _, itemID := range items {
			if err := deleteChainItem(txn, itemID); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, []byte(prefixSave+id+":")); err != nil {
			return err
		}
		if err := deletePrefix(txn, []byte(prefixLike+id+":")); err != nil {
			return err
		}
		return txn.Delete(key(prefixSetup, id))
	})
}

// IncrementSetupViews adds one view and returns the new total.
func (s *Store) IncrementSetupViews(ctx context.Context, id string) (int, error) {
	var views int
	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec setupRecord
		if err := getRecord(txn, key(prefixSetup, id), &rec, "setup %s not found", id); err != nil {
			return err
		}
		rec.Views++
		views = rec.Views
		return setJSON(txn, key(prefixSetup, id), &rec)
	})
	return views, err
}

// SetSetupSaved adds or removes a user from a setup's saved_by.
func (s *Store) SetSetupSaved(ctx context.Context, setupID, userID string, saved bool) error {
	return s.setMember(ctx, prefixSave, setupID, userID, saved)
}

// SetSetupLiked adds or removes a user from a setup's liked_by.
func (s *Store) SetSetupLiked(ctx context.Context, setupID, userID string, liked bool) error {
	return s.setMember(ctx, prefixLike, setupID, userID, liked)
}

func (s *Store) setMember(ctx context.Context, prefix, setupID, userID string, member bool) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if !member {
			return txn.Delete(memberKey(prefix, setupID, userID))
		}
		if err := requireExists(txn, key(prefixSetup, setupID),
			"setup %s references a missing record", setupID); err != nil {
			return err
		}
		return addMember(txn, prefix, setupID, userID, time.Now())
	})
}

func memberKey(prefix, setupID, userID string) []byte {
	return []byte(prefix + setupID + ":" + userID)
}

// addMember is a no-op when the user is already a member.
func addMember(txn *badger.Txn, prefix, setupID, userID string, at time.Time) error {
	k := memberKey(prefix, setupID, userID)
	ok, err := exists(txn, k)
	if err != nil || ok {
		return err
	}
	seq, err := nextSeq(txn, "member")
	if err != nil {
		return err
	}
	return setJSON(txn, k, &memberRecord{At: at, UserID: userID, Seq: seq})
}

// members lists user ids in the order they joined.
func members(txn *badger.Txn, prefix, setupID string) ([]string, error) {
	var recs []*memberRecord
	if err := scan(txn, prefix+setupID+":", func(r *memberRecord) error {
		recs = append(recs, r)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.UserID
	}
	return out, nil
}
