package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// setupColumns is the ordered list of columns selected in setup queries.
// Must match setupRow.dest.
const setupColumns = `s.id, s.owner_id, COALESCE(u.display_name, ''), s.name, s.description,
	s.genre_id, s.band_id, s.song_id, s.is_public, s.is_favorite, s.views, s.created_at, s.updated_at,
	sg.id, sg.name, sg.slug, sg.description, sg.created_at,
	sb.id, sb.name, sb.slug, sb.genre_id, sb.description, sb.created_at,
	so.id, so.title, so.band_id, so.year, so.created_at`

const setupJoin = `setups s
	LEFT JOIN users u ON u.id = s.owner_id
	LEFT JOIN genres sg ON sg.id = s.genre_id
	LEFT JOIN bands sb ON sb.id = s.band_id
	LEFT JOIN songs so ON so.id = s.song_id`

type setupRow struct {
	id, ownerID, ownerName, name, description string
	genreID, bandID, songID                   sql.NullString
	isPublic, isFavorite                      bool
	views                                     int
	createdAt, updatedAt                      string

	genre nullGenreRow

	bandID2, bandName, bandSlug, bandGenreID sql.NullString
	bandDescription, bandCreatedAt           sql.NullString

	songID2, songTitle, songBandID, songCreatedAt sql.NullString
	songYear                                      sql.NullInt64
}

func (r *setupRow) dest() []any {
	d := []any{
		&r.id, &r.ownerID, &r.ownerName, &r.name, &r.description,
		&r.genreID, &r.bandID, &r.songID, &r.isPublic, &r.isFavorite, &r.views, &r.createdAt, &r.updatedAt,
	}
	d = append(d, r.genre.dest()...)
	return append(d,
		&r.bandID2, &r.bandName, &r.bandSlug, &r.bandGenreID, &r.bandDescription, &r.bandCreatedAt,
		&r.songID2, &r.songTitle, &r.songBandID, &r.songYear, &r.songCreatedAt,
	)
}

func (r *setupRow) build() (*domain.Setup, error) {
	s := &domain.Setup{
		ID:          r.id,
		Owner:       domain.UserRef{ID: r.ownerID, DisplayName: r.ownerName},
		Name:        r.name,
		Description: r.description,
		GenreID:     r.genreID.String,
		BandID:      r.bandID.String,
		SongID:      r.songID.String,
		IsPublic:    r.isPublic,
		IsFavorite:  r.isFavorite,
		Views:       r.views,
		SavedBy:     []string{},
		LikedBy:     []string{},
	}

	var err error
	if s.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	if s.Genre, err = r.genre.build(); err != nil {
		return nil, err
	}

	if r.bandID2.Valid {
		s.Band = &domain.Band{
			ID:          r.bandID2.String,
			Name:        r.bandName.String,
			Slug:        r.bandSlug.String,
			GenreID:     r.bandGenreID.String,
			Description: r.bandDescription.String,
		}
		if s.Band.CreatedAt, err = parseTime(r.bandCreatedAt.String); err != nil {
			return nil, err
		}
		if s.Genre != nil && s.Genre.ID == s.Band.GenreID {
			s.Band.Genre = s.Genre
		}
	}

	if r.songID2.Valid {
		s.Song = &domain.Song{
			ID:     r.songID2.String,
			Title:  r.songTitle.String,
			BandID: r.songBandID.String,
			Year:   int(r.songYear.Int64),
		}
		if s.Song.CreatedAt, err = parseTime(r.songCreatedAt.String); err != nil {
			return nil, err
		}
		if s.Band != nil && s.Band.ID == s.Song.BandID {
			s.Song.Band = s.Band
		}
	}
	return s, nil
}

// setupView is a SetupReader restricted by a WHERE fragment on alias s.
type setupView struct {
	s      *Store
	clause string
	args   []any
}

// ScopedView implements store.SetupStore.
func (s *Store) ScopedView(ownerID string) store.SetupReader {
	return &setupView{s: s, clause: "s.owner_id = ?", args: []any{ownerID}}
}

// GlobalView implements store.SetupStore.
func (s *Store) GlobalView() store.SetupReader {
	return &setupView{s: s, clause: "1 = 1"}
}

// PublicView implements store.SetupStore.
func (s *Store) PublicView() store.SetupReader {
	return &setupView{s: s, clause: "s.is_public = 1"}
}

// VisibleTo implements store.SetupStore.
func (s *Store) VisibleTo(viewerID string) store.SetupReader {
	return &setupView{s: s, clause: "(s.is_public = 1 OR s.owner_id = ?)", args: []any{viewerID}}
}

// where renders the view restriction plus the filter.
func (v *setupView) where(f store.SetupFilter) (string, []any) {
	conds := []string{v.clause}
	args := append([]any(nil), v.args...)

	if f.GenreID != "" {
		conds = append(conds, "s.genre_id = ?")
		args = append(args, f.GenreID)
	}
	if f.BandID != "" {
		conds = append(conds, "s.band_id = ?")
		args = append(args, f.BandID)
	}
	if f.SongID != "" {
		conds = append(conds, "s.song_id = ?")
		args = append(args, f.SongID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := likePattern(q)
		conds = append(conds, `(lower(s.name) LIKE ? ESCAPE '\'
			OR lower(s.description) LIKE ? ESCAPE '\'
			OR lower(COALESCE(sb.name, '')) LIKE ? ESCAPE '\'
			OR lower(COALESCE(so.title, '')) LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p, p)
	}
	if f.SavedBy != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM setup_saves ss WHERE ss.setup_id = s.id AND ss.user_id = ?)")
		args = append(args, f.SavedBy)
	}
	if f.FavoritesOnly {
		conds = append(conds, "s.is_favorite = 1")
	}
	if f.PublicOnly {
		conds = append(conds, "s.is_public = 1")
	}
	return strings.Join(conds, " AND "), args
}

func orderBy(sort store.SetupSort) string {
	if sort == store.SortPopular {
		return "s.views DESC, s.created_at DESC, s.seq ASC"
	}
	return "s.is_favorite DESC, s.created_at DESC, s.seq ASC"
}

// GetSetup returns a setup in the view with tags, owner, saves, likes and chain.
func (v *setupView) GetSetup(ctx context.Context, id string) (*domain.Setup, error) {
	var r setupRow
	err := v.s.conn.QueryRowContext(ctx,
		`SELECT `+setupColumns+` FROM `+setupJoin+` WHERE `+v.clause+` AND s.id = ?`,
		append(append([]any(nil), v.args...), id)...,
	).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "setup %s not found", id)
	}
	setup, err := r.build()
	if err != nil {
		return nil, err
	}
	if err := v.s.hydrate(ctx, []*domain.Setup{setup}, true); err != nil {
		return nil, err
	}
	return setup, nil
}

// ListSetups returns one page of the view.
func (v *setupView) ListSetups(ctx context.Context, filter store.SetupFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, err
	}

	total, err := v.CountSetups(ctx, filter)
	if err != nil {
		return nil, err
	}

	where, args := v.where(filter)
	args = append(args, params.Limit+1, offset)
	rows, err := v.s.conn.QueryContext(ctx,
		`SELECT `+setupColumns+` FROM `+setupJoin+` WHERE `+where+
			` ORDER BY `+orderBy(filter.Sort)+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var setups []*domain.Setup
	for rows.Next() {
		var r setupRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		setup, err := r.build()
		if err != nil {
			return nil, err
		}
		setups = append(setups, setup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	page := store.NewPage(setups, offset, params.Limit)
	if err := v.s.hydrate(ctx, page.Items, filter.WithChain); err != nil {
		return nil, err
	}
	page.Total = total
	return page, nil
}

// CountSetups counts the setups in the view matching filter.
func (v *setupView) CountSetups(ctx context.Context, filter store.SetupFilter) (int, error) {
	where, args := v.where(filter)
	var n int
	err := v.s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+setupJoin+` WHERE `+where, args...).Scan(&n)
	return n, err
}

// hydrate fills saved_by, liked_by and optionally the chain for each setup.
func (s *Store) hydrate(ctx context.Context, setups []*domain.Setup, withChain bool) error {
	if len(setups) == 0 {
		return nil
	}
	ids := make([]string, len(setups))
	byID := make(map[string]*domain.Setup, len(setups))
	for i, setup := range setups {
		ids[i] = setup.ID
		byID[setup.ID] = setup
	}

	if err := s.loadMembers(ctx, "setup_saves", ids, func(setupID, userID string) {
		byID[setupID].SavedBy = append(byID[setupID].SavedBy, userID)
	}); err != nil {
		return err
	}
	if err := s.loadMembers(ctx, "setup_likes", ids, func(setupID, userID string) {
		byID[setupID].LikedBy = append(byID[setupID].LikedBy, userID)
	}); err != nil {
		return err
	}

	if !withChain {
		return nil
	}
	chains, err := s.chainsFor(ctx, ids)
	if err != nil {
		return err
	}
	for _, setup := range setups {
		setup.SignalChain = chains[setup.ID]
		if setup.SignalChain == nil {
			setup.SignalChain = []*domain.SignalChainItem{}
		}
	}
	return nil
}

// loadMembers reads a setup_saves or setup_likes table in insertion order.
func (s *Store) loadMembers(ctx context.Context, table string, setupIDs []string, add func(setupID, userID string)) error {
	ph, args := inClause(setupIDs)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT setup_id, user_id FROM `+table+` WHERE setup_id IN (`+ph+`) ORDER BY created_at, rowid`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var setupID, userID string
		if err := rows.Scan(&setupID, &userID); err != nil {
			return err
		}
		add(setupID, userID)
	}
	return rows.Err()
}

// CreateSetup inserts a setup together with any saved_by and liked_by members.
func (s *Store) CreateSetup(ctx context.Context, setup *domain.Setup) error {
	return s.atomic(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO setups (
				id, owner_id, name, description, genre_id, band_id, song_id,
				is_public, is_favorite, views, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			setup.ID, setup.Owner.ID, setup.Name, setup.Description,
			nullString(setup.GenreID), nullString(setup.BandID), nullString(setup.SongID),
			boolInt(setup.IsPublic), boolInt(setup.IsFavorite), setup.Views,
			formatTime(setup.CreatedAt), formatTime(setup.UpdatedAt),
		)
		if err != nil {
			return mapWriteErr(err, "setup "+setup.ID)
		}
		ts := formatTime(setup.CreatedAt)
		for _, u := range setup.SavedBy {
			if _, err := q.ExecContext(ctx,
				`INSERT OR IGNORE INTO setup_saves (setup_id, user_id, created_at) VALUES (?, ?, ?)`,
				setup.ID, u, ts); err != nil {
				return err
			}
		}
		for _, u := range setup.LikedBy {
			if _, err := q.ExecContext(ctx,
				`INSERT OR IGNORE INTO setup_likes (setup_id, user_id, created_at) VALUES (?, ?, ?)`,
				setup.ID, u, ts); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateSetup writes the scalar fields of a setup.
func (s *Store) UpdateSetup(ctx context.Context, setup *domain.Setup) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE setups SET
			name = ?, description = ?, genre_id = ?, band_id = ?, song_id = ?,
			is_public = ?, is_favorite = ?, updated_at = ?
		WHERE id = ?`,
		setup.Name, setup.Description,
		nullString(setup.GenreID), nullString(setup.BandID), nullString(setup.SongID),
		boolInt(setup.IsPublic), boolInt(setup.IsFavorite), formatTime(setup.UpdatedAt),
		setup.ID,
	)
	if err != nil {
		return mapWriteErr(err, "setup "+setup.ID)
	}
	return requireAffected(res, "setup %s not found", setup.ID)
}

// DeleteSetup removes a setup. Chain items, saves and likes cascade.
func (s *Store) DeleteSetup(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM setups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "setup %s not found", id)
}

// IncrementSetupViews adds one view and returns the new total.
func (s *Store) IncrementSetupViews(ctx context.Context, id string) (int, error) {
	var views int
	err := s.conn.QueryRowContext(ctx,
		`UPDATE setups SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	if err != nil {
		return 0, notFound(err, "setup %s not found", id)
	}
	return views, nil
}

// SetSetupSaved adds or removes a user from a setup's saved_by.
func (s *Store) SetSetupSaved(ctx context.Context, setupID, userID string, saved bool) error {
	return s.setMember(ctx, "setup_saves", setupID, userID, saved)
}

// SetSetupLiked adds or removes a user from a setup's liked_by.
func (s *Store) SetSetupLiked(ctx context.Context, setupID, userID string, liked bool) error {
	return s.setMember(ctx, "setup_likes", setupID, userID, liked)
}

func (s *Store) setMember(ctx context.Context, table, setupID, userID string, member bool) error {
	if member {
		_, err := s.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (setup_id, user_id, created_at) VALUES (?, ?, ?)`,
			setupID, userID, formatTime(time.Now()))
		return mapWriteErr(err, "setup "+setupID)
	}
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE setup_id = ? AND user_id = ?`, setupID, userID)
	return err
}
