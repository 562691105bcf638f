package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

// brandColumns is the ordered list of columns selected in brand queries.
// Must match the scan order in scanBrand.
const brandColumns = `id, name, country, website, created_at`

func scanBrand(scanner interface{ Scan(dest ...any) error }) (*domain.Brand, error) {
	var (
		b         domain.Brand
		country   sql.NullString
		website   sql.NullString
		createdAt string
	)
	if err := scanner.Scan(&b.ID, &b.Name, &country, &website, &createdAt); err != nil {
		return nil, err
	}
	b.Country = country.String
	b.Website = website.String

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// gearJoin selects gear with its brand. gearRow scans it.
const gearJoin = `gear g JOIN brands br ON br.id = g.brand_id`

const gearColumns = `g.id, g.brand_id, g.name, g.description, g.category, g.spec, g.created_at,
	br.name, br.country, br.website, br.created_at`

type gearRow struct {
	id, brandID, name, category, spec, createdAt string
	description                                 sql.NullString
	brandName, brandCreatedAt                   string
	brandCountry, brandWebsite                  sql.NullString
}

func (r *gearRow) dest() []any {
	return []any{
		&r.id, &r.brandID, &r.name, &r.description, &r.category, &r.spec, &r.createdAt,
		&r.brandName, &r.brandCountry, &r.brandWebsite, &r.brandCreatedAt,
	}
}

func (r *gearRow) build() (*domain.Gear, error) {
	kind, err := domain.DecodeGearKind(domain.GearCategory(r.category), []byte(r.spec))
	if err != nil {
		return nil, fmt.Errorf("gear %s: %w", r.id, err)
	}
	g := &domain.Gear{
		ID:          r.id,
		BrandID:     r.brandID,
		Name:        r.name,
		Description: r.description.String,
		Kind:        kind,
		Brand: &domain.Brand{
			ID:      r.brandID,
			Name:    r.brandName,
			Country: r.brandCountry.String,
			Website: r.brandWebsite.String,
		},
	}
	if g.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if g.Brand.CreatedAt, err = parseTime(r.brandCreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// ownedGearJoin selects owned gear with gear and brand. ownedGearRow scans it.
const ownedGearJoin = `owned_gear og JOIN gear g ON g.id = og.gear_id JOIN brands br ON br.id = g.brand_id`

const ownedGearColumns = `og.id, og.owner_id, og.gear_id, og.nickname, og.serial_number, og.notes,
	og.is_favorite, og.acquired_at, og.created_at, ` + gearColumns

type ownedGearRow struct {
	id, ownerID, gearID, createdAt string
	nickname, serial, notes        sql.NullString
	acquiredAt                     sql.NullString
	isFavorite                     bool
	gear                           gearRow
}

func (r *ownedGearRow) dest() []any {
	return append([]any{
		&r.id, &r.ownerID, &r.gearID, &r.nickname, &r.serial, &r.notes,
		&r.isFavorite, &r.acquiredAt, &r.createdAt,
	}, r.gear.dest()...)
}

func (r *ownedGearRow) build() (*domain.OwnedGear, error) {
	gear, err := r.gear.build()
	if err != nil {
		return nil, err
	}
	o := &domain.OwnedGear{
		ID:           r.id,
		OwnerID:      r.ownerID,
		GearID:       r.gearID,
		Gear:         gear,
		Nickname:     r.nickname.String,
		SerialNumber: r.serial.String,
		Notes:        r.notes.String,
		IsFavorite:   r.isFavorite,
	}
	if o.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if o.AcquiredAt, err = parseNullableTime(r.acquiredAt); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateBrand inserts a brand. Names are unique case-insensitively.
func (s *Store) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO brands (`+brandColumns+`) VALUES (?, ?, ?, ?, ?)`,
		brand.ID, brand.Name, nullString(brand.Country), nullString(brand.Website), formatTime(brand.CreatedAt),
	)
	return mapWriteErr(err, "brand "+brand.Name)
}

// GetBrand retrieves a brand by ID.
func (s *Store) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	b, err := scanBrand(s.conn.QueryRowContext(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "brand %s not found", id)
	}
	return b, nil
}

// GetBrandByName retrieves a brand by case-insensitive name.
func (s *Store) GetBrandByName(ctx context.Context, name string) (*domain.Brand, error) {
	b, err := scanBrand(s.conn.QueryRowContext(ctx, `SELECT `+brandColumns+` FROM brands WHERE name = ?`, name))
	if err != nil {
		return nil, notFound(err, "brand %q not found", name)
	}
	return b, nil
}

// ListBrands returns all brands ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+brandColumns+` FROM brands ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateGear inserts a catalogue entry.
func (s *Store) CreateGear(ctx context.Context, gear *domain.Gear) error {
	category, spec, err := domain.EncodeGearKind(gear.Kind)
	if err != nil {
		return store.ErrInvalidInput.WithCause(err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO gear (id, brand_id, name, description, category, spec, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gear.ID, gear.BrandID, gear.Name, nullString(gear.Description), string(category), string(spec), formatTime(gear.CreatedAt),
	)
	return mapWriteErr(err, "gear "+gear.Name)
}

// GetGear retrieves a catalogue entry with its brand.
func (s *Store) GetGear(ctx context.Context, id string) (*domain.Gear, error) {
	var r gearRow
	err := s.conn.QueryRowContext(ctx, `SELECT `+gearColumns+` FROM `+gearJoin+` WHERE g.id = ?`, id).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "gear %s not found", id)
	}
	return r.build()
}

// gearFilterClause renders the shared part of GearFilter. nickname adds the
// owned-gear nickname to the search columns.
func gearFilterClause(f store.GearFilter, nickname bool) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if len(f.Categories) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?, ", len(f.Categories)), ", ")
		where = append(where, "g.category IN ("+ph+")")
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.BrandID != "" {
		where = append(where, "g.brand_id = ?")
		args = append(args, f.BrandID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := likePattern(q)
		cond := `lower(g.name) LIKE ? ESCAPE '\' OR lower(br.name) LIKE ? ESCAPE '\'`
		args = append(args, p, p)
		if nickname {
			cond += ` OR lower(COALESCE(og.nickname, '')) LIKE ? ESCAPE '\'`
			args = append(args, p)
		}
		where = append(where, "("+cond+")")
	}
	return where, args
}

// ListGear lists catalogue entries ordered by brand then name.
func (s *Store) ListGear(ctx context.Context, filter store.GearFilter) ([]*domain.Gear, error) {
	where, args := gearFilterClause(filter, false)
	query := `SELECT ` + gearColumns + ` FROM ` + gearJoin
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY br.name COLLATE NOCASE, g.name COLLATE NOCASE"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Gear
	for rows.Next() {
		var r gearRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		g, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateOwnedGear records a user's claim on a catalogue entry.
func (s *Store) CreateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO owned_gear (
			id, owner_id, gear_id, nickname, serial_number, notes, is_favorite, acquired_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owned.ID, owned.OwnerID, owned.GearID,
		nullString(owned.Nickname), nullString(owned.SerialNumber), nullString(owned.Notes),
		boolInt(owned.IsFavorite), nullTimeString(owned.AcquiredAt), formatTime(owned.CreatedAt),
	)
	return mapWriteErr(err, "owned gear "+owned.ID)
}

// GetOwnedGear retrieves an owned item with its gear and brand.
func (s *Store) GetOwnedGear(ctx context.Context, id string) (*domain.OwnedGear, error) {
	var r ownedGearRow
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+ownedGearColumns+` FROM `+ownedGearJoin+` WHERE og.id = ?`, id,
	).Scan(r.dest()...)
	if err != nil {
		return nil, notFound(err, "owned gear %s not found", id)
	}
	return r.build()
}

// ListOwnedGear lists an owner's gear, favourites first then newest.
func (s *Store) ListOwnedGear(ctx context.Context, ownerID string, filter store.GearFilter) ([]*domain.OwnedGear, error) {
	where, args := gearFilterClause(filter, true)
	where = append([]string{"og.owner_id = ?"}, where...)
	args = append([]any{ownerID}, args...)
	if filter.FavoritesOnly {
		where = append(where, "og.is_favorite = 1")
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+ownedGearColumns+` FROM `+ownedGearJoin+
			` WHERE `+strings.Join(where, " AND ")+
			` ORDER BY og.is_favorite DESC, og.created_at DESC, og.rowid`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.OwnedGear
	for rows.Next() {
		var r ownedGearRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		o, err := r.build()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOwnedGearByCategory counts an owner's gear per category.
func (s *Store) CountOwnedGearByCategory(ctx context.Context, ownerID string) (map[domain.GearCategory]int, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT g.category, COUNT(*) FROM owned_gear og JOIN gear g ON g.id = og.gear_id
		WHERE og.owner_id = ? GROUP BY g.category`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.GearCategory]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[domain.GearCategory(category)] = n
	}
	return counts, rows.Err()
}

// UpdateOwnedGear writes the user-editable fields of an owned item.
func (s *Store) UpdateOwnedGear(ctx context.Context, owned *domain.OwnedGear) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE owned_gear SET nickname = ?, serial_number = ?, notes = ?, is_favorite = ?, acquired_at = ?
		WHERE id = ?`,
		nullString(owned.Nickname), nullString(owned.SerialNumber), nullString(owned.Notes),
		boolInt(owned.IsFavorite), nullTimeString(owned.AcquiredAt), owned.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "owned gear %s not found", owned.ID)
}

// DeleteOwnedGear removes an owned item. Chain items using it cascade.
func (s *Store) DeleteOwnedGear(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM owned_gear WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "owned gear %s not found", id)
}
