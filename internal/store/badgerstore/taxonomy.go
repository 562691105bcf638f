package badgerstore

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/rigbook/rigbook-server/internal/domain"
	"github.com/rigbook/rigbook-server/internal/store"
)

func createUnique(txn *badger.Txn, prefix, id, what string, value any, indexes ...[]byte) error {
	ok, err := exists(txn, key(prefix, id))
	if err != nil {
		return err
	}
	if ok {
		return store.ErrAlreadyExists.WithMessagef("%s already exists", what)
	}
	for _, k := range indexes {
		if err := claimIndex(txn, k, id); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return store.ErrAlreadyExists.WithMessagef("%s already exists", what)
			}
			return err
		}
	}
	return setJSON(txn, key(prefix, id), value)
}

// CreateGenre inserts a genre. Name and slug are unique.
func (s *Store) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	rec := &genreRecord{
		CreatedAt: genre.CreatedAt, ID: genre.ID, Name: genre.Name, Slug: genre.Slug, Description: genre.Description,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		return createUnique(txn, prefixGenre, genre.ID, "genre "+genre.Name, rec,
			indexKey(prefixGenre, "name", fold(genre.Name)),
			indexKey(prefixGenre, "slug", genre.Slug),
		)
	})
}

func loadGenre(txn *badger.Txn, id string) (*domain.Genre, error) {
	var rec genreRecord
	if err := getRecord(txn, key(prefixGenre, id), &rec, "genre %s not found", id); err != nil {
		return nil, err
	}
	return rec.domain(), nil
}

// GetGenre retrieves a genre by ID.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	var g *domain.Genre
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		g, err = loadGenre(txn, id)
		return err
	})
	return g, err
}

// ListGenres returns all genres ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	var out []*domain.Genre
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, prefixGenre, func(rec *genreRecord) error {
			out = append(out, rec.domain())
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return fold(out[i].Name) < fold(out[j].Name) })
	return out, err
}

// DeleteGenre removes a genre and clears it from bands and setups.
func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec genreRecord
		if err := getRecord(txn, key(prefixGenre, id), &rec, "genre %s not found", id); err != nil {
			return err
		}

		bandIDs, err := scanIndex(txn, indexKey(prefixBand, "genre", id, ""))
		if err != nil {
			return err
		}
		for _, bandID := range bandIDs {
			var band bandRecord
			if err := getJSON(txn, key(prefixBand, bandID), &band); err != nil {
				return err
			}
			band.GenreID = ""
			if err := setJSON(txn, key(prefixBand, bandID), &band); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, indexKey(prefixBand, "genre", id, "")); err != nil {
			return err
		}

		if err := updateSetups(txn,
			func(r *setupRecord) bool { return r.GenreID == id },
			func(r *setupRecord) { r.GenreID = "" },
		); err != nil {
			return err
		}

		for _, k := range [][]byte{
			indexKey(prefixGenre, "name", fold(rec.Name)),
			indexKey(prefixGenre, "slug", rec.Slug),
			key(prefixGenre, id),
		} {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateBand inserts a band. A set genre must exist.
func (s *Store) CreateBand(ctx context.Context, band *domain.Band) error {
	rec := &bandRecord{
		CreatedAt: band.CreatedAt, ID: band.ID, Name: band.Name, Slug: band.Slug,
		GenreID: band.GenreID, Description: band.Description,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if band.GenreID != "" {
			if err := requireExists(txn, key(prefixGenre, band.GenreID),
				"band %s references a missing record", band.Name); err != nil {
				return err
			}
		}
		if err := createUnique(txn, prefixBand, band.ID, "band "+band.Name, rec,
			indexKey(prefixBand, "name", fold(band.Name)),
			indexKey(prefixBand, "slug", band.Slug),
		); err != nil {
			return err
		}
		if band.GenreID != "" {
			return txn.Set(indexKey(prefixBand, "genre", band.GenreID, band.ID), []byte(band.ID))
		}
		return nil
	})
}

func loadBand(txn *badger.Txn, id string) (*domain.Band, error) {
	var rec bandRecord
	if err := getRecord(txn, key(prefixBand, id), &rec, "band %s not found", id); err != nil {
		return nil, err
	}
	b := rec.domain()
	if b.GenreID != "" {
		g, err := loadGenre(txn, b.GenreID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		b.Genre = g
	}
	return b, nil
}

// GetBand retrieves a band with its genre.
func (s *Store) GetBand(ctx context.Context, id string) (*domain.Band, error) {
	var b *domain.Band
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		b, err = loadBand(txn, id)
		return err
	})
	return b, err
}

// ListBands returns bands ordered by name, optionally for one genre.
func (s *Store) ListBands(ctx context.Context, genreID string) ([]*domain.Band, error) {
	var out []*domain.Band
	err := s.view(ctx, func(txn *badger.Txn) error {
		var ids []string
		if err := scan(txn, prefixBand, func(rec *bandRecord) error {
			if genreID == "" || rec.GenreID == genreID {
				ids = append(ids, rec.ID)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			b, err := loadBand(txn, id)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return fold(out[i].Name) < fold(out[j].Name) })
	return out, err
}

// DeleteBand removes a band with its songs and clears both from setups.
func (s *Store) DeleteBand(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var rec bandRecord
		if err := getRecord(txn, key(prefixBand, id), &rec, "band %s not found", id); err != nil {
			return err
		}

		songIDs, err := scanIndex(txn, indexKey(prefixSong, "band", id, ""))
		if err != nil {
			return err
		}
		for _, songID := range songIDs {
			if err := deleteSong(txn, songID); err != nil {
				return err
			}
		}

		if err := updateSetups(txn,
			func(r *setupRecord) bool { return r.BandID == id },
			func(r *setupRecord) { r.BandID = "" },
		); err != nil {
			return err
		}

		keys := [][]byte{
			indexKey(prefixBand, "name", fold(rec.Name)),
			indexKey(prefixBand, "slug", rec.Slug),
			key(prefixBand, id),
		}
		if rec.GenreID != "" {
			keys = append(keys, indexKey(prefixBand, "genre", rec.GenreID, id))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateSong inserts a song. Titles are unique per band.
func (s *Store) CreateSong(ctx context.Context, song *domain.Song) error {
	rec := &songRecord{
		CreatedAt: song.CreatedAt, ID: song.ID, Title: song.Title, BandID: song.BandID, Year: song.Year,
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireExists(txn, key(prefixBand, song.BandID),
			"song %s references a missing record", song.Title); err != nil {
			return err
		}
		if err := createUnique(txn, prefixSong, song.ID, "song "+song.Title, rec,
			indexKey(prefixSong, "title", song.BandID, fold(song.Title)),
		); err != nil {
			return err
		}
		return txn.Set(indexKey(prefixSong, "band", song.BandID, song.ID), []byte(song.ID))
	})
}

func loadSong(txn *badger.Txn, id string) (*domain.Song, error) {
	var rec songRecord
	if err := getRecord(txn, key(prefixSong, id), &rec, "song %s not found", id); err != nil {
		return nil, err
	}
	song := rec.domain()
	band, err := loadBand(txn, song.BandID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	song.Band = band
	return song, nil
}

// GetSong retrieves a song with its band and the band's genre.
func (s *Store) GetSong(ctx context.Context, id string) (*domain.Song, error) {
	var song *domain.Song
	err := s.view(ctx, func(txn *badger.Txn) (err error) {
		song, err = loadSong(txn, id)
		return err
	})
	return song, err
}

// ListSongs returns songs ordered by band then title, optionally for one band.
func (s *Store) ListSongs(ctx context.Context, bandID string) ([]*domain.Song, error) {
	var out []*domain.Song
	err := s.view(ctx, func(txn *badger.Txn) error {
		var ids []string
		if err := scan(txn, prefixSong, func(rec *songRecord) error {
			if bandID == "" || rec.BandID == bandID {
				ids = append(ids, rec.ID)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			song, err := loadSong(txn, id)
			if err != nil {
				return err
			}
			out = append(out, song)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := fold(out[i].BandName()), fold(out[j].BandName())
		if a != b {
			return a < b
		}
		return fold(out[i].Title) < fold(out[j].Title)
	})
	return out, err
}

// DeleteSong removes a song and clears it from setups.
func (s *Store) DeleteSong(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return deleteSong(txn, id)
	})
}

func deleteSong(txn *badger.Txn, id string) error {
	var rec songRecord
	if err := getRecord(txn, key(prefixSong, id), &rec, "song %s not found", id); err != nil {
		return err
	}
	if err := updateSetups(txn,
		func(r *setupRecord) bool { return r.SongID == id },
		func(r *setupRecord) { r.SongID = "" },
	); err != nil {
		return err
	}
	for _, k := range [][]byte{
		indexKey(prefixSong, "title", rec.BandID, fold(rec.Title)),
		indexKey(prefixSong, "band", rec.BandID, id),
		key(prefixSong, id),
	} {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
