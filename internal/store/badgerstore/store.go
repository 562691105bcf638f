// Package badgerstore implements the Rigbook store on an embedded Badger
// key-value database.
//
// Records are JSON values under "<entity>:<id>" keys. Secondary indexes live
// under "<entity>:idx:<name>:<value>" and hold the owning id. Relations the
// SQL backend enforces with foreign keys are checked and cascaded here by
// hand inside the same transaction.
package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/text/cases"

	"github.com/rigbook/rigbook-server/internal/store"
)

// maxConflictRetries bounds how often a conflicting transaction is replayed.
const maxConflictRetries = 5

// Store wraps a Badger database instance. The Store handed to a WithTx
// callback carries that transaction and runs every call on it.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	txn    *badger.Txn
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger, dir)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger, ":memory:")
}

func open(opts badger.Options, logger *slog.Logger, where string) (*Store, error) {
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Badger database opened successfully", "path", where)
	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping reports whether the database is still open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// WithTx implements store.Store. Badger transactions are optimistic; a
// commit that loses a conflict is replayed from the start.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repositories) error) error {
	if s.txn != nil {
		return fn(s)
	}
	return retryConflicts(func() error {
		txn := s.db.NewTransaction(true)
		defer txn.Discard()

		if err := fn(&Store{db: s.db, logger: s.logger, txn: txn}); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return txn.Commit()
	})
}

func retryConflicts(fn func() error) error {
	var err error
	for range maxConflictRetries {
		if err = fn(); !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction kept conflicting: %w", err)
}

// view runs fn read-only, on the open transaction if there is one.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.txn != nil {
		return fn(s.txn)
	}
	return s.db.View(fn)
}

// update runs fn read-write, on the open transaction if there is one.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.txn != nil {
		return fn(s.txn)
	}
	return retryConflicts(func() error { return s.db.Update(fn) })
}

// Keys.

func key(prefix, id string) []byte { return []byte(prefix + id) }

func indexKey(prefix, name string, parts ...string) []byte {
	return []byte(prefix + "idx:" + name + ":" + strings.Join(parts, ":"))
}

// fold normalises text for case-insensitive uniqueness and search.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(fold(haystack), needle)
}

// Record helpers.

func getJSON(txn *badger.Txn, k []byte, dest any) error {
	item, err := txn.Get(k)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// getRecord loads k into dest and maps a missing key to store.ErrNotFound.
func getRecord(txn *badger.Txn, k []byte, dest any, format string, args ...any) error {
	err := getJSON(txn, k, dest)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound.WithMessagef(format, args...)
	}
	return err
}

func setJSON(txn *badger.Txn, k []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(k, data)
}

func exists(txn *badger.Txn, k []byte) (bool, error) {
	_, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// requireExists returns store.ErrNotFound when k is absent.
func requireExists(txn *badger.Txn, k []byte, format string, args ...any) error {
	ok, err := exists(txn, k)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound.WithMessagef(format, args...)
	}
	return nil
}

// claimIndex writes an index entry, failing if another id holds it.
func claimIndex(txn *badger.Txn, k []byte, id string) error {
	item, err := txn.Get(k)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return txn.Set(k, []byte(id))
	case err != nil:
		return err
	}
	var holder string
	if err := item.Value(func(val []byte) error {
		holder = string(val)
		return nil
	}); err != nil {
		return err
	}
	if holder != id {
		return store.ErrAlreadyExists
	}
	return nil
}

// lookupIndex returns the id stored at an index key.
func lookupIndex(txn *badger.Txn, k []byte) (string, error) {
	item, err := txn.Get(k)
	if err != nil {
		return "", err
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// scan decodes every record under prefix, skipping index keys.
func scan[T any](txn *badger.Txn, prefix string, fn func(rec *T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	idx := prefix + "idx:"
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		if strings.HasPrefix(string(it.Item().Key()), idx) {
			continue
		}
		var rec T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return nil
}

// scanIndex returns the ids stored under an index prefix, in key order.
func scanIndex(txn *badger.Txn, prefix []byte) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// deletePrefix removes every key under prefix.
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// nextSeq returns the next value of a named monotonic counter.
func nextSeq(txn *badger.Txn, name string) (int64, error) {
	k := []byte("meta:seq:" + name)
	var n uint64
	item, err := txn.Get(k)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			if len(val) == 8 {
				n = binary.BigEndian.Uint64(val)
			}
			return nil
		}); err != nil {
			return 0, err
		}
	}
	n++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if err := txn.Set(k, buf); err != nil {
		return 0, err
	}
	return int64(n), nil
}
