// Package store provides the generic memory-mapped key-value substrate
// that every hashdb store (hash-data, prefilter, source-id, source-data,
// source-name) is built on. It wraps go.etcd.io/bbolt with the
// single-writer/many-reader discipline spec.md §5 requires: one bucket
// per store, one *bolt.DB per store directory, a per-store mutex
// serializing writer transactions, and growth-event logging standing in
// for the manual mmap-doubling accounting the original C++ LMDB layer
// did explicitly (bbolt already doubles its own mmap; this package only
// observes and logs that it happened, per spec §5's "Map growth").
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/metrics"
)

// bucketName is the single bucket every store keeps its keys in. Each
// store gets its own *bolt.DB file, so one bucket per file is sufficient
// — there is no need to multiplex stores inside one database the way the
// teacher's single warren.db does for nine entity types.
var bucketName = []byte("data")

// Store is a thin, mutex-guarded wrapper around one bbolt database file.
type Store struct {
	Name string // e.g. "hash_data_store", used in logs/metrics

	db           *bolt.DB
	mu           sync.Mutex
	logger       zerolog.Logger
	lastMmapSize int
}

// Open creates dir if needed and opens (or creates) the bbolt file
// dir/<name>/store.db with bucketName pre-created.
func Open(dir, name string, logger zerolog.Logger) (*Store, error) {
	storeDir := filepath.Join(dir, name)
	if err := os.MkdirAll(storeDir, 0o700); err != nil {
		return nil, fmt.Errorf("store %s: mkdir: %w", name, err)
	}
	dbPath := filepath.Join(storeDir, "store.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store %s: open: %w", name, err)
	}
	s := &Store{
		Name:   name,
		db:     db,
		logger: logger.With().Str("store", name).Logger(),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store %s: create bucket: %w", name, err)
	}
	if fi, err := os.Stat(dbPath); err == nil {
		s.lastMmapSize = int(fi.Size())
	}
	return s, nil
}

// Close closes the backing database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a single writer transaction against this store's
// bucket. Each call opens one transaction, performs its work, and commits
// before returning (spec §9: "do not hold open transactions across
// calls"). Writer transactions against a single *bolt.DB are already
// serialized by bbolt; the additional mutex here guards lastMmapSize
// bookkeeping and gives callers a visible lock to acquire in the fixed
// cross-store order spec §5 mandates.
func (s *Store) Update(fn func(b *bolt.Bucket) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucketName))
	})
	s.observeGrowth()
	return err
}

// View runs fn inside a read-only transaction. Readers observe a
// consistent snapshot taken at the moment the transaction opens (spec
// §5); many readers may run concurrently with each other and with the
// single writer.
func (s *Store) View(fn func(b *bolt.Bucket) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(bucketName))
	})
}

// Begin opens one read-only transaction for a ReadSession: callers that
// need to issue many lookups without paying the per-transaction snapshot
// cost repeatedly (spec §9: "long scans should reuse one read transaction
// via a scope guard") use this instead of View per call.
func (s *Store) Begin() (*ReadSession, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &ReadSession{tx: tx, bucket: tx.Bucket(bucketName)}, nil
}

// observeGrowth logs and counts whenever bbolt's on-disk/mmap size grew
// since the previous transaction, approximating the explicit map-growth
// accounting the original C++ implementation performed manually.
func (s *Store) observeGrowth() {
	fi, err := os.Stat(s.db.Path())
	if err != nil {
		return
	}
	size := int(fi.Size())
	if size > s.lastMmapSize {
		s.logger.Warn().
			Int("previous_bytes", s.lastMmapSize).
			Int("current_bytes", size).
			Msg("store map grown")
		metrics.StoreMapGrowthsTotal.WithLabelValues(s.Name).Inc()
		s.lastMmapSize = size
	}
}

// Count returns the number of key/value pairs currently in the store's
// bucket, used by the sizes()/size() introspection operation (SPEC_FULL
// §4.9).
func (s *Store) Count() (int, error) {
	n := 0
	err := s.View(func(b *bolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// ReadSession borrows one read transaction across several lookups. It
// must not outlive the call to Close; cursors obtained from it must not
// escape the caller that owns the session (spec §9: "cursor handles...
// the store enforces that a cursor cannot outlive its transaction").
type ReadSession struct {
	tx     *bolt.Tx
	bucket *bolt.Bucket
}

// Get reads one key within the session's snapshot.
func (r *ReadSession) Get(key []byte) []byte {
	return r.bucket.Get(key)
}

// Cursor returns a cursor bound to the session's bucket/transaction.
func (r *ReadSession) Cursor() *bolt.Cursor {
	return r.bucket.Cursor()
}

// Close releases the underlying read transaction.
func (r *ReadSession) Close() error {
	return r.tx.Rollback()
}
