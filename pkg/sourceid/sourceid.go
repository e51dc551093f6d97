// Package sourceid implements the source-id store: a dense, monotonic
// 64-bit identifier assigned to each distinct file hash on first
// sighting. Ids are never recycled; a reserved sentinel key holds the
// largest id issued so far and is updated in the same writer
// transaction as any new mapping, preserving density across a crash.
package sourceid

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/metrics"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// sentinelKey is the reserved key holding the largest id issued so far.
// bbolt rejects zero-length keys, so the "zero key" the spec describes is
// realized here as a distinguished out-of-band byte string rather than
// an empty key; real file hashes are raw digest bytes and never collide
// with it in practice.
var sentinelKey = []byte("\x00sourceid-largest-issued")

// Store is the source-id store.
type Store struct {
	st *store.Store
}

// New wraps an opened substrate store as a source-id store.
func New(st *store.Store) *Store {
	return &Store{st: st}
}

func encodeID(id types.SourceID) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func decodeID(b []byte) types.SourceID {
	if len(b) != 8 {
		return 0
	}
	return types.SourceID(binary.BigEndian.Uint64(b))
}

// Insert returns the existing id for fileHash if present, else assigns
// and returns the next dense id.
func (s *Store) Insert(fileHash types.FileHash, ch *changes.Report) (isNew bool, id types.SourceID, err error) {
	err = s.st.Update(func(b *bolt.Bucket) error {
		if existing := b.Get(fileHash); existing != nil {
			id = decodeID(existing)
			ch.SourceIDAlreadyPresent++
			return nil
		}

		largest := decodeID(b.Get(sentinelKey))
		id = largest + 1
		isNew = true

		if err := b.Put(fileHash, encodeID(id)); err != nil {
			return err
		}
		if err := b.Put(sentinelKey, encodeID(id)); err != nil {
			return err
		}
		ch.SourceIDInserted++
		metrics.SourceIDsTotal.Set(float64(id))
		return nil
	})
	return isNew, id, err
}

// Find returns the source id for fileHash, if any.
func (s *Store) Find(fileHash types.FileHash) (types.SourceID, bool, error) {
	var id types.SourceID
	found := false
	err := s.st.View(func(b *bolt.Bucket) error {
		v := b.Get(fileHash)
		if v == nil {
			return nil
		}
		id = decodeID(v)
		found = true
		return nil
	})
	return id, found, err
}

// FirstSource returns the first file hash in substrate order, skipping
// the sentinel key.
func (s *Store) FirstSource() (types.FileHash, bool, error) {
	return s.adjacent(nil)
}

// NextSource returns the file hash following prev in substrate order.
func (s *Store) NextSource(prev types.FileHash) (types.FileHash, bool, error) {
	if len(prev) == 0 {
		return s.FirstSource()
	}
	return s.adjacent(prev)
}

func (s *Store) adjacent(prev types.FileHash) (types.FileHash, bool, error) {
	sess, err := s.st.Begin()
	if err != nil {
		return nil, false, err
	}
	defer sess.Close()

	c := sess.Cursor()
	var k []byte
	if prev == nil {
		k, _ = c.First()
	} else {
		found, _ := c.Seek(prev)
		if found != nil {
			k, _ = c.Next()
		} else {
			k = nil
		}
	}
	for k != nil && isSentinel(k) {
		k, _ = c.Next()
	}
	if k == nil {
		return nil, false, nil
	}
	out := make([]byte, len(k))
	copy(out, k)
	return types.FileHash(out), true, nil
}

func isSentinel(k []byte) bool {
	return string(k) == string(sentinelKey)
}

// Count returns the number of distinct sources, excluding the sentinel
// key the store uses internally to track the largest id issued.
func (s *Store) Count() (int, error) {
	n, err := s.st.Count()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n - 1, nil
}
