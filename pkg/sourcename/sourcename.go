// Package sourcename implements the source-name store: one key per
// source id, holding a deduplicated, insertion-ordered sequence of
// (repository_name, filename) pairs.
package sourcename

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// Store is the source-name store.
type Store struct {
	st *store.Store
}

// New wraps an opened substrate store as a source-name store.
func New(st *store.Store) *Store {
	return &Store{st: st}
}

func key(id types.SourceID) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func encodeNames(names []types.SourceName) []byte {
	var buf []byte
	for _, n := range names {
		buf = appendString(buf, n.RepositoryName)
		buf = appendString(buf, n.Filename)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readString(buf []byte, off int) (string, int, bool) {
	if off+4 > len(buf) {
		return "", off, false
	}
	n := int(binary.BigEndian.Uint32(buf[off : off+4]))
	off += 4
	if off+n > len(buf) {
		return "", off, false
	}
	return string(buf[off : off+n]), off + n, true
}

func decodeNames(buf []byte) []types.SourceName {
	var names []types.SourceName
	off := 0
	for off < len(buf) {
		repo, next, ok := readString(buf, off)
		if !ok {
			break
		}
		off = next
		file, next, ok := readString(buf, off)
		if !ok {
			break
		}
		off = next
		names = append(names, types.SourceName{RepositoryName: repo, Filename: file})
	}
	return names
}

// Insert adds (repositoryName, filename) to sourceID's set if not
// already present.
func (s *Store) Insert(sourceID types.SourceID, repositoryName, filename string, ch *changes.Report) error {
	k := key(sourceID)
	return s.st.Update(func(b *bolt.Bucket) error {
		names := decodeNames(b.Get(k))
		for _, n := range names {
			if n.RepositoryName == repositoryName && n.Filename == filename {
				ch.SourceNameAlreadyPresent++
				return nil
			}
		}
		names = append(names, types.SourceName{RepositoryName: repositoryName, Filename: filename})
		ch.SourceNameInserted++
		return b.Put(k, encodeNames(names))
	})
}

// Find returns the ordered set of names for sourceID.
func (s *Store) Find(sourceID types.SourceID) ([]types.SourceName, error) {
	var names []types.SourceName
	err := s.st.View(func(b *bolt.Bucket) error {
		names = decodeNames(b.Get(key(sourceID)))
		return nil
	})
	return names, err
}
