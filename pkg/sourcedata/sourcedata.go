// Package sourcedata implements the source-data store: per-source-id
// metadata (file hash, size, type, zero/nonprobative block counts) held
// as a length-prefixed record.
package sourcedata

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// Store is the source-data store.
type Store struct {
	st *store.Store
}

// New wraps an opened substrate store as a source-data store.
func New(st *store.Store) *Store {
	return &Store{st: st}
}

func key(id types.SourceID) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func encode(d types.SourceData) []byte {
	buf := make([]byte, 0, 32+len(d.FileHash)+len(d.FileType))
	buf = appendUint64(buf, uint64(len(d.FileHash)))
	buf = append(buf, d.FileHash...)
	buf = appendUint64(buf, d.FileSize)
	buf = appendUint64(buf, uint64(len(d.FileType)))
	buf = append(buf, d.FileType...)
	buf = appendUint64(buf, d.ZeroCount)
	buf = appendUint64(buf, d.NonprobativeCount)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readUint64(buf []byte, off int) (uint64, int, bool) {
	if off+8 > len(buf) {
		return 0, off, false
	}
	return binary.BigEndian.Uint64(buf[off : off+8]), off + 8, true
}

func decode(buf []byte) (types.SourceData, bool) {
	off := 0
	fhLen, off, ok := readUint64(buf, off)
	if !ok || off+int(fhLen) > len(buf) {
		return types.SourceData{}, false
	}
	fileHash := append([]byte(nil), buf[off:off+int(fhLen)]...)
	off += int(fhLen)

	fileSize, off, ok := readUint64(buf, off)
	if !ok {
		return types.SourceData{}, false
	}

	ftLen, off, ok := readUint64(buf, off)
	if !ok || off+int(ftLen) > len(buf) {
		return types.SourceData{}, false
	}
	fileType := string(buf[off : off+int(ftLen)])
	off += int(ftLen)

	zeroCount, off, ok := readUint64(buf, off)
	if !ok {
		return types.SourceData{}, false
	}
	nonprobativeCount, _, ok := readUint64(buf, off)
	if !ok {
		return types.SourceData{}, false
	}

	return types.SourceData{
		FileHash:          types.FileHash(fileHash),
		FileSize:          fileSize,
		FileType:          fileType,
		ZeroCount:         zeroCount,
		NonprobativeCount: nonprobativeCount,
	}, true
}

func equal(a, b types.SourceData) bool {
	return string(a.FileHash) == string(b.FileHash) &&
		a.FileSize == b.FileSize &&
		a.FileType == b.FileType &&
		a.ZeroCount == b.ZeroCount &&
		a.NonprobativeCount == b.NonprobativeCount
}

// Insert writes d for sourceID. If no record exists yet, it is written
// and counted "inserted"; if an identical record exists, it is a no-op
// counted "same"; if a differing record exists, it is overwritten and
// counted "changed".
func (s *Store) Insert(sourceID types.SourceID, d types.SourceData, ch *changes.Report) error {
	k := key(sourceID)
	return s.st.Update(func(b *bolt.Bucket) error {
		existing, ok := decode(b.Get(k))
		switch {
		case !ok:
			ch.SourceDataInserted++
		case equal(existing, d):
			ch.SourceDataSame++
			return nil
		default:
			ch.SourceDataChanged++
		}
		return b.Put(k, encode(d))
	})
}

// Find returns the stored metadata for sourceID, if any.
func (s *Store) Find(sourceID types.SourceID) (types.SourceData, bool, error) {
	var d types.SourceData
	found := false
	err := s.st.View(func(b *bolt.Bucket) error {
		v, ok := decode(b.Get(key(sourceID)))
		if ok {
			d, found = v, true
		}
		return nil
	})
	return d, found, err
}
