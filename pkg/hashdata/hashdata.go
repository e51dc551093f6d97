// Package hashdata implements the hash-data store: the authoritative
// mapping from a block hash to its entropy, label, and posting list of
// (source_id, sub_count) pairs. Every other store is derived or
// auxiliary; this one is the source of truth for find_hash.
//
// On disk each block hash occupies one key in the underlying store. The
// value holds one of three record shapes: a compact Type-1 record while
// only one source has ever been seen, a Type-2 header plus its Type-3
// followers once a second source appears. bbolt replaces a key's whole
// value on every write, so unlike the dupsort layout this format was
// designed for, a Type-2 record's followers live concatenated in the
// same value rather than as separate sorted duplicate entries; the
// per-record byte shapes below are otherwise unchanged.
package hashdata

import (
	"encoding/binary"
	"sort"

	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
	"github.com/dfir-forensics/hashdb/pkg/varint"
)

// typeTwoMarker is the leading byte of a Type-2 record. A Type-1 record's
// leading byte is the first byte of source_id's varint encoding, which is
// never 0x00 because source_id is never 0 (0 is the source-id store's
// sentinel key, never issued to a real source).
const typeTwoMarker = 0x00

// Store is the hash-data store.
type Store struct {
	st *store.Store
}

// New wraps an already-opened substrate store as a hash-data store. The
// caller (pkg/hashdb) owns opening/closing the underlying *store.Store
// under hash_data_store/.
func New(st *store.Store) *Store {
	return &Store{st: st}
}

// record is the decoded, in-memory view of one stored value, used as the
// common representation for both Type-1 and Type-2 wire shapes.
type record struct {
	kEntropy   uint64
	blockLabel string
	postings   []types.Posting // sorted by SourceID ascending
}

func (r record) totalCount() uint64 {
	var total uint64
	for _, p := range r.postings {
		total += uint64(p.SubCount)
	}
	return total
}

// decode parses a stored value into a record. Returns ok=false if buf is
// empty (key absent).
func decode(buf []byte) (record, bool) {
	if len(buf) == 0 {
		return record{}, false
	}
	if buf[0] == typeTwoMarker {
		return decodeType2(buf)
	}
	return decodeType1(buf)
}

// peekTotalCount reads total_count straight out of the stored header
// without decoding the label or walking any Type-3 followers: a Type-1
// record's total_count is its single posting's sub_count, and a Type-2
// record stores total_count directly in its 4-byte header field.
func peekTotalCount(buf []byte) (uint64, bool) {
	if len(buf) == 0 {
		return 0, false
	}
	if buf[0] != typeTwoMarker {
		off := 0
		_, n, ok := varint.Decode(buf[off:]) // source_id
		if !ok {
			return 0, false
		}
		off += n
		subCount, n, ok := varint.Decode(buf[off:])
		if !ok {
			return 0, false
		}
		return subCount, true
	}

	off := 1
	_, n, ok := varint.Decode(buf[off:]) // k_entropy
	if !ok {
		return 0, false
	}
	off += n
	if off >= len(buf) {
		return 0, false
	}
	labelLen := int(buf[off])
	off++
	off += labelLen
	if off+4 > len(buf) {
		return 0, false
	}
	return uint64(binary.LittleEndian.Uint32(buf[off : off+4])), true
}

func decodeType1(buf []byte) (record, bool) {
	off := 0
	sourceID, n, ok := varint.Decode(buf[off:])
	if !ok {
		return record{}, false
	}
	off += n
	subCount, n, ok := varint.Decode(buf[off:])
	if !ok {
		return record{}, false
	}
	off += n
	kEntropy, n, ok := varint.Decode(buf[off:])
	if !ok {
		return record{}, false
	}
	off += n
	if off >= len(buf) {
		return record{}, false
	}
	labelLen := int(buf[off])
	off++
	if off+labelLen > len(buf) {
		return record{}, false
	}
	label := string(buf[off : off+labelLen])

	return record{
		kEntropy:   kEntropy,
		blockLabel: label,
		postings:   []types.Posting{{SourceID: types.SourceID(sourceID), SubCount: uint32(subCount)}},
	}, true
}

func decodeType2(buf []byte) (record, bool) {
	off := 1
	kEntropy, n, ok := varint.Decode(buf[off:])
	if !ok {
		return record{}, false
	}
	off += n
	if off >= len(buf) {
		return record{}, false
	}
	labelLen := int(buf[off])
	off++
	if off+labelLen > len(buf) {
		return record{}, false
	}
	label := string(buf[off : off+labelLen])
	off += labelLen
	if off+4 > len(buf) {
		return record{}, false
	}
	off += 4 // total_count; decodeType2 recomputes it from postings, see peekTotalCount for the cheap path

	var postings []types.Posting
	for off < len(buf) {
		sourceID, n, ok := varint.Decode(buf[off:])
		if !ok {
			break
		}
		off += n
		if off+2 > len(buf) {
			break
		}
		subCount := binary.LittleEndian.Uint16(buf[off : off+2])
		off += 2
		postings = append(postings, types.Posting{SourceID: types.SourceID(sourceID), SubCount: uint32(subCount)})
	}
	sort.Slice(postings, func(i, j int) bool { return postings[i].SourceID < postings[j].SourceID })

	return record{kEntropy: kEntropy, blockLabel: label, postings: postings}, true
}

// encode serializes r back to its wire shape: Type-1 while it holds
// exactly one posting, Type-2 plus followers once it holds more than one.
func encode(r record) []byte {
	if len(r.postings) == 1 {
		return encodeType1(r)
	}
	return encodeType2(r)
}

func encodeType1(r record) []byte {
	p := r.postings[0]
	buf := varint.Append(nil, uint64(p.SourceID))
	buf = varint.Append(buf, uint64(p.SubCount))
	buf = varint.Append(buf, r.kEntropy)
	buf = append(buf, byte(len(r.blockLabel)))
	buf = append(buf, r.blockLabel...)
	for i := 0; i < paddingLen(uint64(p.SourceID)); i++ {
		buf = append(buf, 0)
	}
	return buf
}

// paddingLen implements the spec's Type-1 byte-budget rule: two trailing
// zero bytes for a source_id below 0x80, one below 0x4000, none above.
// The padding does not make a Type-1 record as long as the Type-2 header
// it would become: with one-byte source_id and sub_count varints the
// header (marker plus 4-byte total_count) is still one byte longer.
func paddingLen(sourceID uint64) int {
	switch {
	case sourceID < 0x80:
		return 2
	case sourceID < 0x4000:
		return 1
	default:
		return 0
	}
}

func encodeType2(r record) []byte {
	buf := []byte{typeTwoMarker}
	buf = varint.Append(buf, r.kEntropy)
	buf = append(buf, byte(len(r.blockLabel)))
	buf = append(buf, r.blockLabel...)

	total := r.totalCount()
	if total > types.MaxTotalCount {
		total = types.MaxTotalCount
	}
	var tc [4]byte
	binary.LittleEndian.PutUint32(tc[:], uint32(total))
	buf = append(buf, tc[:]...)

	sorted := make([]types.Posting, len(r.postings))
	copy(sorted, r.postings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourceID < sorted[j].SourceID })
	for _, p := range sorted {
		buf = varint.Append(buf, uint64(p.SourceID))
		sub := p.SubCount
		if sub > types.MaxSubCount {
			sub = types.MaxSubCount
		}
		var sc [2]byte
		binary.LittleEndian.PutUint16(sc[:], uint16(sub))
		buf = append(buf, sc[:]...)
	}
	return buf
}
