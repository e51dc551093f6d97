// Package prefilter implements the hash prefilter store: a cheap,
// approximate answer to "how many sources (roughly) contain this block
// hash?" without touching the authoritative hash-data store.
//
// Keys are a prefix of block_hash truncated to prefix_bits, with the
// unused tail bits of the last byte masked to zero. Values are a
// concatenation of fixed-size (suffix_bytes+1)-byte entries, one per
// colliding hash, holding the hash's trailing suffix_bytes plus a
// logarithmic count encoding.
package prefilter

import (
	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/metrics"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// maskTable masks the unused trailing bits of the last prefix byte,
// indexed by prefix_bits mod 8.
var maskTable = [8]byte{0xff, 0x80, 0xc0, 0xe0, 0xf0, 0xf8, 0xfc, 0xfe}

// Store is the hash prefilter store.
type Store struct {
	st          *store.Store
	prefixBits  int
	suffixBytes int
}

// New wraps an opened substrate store as a prefilter store, parameterized
// by the settings-controlled prefix_bits and suffix_bytes tunables.
func New(st *store.Store, prefixBits, suffixBytes int) *Store {
	return &Store{st: st, prefixBits: prefixBits, suffixBytes: suffixBytes}
}

// key computes the prefilter key for blockHash: the leading
// ceil(prefix_bits/8) bytes, with the last byte's unused trailing bits
// masked to zero.
func (s *Store) key(blockHash types.BlockHash) []byte {
	nBytes := (s.prefixBits + 7) / 8
	if nBytes > len(blockHash) {
		nBytes = len(blockHash)
	}
	k := make([]byte, nBytes)
	copy(k, blockHash[:nBytes])
	if nBytes > 0 {
		k[nBytes-1] &= maskTable[s.prefixBits%8]
	}
	return k
}

// entryLen is the fixed width of one suffix-array entry: the suffix
// bytes plus one trailing count byte.
func (s *Store) entryLen() int { return s.suffixBytes + 1 }

func (s *Store) suffix(blockHash types.BlockHash) []byte {
	if len(blockHash) < s.suffixBytes {
		out := make([]byte, s.suffixBytes)
		copy(out[s.suffixBytes-len(blockHash):], blockHash)
		return out
	}
	return blockHash[len(blockHash)-s.suffixBytes:]
}

// Insert records count for blockHash, updating the matching suffix
// entry if one exists, else appending a new one.
func (s *Store) Insert(blockHash types.BlockHash, count uint64, ch *changes.Report) error {
	key := s.key(blockHash)
	suffix := s.suffix(blockHash)
	encoded := encodeCount(count)

	return s.st.Update(func(b *bolt.Bucket) error {
		existing := b.Get(key)
		prefixWasAbsent := existing == nil
		val := append([]byte(nil), existing...)
		entryLen := s.entryLen()

		for off := 0; off+entryLen <= len(val); off += entryLen {
			if bytesEqual(val[off:off+s.suffixBytes], suffix) {
				if val[off+s.suffixBytes] != encoded {
					val[off+s.suffixBytes] = encoded
					ch.HashCountChanged++
				} else {
					ch.HashNotChanged++
				}
				metrics.PrefilterInsertsTotal.Inc()
				return b.Put(key, val)
			}
		}

		val = append(val, suffix...)
		val = append(val, encoded)
		if prefixWasAbsent {
			ch.HashPrefixInserted++
		} else {
			ch.HashSuffixInserted++
		}
		metrics.PrefilterInsertsTotal.Inc()
		return b.Put(key, val)
	})
}

// Find returns the approximate count for blockHash: 0 if the prefix is
// absent or no suffix entry matches.
func (s *Store) Find(blockHash types.BlockHash) (uint64, error) {
	key := s.key(blockHash)
	suffix := s.suffix(blockHash)
	entryLen := s.entryLen()

	var result uint64
	hit := false
	err := s.st.View(func(b *bolt.Bucket) error {
		val := b.Get(key)
		for off := 0; off+entryLen <= len(val); off += entryLen {
			if bytesEqual(val[off:off+s.suffixBytes], suffix) {
				result = decodeCount(val[off+s.suffixBytes])
				hit = true
				return nil
			}
		}
		return nil
	})
	if hit {
		metrics.PrefilterQueriesTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.PrefilterQueriesTotal.WithLabelValues("miss").Inc()
	}
	return result, err
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// encodeCount biases count by 6, then repeatedly divides by 5 until the
// remainder fits in 4 bits, storing the division count as the exponent
// and the remainder as the mantissa directly (not mantissa+4 — that
// bias is applied on decode only, where it cancels the +6 bias applied
// here).
func encodeCount(count uint64) byte {
	const maxTemp = 0xFFFFFFFF
	temp := count + 6
	if temp > maxTemp {
		temp = maxTemp
	}

	var exponent byte
	for temp > 15 {
		exponent++
		temp /= 5
	}
	return (exponent << 4) | byte(temp)
}

// decodeCount inverts encodeCount: count ≈ (mantissa+4)*5^exponent - 10.
func decodeCount(b byte) uint64 {
	exponent := int(b >> 4)
	mantissa := uint64(b & 0x0f)
	pow := uint64(1)
	for i := 0; i < exponent; i++ {
		pow *= 5
	}
	v := (mantissa + 4) * pow
	if v < 10 {
		return 0
	}
	return v - 10
}
