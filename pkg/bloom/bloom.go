// Package bloom implements the fast, no-false-negative prefilter for
// find_hash: a file-backed bit array addressed by k independent hash
// functions derived by double hashing from two 64-bit murmur3 digests.
//
// The filter may be disabled in settings, in which case Test always
// reports "possible" without touching the file at all.
package bloom

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/spaolacci/murmur3"

	"github.com/dfir-forensics/hashdb/pkg/metrics"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// minDigestLen is the zero-padded floor every hash is brought up to
// before hashing, so queries over different digest algorithms share one
// filter address space.
const minDigestLen = 16

// Filter is a memory-mapped Bloom filter.
type Filter struct {
	used bool
	m    uint64 // number of bits, 1 << settings.BloomM
	k    int
	file *os.File
	data mmap.MMap
}

// Open memory-maps (creating if necessary) the bloom_filter file at
// path, sized 2^bloomM bits, or returns a disabled filter without
// touching the file if bloomUsed is false.
func Open(path string, bloomUsed bool, bloomM uint64, k int) (*Filter, error) {
	if !bloomUsed {
		return &Filter{used: false}, nil
	}

	bits := uint64(1) << bloomM
	size := int64((bits + 7) / 8)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("bloom: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("bloom: stat %s: %w", path, err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("bloom: truncate %s: %w", path, err)
		}
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("bloom: mmap %s: %w", path, err)
	}

	return &Filter{used: true, m: bits, k: k, file: f, data: data}, nil
}

// Close unmaps and closes the backing file. A no-op on a disabled filter.
func (f *Filter) Close() error {
	if !f.used {
		return nil
	}
	if err := f.data.Unmap(); err != nil {
		return err
	}
	return f.file.Close()
}

// Used reports whether the filter is active.
func (f *Filter) Used() bool { return f.used }

// digest zero-pads h to at least minDigestLen bytes, then returns two
// independent 64-bit hashes used as the double-hashing basis for the k
// bit positions (Kirsch-Mitzenmacher).
func digest(h types.BlockHash) (uint64, uint64) {
	padded := h
	if len(padded) < minDigestLen {
		padded = make([]byte, minDigestLen)
		copy(padded, h)
	}
	h1, h2 := murmur3.Sum128(padded)
	return h1, h2
}

func (f *Filter) positions(h types.BlockHash) []uint64 {
	h1, h2 := digest(h)
	positions := make([]uint64, f.k)
	for i := 0; i < f.k; i++ {
		positions[i] = (h1 + uint64(i)*h2) % f.m
	}
	return positions
}

// Add sets the k bits for blockHash. A no-op when the filter is
// disabled.
func (f *Filter) Add(blockHash types.BlockHash) {
	if !f.used {
		return
	}
	for _, pos := range f.positions(blockHash) {
		byteIdx := pos / 8
		bit := byte(1) << (pos % 8)
		if f.data[byteIdx]&bit == 0 {
			f.data[byteIdx] |= bit
			metrics.BloomBitsSet.Inc()
		}
	}
}

// Test answers whether blockHash is possibly present. A disabled filter
// always answers true ("possible"), per spec.
func (f *Filter) Test(blockHash types.BlockHash) bool {
	if !f.used {
		metrics.BloomQueriesTotal.WithLabelValues("disabled").Inc()
		return true
	}
	for _, pos := range f.positions(blockHash) {
		byteIdx := pos / 8
		bit := byte(1) << (pos % 8)
		if f.data[byteIdx]&bit == 0 {
			metrics.BloomQueriesTotal.WithLabelValues("absent").Inc()
			return false
		}
	}
	metrics.BloomQueriesTotal.WithLabelValues("possible").Inc()
	return true
}

// Sync flushes pending writes to the backing file.
func (f *Filter) Sync() error {
	if !f.used {
		return nil
	}
	return f.data.Flush()
}
