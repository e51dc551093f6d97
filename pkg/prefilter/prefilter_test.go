package prefilter

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

func newTestStore(t *testing.T, prefixBits, suffixBytes int) *Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), "hash_store", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, prefixBits, suffixBytes)
}

func TestCountRoundTripExactBelowExponentOne(t *testing.T) {
	// count+6 <= 15, i.e. count <= 9: no division happens, so the
	// encoding is lossless.
	for count := uint64(0); count <= 9; count++ {
		encoded := encodeCount(count)
		decoded := decodeCount(encoded)
		assert.Equal(t, count, decoded, "count %d must round-trip exactly", count)
	}
}

func TestCountRoundTripApproximateAboveExponentOne(t *testing.T) {
	for _, count := range []uint64{10, 100, 1000, 1 << 20, 0xFFFFFFFF, 0xFFFFFFFF + 500} {
		encoded := encodeCount(count)
		decoded := decodeCount(encoded)
		// Above the lossless range the encoding only approximates count:
		// decoded must never fall below it (no false negatives), but can
		// overshoot by up to a factor of 5 (one quantization step).
		if decoded < count {
			t.Errorf("encodeCount(%d) -> decodeCount = %d, decoded too small", count, decoded)
		}
		if decoded > count*5 {
			t.Errorf("encodeCount(%d) -> decodeCount = %d, decoded implausibly large", count, decoded)
		}
	}
}

func TestFindMissingPrefixReturnsZero(t *testing.T) {
	s := newTestStore(t, 16, 3)
	count, err := s.Find(types.BlockHash{0xAA, 0xBB, 0xCC, 0xDD})
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestInsertThenFind(t *testing.T) {
	s := newTestStore(t, 16, 3)
	ch := &changes.Report{}
	h := types.BlockHash{0x12, 0x34, 0x56, 0x78, 0x9a}

	require.NoError(t, s.Insert(h, 5, ch))
	assert.EqualValues(t, 1, ch.HashPrefixInserted)

	count, err := s.Find(h)
	require.NoError(t, err)
	assert.Greater(t, count, uint64(0))
}

func TestInsertSecondHashSamePrefixAppendsSuffix(t *testing.T) {
	s := newTestStore(t, 8, 2)
	ch := &changes.Report{}

	h1 := types.BlockHash{0x01, 0xAA, 0xBB}
	h2 := types.BlockHash{0x01, 0xCC, 0xDD}

	require.NoError(t, s.Insert(h1, 1, ch))
	require.NoError(t, s.Insert(h2, 1, ch))

	assert.EqualValues(t, 1, ch.HashPrefixInserted)
	assert.EqualValues(t, 1, ch.HashSuffixInserted)

	c1, err := s.Find(h1)
	require.NoError(t, err)
	assert.Greater(t, c1, uint64(0))
	c2, err := s.Find(h2)
	require.NoError(t, err)
	assert.Greater(t, c2, uint64(0))
}

func TestInsertSameHashUpdatesCount(t *testing.T) {
	s := newTestStore(t, 16, 2)
	ch := &changes.Report{}
	h := types.BlockHash{0x99, 0x88, 0x77, 0x66}

	require.NoError(t, s.Insert(h, 1, ch))
	require.NoError(t, s.Insert(h, 1000, ch))

	assert.EqualValues(t, 1, ch.HashCountChanged)

	require.NoError(t, s.Insert(h, 1000, ch))
	assert.EqualValues(t, 1, ch.HashNotChanged)
}

func TestPrefixMasking(t *testing.T) {
	s := newTestStore(t, 12, 2) // 12 bits = 1 full byte + 4 bits of the second
	k := s.key(types.BlockHash{0xFF, 0xFF, 0xFF})
	require.Len(t, k, 2)
	assert.Equal(t, byte(0xf0), k[1], "trailing 4 bits of the second byte must be masked to zero")
}
