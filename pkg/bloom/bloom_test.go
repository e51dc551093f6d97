package bloom

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfir-forensics/hashdb/pkg/types"
)

func TestDisabledFilterAlwaysPossible(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "bloom"), false, 0, 0)
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.Used())
	assert.True(t, f.Test(types.BlockHash("anything")))
}

func TestNoFalseNegatives(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "bloom"), true, 20, 3)
	require.NoError(t, err)
	defer f.Close()

	hashes := []types.BlockHash{
		[]byte("block-one"),
		[]byte("block-two"),
		[]byte("block-three"),
		{0x00, 0x01, 0x02, 0x03},
	}
	for _, h := range hashes {
		f.Add(h)
	}
	for _, h := range hashes {
		assert.True(t, f.Test(h), "inserted hash must always test possible")
	}
}

func TestAbsentHashesAreMostlyNegative(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "bloom"), true, 20, 4)
	require.NoError(t, err)
	defer f.Close()

	f.Add(types.BlockHash("present"))

	falsePositives := 0
	for i := 0; i < 200; i++ {
		h := types.BlockHash{byte(i), byte(i >> 8), 0xAB, 0xCD, 0xEF}
		if f.Test(h) {
			falsePositives++
		}
	}
	assert.Less(t, falsePositives, 200, "a 2^20-bit filter with one member should not test positive for every probe")
}

// TestFalsePositiveRateWithinTheoreticalBound loads a filter to a known
// fill ratio and checks the empirical false-positive rate against the
// standard estimate p = (1 - e^(-kn/m))^k, with generous headroom since
// this asserts a statistical property rather than an exact count.
func TestFalsePositiveRateWithinTheoreticalBound(t *testing.T) {
	const (
		m = 14 // 2^14 = 16384 bits
		k = 3
		n = 500
	)
	f, err := Open(filepath.Join(t.TempDir(), "bloom"), true, m, k)
	require.NoError(t, err)
	defer f.Close()

	present := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		h := types.BlockHash{byte(i), byte(i >> 8), byte(i >> 16), 0x55, 0xAA}
		present[string(h)] = true
		f.Add(h)
	}

	const probes = 5000
	falsePositives := 0
	for i := 0; i < probes; i++ {
		h := types.BlockHash{0xFF, byte(i), byte(i >> 8), byte(i >> 16), 0x11}
		if present[string(h)] {
			continue // only absent hashes count toward the false-positive rate
		}
		if f.Test(h) {
			falsePositives++
		}
	}

	bits := float64(uint64(1) << m)
	theoretical := math.Pow(1-math.Exp(-float64(k)*float64(n)/bits), float64(k))
	expected := theoretical * probes
	// 10x the theoretical expectation is far beyond sampling noise for a
	// sub-4-false-positive expectation but still catches a filter that is
	// meaningfully leakier than the formula predicts (e.g. a hashing bug
	// that degenerates to far fewer than k independent bit positions).
	assert.Less(t, float64(falsePositives), expected*10+5,
		"false positive count %d far exceeds the theoretical estimate of %.2f", falsePositives, expected)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloom")

	f1, err := Open(path, true, 16, 3)
	require.NoError(t, err)
	f1.Add(types.BlockHash("durable"))
	require.NoError(t, f1.Sync())
	require.NoError(t, f1.Close())

	f2, err := Open(path, true, 16, 3)
	require.NoError(t, err)
	defer f2.Close()
	assert.True(t, f2.Test(types.BlockHash("durable")))
}
