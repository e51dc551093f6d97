package sourceid

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), "source_id_store", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st)
}

func TestInsertAssignsDenseIDsStartingAtOne(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	isNew, id, err := s.Insert(types.FileHash("file-a"), ch)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.EqualValues(t, 1, id)

	isNew, id, err = s.Insert(types.FileHash("file-b"), ch)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.EqualValues(t, 2, id)

	assert.EqualValues(t, 2, ch.SourceIDInserted)
}

func TestInsertExistingReturnsSameID(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	_, id1, err := s.Insert(types.FileHash("file-a"), ch)
	require.NoError(t, err)
	isNew, id2, err := s.Insert(types.FileHash("file-a"), ch)
	require.NoError(t, err)

	assert.False(t, isNew)
	assert.Equal(t, id1, id2)
	assert.EqualValues(t, 1, ch.SourceIDAlreadyPresent)
}

func TestIDsNeverRecycled(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	_, id1, err := s.Insert(types.FileHash("a"), ch)
	require.NoError(t, err)
	_, id2, err := s.Insert(types.FileHash("b"), ch)
	require.NoError(t, err)
	_, id3, err := s.Insert(types.FileHash("c"), ch)
	require.NoError(t, err)

	assert.EqualValues(t, 1, id1)
	assert.EqualValues(t, 2, id2)
	assert.EqualValues(t, 3, id3)
}

func TestFindMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Find(types.FileHash("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountExcludesSentinel(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, fh := range []string{"a", "b"} {
		_, _, err := s.Insert(types.FileHash(fh), ch)
		require.NoError(t, err)
	}

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIterationSkipsSentinel(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	for _, fh := range []string{"a", "b", "c"} {
		_, _, err := s.Insert(types.FileHash(fh), ch)
		require.NoError(t, err)
	}

	var seen []string
	fh, ok, err := s.FirstSource()
	require.NoError(t, err)
	for ok {
		seen = append(seen, string(fh))
		fh, ok, err = s.NextSource(fh)
		require.NoError(t, err)
	}

	assert.Len(t, seen, 3)
	for _, fh := range seen {
		assert.NotEqual(t, string(sentinelKey), fh)
	}
}
