package sourcedata

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
	st, err := store.Open(t.TempDir(), "source_data_store", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st)
}

func TestInsertNewCountsInserted(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}
	d := types.SourceData{FileHash: types.FileHash("fh"), FileSize: 1024, FileType: "jpg"}

	require.NoError(t, s.Insert(1, d, ch))
	assert.EqualValues(t, 1, ch.SourceDataInserted)

	got, ok, err := s.Find(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d, got)
}

func TestInsertSameIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}
	d := types.SourceData{FileHash: types.FileHash("fh"), FileSize: 1024, FileType: "jpg"}

	require.NoError(t, s.Insert(1, d, ch))
	require.NoError(t, s.Insert(1, d, ch))

	assert.EqualValues(t, 1, ch.SourceDataInserted)
	assert.EqualValues(t, 1, ch.SourceDataSame)
}

func TestInsertDifferingCountsChanged(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}
	d1 := types.SourceData{FileHash: types.FileHash("fh"), FileSize: 1024}
	d2 := types.SourceData{FileHash: types.FileHash("fh"), FileSize: 2048}

	require.NoError(t, s.Insert(1, d1, ch))
	require.NoError(t, s.Insert(1, d2, ch))

	assert.EqualValues(t, 1, ch.SourceDataChanged)

	got, _, err := s.Find(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), got.FileSize)
}

func TestFindMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Find(99)
	require.NoError(t, err)
	assert.False(t, ok)
}
