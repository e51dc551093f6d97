package sourcename

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
	st, err := store.Open(t.TempDir(), "source_name_store", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st)
}

func TestInsertAndFind(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	require.NoError(t, s.Insert(1, "repo-a", "file1.bin", ch))
	require.NoError(t, s.Insert(1, "repo-b", "file2.bin", ch))

	names, err := s.Find(1)
	require.NoError(t, err)
	assert.Equal(t, []types.SourceName{
		{RepositoryName: "repo-a", Filename: "file1.bin"},
		{RepositoryName: "repo-b", Filename: "file2.bin"},
	}, names)
	assert.EqualValues(t, 2, ch.SourceNameInserted)
}

func TestInsertDuplicateIsSuppressed(t *testing.T) {
	s := newTestStore(t)
	ch := &changes.Report{}

	require.NoError(t, s.Insert(1, "repo-a", "file1.bin", ch))
	require.NoError(t, s.Insert(1, "repo-a", "file1.bin", ch))

	names, err := s.Find(1)
	require.NoError(t, err)
	assert.Len(t, names, 1)
	assert.EqualValues(t, 1, ch.SourceNameAlreadyPresent)
}

func TestFindMissingReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	names, err := s.Find(42)
	require.NoError(t, err)
	assert.Empty(t, names)
}
