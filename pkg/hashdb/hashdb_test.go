package hashdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfir-forensics/hashdb/pkg/types"
)

func TestCreateAndOpenEmptyHashdb(t *testing.T) {
	dir := t.TempDir()
	ok, msg := CreateHashdb(dir, types.DefaultSettings(), "hashdb create")
	require.True(t, ok, msg)

	h, err := Open(dir)
	require.NoError(t, err)
	defer h.Close()

	_, found, err := h.FindHash(types.BlockHash{0})
	require.NoError(t, err)
	assert.False(t, found)

	_, ok2, err := h.HashBegin()
	require.NoError(t, err)
	assert.False(t, ok2)

	n, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateTwiceFails(t *testing.T) {
	dir := t.TempDir()
	ok, _ := CreateHashdb(dir, types.DefaultSettings(), "first")
	require.True(t, ok)

	ok, msg := CreateHashdb(dir, types.DefaultSettings(), "second")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestImportSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ok, msg := CreateHashdb(dir, types.DefaultSettings(), "hashdb create")
	require.True(t, ok, msg)

	h, err := Open(dir)
	require.NoError(t, err)
	defer h.Close()

	sess := h.NewImportSession("hashdb import --repo t")
	_, sid, err := sess.InsertSourceID(types.FileHash("file-a"))
	require.NoError(t, err)
	require.NoError(t, sess.InsertSourceName(sid, "repo", "file-a.bin"))
	require.NoError(t, sess.InsertSourceData(sid, types.SourceData{FileHash: types.FileHash("file-a"), FileSize: 100}))

	total, err := sess.InsertHash(types.BlockHash("h1"), 5, "lbl", sid)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.NoError(t, sess.Close())

	rec, found, err := h.FindHash(types.BlockHash("h1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(1), rec.TotalCount)

	assert.True(t, h.BloomPossible(types.BlockHash("h1")))

	count, err := h.FindApproximateHashCount(types.BlockHash("h1"))
	require.NoError(t, err)
	assert.Greater(t, count, uint64(0))

	gotSID, found, err := h.FindSourceID(types.FileHash("file-a"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sid, gotSID)
}

func TestFindExpandedHash(t *testing.T) {
	dir := t.TempDir()
	ok, _ := CreateHashdb(dir, types.DefaultSettings(), "hashdb create")
	require.True(t, ok)

	h, err := Open(dir)
	require.NoError(t, err)
	defer h.Close()

	sess := h.NewImportSession("hashdb import")
	_, sid, err := sess.InsertSourceID(types.FileHash("fh"))
	require.NoError(t, err)
	require.NoError(t, sess.InsertSourceData(sid, types.SourceData{FileHash: types.FileHash("fh"), FileSize: 42}))
	require.NoError(t, sess.InsertSourceName(sid, "repo", "name.bin"))
	_, err = sess.InsertHash(types.BlockHash("h1"), 0, "", sid)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	data, found, err := h.FindExpandedHash(types.BlockHash("h1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(data), `"file_hash_hex"`)
	assert.Contains(t, string(data), `"id_offset_pairs"`)
}

func TestSizesExcludesSourceIDSentinel(t *testing.T) {
	dir := t.TempDir()
	ok, _ := CreateHashdb(dir, types.DefaultSettings(), "hashdb create")
	require.True(t, ok)

	h, err := Open(dir)
	require.NoError(t, err)
	defer h.Close()

	sess := h.NewImportSession("hashdb import")
	_, sid, err := sess.InsertSourceID(types.FileHash("file-a"))
	require.NoError(t, err)
	_, err = sess.InsertHash(types.BlockHash("h1"), 0, "", sid)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	sizes, err := h.Sizes()
	require.NoError(t, err)
	assert.Equal(t, 1, sizes[sourceIDStoreName])
	assert.Equal(t, 1, sizes[hashDataStoreName])
}

func TestRebuildBloom(t *testing.T) {
	dir := t.TempDir()
	ok, _ := CreateHashdb(dir, types.DefaultSettings(), "hashdb create")
	require.True(t, ok)

	h, err := Open(dir)
	require.NoError(t, err)
	defer h.Close()

	sess := h.NewImportSession("hashdb import")
	_, err = sess.InsertHash(types.BlockHash("h1"), 0, "", 1)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	require.NoError(t, h.RebuildBloom(true, 20, 3, "hashdb rebuild-bloom"))
	assert.True(t, h.BloomPossible(types.BlockHash("h1")))
}
