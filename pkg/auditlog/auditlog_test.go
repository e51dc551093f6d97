package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfir-forensics/hashdb/pkg/changes"
)

func TestAppendCreatesFile(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, Session{
		Command:       "hashdb import --repo test",
		StartedAt:     "2026-01-01T00:00:00Z",
		FinishedAt:    "2026-01-01T00:01:00Z",
		DurationMS:    60000,
		ChangesReport: &changes.Report{HashDataInserted: 5},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<session>")
	assert.Contains(t, string(data), "hashdb import --repo test")
}

func TestAppendTwiceKeepsBothSessions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, Session{Command: "first"}))
	require.NoError(t, Append(dir, Session{Command: "second"}))

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "<session>"))
}
