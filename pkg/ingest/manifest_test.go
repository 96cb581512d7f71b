package ingest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_AppendDemotesPriorRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.tsv")

	m, err := OpenManifest(path)
	require.NoError(t, err)
	_, ok := m.Current()
	assert.False(t, ok)

	first := store.ManifestEntry{
		DownloadDate: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		Checksum:     "aaaa",
		SizeBytes:    100,
		RowCount:     10,
	}
	require.NoError(t, m.Append(first))

	second := store.ManifestEntry{
		DownloadDate: time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC),
		Checksum:     "bbbb",
		SizeBytes:    200,
		RowCount:     20,
	}
	require.NoError(t, m.Append(second))

	// Reload from disk
	m, err = OpenManifest(path)
	require.NoError(t, err)

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Current)
	assert.True(t, entries[1].Current)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "bbbb", current.Checksum)
	assert.Equal(t, int64(20), current.RowCount)
}
