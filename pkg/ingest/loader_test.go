package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2 regions x 2 periods x 1 duration for median_sale_price.
const sampleTSV = "region_id\tregion_type\tregion_name\tperiod_begin\tperiod_end\tduration\tmedian_sale_price\tinventory\n" +
	"100\tcounty\tKings County, NY\t2024-01-08\t2024-01-14\t1 weeks\t440000\t120\n" +
	"200\tmetro\tDenver, CO metro area\t2024-01-08\t2024-01-14\t1 weeks\t510000\t300\n" +
	"100\tcounty\tKings County, NY\t2024-01-15\t2024-01-21\t1 weeks\t450000\t118\n" +
	"200\tmetro\tDenver, CO metro area\t2024-01-15\t2024-01-21\t1 weeks\t520000\t\n"

type loaderFixture struct {
	dir    string
	loader *Loader
	ctx    context.Context
}

func setupLoader(t *testing.T) *loaderFixture {
	dir := t.TempDir()
	loader := NewLoader(LoaderConfig{
		DBPath:       filepath.Join(dir, "housing.db"),
		ManifestPath: filepath.Join(dir, "manifest.tsv"),
		ArchiveDir:   filepath.Join(dir, "archive"),
		BatchSize:    2,
		MinRegions:   1,
	})
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return &loaderFixture{
		dir:    dir,
		loader: loader,
		ctx:    logger.WithContext(context.Background()),
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_RoundTrip(t *testing.T) {
	f := setupLoader(t)
	src := writeSource(t, f.dir, "feed.tsv", sampleTSV)

	require.NoError(t, f.loader.Run(f.ctx, src))

	db, err := sqlite.NewDB(sqlite.Settings{Path: f.loader.cfg.DBPath})
	require.NoError(t, err)
	defer db.Close()
	obsStore, err := observation.NewStore(db)
	require.NoError(t, err)

	count, err := obsStore.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Fetch at the latest period returns exactly one row per region
	// with the literal source values.
	rows, err := obsStore.FetchByTimePeriod(f.ctx, "median_sale_price", "1 weeks", "2024-01-21")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100, rows[0].RegionID)
	assert.Equal(t, 450000.0, rows[0].Value)
	assert.Equal(t, 200, rows[1].RegionID)
	assert.Equal(t, 520000.0, rows[1].Value)

	// Empty inventory field became NULL and is filtered from fetches.
	inv, err := obsStore.FetchByTimePeriod(f.ctx, "inventory", "1 weeks", "2024-01-21")
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, 100, inv[0].RegionID)

	// Lookup tables were derived.
	periods, err := obsStore.TimePeriods(f.ctx)
	require.NoError(t, err)
	assert.Len(t, periods, 2)
	regions, err := obsStore.Regions(f.ctx)
	require.NoError(t, err)
	assert.Len(t, regions, 2)

	// Source file was archived, manifest marks the generation current.
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	manifest, err := OpenManifest(f.loader.cfg.ManifestPath)
	require.NoError(t, err)
	current, ok := manifest.Current()
	require.True(t, ok)
	assert.Equal(t, int64(4), current.RowCount)
}

func TestLoader_UnchangedChecksumIsNoOp(t *testing.T) {
	f := setupLoader(t)

	src := writeSource(t, f.dir, "feed.tsv", sampleTSV)
	require.NoError(t, f.loader.Run(f.ctx, src))

	manifest, err := OpenManifest(f.loader.cfg.ManifestPath)
	require.NoError(t, err)
	before, ok := manifest.Current()
	require.True(t, ok)

	// Same bytes again: loader must exit without touching anything.
	again := writeSource(t, f.dir, "feed_again.tsv", sampleTSV)
	require.NoError(t, f.loader.Run(f.ctx, again))

	manifest, err = OpenManifest(f.loader.cfg.ManifestPath)
	require.NoError(t, err)
	assert.Len(t, manifest.Entries(), 1)
	after, ok := manifest.Current()
	require.True(t, ok)
	assert.Equal(t, before, after)

	// The second source file was not consumed.
	_, err = os.Stat(again)
	assert.NoError(t, err)
}

func TestLoader_NewGenerationArchivesOld(t *testing.T) {
	f := setupLoader(t)

	src := writeSource(t, f.dir, "feed.tsv", sampleTSV)
	require.NoError(t, f.loader.Run(f.ctx, src))

	updated := sampleTSV +
		"100\tcounty\tKings County, NY\t2024-01-22\t2024-01-28\t1 weeks\t455000\t117\n"
	src2 := writeSource(t, f.dir, "feed2.tsv", updated)
	require.NoError(t, f.loader.Run(f.ctx, src2))

	manifest, err := OpenManifest(f.loader.cfg.ManifestPath)
	require.NoError(t, err)
	require.Len(t, manifest.Entries(), 2)
	current, ok := manifest.Current()
	require.True(t, ok)
	assert.Equal(t, int64(5), current.RowCount)

	// One archived db generation plus archived source files.
	entries, err := os.ReadDir(f.loader.cfg.ArchiveDir)
	require.NoError(t, err)
	var dbArchives int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".db" {
			dbArchives++
		}
	}
	assert.Equal(t, 1, dbArchives)
}

func TestMoveFile(t *testing.T) {
	t.Run("renames within one filesystem", func(t *testing.T) {
		dir := t.TempDir()
		src := writeSource(t, dir, "a.tsv", "data")
		dst := filepath.Join(dir, "b.tsv")

		require.NoError(t, moveFile(src, dst))

		_, err := os.Stat(src)
		assert.True(t, os.IsNotExist(err))
		moved, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "data", string(moved))
	})

	// Rename fails across filesystems (a /tmp download, an archive dir
	// on disk); the fallback path must behave identically.
	t.Run("copy fallback preserves contents and removes source", func(t *testing.T) {
		dir := t.TempDir()
		src := writeSource(t, dir, "a.tsv", "data")
		dst := filepath.Join(dir, "b.tsv")

		require.NoError(t, copyAndRemove(src, dst))

		_, err := os.Stat(src)
		assert.True(t, os.IsNotExist(err))
		moved, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "data", string(moved))
	})
}

func TestLoader_MissingColumnFails(t *testing.T) {
	f := setupLoader(t)
	src := writeSource(t, f.dir, "feed.tsv",
		"region_id\tregion_type\tperiod_end\tduration\tmedian_sale_price\n"+
			"100\tcounty\t2024-01-21\t1 weeks\t450000\n")

	err := f.loader.Run(f.ctx, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region_name")
}
