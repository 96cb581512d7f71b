package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
	"github.com/rs/zerolog"
)

type LoaderConfig struct {
	DBPath       string
	ManifestPath string
	ArchiveDir   string
	BatchSize    int
	MinRegions   int
}

// Loader builds one store generation from a source file and swaps it
// in atomically. Post-load validation failures are logged but do not
// roll the generation back before the swap; an operator is expected to
// check the log before trusting a new generation.
type Loader struct {
	cfg LoaderConfig
}

func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10000
	}
	if cfg.MinRegions <= 0 {
		cfg.MinRegions = 500
	}
	return &Loader{cfg: cfg}
}

// Run ingests sourcePath. An unchanged source (checksum equal to the
// current manifest entry) is a clean no-op.
func (l *Loader) Run(ctx context.Context, sourcePath string) error {
	logger := zerolog.Ctx(ctx)

	checksum, size, err := FileChecksum(sourcePath)
	if err != nil {
		return err
	}

	manifest, err := OpenManifest(l.cfg.ManifestPath)
	if err != nil {
		return err
	}
	if current, ok := manifest.Current(); ok && current.Checksum == checksum {
		logger.Info().
			Str("checksum", checksum).
			Msg("source unchanged since current generation, nothing to do")
		return nil
	}

	buildPath := l.cfg.DBPath + ".building"
	if err := os.Remove(buildPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale build %s: %w", buildPath, err)
	}

	db, err := sqlite.NewDB(sqlite.Settings{Path: buildPath, BulkLoad: true})
	if err != nil {
		return err
	}
	defer db.Close()

	obsStore, err := observation.NewStore(db)
	if err != nil {
		return err
	}

	rowCount, err := l.load(ctx, db, obsStore, sourcePath)
	if err != nil {
		return err
	}
	logger.Info().Int64("rows", rowCount).Msg("source loaded")

	if err := obsStore.CreateIndexes(ctx); err != nil {
		return err
	}
	if err := obsStore.BuildLookups(ctx); err != nil {
		return err
	}

	l.validate(ctx, obsStore)

	if err := db.Close(); err != nil {
		return fmt.Errorf("close build store: %w", err)
	}

	if err := l.swap(ctx, buildPath, sourcePath); err != nil {
		return err
	}

	if err := manifest.Append(store.ManifestEntry{
		DownloadDate: time.Now(),
		Checksum:     checksum,
		SizeBytes:    size,
		RowCount:     rowCount,
	}); err != nil {
		return err
	}

	logger.Info().
		Str("checksum", checksum).
		Int64("rows", rowCount).
		Msg("new generation is current")
	return nil
}

// load streams the source in fixed-size batches, one transaction per
// batch, so peak memory stays bounded on files larger than memory.
func (l *Loader) load(
	ctx context.Context,
	db *sql.DB,
	obsStore observation.Store,
	sourcePath string,
) (int64, error) {
	logger := zerolog.Ctx(ctx)

	f, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", sourcePath, err)
	}
	defer f.Close()

	reader, err := newTSVReader(f)
	if err != nil {
		return 0, err
	}

	var total int64
	for {
		batch, readErr := reader.ReadBatch(l.cfg.BatchSize)
		if readErr != nil && readErr != io.EOF {
			return total, readErr
		}

		if len(batch) > 0 {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return total, fmt.Errorf("begin batch transaction: %w", err)
			}
			if err := obsStore.Add(sqlite.WithTransaction(ctx, tx), batch); err != nil {
				_ = tx.Rollback()
				return total, err
			}
			if err := tx.Commit(); err != nil {
				return total, fmt.Errorf("commit batch: %w", err)
			}
			total += int64(len(batch))
			logger.Debug().Int64("rows", total).Msg("batch committed")
		}

		if readErr == io.EOF {
			return total, nil
		}
	}
}

// validate runs the post-load smoke checks: region types must be
// exactly {county, metro}, the region count must be plausible, and
// every variable must return data for every duration at the most
// recent end date plus one random sample. Failures are logged, not
// returned (see Loader doc).
func (l *Loader) validate(ctx context.Context, obsStore observation.Store) {
	logger := zerolog.Ctx(ctx)

	types, err := obsStore.RegionTypes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("validation: region types query failed")
	} else if len(types) != 2 || types[0] != "county" || types[1] != "metro" {
		logger.Error().Strs("region_types", types).Msg("validation: region types are not exactly {county, metro}")
	}

	regions, err := obsStore.Regions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("validation: regions query failed")
	} else if len(regions) < l.cfg.MinRegions {
		logger.Error().
			Int("regions", len(regions)).
			Int("min", l.cfg.MinRegions).
			Msg("validation: implausibly few regions")
	}

	periods, err := obsStore.TimePeriods(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("validation: time periods query failed")
		return
	}

	endDates := make(map[string][]string)
	for _, p := range periods {
		endDates[p.Duration] = append(endDates[p.Duration], p.PeriodEnd)
	}

	for duration, dates := range endDates {
		sort.Strings(dates)
		samples := []string{dates[len(dates)-1]}
		if len(dates) > 1 {
			samples = append(samples, dates[rand.Intn(len(dates)-1)])
		}
		for _, variable := range sqlite.MetricColumns {
			for _, periodEnd := range samples {
				rows, err := obsStore.FetchByTimePeriod(ctx, variable, duration, periodEnd)
				if err != nil {
					logger.Error().Err(err).
						Str("variable", variable).
						Str("duration", duration).
						Str("period_end", periodEnd).
						Msg("validation: fetch failed")
					continue
				}
				if len(rows) == 0 {
					logger.Error().
						Str("variable", variable).
						Str("duration", duration).
						Str("period_end", periodEnd).
						Msg("validation: no data for variable at period")
				}
			}
		}
	}
}

// swap archives the active generation and source file, then renames
// the freshly built store into place.
func (l *Loader) swap(ctx context.Context, buildPath, sourcePath string) error {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(l.cfg.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	now := time.Now()
	if _, err := os.Stat(l.cfg.DBPath); err == nil {
		archived := filepath.Join(l.cfg.ArchiveDir,
			fmt.Sprintf("housing-%s.db", now.Format("20060102-150405")))
		if err := moveFile(l.cfg.DBPath, archived); err != nil {
			return fmt.Errorf("archive current store: %w", err)
		}
		logger.Info().Str("archive", archived).Msg("previous generation archived")
	}

	// The build file lives next to the target, so this rename stays
	// atomic on one filesystem.
	if err := os.Rename(buildPath, l.cfg.DBPath); err != nil {
		return fmt.Errorf("activate new store: %w", err)
	}

	archivedSource := filepath.Join(l.cfg.ArchiveDir,
		fmt.Sprintf("source-%s.tsv", now.Format("2006-01-02")))
	if err := moveFile(sourcePath, archivedSource); err != nil {
		return fmt.Errorf("archive source file: %w", err)
	}
	logger.Info().Str("archive", archivedSource).Msg("source file archived")

	return nil
}

// moveFile renames src to dst, falling back to copy+remove when the
// two paths are on different filesystems (a downloaded source in /tmp,
// an archive dir elsewhere).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyAndRemove(src, dst)
}

func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	return os.Remove(src)
}
