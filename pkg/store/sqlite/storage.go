package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// BaseColumns are the identifying columns every feed row carries.
var BaseColumns = []string{
	"region_id",
	"region_type",
	"region_name",
	"period_begin",
	"period_end",
	"duration",
}

// MetricColumns are the numeric metric columns of the observations
// table. The variable allow-list served to the UI is validated against
// this set, so dynamic column names never reach query text unchecked.
var MetricColumns = []string{
	"median_sale_price",
	"median_list_price",
	"median_new_listing_price",
	"homes_sold",
	"pending_sales",
	"new_listings",
	"inventory",
	"median_days_to_close",
	"average_sale_to_list_ratio",
}

// IsMetricColumn reports whether name is a known metric column.
func IsMetricColumn(name string) bool {
	for _, c := range MetricColumns {
		if c == name {
			return true
		}
	}
	return false
}

type Settings struct {
	Path string
	// BulkLoad relaxes durability for one-shot ingestion builds.
	BulkLoad bool
	// ReadOnly opens an existing generation without touching the
	// schema; the serving path never writes.
	ReadOnly bool
}

// NewDB opens a store file. Unless ReadOnly is set the file is created
// if needed and the observation schema applied.
func NewDB(settings Settings) (*sql.DB, error) {
	dsn := settings.Path
	if settings.ReadOnly {
		dsn = "file:" + settings.Path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", settings.Path, err)
	}
	if settings.ReadOnly {
		return db, nil
	}

	if settings.BulkLoad {
		for _, pragma := range []string{
			"PRAGMA synchronous = OFF",
			"PRAGMA journal_mode = MEMORY",
		} {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply %s: %w", pragma, err)
			}
		}
	}

	if _, err := db.Exec(observationSchema()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// ValidateColumns checks that every known column actually exists on
// the opened store's observations table, so a stale or foreign db file
// fails at startup instead of at the first query.
func ValidateColumns(db *sql.DB) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info('observations')")
	if err != nil {
		return fmt.Errorf("inspect observations schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range append(append([]string{}, BaseColumns...), MetricColumns...) {
		if !present[col] {
			return fmt.Errorf("observations table missing column %q", col)
		}
	}
	return nil
}

func observationSchema() string {
	cols := []string{
		"region_id INTEGER NOT NULL",
		"region_type TEXT NOT NULL",
		"region_name TEXT NOT NULL",
		"period_begin TEXT NOT NULL",
		"period_end TEXT NOT NULL",
		"duration TEXT NOT NULL",
	}
	for _, m := range MetricColumns {
		cols = append(cols, m+" REAL")
	}
	// No uniqueness constraint on (region_id, period_end, duration):
	// the upstream feed may repeat keys and readers dedupe keep-last.
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS observations (%s);", strings.Join(cols, ", "))
}
