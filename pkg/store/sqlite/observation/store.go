package observation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
)

// Store supports both ingestion (Add, CreateIndexes, BuildLookups) and
// read operations over one generation of the observations table.
//
// The feed does not guarantee (region_id, period_end, duration)
// uniqueness, so both fetch paths dedupe keep-last: rows are scanned in
// rowid order and a later file row replaces an earlier one for the
// same key.
type Store interface {
	Add(ctx context.Context, rows []store.Observation) error
	CreateIndexes(ctx context.Context) error
	BuildLookups(ctx context.Context) error
	FetchByTimePeriod(ctx context.Context, variable, duration, periodEnd string) ([]store.MetricRow, error)
	FetchByRegions(ctx context.Context, regionIDs []int, variable, duration string) ([]store.MetricRow, error)
	TimePeriods(ctx context.Context) ([]store.TimePeriod, error)
	Regions(ctx context.Context) ([]store.Region, error)
	RegionTypes(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

type observationStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &observationStore{db: db}, nil
}

func insertQuery() string {
	cols := append([]string{}, sqlite.BaseColumns...)
	cols = append(cols, sqlite.MetricColumns...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		"INSERT INTO observations (%s) VALUES (%s)",
		join(cols, ", "), join(placeholders, ", "),
	)
}

func (o *observationStore) Add(ctx context.Context, rows []store.Observation) error {
	if len(rows) == 0 {
		return nil
	}

	tx := sqlite.GetTransaction(ctx)
	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = o.db.PrepareContext(ctx, insertQuery())
	} else {
		stmt, err = tx.PrepareContext(ctx, insertQuery())
	}
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := []interface{}{
			row.RegionID,
			row.RegionType,
			row.RegionName,
			row.PeriodBegin,
			row.PeriodEnd,
			row.Duration,
		}
		for _, m := range sqlite.MetricColumns {
			if v, ok := row.Metrics[m]; ok {
				args = append(args, sql.NullFloat64{Float64: v, Valid: true})
			} else {
				args = append(args, sql.NullFloat64{})
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	return nil
}

func (o *observationStore) CreateIndexes(ctx context.Context) error {
	// date_duration_idx drives FetchByTimePeriod (the map),
	// region_id_idx drives FetchByRegions (the time series).
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS date_duration_idx ON observations (period_end, duration)",
		"CREATE INDEX IF NOT EXISTS region_id_idx ON observations (region_id, duration)",
	}
	for _, q := range indexes {
		if _, err := o.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (o *observationStore) BuildLookups(ctx context.Context) error {
	queries := []string{
		"DROP TABLE IF EXISTS time_periods",
		`CREATE TABLE time_periods AS
			SELECT DISTINCT period_begin, period_end, duration FROM observations`,
		"DROP TABLE IF EXISTS regions",
		`CREATE TABLE regions AS
			SELECT DISTINCT region_type, region_id, region_name FROM observations`,
	}
	for _, q := range queries {
		if _, err := o.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("build lookup tables: %w", err)
		}
	}
	return nil
}

func (o *observationStore) FetchByTimePeriod(
	ctx context.Context,
	variable, duration, periodEnd string,
) ([]store.MetricRow, error) {
	if !sqlite.IsMetricColumn(variable) {
		return nil, fmt.Errorf("unknown metric column %q", variable)
	}

	query := fmt.Sprintf(`
		SELECT region_id, period_end, duration, %s
		FROM observations
		WHERE period_end = ? AND duration = ? AND %[1]s IS NOT NULL
		ORDER BY rowid`, variable)

	rows, err := o.db.QueryContext(ctx, query, periodEnd, duration)
	if err != nil {
		return nil, fmt.Errorf("query by time period: %w", err)
	}
	defer rows.Close()
	return scanMetricRows(rows)
}

func (o *observationStore) FetchByRegions(
	ctx context.Context,
	regionIDs []int,
	variable, duration string,
) ([]store.MetricRow, error) {
	if !sqlite.IsMetricColumn(variable) {
		return nil, fmt.Errorf("unknown metric column %q", variable)
	}
	if len(regionIDs) == 0 {
		return []store.MetricRow{}, nil
	}

	placeholders := make([]string, len(regionIDs))
	args := make([]interface{}, 0, len(regionIDs)+1)
	args = append(args, duration)
	for i, id := range regionIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT region_id, period_end, duration, %s
		FROM observations
		WHERE duration = ? AND %[1]s IS NOT NULL AND region_id IN (%[2]s)
		ORDER BY rowid`, variable, join(placeholders, ","))

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by regions: %w", err)
	}
	defer rows.Close()
	return scanMetricRows(rows)
}

func (o *observationStore) TimePeriods(ctx context.Context) ([]store.TimePeriod, error) {
	rows, err := o.db.QueryContext(ctx,
		"SELECT period_begin, period_end, duration FROM time_periods")
	if err != nil {
		return nil, fmt.Errorf("query time periods: %w", err)
	}
	defer rows.Close()

	periods := make([]store.TimePeriod, 0)
	for rows.Next() {
		var p store.TimePeriod
		if err := rows.Scan(&p.PeriodBegin, &p.PeriodEnd, &p.Duration); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (o *observationStore) Regions(ctx context.Context) ([]store.Region, error) {
	rows, err := o.db.QueryContext(ctx,
		"SELECT region_id, region_type, region_name FROM regions")
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	regions := make([]store.Region, 0)
	for rows.Next() {
		var r store.Region
		if err := rows.Scan(&r.ID, &r.Type, &r.Name); err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

func (o *observationStore) RegionTypes(ctx context.Context) ([]string, error) {
	rows, err := o.db.QueryContext(ctx,
		"SELECT DISTINCT region_type FROM regions ORDER BY region_type")
	if err != nil {
		return nil, fmt.Errorf("query region types: %w", err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (o *observationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := o.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM observations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return count, nil
}

// scanMetricRows collapses duplicate (region_id, period_end) keys,
// keeping the last row in rowid order, and preserves first-seen key
// order otherwise.
func scanMetricRows(rows *sql.Rows) ([]store.MetricRow, error) {
	type key struct {
		regionID  int
		periodEnd string
	}
	index := make(map[key]int)
	result := make([]store.MetricRow, 0)

	for rows.Next() {
		var r store.MetricRow
		if err := rows.Scan(&r.RegionID, &r.PeriodEnd, &r.Duration, &r.Value); err != nil {
			return nil, err
		}
		k := key{r.RegionID, r.PeriodEnd}
		if i, ok := index[k]; ok {
			result[i] = r
			continue
		}
		index[k] = len(result)
		result = append(result, r)
	}
	return result, rows.Err()
}

func join(items []string, sep string) string {
	if len(items) == 0 {
		return ""
	}
	out := items[0]
	for i := 1; i < len(items); i++ {
		out += sep + items[i]
	}
	return out
}
