package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
)

// tsvReader streams observations from the tab-delimited feed. The
// header row decides the column layout; base columns are required,
// metric columns are matched against the known schema and anything
// else is ignored.
type tsvReader struct {
	r       *csv.Reader
	base    map[string]int
	metrics map[string]int
	line    int
}

func newTSVReader(r io.Reader) (*tsvReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	base := make(map[string]int, len(sqlite.BaseColumns))
	for _, col := range sqlite.BaseColumns {
		i, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("source file missing required column %q", col)
		}
		base[col] = i
	}

	metrics := make(map[string]int)
	for _, col := range sqlite.MetricColumns {
		if i, ok := index[col]; ok {
			metrics[col] = i
		}
	}

	return &tsvReader{r: cr, base: base, metrics: metrics, line: 1}, nil
}

// ReadBatch returns up to n observations. io.EOF signals the end of
// the file; a non-empty batch is returned alongside it.
func (t *tsvReader) ReadBatch(n int) ([]store.Observation, error) {
	batch := make([]store.Observation, 0, n)
	for len(batch) < n {
		record, err := t.r.Read()
		if err == io.EOF {
			return batch, io.EOF
		}
		if err != nil {
			return batch, fmt.Errorf("read source row: %w", err)
		}
		t.line++

		obs, err := t.parseRow(record)
		if err != nil {
			return batch, fmt.Errorf("line %d: %w", t.line, err)
		}
		batch = append(batch, obs)
	}
	return batch, nil
}

func (t *tsvReader) parseRow(record []string) (store.Observation, error) {
	field := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}

	regionID, err := strconv.Atoi(field(t.base["region_id"]))
	if err != nil {
		return store.Observation{}, fmt.Errorf("parse region_id: %w", err)
	}

	obs := store.Observation{
		RegionID:    regionID,
		RegionType:  field(t.base["region_type"]),
		RegionName:  field(t.base["region_name"]),
		PeriodBegin: field(t.base["period_begin"]),
		PeriodEnd:   field(t.base["period_end"]),
		Duration:    field(t.base["duration"]),
		Metrics:     make(map[string]float64, len(t.metrics)),
	}

	for col, i := range t.metrics {
		raw := field(i)
		if raw == "" || raw == "NA" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return store.Observation{}, fmt.Errorf("parse %s %q: %w", col, raw, err)
		}
		obs.Metrics[col] = v
	}

	return obs, nil
}
