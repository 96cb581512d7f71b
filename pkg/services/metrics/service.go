// Package metrics is the read-side query layer: it validates UI
// inputs against the catalog, then issues parameterized fetches
// against the current store generation. Both operations are pure with
// respect to a generation; row ordering is left to callers.
package metrics

import (
	"context"
	"fmt"

	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
)

type Explorer interface {
	FetchByTimePeriod(ctx context.Context, variable string, duration domain.Duration, periodEnd string) ([]store.MetricRow, error)
	FetchByRegions(ctx context.Context, regionIDs []int, variable string, duration domain.Duration) ([]store.MetricRow, error)
}

type explorer struct {
	store   observation.Store
	catalog *catalog.Catalog
}

func NewExplorer(obsStore observation.Store, cat *catalog.Catalog) Explorer {
	return &explorer{store: obsStore, catalog: cat}
}

func (e *explorer) validate(variable string, duration domain.Duration) error {
	if !e.catalog.HasVariable(variable) {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	if !duration.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDuration, duration)
	}
	return nil
}

// FetchByTimePeriod returns one row per region having data at
// (periodEnd, duration); it drives the choropleth.
func (e *explorer) FetchByTimePeriod(
	ctx context.Context,
	variable string,
	duration domain.Duration,
	periodEnd string,
) ([]store.MetricRow, error) {
	if err := e.validate(variable, duration); err != nil {
		return nil, err
	}
	if !e.catalog.HasPeriodEnd(duration, periodEnd) {
		return nil, fmt.Errorf("%w: %q for duration %q", ErrUnknownPeriodEnd, periodEnd, duration)
	}
	return e.store.FetchByTimePeriod(ctx, variable, string(duration), periodEnd)
}

// FetchByRegions returns the full history for the requested regions at
// a duration; it drives the time series. An empty set short-circuits
// to ErrNoRegions before any query is built.
func (e *explorer) FetchByRegions(
	ctx context.Context,
	regionIDs []int,
	variable string,
	duration domain.Duration,
) ([]store.MetricRow, error) {
	if len(regionIDs) == 0 {
		return nil, ErrNoRegions
	}
	if err := e.validate(variable, duration); err != nil {
		return nil, err
	}
	return e.store.FetchByRegions(ctx, regionIDs, variable, string(duration))
}
