package figure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/housing-atlas/pkg/models/api"
	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/services/metrics"
	"github.com/dgraph-io/ristretto"
)

type Composer interface {
	Map(ctx context.Context, req domain.MapRequest) (api.MapFigure, error)
	TimeSeries(ctx context.Context, req domain.TimeSeriesRequest) (api.TimeSeriesFigure, error)
}

type composer struct {
	metrics metrics.Explorer
	catalog *catalog.Catalog
	shapes  ShapeHighlighter

	// cache memoizes the time-series fetch+compose keyed by the full
	// input tuple. Optional: nil disables memoization entirely.
	cache *ristretto.Cache
	ttl   time.Duration
}

type Option func(*composer)

// WithCache enables time-series memoization with the given TTL.
func WithCache(ttl time.Duration) Option {
	return func(c *composer) {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1 << 14,
			MaxCost:     1 << 10,
			BufferItems: 64,
		})
		if err != nil {
			// Config above is static and valid; a failure here means
			// memoization is unavailable, which is safe to run without.
			return
		}
		c.cache = cache
		c.ttl = ttl
	}
}

func NewComposer(m metrics.Explorer, cat *catalog.Catalog, shapes ShapeHighlighter, opts ...Option) Composer {
	c := &composer{metrics: m, catalog: cat, shapes: shapes}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *composer) Map(ctx context.Context, req domain.MapRequest) (api.MapFigure, error) {
	rows, err := c.metrics.FetchByTimePeriod(ctx, req.Variable, req.Duration, req.PeriodEnd)
	if err != nil {
		return api.MapFigure{}, err
	}
	return composeMap(c.catalog, c.shapes, rows, req), nil
}

func (c *composer) TimeSeries(ctx context.Context, req domain.TimeSeriesRequest) (api.TimeSeriesFigure, error) {
	// Degenerate selections render a prompt, not an error.
	if len(req.Selection) == 0 {
		return placeholder(PromptSelectRegions), nil
	}
	if req.Variable == "" {
		return placeholder(PromptSelectVariable), nil
	}

	key := timeSeriesKey(req)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			if fig, ok := v.(api.TimeSeriesFigure); ok {
				return fig, nil
			}
		}
	}

	rows, err := c.metrics.FetchByRegions(ctx, req.Selection, req.Variable, req.Duration)
	if errors.Is(err, metrics.ErrNoRegions) {
		return placeholder(PromptSelectRegions), nil
	}
	if err != nil {
		return api.TimeSeriesFigure{}, err
	}

	fig := composeTimeSeries(c.catalog, rows, req)
	if c.cache != nil {
		c.cache.SetWithTTL(key, fig, 1, c.ttl)
	}
	return fig, nil
}

func timeSeriesKey(req domain.TimeSeriesRequest) string {
	ids := make([]string, len(req.Selection))
	for i, id := range req.Selection {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("%s|%s|%s|%s", req.Variable, req.Duration, req.PeriodEnd, strings.Join(ids, ","))
}
