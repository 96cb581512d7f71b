// Package figure turns query-layer results into the payloads the
// dashboard renders: a value-per-region choropleth input and a
// per-region time series. Composition is pure; the service wrapper
// adds input handling and a bypassable TTL cache for the time series.
package figure

import (
	"fmt"
	"sort"

	"github.com/de-tools/housing-atlas/pkg/models/api"
	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/paulmach/orb/geojson"
)

// ShapeHighlighter is the boundary-asset lookup the composer needs;
// satisfied by geo.ShapeIndex.
type ShapeHighlighter interface {
	Highlight(geoTypes []domain.GeoType, ids []int) *geojson.FeatureCollection
}

const (
	PromptSelectRegions  = "Please select regions"
	PromptSelectVariable = "Please select a variable"
)

// composeMap builds the choropleth payload. Highlighted geometry is
// restricted to the selection and suppressed entirely when the
// triggering event was a geography toggle (the selection was just
// reset).
func composeMap(
	cat *catalog.Catalog,
	shapes ShapeHighlighter,
	rows []store.MetricRow,
	req domain.MapRequest,
) api.MapFigure {
	fig := api.MapFigure{
		Title:     cat.MapTitle(req.Variable, req.Duration, req.GeoTypes, req.PeriodEnd),
		Variable:  req.Variable,
		PeriodEnd: req.PeriodEnd,
		Regions:   make([]api.MapRegion, 0, len(rows)),
	}

	for _, r := range rows {
		fig.Regions = append(fig.Regions, api.MapRegion{
			RegionID:  r.RegionID,
			Value:     r.Value,
			HoverText: fmt.Sprintf("%s: %.2f", cat.RegionName(r.RegionID), r.Value),
		})
	}

	if req.Trigger != domain.EventGeoToggle {
		fig.Highlighted = shapes.Highlight(req.GeoTypes, req.Selection)
	}

	return fig
}

// composeTimeSeries builds one line per region, points sorted by
// period end ascending, with a marker at the chosen end date.
func composeTimeSeries(
	cat *catalog.Catalog,
	rows []store.MetricRow,
	req domain.TimeSeriesRequest,
) api.TimeSeriesFigure {
	fig := api.TimeSeriesFigure{
		Title:  cat.PrettyName(req.Variable),
		Marker: req.PeriodEnd,
		Series: make([]api.Series, 0, len(req.Selection)),
	}

	points := make(map[int][]api.SeriesPoint)
	for _, r := range rows {
		points[r.RegionID] = append(points[r.RegionID], api.SeriesPoint{
			PeriodEnd: r.PeriodEnd,
			Value:     r.Value,
		})
	}

	// One line per selected region, in selection order.
	for _, id := range req.Selection {
		ps, ok := points[id]
		if !ok {
			continue
		}
		sort.Slice(ps, func(i, j int) bool { return ps[i].PeriodEnd < ps[j].PeriodEnd })
		fig.Series = append(fig.Series, api.Series{
			RegionID:   id,
			RegionName: cat.RegionName(id),
			Points:     ps,
		})
	}

	return fig
}

// placeholder returns the empty-series payload carrying a prompt
// instead of data.
func placeholder(prompt string) api.TimeSeriesFigure {
	return api.TimeSeriesFigure{
		Prompt: prompt,
		Series: []api.Series{},
	}
}
