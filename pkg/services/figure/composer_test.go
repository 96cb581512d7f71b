package figure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/models/store"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/services/metrics"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite"
	"github.com/de-tools/housing-atlas/pkg/store/sqlite/observation"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShapes returns one feature per requested id so highlight
// behavior is observable without real boundary assets.
type fakeShapes struct{}

func (fakeShapes) Highlight(geoTypes []domain.GeoType, ids []int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range ids {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties["region_id"] = id
		fc.Append(f)
	}
	return fc
}

func setupComposer(t *testing.T, opts ...Option) Composer {
	db, err := sqlite.NewDB(sqlite.Settings{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	obsStore, err := observation.NewStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, obsStore.Add(ctx, []store.Observation{
		{RegionID: 100, RegionType: "county", RegionName: "Kings County, NY",
			PeriodBegin: "2024-01-08", PeriodEnd: "2024-01-14", Duration: "1 weeks",
			Metrics: map[string]float64{"median_sale_price": 440000.456}},
		{RegionID: 100, RegionType: "county", RegionName: "Kings County, NY",
			PeriodBegin: "2024-01-15", PeriodEnd: "2024-01-21", Duration: "1 weeks",
			Metrics: map[string]float64{"median_sale_price": 450000}},
		{RegionID: 200, RegionType: "metro", RegionName: "Denver, CO metro area",
			PeriodBegin: "2024-01-15", PeriodEnd: "2024-01-21", Duration: "1 weeks",
			Metrics: map[string]float64{"median_sale_price": 520000}},
	}))
	require.NoError(t, obsStore.BuildLookups(ctx))

	infoPath := filepath.Join(t.TempDir(), "variable_info.csv")
	require.NoError(t, os.WriteFile(infoPath,
		[]byte("variable,pretty_name,key_var\nmedian_sale_price,Median Sale Price,true\n"), 0o644))

	cat, err := catalog.New(ctx, obsStore, infoPath)
	require.NoError(t, err)

	explorer := metrics.NewExplorer(obsStore, cat)
	return NewComposer(explorer, cat, fakeShapes{}, opts...)
}

func TestComposer_Map(t *testing.T) {
	c := setupComposer(t)
	ctx := context.Background()

	t.Run("values and hover text", func(t *testing.T) {
		fig, err := c.Map(ctx, domain.MapRequest{
			Variable:  "median_sale_price",
			Duration:  domain.Duration1Week,
			PeriodEnd: "2024-01-14",
			GeoTypes:  domain.GeoTypes(),
			Selection: []int{100},
		})
		require.NoError(t, err)
		require.Len(t, fig.Regions, 1)
		assert.Equal(t, "Kings County, NY: 440000.46", fig.Regions[0].HoverText)
		require.NotNil(t, fig.Highlighted)
		assert.Len(t, fig.Highlighted.Features, 1)
	})

	t.Run("geo toggle suppresses highlight", func(t *testing.T) {
		fig, err := c.Map(ctx, domain.MapRequest{
			Variable:  "median_sale_price",
			Duration:  domain.Duration1Week,
			PeriodEnd: "2024-01-21",
			GeoTypes:  []domain.GeoType{domain.GeoTypeCounties},
			Selection: []int{100, 200},
			Trigger:   domain.EventGeoToggle,
		})
		require.NoError(t, err)
		assert.Nil(t, fig.Highlighted)
		assert.Len(t, fig.Regions, 2)
	})

	t.Run("unknown variable propagates", func(t *testing.T) {
		_, err := c.Map(ctx, domain.MapRequest{
			Variable:  "median_ponies",
			Duration:  domain.Duration1Week,
			PeriodEnd: "2024-01-21",
			GeoTypes:  domain.GeoTypes(),
		})
		assert.ErrorIs(t, err, metrics.ErrUnknownVariable)
	})
}

func TestComposer_TimeSeries(t *testing.T) {
	c := setupComposer(t)
	ctx := context.Background()

	t.Run("placeholder when no regions", func(t *testing.T) {
		fig, err := c.TimeSeries(ctx, domain.TimeSeriesRequest{
			Variable: "median_sale_price",
			Duration: domain.Duration1Week,
		})
		require.NoError(t, err)
		assert.Equal(t, PromptSelectRegions, fig.Prompt)
		assert.Empty(t, fig.Series)
	})

	t.Run("placeholder when no variable", func(t *testing.T) {
		fig, err := c.TimeSeries(ctx, domain.TimeSeriesRequest{
			Duration:  domain.Duration1Week,
			Selection: []int{100},
		})
		require.NoError(t, err)
		assert.Equal(t, PromptSelectVariable, fig.Prompt)
	})

	t.Run("one sorted line per selected region", func(t *testing.T) {
		fig, err := c.TimeSeries(ctx, domain.TimeSeriesRequest{
			Variable:  "median_sale_price",
			Duration:  domain.Duration1Week,
			PeriodEnd: "2024-01-21",
			Selection: []int{200, 100},
		})
		require.NoError(t, err)
		assert.Empty(t, fig.Prompt)
		assert.Equal(t, "2024-01-21", fig.Marker)
		assert.Equal(t, "Median Sale Price", fig.Title)

		require.Len(t, fig.Series, 2)
		// Selection order preserved.
		assert.Equal(t, 200, fig.Series[0].RegionID)
		assert.Equal(t, 100, fig.Series[1].RegionID)
		assert.Equal(t, "Denver, CO metro area", fig.Series[0].RegionName)

		// Points ascend by period end.
		kings := fig.Series[1].Points
		require.Len(t, kings, 2)
		assert.Equal(t, "2024-01-14", kings[0].PeriodEnd)
		assert.Equal(t, "2024-01-21", kings[1].PeriodEnd)
	})
}

func TestComposer_TimeSeriesCache(t *testing.T) {
	c := setupComposer(t, WithCache(time.Minute))
	ctx := context.Background()

	req := domain.TimeSeriesRequest{
		Variable:  "median_sale_price",
		Duration:  domain.Duration1Week,
		PeriodEnd: "2024-01-21",
		Selection: []int{100},
	}

	first, err := c.TimeSeries(ctx, req)
	require.NoError(t, err)

	// Memoization is an optimization only: repeated calls must return
	// the same payload whether or not the cache admitted the entry.
	second, err := c.TimeSeries(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
