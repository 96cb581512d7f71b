package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countiesJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"region_id": 100, "name": "Kings County, NY"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {"region_id": 300, "name": "Ada County, ID"},
			"geometry": {"type": "Polygon", "coordinates": [[[2,2],[3,2],[3,3],[2,2]]]}
		}
	]
}`

const metrosJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"region_id": 200, "name": "Denver, CO metro area"},
			"geometry": {"type": "Polygon", "coordinates": [[[5,5],[6,5],[6,6],[5,5]]]}
		}
	]
}`

func writeAssets(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geodata_counties.json"), []byte(countiesJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geodata_metros.json"), []byte(metrosJSON), 0o644))
	return dir
}

func loadIndex(t *testing.T) *ShapeIndex {
	idx, err := Load(writeAssets(t), map[domain.GeoType]string{
		domain.GeoTypeCounties: "geodata_counties.json",
		domain.GeoTypeMetros:   "geodata_metros.json",
	})
	require.NoError(t, err)
	return idx
}

func TestLoad(t *testing.T) {
	idx := loadIndex(t)

	assert.True(t, idx.Has([]domain.GeoType{domain.GeoTypeCounties}, 100))
	assert.False(t, idx.Has([]domain.GeoType{domain.GeoTypeCounties}, 200))
	assert.True(t, idx.Has(domain.GeoTypes(), 200))
}

func TestHighlight(t *testing.T) {
	idx := loadIndex(t)

	t.Run("selection subset across types", func(t *testing.T) {
		fc := idx.Highlight(domain.GeoTypes(), []int{100, 200})
		require.Len(t, fc.Features, 2)
	})

	t.Run("unknown ids skipped", func(t *testing.T) {
		fc := idx.Highlight([]domain.GeoType{domain.GeoTypeMetros}, []int{100, 999})
		assert.Empty(t, fc.Features)
	})
}

func TestLoad_MissingRegionID(t *testing.T) {
	dir := t.TempDir()
	bad := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"nowhere"},
		 "geometry":{"type":"Point","coordinates":[0,0]}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geodata_counties.json"), []byte(bad), 0o644))

	_, err := Load(dir, map[domain.GeoType]string{domain.GeoTypeCounties: "geodata_counties.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region_id")
}
