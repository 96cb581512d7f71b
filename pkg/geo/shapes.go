// Package geo loads the precomputed boundary assets (one GeoJSON
// FeatureCollection per geography type, keyed by the region_id feature
// property) and answers highlight/membership lookups. Shapes are
// read-only after Load.
package geo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/paulmach/orb/geojson"
)

type ShapeIndex struct {
	collections map[domain.GeoType]*geojson.FeatureCollection
	byID        map[domain.GeoType]map[int]*geojson.Feature
}

// Load reads every configured geography file from assetsDir.
func Load(assetsDir string, files map[domain.GeoType]string) (*ShapeIndex, error) {
	idx := &ShapeIndex{
		collections: make(map[domain.GeoType]*geojson.FeatureCollection, len(files)),
		byID:        make(map[domain.GeoType]map[int]*geojson.Feature, len(files)),
	}

	for geoType, file := range files {
		if !geoType.Valid() {
			return nil, fmt.Errorf("unknown geography type %q", geoType)
		}

		path := filepath.Join(assetsDir, file)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read boundary file %s: %w", path, err)
		}

		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("parse boundary file %s: %w", path, err)
		}

		byID := make(map[int]*geojson.Feature, len(fc.Features))
		for _, f := range fc.Features {
			id, ok := regionID(f)
			if !ok {
				return nil, fmt.Errorf("boundary file %s: feature without region_id property", path)
			}
			byID[id] = f
		}

		idx.collections[geoType] = fc
		idx.byID[geoType] = byID
	}

	return idx, nil
}

func regionID(f *geojson.Feature) (int, bool) {
	switch v := f.Properties["region_id"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Has reports whether a boundary exists for the region in any of the
// given geography types.
func (s *ShapeIndex) Has(geoTypes []domain.GeoType, id int) bool {
	for _, g := range geoTypes {
		if _, ok := s.byID[g][id]; ok {
			return true
		}
	}
	return false
}

// Highlight returns the boundary subset for the selected region ids
// across the active geography types. Unknown ids are skipped; the map
// simply has nothing to highlight for them.
func (s *ShapeIndex) Highlight(geoTypes []domain.GeoType, ids []int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoTypes {
		byID := s.byID[g]
		for _, id := range ids {
			if f, ok := byID[id]; ok {
				fc.Append(f)
			}
		}
	}
	return fc
}
