package domain

// GeoType is a selectable geography layer. Values match the UI
// checklist; RegionType maps them onto the feed's region_type column.
type GeoType string

const (
	GeoTypeCounties GeoType = "counties"
	GeoTypeMetros   GeoType = "metros"
)

func GeoTypes() []GeoType {
	return []GeoType{GeoTypeCounties, GeoTypeMetros}
}

func (g GeoType) Valid() bool {
	return g == GeoTypeCounties || g == GeoTypeMetros
}

// RegionType returns the feed-side type name ("county" or "metro").
func (g GeoType) RegionType() string {
	switch g {
	case GeoTypeCounties:
		return "county"
	case GeoTypeMetros:
		return "metro"
	}
	return ""
}

// Region is a county or metro area with a stable integer id across
// all time periods of a store generation.
type Region struct {
	ID   int
	Name string
	Type GeoType
}
