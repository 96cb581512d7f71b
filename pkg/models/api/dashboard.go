package api

import "github.com/paulmach/orb/geojson"

type Variable struct {
	Name       string `json:"name"`
	PrettyName string `json:"pretty_name"`
	Key        bool   `json:"key"`
}

type Region struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Periods struct {
	Duration string   `json:"duration"`
	EndDates []string `json:"end_dates"`
	Latest   string   `json:"latest"`
}

type Defaults struct {
	Variable           string `json:"variable"`
	Duration           string `json:"duration"`
	RegionIDs          []int  `json:"region_ids"`
	MaxSelectedRegions int    `json:"max_selected_regions"`
}

type SelectionRequest struct {
	Prior []int `json:"prior"`
	Event struct {
		Kind     string `json:"kind"`
		Picks    []int  `json:"picks,omitempty"`
		RegionID int    `json:"region_id,omitempty"`
	} `json:"event"`
}

type Selection struct {
	RegionIDs []int `json:"region_ids"`
}

type MapFigureRequest struct {
	Variable  string   `json:"variable"`
	Duration  string   `json:"duration"`
	PeriodEnd string   `json:"period_end"`
	GeoTypes  []string `json:"geo_types"`
	RegionIDs []int    `json:"region_ids"`
	// Trigger is the event kind that caused the refresh; a geography
	// toggle clears the highlighted geometry.
	Trigger string `json:"trigger,omitempty"`
}

type MapRegion struct {
	RegionID  int     `json:"region_id"`
	Value     float64 `json:"value"`
	HoverText string  `json:"hover_text"`
}

type MapFigure struct {
	Title       string                     `json:"title"`
	Variable    string                     `json:"variable"`
	PeriodEnd   string                     `json:"period_end"`
	Regions     []MapRegion                `json:"regions"`
	Highlighted *geojson.FeatureCollection `json:"highlighted,omitempty"`
}

type TimeSeriesRequest struct {
	Variable  string `json:"variable"`
	Duration  string `json:"duration"`
	PeriodEnd string `json:"period_end"`
	RegionIDs []int  `json:"region_ids"`
}

type SeriesPoint struct {
	PeriodEnd string  `json:"period_end"`
	Value     float64 `json:"value"`
}

type Series struct {
	RegionID   int           `json:"region_id"`
	RegionName string        `json:"region_name"`
	Points     []SeriesPoint `json:"points"`
}

type TimeSeriesFigure struct {
	Title string `json:"title"`
	// Prompt is set instead of Series for degenerate selections, e.g.
	// "Please select regions".
	Prompt string   `json:"prompt,omitempty"`
	Marker string   `json:"marker,omitempty"`
	Series []Series `json:"series"`
}

type Error struct {
	Message string `json:"message"`
}
