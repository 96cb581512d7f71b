package domain

// MapRequest is the resolved UI state behind one choropleth refresh.
type MapRequest struct {
	Variable  string
	Duration  Duration
	PeriodEnd string
	GeoTypes  []GeoType
	Selection []int
	// Trigger is the event that caused the refresh; a geography
	// toggle suppresses the highlighted-geometry overlay.
	Trigger SelectionEventKind
}

// TimeSeriesRequest is the resolved UI state behind one time-series
// refresh.
type TimeSeriesRequest struct {
	Variable  string
	Duration  Duration
	PeriodEnd string
	Selection []int
}
