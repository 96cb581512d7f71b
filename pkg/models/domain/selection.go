package domain

// SelectionEventKind distinguishes the UI interactions that can change
// the selected region set.
type SelectionEventKind string

const (
	// EventNone is the initial render; the selection keeps its
	// configured starting value.
	EventNone SelectionEventKind = ""
	// EventGeoToggle is a change to the county/metro checklist.
	EventGeoToggle SelectionEventKind = "geo_toggle"
	// EventBoxSelect is a multi-region box selection on the map.
	EventBoxSelect SelectionEventKind = "box_select"
	// EventClick is a single-region click on the map.
	EventClick SelectionEventKind = "click"
)

// SelectionEvent carries one UI interaction. Picks is set for box
// selections, RegionID for clicks.
type SelectionEvent struct {
	Kind     SelectionEventKind
	Picks    []int
	RegionID int
}

// Defaults is the configured initial dashboard state. Clients own
// selection state between events, so they fetch it once at startup.
type Defaults struct {
	Variable  string
	Duration  Duration
	RegionIDs []int
}
