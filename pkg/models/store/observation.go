package store

// Observation is one raw feed row. Metrics holds the numeric columns
// by name; a missing key means the source field was empty and is
// stored as NULL.
type Observation struct {
	RegionID    int
	RegionType  string
	RegionName  string
	PeriodBegin string
	PeriodEnd   string
	Duration    string
	Metrics     map[string]float64
}

// MetricRow is one fetched (region, period) value for a single
// variable. Dates stay ISO YYYY-MM-DD strings end to end.
type MetricRow struct {
	RegionID  int
	PeriodEnd string
	Duration  string
	Value     float64
}

// TimePeriod is one distinct (period_begin, period_end, duration)
// triple present in a store generation.
type TimePeriod struct {
	PeriodBegin string
	PeriodEnd   string
	Duration    string
}

// Region is one distinct region present in a store generation.
type Region struct {
	ID   int
	Type string
	Name string
}
