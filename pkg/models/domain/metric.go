package domain

// Duration is the smoothing window over which weekly metrics are
// aggregated by the upstream feed.
type Duration string

const (
	Duration1Week   Duration = "1 weeks"
	Duration4Weeks  Duration = "4 weeks"
	Duration12Weeks Duration = "12 weeks"
)

// Durations lists the supported smoothing windows in dropdown order.
func Durations() []Duration {
	return []Duration{Duration1Week, Duration4Weeks, Duration12Weeks}
}

func (d Duration) Valid() bool {
	switch d {
	case Duration1Week, Duration4Weeks, Duration12Weeks:
		return true
	}
	return false
}

// Variable is one metric column of the observations table, with the
// display name used by the UI. Key variables form the short default
// dropdown list.
type Variable struct {
	Name       string
	PrettyName string
	Key        bool
}

type VariableKind string

const (
	KeyVariables VariableKind = "key_vars"
	AllVariables VariableKind = "all_vars"
)
