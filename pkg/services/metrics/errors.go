package metrics

import "errors"

var (
	// ErrUnknownVariable is returned when the requested variable is
	// not in the catalog's allow-list.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrUnknownDuration is returned for a duration outside the
	// supported smoothing windows.
	ErrUnknownDuration = errors.New("unknown duration")
	// ErrUnknownPeriodEnd is returned when the end date is not
	// selectable for the requested duration.
	ErrUnknownPeriodEnd = errors.New("unknown period end")
	// ErrNoRegions is returned for an empty region set; the store is
	// never queried on this path.
	ErrNoRegions = errors.New("no regions selected")
)
