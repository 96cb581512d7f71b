// Package selection resolves raw map interactions into the next
// bounded set of selected region ids. Apply is a pure function of
// (event, prior state); the UI owns persistence between events.
package selection

import "github.com/de-tools/housing-atlas/pkg/models/domain"

const DefaultMax = 5

type Resolver struct {
	// Max bounds the selection size; |selection| <= Max always holds
	// on Apply's output when it holds on the input.
	Max int
}

func NewResolver(max int) *Resolver {
	if max <= 0 {
		max = DefaultMax
	}
	return &Resolver{Max: max}
}

// Apply computes the next selection.
//
//   - geography toggle: selection resets to empty
//   - box select: the first Max picks replace the selection, in event
//     order
//   - click: toggles membership; a click on an unselected region while
//     the selection is full is a no-op, not an error
//   - no event: prior selection unchanged (initial render)
func (r *Resolver) Apply(prior []int, event domain.SelectionEvent) []int {
	switch event.Kind {
	case domain.EventGeoToggle:
		return []int{}

	case domain.EventBoxSelect:
		picks := event.Picks
		if len(picks) > r.Max {
			picks = picks[:r.Max]
		}
		return append([]int{}, picks...)

	case domain.EventClick:
		next := make([]int, 0, len(prior))
		removed := false
		for _, id := range prior {
			if id == event.RegionID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if removed {
			return next
		}
		if len(next) < r.Max {
			return append(next, event.RegionID)
		}
		return next

	default:
		return append([]int{}, prior...)
	}
}
