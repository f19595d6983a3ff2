package aggregator

import (
	"cendeu-features-go/internal/types"
	"cendeu-features-go/internal/window"
)

// Situations holds the reduced severity per window. Current is nil only when
// there were no records. Worst has an entry only for windows that received at
// least one record; a missing entry means "no data in that horizon", not 0.
type Situations struct {
	Current *int           `json:"current,omitempty"`
	Worst   map[string]int `json:"worst"`
}

// Aggregate reduces records to the worst situation per window.
//
// Historical windows drop records older than their cutoff. The current
// situation keeps every record but scores those older than the current
// horizon as 0, so old-only debt yields a clean current value while still
// counting as history.
func Aggregate(records []types.DebtRecord, set window.Set) Situations {
	out := Situations{Worst: map[string]int{}}
	if len(records) == 0 {
		return out
	}

	current := 0
	for i, r := range records {
		score := 0
		if set.InCurrent(r.InformationDate) {
			score = r.Situation
		}
		if i == 0 || score > current {
			current = score
		}
	}
	out.Current = &current

	for _, w := range set.Windows {
		worst, ok := 0, false
		for _, r := range records {
			if !w.Contains(r.InformationDate) {
				continue
			}
			if !ok || r.Situation > worst {
				worst = r.Situation
				ok = true
			}
		}
		if ok {
			out.Worst[w.Name] = worst
		}
	}
	return out
}
