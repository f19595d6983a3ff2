package features

import (
	"encoding/json"

	"cendeu-features-go/internal/aggregator"
)

const (
	KeyIsInCendeu       = "is_in_cendeu"
	KeyCurrentSituation = "cendeu_current_situation"
	worstPrefix         = "cendeu_worst_situation_"
)

// WorstKey is the feature name for a historical window.
func WorstKey(window string) string {
	return worstPrefix + window
}

// Result is the feature map handed to credit-decision callers.
// Absent windows are absent from Features, never zero-filled.
type Result struct {
	IsInCendeu bool
	Features   map[string]int
}

// Assemble packages aggregator output. It never fails.
func Assemble(s aggregator.Situations) Result {
	res := Result{Features: map[string]int{}}
	if s.Current == nil {
		return res
	}
	res.IsInCendeu = true
	res.Features[KeyCurrentSituation] = *s.Current
	for name, v := range s.Worst {
		res.Features[WorstKey(name)] = v
	}
	return res
}

// Current returns the current situation when the client has history.
func (r Result) Current() (int, bool) {
	v, ok := r.Features[KeyCurrentSituation]
	return v, ok
}

// Worst returns the worst situation for a named window, if any record fell in it.
func (r Result) Worst(window string) (int, bool) {
	v, ok := r.Features[WorstKey(window)]
	return v, ok
}

// MarshalJSON flattens the presence flag and features into one object.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Features)+1)
	out[KeyIsInCendeu] = r.IsInCendeu
	for k, v := range r.Features {
		out[k] = v
	}
	return json.Marshal(out)
}
