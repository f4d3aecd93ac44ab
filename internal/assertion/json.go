package assertion

import (
	"encoding/json"
	"fmt"
	"slices"
)

type wireAssertion struct {
	Type       string `json:"type"`
	Winner     int    `json:"winner"`
	Loser      int    `json:"loser"`
	Continuing []int  `json:"continuing,omitempty"`
}

// MarshalJSON emits {"type":"NEB"|"NEN","winner":..,"loser":..,"continuing":[..]}.
func (a Assertion) MarshalJSON() ([]byte, error) {
	w := wireAssertion{Type: a.Kind.String(), Winner: a.Winner, Loser: a.Loser}
	if a.Kind == KindNEN {
		w.Continuing = a.Continuing
		if w.Continuing == nil {
			w.Continuing = []int{}
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the form produced by MarshalJSON.
func (a *Assertion) UnmarshalJSON(data []byte) error {
	var w wireAssertion
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("assertion: %w", err)
	}
	if w.Winner < 0 || w.Loser < 0 || w.Winner == w.Loser {
		return fmt.Errorf("assertion: invalid winner %d and loser %d", w.Winner, w.Loser)
	}
	switch w.Type {
	case "NEB":
		*a = NEB(w.Winner, w.Loser)
	case "NEN":
		if !slices.Contains(w.Continuing, w.Winner) || !slices.Contains(w.Continuing, w.Loser) {
			return fmt.Errorf("assertion: NEN continuing %v must include winner %d and loser %d",
				w.Continuing, w.Winner, w.Loser)
		}
		*a = NEN(w.Winner, w.Loser, w.Continuing)
	default:
		return fmt.Errorf("assertion: unknown type %q", w.Type)
	}
	return nil
}
