package budget

import (
	"fmt"
	"math"
)

// TimeTaken is the effort a stage consumed.
type TimeTaken struct {
	Work    uint64  `json:"work"`
	Seconds float64 `json:"seconds"`
}

// Minus returns the difference between two snapshots. Work saturates at zero.
func (t TimeTaken) Minus(other TimeTaken) TimeTaken {
	var work uint64
	if t.Work > other.Work {
		work = t.Work - other.Work
	}
	return TimeTaken{Work: work, Seconds: t.Seconds - other.Seconds}
}

// String renders whole milliseconds below one second and three decimals above.
func (t TimeTaken) String() string {
	if t.Seconds > 0.99999 {
		return fmt.Sprintf("%.3fs", t.Seconds)
	}
	return fmt.Sprintf("%dms", int64(math.Round(t.Seconds*1000)))
}
