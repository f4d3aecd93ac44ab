package assertion

import (
	"math"
	"slices"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
)

// WithDifficulty pairs an assertion with its audit cost.
//
// Status is opaque per-assertion data an external audit process may attach.
// It is carried through serialization untouched.
type WithDifficulty struct {
	Assertion  Assertion      `json:"assertion"`
	Difficulty float64        `json:"difficulty"`
	Margin     int            `json:"margin"`
	Status     map[string]any `json:"status,omitempty"`
}

// DifficultyAndMargin is the cost of an assertion and the vote gap behind it.
type DifficultyAndMargin struct {
	Difficulty float64
	Margin     int
}

// Difficulty computes a's audit cost against votes.
func (a Assertion) Difficulty(votes *irv.Votes, metric difficulty.Metric) DifficultyAndMargin {
	var winnerTally, loserTally int
	if a.Kind == KindNEB {
		winnerTally = votes.FirstPreferenceOnlyTally(a.Winner)
		loserTally = votes.RestrictedTallies([]int{a.Winner, a.Loser})[1]
	} else {
		tallies := votes.RestrictedTallies(a.Continuing)
		winnerTally = math.MaxInt
		for i, c := range a.Continuing {
			switch c {
			case a.Winner:
				winnerTally = tallies[i]
			case a.Loser:
				loserTally = tallies[i]
			}
		}
	}
	return DifficultyAndMargin{
		Difficulty: metric.Difficulty(winnerTally, loserTally),
		Margin:     max(winnerTally-loserTally, 0),
	}
}

// NEBCache holds the difficulty of NEB(w, l) for every ordered pair. The
// diagonal is infinite.
type NEBCache struct {
	cells [][]DifficultyAndMargin
}

// NewNEBCache computes every pairwise NEB difficulty once.
func NewNEBCache(votes *irv.Votes, metric difficulty.Metric) *NEBCache {
	n := votes.NumCandidates()
	cells := make([][]DifficultyAndMargin, n)
	for w := range cells {
		cells[w] = make([]DifficultyAndMargin, n)
		for l := range cells[w] {
			if w == l {
				cells[w][l] = DifficultyAndMargin{Difficulty: math.Inf(1)}
				continue
			}
			cells[w][l] = NEB(w, l).Difficulty(votes, metric)
		}
	}
	return &NEBCache{cells: cells}
}

// Lookup returns the cached cost of NEB(winner, loser).
func (c *NEBCache) Lookup(winner, loser int) DifficultyAndMargin {
	return c.cells[winner][loser]
}

// BestNEB finds the cheapest NEB that contradicts candidate being eliminated
// before every candidate in later. Against a candidate in later it claims
// candidate beats them; against anyone else it claims they beat candidate.
// Returns false if there is no other candidate or every option is infinite.
func BestNEB(candidate int, later []int, cache *NEBCache) (WithDifficulty, bool) {
	best := WithDifficulty{Difficulty: math.MaxFloat64}
	found := false
	for alt := range cache.cells {
		if alt == candidate {
			continue
		}
		a := NEB(alt, candidate)
		if slices.Contains(later, alt) {
			a = NEB(candidate, alt)
		}
		dm := cache.Lookup(a.Winner, a.Loser)
		if dm.Difficulty < best.Difficulty {
			best = WithDifficulty{Assertion: a, Difficulty: dm.Difficulty, Margin: dm.Margin}
			found = true
		}
	}
	return best, found
}

// BestNEN finds the cheapest NEN keeping winner alive when exactly continuing
// remain, pairing it with the lowest-tallied other continuing candidate. On a
// tied lowest tally the later candidate in continuing is used.
func BestNEN(votes *irv.Votes, metric difficulty.Metric, continuing []int, winner int) (WithDifficulty, bool) {
	tallies := votes.RestrictedTallies(continuing)
	winnerTally := math.MaxInt
	loserTally := math.MaxInt
	loser := -1
	for i, c := range continuing {
		if c == winner {
			winnerTally = tallies[i]
		} else if tallies[i] <= loserTally {
			loser = c
			loserTally = tallies[i]
		}
	}
	if loser < 0 {
		return WithDifficulty{}, false
	}
	return WithDifficulty{
		Assertion:  NEN(winner, loser, continuing),
		Difficulty: metric.Difficulty(winnerTally, loserTally),
		Margin:     max(winnerTally-loserTally, 0),
	}, true
}

// FindBest returns the cheapest assertion that rules out the suffix pi
// because of how pi[0] is eliminated. If nothing applies, the result is a
// placeholder NEB(pi[0], pi[0]) with infinite difficulty.
func FindBest(pi []int, votes *irv.Votes, metric difficulty.Metric, cache *NEBCache) WithDifficulty {
	c := pi[0]
	best := WithDifficulty{Assertion: NEB(c, c), Difficulty: math.Inf(1)}
	if neb, ok := BestNEB(c, pi[1:], cache); ok && neb.Difficulty < best.Difficulty {
		best = neb
	}
	if nen, ok := BestNEN(votes, metric, pi, c); ok && nen.Difficulty < best.Difficulty {
		best = nen
	}
	return best
}
