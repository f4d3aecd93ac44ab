package engine

import (
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
)

// search is the state of one branch-and-bound run.
type search struct {
	votes  *irv.Votes
	metric difficulty.Metric
	cache  *assertion.NEBCache
	budget *budget.Budget
	logger *slog.Logger
	diving bool
	winner int
	order  []int // elimination order of the real outcome, winner last

	frontier   frontier
	assertions []assertion.WithDifficulty
	lowerBound float64
	expansions int
}

// run finds assertions that rule out every elimination order not ending in
// the winner. On success sv.lowerBound is the overall audit difficulty.
func (sv *search) run() error {
	n := sv.votes.NumCandidates()
	for c := 0; c < n; c++ {
		if c == sv.winner {
			continue
		}
		pi := []int{c}
		sv.frontier.add(sequence{
			pi:          pi,
			best:        assertion.FindBest(pi, sv.votes, sv.metric, sv.cache),
			ancestorLen: 1,
			diveDone:    noDive,
		})
	}

	for {
		s, ok := sv.frontier.poll()
		if !ok {
			return nil
		}
		if sv.budget.Exceeded() {
			return auditerr.NewTimeoutFindingAssertions(math.Max(s.difficulty(), sv.lowerBound))
		}
		if s.difficulty() <= sv.lowerBound {
			sv.takeAssertion(s)
			continue
		}

		if sv.diving && s.diveDone == noDive {
			done, err := sv.dive(&s)
			if err != nil {
				return err
			}
			if done {
				continue
			}
		}

		for c := 0; c < n; c++ {
			if c == s.diveDone || slices.Contains(s.pi, c) {
				continue
			}
			next := s.extend(c, sv)
			if len(next.pi) == n {
				if err := sv.containsAllCandidates(next); err != nil {
					return err
				}
			} else {
				sv.frontier.add(next)
			}
		}
	}
}

// dive greedily follows the real elimination order backwards from s to a
// complete order, pushing each intermediate sequence back on the frontier
// marked with the candidate already explored. It reports true when s itself
// has been settled.
func (sv *search) dive(s *sequence) (bool, error) {
	var last *sequence
	for i := len(sv.order) - 1; i >= 0; i-- {
		c := sv.order[i]
		if slices.Contains(s.pi, c) {
			continue
		}
		var next sequence
		if last != nil {
			last.diveDone = c
			sv.frontier.add(*last)
			next = last.extend(c, sv)
			last = nil
		} else {
			s.diveDone = c
			next = s.extend(c, sv)
		}
		if next.difficulty() <= sv.lowerBound {
			sv.takeAssertion(next)
			break
		}
		last = &next
	}
	if last == nil {
		return false, nil
	}
	if err := sv.containsAllCandidates(*last); err != nil {
		return false, err
	}
	sv.logger.Debug("dive completed", "order", last.pi, "lower_bound", sv.lowerBound)
	if s.difficulty() <= sv.lowerBound {
		sv.takeAssertion(*s)
		return true, nil
	}
	return false, nil
}
