package engine

import (
	"math"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
)

// noDive marks a sequence that has not been dived through yet.
const noDive = -1

// sequence is a frontier entry: an elimination-order suffix pi together with
// the cheapest assertion found for pi or any of its own suffixes.
type sequence struct {
	pi []int

	// best is the cheapest assertion attacking the last ancestorLen
	// elements of pi.
	best        assertion.WithDifficulty
	ancestorLen int

	// diveDone is the candidate already prepended by a dive, or noDive.
	diveDone int
}

func (s sequence) difficulty() float64 {
	return s.best.Difficulty
}

// bestAncestor is the suffix of pi that best attacks.
func (s sequence) bestAncestor() []int {
	return s.pi[len(s.pi)-s.ancestorLen:]
}

// extend prepends c to pi and keeps whichever assertion is cheaper: the new
// suffix's own, or the inherited one. Ties keep the inherited assertion.
func (s sequence) extend(c int, sv *search) sequence {
	pi := make([]int, 0, len(s.pi)+1)
	pi = append(pi, c)
	pi = append(pi, s.pi...)
	sv.expansions++
	a := assertion.FindBest(pi, sv.votes, sv.metric, sv.cache)
	if a.Difficulty < s.difficulty() {
		return sequence{pi: pi, best: a, ancestorLen: len(pi), diveDone: noDive}
	}
	return sequence{pi: pi, best: s.best, ancestorLen: s.ancestorLen, diveDone: noDive}
}

// hasSuffix reports whether pi ends with suffix.
func hasSuffix(pi, suffix []int) bool {
	offset := len(pi) - len(suffix)
	if offset < 0 {
		return false
	}
	for i, c := range suffix {
		if pi[offset+i] != c {
			return false
		}
	}
	return true
}

// takeAssertion commits s's best assertion unless an equal one is already
// committed, and drops every frontier entry that assertion already covers.
func (sv *search) takeAssertion(s sequence) {
	for _, a := range sv.assertions {
		if a.Assertion.Equal(s.best.Assertion) {
			return
		}
	}
	ancestor := s.bestAncestor()
	sv.frontier.removeIf(func(other sequence) bool {
		return hasSuffix(other.pi, ancestor)
	})
	sv.assertions = append(sv.assertions, s.best)
}

// containsAllCandidates handles a complete elimination order. If nothing can
// rule it out the search fails; otherwise the lower bound rises to its cost.
func (sv *search) containsAllCandidates(s sequence) error {
	if math.IsInf(s.difficulty(), 1) {
		return auditerr.NewCouldNotRuleOut(s.pi)
	}
	if sv.lowerBound < s.difficulty() {
		sv.lowerBound = s.difficulty()
		sv.logger.Debug("lower bound raised", "difficulty", sv.lowerBound, "order", s.pi)
	}
	sv.takeAssertion(s)
	return nil
}
