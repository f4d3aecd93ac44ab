// Package assertion models the two assertion families used to rule out
// alternate IRV outcomes, and how each one bears on an elimination-order
// suffix.
//
// A suffix lists the last few candidates of an elimination order,
// earliest-eliminated first; its final element is the winner. Candidates
// absent from the suffix were eliminated before any candidate in it.
package assertion

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind distinguishes the two assertion families.
type Kind int

const (
	// KindNEB is NotEliminatedBefore: the winner always has more votes than
	// the loser, so the loser cannot outlast the winner.
	KindNEB Kind = iota

	// KindNEN is NotEliminatedNext: when exactly Continuing remain, the winner
	// has more votes than the loser, so the winner is not eliminated next.
	KindNEN
)

func (k Kind) String() string {
	switch k {
	case KindNEB:
		return "NEB"
	case KindNEN:
		return "NEN"
	default:
		return "unknown"
	}
}

// Effect is how an assertion bears on an elimination-order suffix.
type Effect int

const (
	// Contradiction means every completion of the suffix is ruled out.
	Contradiction Effect = iota
	// Ok means no completion of the suffix is ruled out.
	Ok
	// NeedsMoreDetail means the answer depends on earlier eliminations.
	NeedsMoreDetail
)

func (e Effect) String() string {
	switch e {
	case Contradiction:
		return "Contradiction"
	case Ok:
		return "Ok"
	case NeedsMoreDetail:
		return "NeedsMoreDetail"
	default:
		return "unknown"
	}
}

// Assertion is a single NEB or NEN claim. Construct with NEB or NEN so the
// continuing set is kept sorted.
type Assertion struct {
	Kind       Kind
	Winner     int
	Loser      int
	Continuing []int // sorted ascending; nil for NEB
}

// NEB creates a NotEliminatedBefore assertion.
func NEB(winner, loser int) Assertion {
	return Assertion{Kind: KindNEB, Winner: winner, Loser: loser}
}

// NEN creates a NotEliminatedNext assertion. continuing is copied and sorted.
func NEN(winner, loser int, continuing []int) Assertion {
	sorted := slices.Clone(continuing)
	slices.Sort(sorted)
	return Assertion{Kind: KindNEN, Winner: winner, Loser: loser, Continuing: sorted}
}

// IsNEB reports whether a is a NotEliminatedBefore assertion.
func (a Assertion) IsNEB() bool {
	return a.Kind == KindNEB
}

// Equal reports whether a and b are the same claim.
func (a Assertion) Equal(b Assertion) bool {
	if a.Kind != b.Kind || a.Winner != b.Winner || a.Loser != b.Loser {
		return false
	}
	return a.Kind == KindNEB || slices.Equal(a.Continuing, b.Continuing)
}

// String renders a as NEB(w,l) or NEN(w,l,{c...}).
func (a Assertion) String() string {
	if a.Kind == KindNEB {
		return fmt.Sprintf("NEB(%d,%d)", a.Winner, a.Loser)
	}
	cs := make([]string, len(a.Continuing))
	for i, c := range a.Continuing {
		cs[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("NEN(%d,%d,{%s})", a.Winner, a.Loser, strings.Join(cs, ","))
}

func (a Assertion) isContinuing(c int) bool {
	_, found := slices.BinarySearch(a.Continuing, c)
	return found
}

// CheckSuffix reports whether a rules out every, no, or only some elimination
// orders ending in suffix.
func (a Assertion) CheckSuffix(suffix []int) Effect {
	if a.Kind == KindNEB {
		return a.checkSuffixNEB(suffix)
	}
	return a.checkSuffixNEN(suffix)
}

func (a Assertion) checkSuffixNEB(suffix []int) Effect {
	for i := len(suffix) - 1; i >= 0; i-- {
		switch suffix[i] {
		case a.Winner:
			return Ok
		case a.Loser:
			return Contradiction
		}
	}
	return NeedsMoreDetail
}

func (a Assertion) checkSuffixNEN(suffix []int) Effect {
	start := max(len(suffix)-len(a.Continuing), 0)
	tail := suffix[start:]
	for _, c := range tail {
		if !a.isContinuing(c) {
			return Ok
		}
	}
	if len(suffix) >= len(a.Continuing) {
		if tail[0] == a.Winner {
			return Contradiction
		}
		return Ok
	}
	if slices.Contains(tail, a.Winner) {
		return Ok
	}
	return NeedsMoreDetail
}

// AllowedSuffixes expands suffix backwards until a gives a definite answer
// and returns the extensions it permits.
func (a Assertion) AllowedSuffixes(suffix []int, numCandidates int) [][]int {
	switch a.CheckSuffix(suffix) {
	case Contradiction:
		return nil
	case Ok:
		return [][]int{suffix}
	}
	var out [][]int
	for c := 0; c < numCandidates; c++ {
		if slices.Contains(suffix, c) {
			continue
		}
		extended := make([]int, 0, len(suffix)+1)
		extended = append(extended, c)
		extended = append(extended, suffix...)
		out = append(out, a.AllowedSuffixes(extended, numCandidates)...)
	}
	return out
}

// Compare orders assertions canonically: every NEB before every NEN, NEBs by
// winner then loser, NENs by continuing-set size, winner, loser, then
// continuing set.
func Compare(a, b Assertion) int {
	if a.Kind != b.Kind {
		if a.Kind == KindNEB {
			return -1
		}
		return 1
	}
	if a.Kind == KindNEN {
		if d := len(a.Continuing) - len(b.Continuing); d != 0 {
			return d
		}
	}
	if d := a.Winner - b.Winner; d != 0 {
		return d
	}
	if d := a.Loser - b.Loser; d != 0 {
		return d
	}
	return slices.Compare(a.Continuing, b.Continuing)
}
