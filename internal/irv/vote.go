// Package irv holds the ballot model and the instant-runoff tabulator.
//
// Candidates are dense integers 0..n-1. Ballots with identical rankings are
// stored once with a multiplicity.
package irv

import (
	"slices"

	"github.com/roach88/raire/internal/auditerr"
)

// Vote is a ranking cast by N identical ballots. Prefs[0] is the first choice.
type Vote struct {
	N     int   `json:"n"`
	Prefs []int `json:"prefs"`
}

// topContinuing returns the first preference that is still continuing.
// position[c] is c's index in the continuing list, or -1 if c is eliminated.
func (v Vote) topContinuing(position []int) (int, bool) {
	for _, c := range v.Prefs {
		if p := position[c]; p >= 0 {
			return p, true
		}
	}
	return 0, false
}

// Votes is an immutable ballot collection with first-preference tallies
// precomputed.
type Votes struct {
	votes           []Vote
	firstPreference []int
	total           int
}

// NewVotes validates every preference against numCandidates and tallies
// first preferences. Empty ballots are kept but count toward nothing except
// the total.
func NewVotes(votes []Vote, numCandidates int) (*Votes, error) {
	first := make([]int, numCandidates)
	total := 0
	for _, v := range votes {
		for _, c := range v.Prefs {
			if c < 0 || c >= numCandidates {
				return nil, auditerr.New(auditerr.CodeInvalidCandidateNumber)
			}
		}
		if len(v.Prefs) > 0 {
			first[v.Prefs[0]] += v.N
		}
		total += v.N
	}
	owned := make([]Vote, len(votes))
	for i, v := range votes {
		owned[i] = Vote{N: v.N, Prefs: slices.Clone(v.Prefs)}
	}
	return &Votes{votes: owned, firstPreference: first, total: total}, nil
}

// NumCandidates returns the contest size.
func (v *Votes) NumCandidates() int {
	return len(v.firstPreference)
}

// TotalVotes returns the number of ballots, including exhausted ones.
func (v *Votes) TotalVotes() int {
	return v.total
}

// Votes returns a copy of the grouped ballots.
func (v *Votes) Votes() []Vote {
	out := make([]Vote, len(v.votes))
	for i, vote := range v.votes {
		out[i] = Vote{N: vote.N, Prefs: slices.Clone(vote.Prefs)}
	}
	return out
}

// FirstPreferenceOnlyTally returns the ballots ranking c first.
func (v *Votes) FirstPreferenceOnlyTally(c int) int {
	return v.firstPreference[c]
}

// RestrictedTallies counts each ballot for its highest-ranked candidate among
// continuing. The result is indexed like continuing; exhausted ballots are
// dropped.
func (v *Votes) RestrictedTallies(continuing []int) []int {
	position := make([]int, v.NumCandidates())
	for i := range position {
		position[i] = -1
	}
	for i, c := range continuing {
		position[c] = i
	}
	tallies := make([]int, len(continuing))
	for _, vote := range v.votes {
		if p, ok := vote.topContinuing(position); ok {
			tallies[p] += vote.N
		}
	}
	return tallies
}
