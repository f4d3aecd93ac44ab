// Package irvtest provides the reference elections used across the test
// suites. Expected figures are worked out by hand in the comments.
package irvtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/irv"
)

// Candidate labels for the guide election.
const (
	GuideA = 0
	GuideB = 1
	GuideC = 2
	GuideD = 3
)

// GuideTotal is the number of ballots in GuideVotes.
const GuideTotal = 13500

// GuideVotes is the worked example from the RAIRE guide.
//
// First preferences are A=4000 B=1000 C=5000 D=3500. B, D, then A are
// eliminated and C wins.
func GuideVotes() []irv.Vote {
	return []irv.Vote{
		{N: 5000, Prefs: []int{GuideC, GuideB, GuideA}},
		{N: 1000, Prefs: []int{GuideB, GuideC, GuideD}},
		{N: 1500, Prefs: []int{GuideD, GuideA}},
		{N: 4000, Prefs: []int{GuideA, GuideD}},
		{N: 2000, Prefs: []int{GuideD}},
	}
}

// Table1Total is the number of ballots in Table1Votes.
const Table1Total = 60000

// Table1Votes is Table 1 of the RAIRE paper. Candidate 3 wins after 2, 1
// and 0 are eliminated.
func Table1Votes() []irv.Vote {
	return []irv.Vote{
		{N: 4000, Prefs: []int{1, 2}},
		{N: 20000, Prefs: []int{0}},
		{N: 9000, Prefs: []int{2, 3}},
		{N: 6000, Prefs: []int{1, 2, 3}},
		{N: 15000, Prefs: []int{3, 0, 1}},
		{N: 6000, Prefs: []int{0, 2}},
	}
}

// Example9Total is the number of ballots in Example9Votes.
const Example9Total = 21999

// Example9Votes is Example 9 of the RAIRE paper.
func Example9Votes() []irv.Vote {
	return []irv.Vote{
		{N: 10000, Prefs: []int{0, 1, 2}},
		{N: 6000, Prefs: []int{1, 0, 2}},
		{N: 5999, Prefs: []int{2, 0, 1}},
	}
}

// Example12Total is the number of ballots in Example12Votes.
const Example12Total = 27000

// Example12Votes is Example 12 of the RAIRE paper.
func Example12Votes() []irv.Vote {
	return []irv.Vote{
		{N: 5000, Prefs: []int{0, 1, 2}},
		{N: 5000, Prefs: []int{0, 2, 1}},
		{N: 5000, Prefs: []int{1, 2, 0}},
		{N: 1500, Prefs: []int{1, 0, 2}},
		{N: 5000, Prefs: []int{2, 1, 0}},
		{N: 500, Prefs: []int{2, 0, 1}},
		{N: 5000, Prefs: []int{3, 0}},
	}
}

// MustVotes builds a validated Votes or fails the test.
func MustVotes(t testing.TB, votes []irv.Vote, numCandidates int) *irv.Votes {
	t.Helper()
	v, err := irv.NewVotes(votes, numCandidates)
	require.NoError(t, err)
	return v
}
