package irv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/irv/irvtest"
)

func TestFirstPreferenceTallies(t *testing.T) {
	v := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)

	assert.Equal(t, 4, v.NumCandidates())
	assert.Equal(t, irvtest.GuideTotal, v.TotalVotes())
	assert.Equal(t, 4000, v.FirstPreferenceOnlyTally(irvtest.GuideA))
	assert.Equal(t, 1000, v.FirstPreferenceOnlyTally(irvtest.GuideB))
	assert.Equal(t, 5000, v.FirstPreferenceOnlyTally(irvtest.GuideC))
	assert.Equal(t, 3500, v.FirstPreferenceOnlyTally(irvtest.GuideD))
}

func TestRestrictedTallies(t *testing.T) {
	t.Run("guide", func(t *testing.T) {
		v := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
		assert.Equal(t, []int{4000, 6000, 3500},
			v.RestrictedTallies([]int{irvtest.GuideA, irvtest.GuideC, irvtest.GuideD}))
		assert.Equal(t, []int{5500, 6000},
			v.RestrictedTallies([]int{irvtest.GuideA, irvtest.GuideC}))
	})

	t.Run("table1", func(t *testing.T) {
		v := irvtest.MustVotes(t, irvtest.Table1Votes(), 4)
		assert.Equal(t, irvtest.Table1Total, v.TotalVotes())
		assert.Equal(t, []int{26000, 10000, 24000}, v.RestrictedTallies([]int{0, 1, 3}))
		assert.Equal(t, []int{26000, 30000}, v.RestrictedTallies([]int{0, 3}))
	})

	t.Run("order follows continuing", func(t *testing.T) {
		v := irvtest.MustVotes(t, irvtest.Table1Votes(), 4)
		assert.Equal(t, []int{30000, 26000}, v.RestrictedTallies([]int{3, 0}))
	})

	t.Run("exhausted ballots dropped", func(t *testing.T) {
		v := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
		// Only the 1000 B ballots and 5000 C ballots reach B or C; the rest exhaust.
		got := v.RestrictedTallies([]int{irvtest.GuideB})
		assert.Equal(t, []int{6000}, got)
	})
}

func TestNewVotesRejectsUnknownCandidate(t *testing.T) {
	tests := []struct {
		name  string
		votes []irv.Vote
	}{
		{"first preference too large", []irv.Vote{{N: 1, Prefs: []int{4}}}},
		{"later preference too large", []irv.Vote{{N: 1, Prefs: []int{0, 7}}}},
		{"negative", []irv.Vote{{N: 1, Prefs: []int{-1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := irv.NewVotes(tt.votes, 4)
			require.Error(t, err)
			assert.True(t, auditerr.Is(err, auditerr.CodeInvalidCandidateNumber))
		})
	}
}

func TestNewVotesCopiesInput(t *testing.T) {
	input := []irv.Vote{{N: 3, Prefs: []int{0, 1}}}
	v := irvtest.MustVotes(t, input, 2)
	input[0].Prefs[0] = 1

	assert.Equal(t, 3, v.FirstPreferenceOnlyTally(0))
	assert.Equal(t, []int{0, 1}, v.Votes()[0].Prefs)
}

func TestRunElection(t *testing.T) {
	tests := []struct {
		name      string
		votes     []irv.Vote
		n         int
		winners   []int
		eliminate []int
	}{
		{"guide", irvtest.GuideVotes(), 4, []int{irvtest.GuideC}, []int{1, 3, 0, 2}},
		{"table1", irvtest.Table1Votes(), 4, []int{3}, []int{2, 1, 0, 3}},
		{"single candidate no votes", nil, 1, []int{0}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := irvtest.MustVotes(t, tt.votes, tt.n)
			res, err := v.RunElection(budget.Unlimited())
			require.NoError(t, err)
			assert.Equal(t, tt.winners, res.PossibleWinners)
			assert.Equal(t, tt.eliminate, res.EliminationOrder)
		})
	}
}

func TestRunElectionExploresTies(t *testing.T) {
	// 0 and 1 tie for last; either elimination leaves a different winner.
	votes := []irv.Vote{
		{N: 10, Prefs: []int{0}},
		{N: 10, Prefs: []int{1}},
		{N: 15, Prefs: []int{2}},
	}
	v := irvtest.MustVotes(t, votes, 3)

	res, err := v.RunElection(budget.Unlimited())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.PossibleWinners, "2 beats 10 either way")
	assert.Equal(t, []int{0, 1, 2}, res.EliminationOrder, "first tied candidate is eliminated first")

	tied := []irv.Vote{
		{N: 10, Prefs: []int{0}},
		{N: 10, Prefs: []int{1}},
	}
	v = irvtest.MustVotes(t, tied, 2)
	res, err = v.RunElection(budget.Unlimited())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.PossibleWinners)
	assert.Equal(t, []int{0, 1}, res.EliminationOrder)
}

func TestRunElectionTimeout(t *testing.T) {
	v := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)

	_, err := v.RunElection(budget.New(budget.WithWorkLimit(1)))
	require.Error(t, err)
	assert.True(t, auditerr.Is(err, auditerr.CodeTimeoutCheckingWinner))
}
