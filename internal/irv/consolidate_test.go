package irv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/irv"
)

func TestConsolidatorGroupsIdenticalRankings(t *testing.T) {
	c := irv.NewConsolidator()
	c.AddVote([]int{0, 1, 2})
	c.AddVote([]int{2})
	c.AddVote([]int{0, 1, 2})
	c.AddVote([]int{0, 1})
	c.AddVote([]int{0, 1, 2})

	assert.Equal(t, []irv.Vote{
		{N: 3, Prefs: []int{0, 1, 2}},
		{N: 1, Prefs: []int{2}},
		{N: 1, Prefs: []int{0, 1}},
	}, c.Votes())
	assert.Equal(t, 3, c.NumCandidates())
}

func TestConsolidatorNames(t *testing.T) {
	// Registered decomposed, looked up both ways.
	composed := "Zo\u00eb"
	decomposed := "Zoe\u0308"

	c := irv.NewConsolidatorWithNames([]string{"Alice", decomposed, "Bob"})
	require.NoError(t, c.AddVoteNames([]string{composed, "Alice"}))
	require.NoError(t, c.AddVoteNames([]string{decomposed, "Alice"}))
	require.NoError(t, c.AddVoteNames([]string{"Bob"}))

	assert.Equal(t, []irv.Vote{
		{N: 2, Prefs: []int{1, 0}},
		{N: 1, Prefs: []int{2}},
	}, c.Votes())
	assert.Equal(t, 3, c.NumCandidates())
	assert.Equal(t, composed, c.CandidateNames()[1])
}

func TestConsolidatorUnknownName(t *testing.T) {
	c := irv.NewConsolidatorWithNames([]string{"Alice", "Bob"})

	err := c.AddVoteNames([]string{"Alice", "Carol"})
	require.Error(t, err)

	var nameErr *irv.InvalidCandidateNameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "Carol", nameErr.Name)
	assert.Empty(t, c.Votes(), "rejected ballot must not be recorded")
}
