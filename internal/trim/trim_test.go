package trim

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
)

func withDifficulty(all []assertion.Assertion) []assertion.WithDifficulty {
	out := make([]assertion.WithDifficulty, len(all))
	for i, a := range all {
		out[i] = assertion.WithDifficulty{Assertion: a, Difficulty: float64(i + 1), Margin: 100 * (i + 1)}
	}
	return out
}

func assertionsOf(list []assertion.WithDifficulty) []assertion.Assertion {
	out := make([]assertion.Assertion, len(list))
	for i, a := range list {
		out[i] = a.Assertion
	}
	return out
}

func TestOrderAndTrim(t *testing.T) {
	sortedAll := []assertion.Assertion{
		assertion.NEB(2, 1),
		assertion.NEN(0, 3, []int{0, 3}),
		assertion.NEN(2, 0, []int{0, 2}),
		assertion.NEN(0, 3, []int{0, 2, 3}),
		assertion.NEN(2, 3, []int{0, 2, 3}),
		assertion.NEN(0, 1, []int{0, 1, 2, 3}),
	}

	tests := []struct {
		algo Algorithm
		want []assertion.Assertion
	}{
		{None, sortedAll},
		{MinimizeTree, sortedAll},
		{MinimizeAssertions, []assertion.Assertion{
			assertion.NEB(2, 1),
			assertion.NEN(2, 0, []int{0, 2}),
			assertion.NEN(0, 3, []int{0, 2, 3}),
			assertion.NEN(2, 3, []int{0, 2, 3}),
			assertion.NEN(0, 1, []int{0, 1, 2, 3}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			got, err := OrderAndTrim(withDifficulty(guideAssertions()), 2, 4, tt.algo, budget.Unlimited())
			require.NoError(t, err)
			assert.Equal(t, tt.want, assertionsOf(got))
		})
	}
}

func TestOrderAndTrimKeepsDifficultyWithAssertion(t *testing.T) {
	got, err := OrderAndTrim(withDifficulty(guideAssertions()), 2, 4, None, budget.Unlimited())
	require.NoError(t, err)

	// NEB(2,1) was fifth in the input.
	assert.Equal(t, 5.0, got[0].Difficulty)
	assert.Equal(t, 500, got[0].Margin)
}

func TestOrderAndTrimConcurrentMatchesSequential(t *testing.T) {
	for _, algo := range []Algorithm{MinimizeTree, MinimizeAssertions} {
		seq, err := OrderAndTrim(withDifficulty(guideAssertions()), 2, 4, algo, budget.Unlimited())
		require.NoError(t, err)
		par, err := OrderAndTrim(withDifficulty(guideAssertions()), 2, 4, algo, budget.Unlimited(), WithWorkers(4))
		require.NoError(t, err)
		assert.Equal(t, seq, par, algo.String())
	}
}

func TestOrderAndTrimDidntRuleOutLoser(t *testing.T) {
	// A lone NEN about the full field says nothing about 0 winning.
	partial := guideAssertions()[:1]
	_, err := OrderAndTrim(withDifficulty(partial), 2, 4, MinimizeTree, budget.Unlimited())
	require.Error(t, err)
	assert.True(t, auditerr.Is(err, auditerr.CodeInternalErrorDidntRuleOutLoser))
}

func TestOrderAndTrimTimeoutReturnsSorted(t *testing.T) {
	got, err := OrderAndTrim(withDifficulty(guideAssertions()), 2, 4, MinimizeTree, budget.New(budget.WithWorkLimit(3)))
	require.Error(t, err)
	assert.True(t, auditerr.Is(err, auditerr.CodeTimeoutTrimmingAssertions))
	require.Len(t, got, 6)
	assert.True(t, got[0].Assertion.Equal(assertion.NEB(2, 1)))
}

// fiveCandidateAssertions is the untrimmed search output for the votes
// 68:[1,0,3,4] 41:[3,2] 46:[3,1] 79:[1,3,4,2] 90:[2,4,0], won by 1.
func fiveCandidateAssertions() []assertion.Assertion {
	return []assertion.Assertion{
		assertion.NEB(1, 3),
		assertion.NEN(1, 0, []int{0, 1}),
		assertion.NEN(1, 2, []int{1, 2}),
		assertion.NEN(1, 4, []int{1, 4}),
		assertion.NEN(2, 0, []int{0, 2}),
		assertion.NEN(3, 2, []int{2, 3}),
		assertion.NEN(3, 4, []int{3, 4}),
		assertion.NEN(4, 0, []int{0, 4}),
		assertion.NEN(1, 0, []int{0, 1, 2}),
		assertion.NEN(1, 0, []int{0, 1, 4}),
		assertion.NEN(1, 4, []int{1, 2, 4}),
		assertion.NEN(2, 0, []int{0, 2, 4}),
		assertion.NEN(3, 0, []int{0, 2, 3}),
		assertion.NEN(3, 0, []int{0, 3, 4}),
		assertion.NEN(3, 4, []int{2, 3, 4}),
		assertion.NEN(1, 0, []int{0, 1, 2, 4}),
		assertion.NEN(1, 4, []int{0, 1, 2, 4}),
		assertion.NEN(3, 4, []int{0, 2, 3, 4}),
	}
}

type trimCase struct {
	name          string
	assertions    []assertion.Assertion
	winner        int
	numCandidates int
}

func trimCases() []trimCase {
	return []trimCase{
		{"guide", guideAssertions(), 2, 4},
		{"five candidates", fiveCandidateAssertions(), 1, 5},
	}
}

func TestOrderAndTrimFiveCandidates(t *testing.T) {
	tests := []struct {
		algo Algorithm
		want []assertion.Assertion
	}{
		{MinimizeTree, []assertion.Assertion{
			assertion.NEB(1, 3),
			assertion.NEN(1, 0, []int{0, 1}),
			assertion.NEN(1, 2, []int{1, 2}),
			assertion.NEN(1, 4, []int{1, 4}),
			assertion.NEN(2, 0, []int{0, 2}),
			assertion.NEN(4, 0, []int{0, 4}),
			assertion.NEN(1, 0, []int{0, 1, 2}),
			assertion.NEN(1, 0, []int{0, 1, 4}),
			assertion.NEN(1, 4, []int{1, 2, 4}),
			assertion.NEN(2, 0, []int{0, 2, 4}),
			assertion.NEN(1, 0, []int{0, 1, 2, 4}),
		}},
		// A single pass keeps NEN(2,0,{0,2}) and NEN(4,0,{0,4}) as well; the
		// second pass finds them redundant.
		{MinimizeAssertions, []assertion.Assertion{
			assertion.NEB(1, 3),
			assertion.NEN(1, 0, []int{0, 1}),
			assertion.NEN(1, 2, []int{1, 2}),
			assertion.NEN(1, 4, []int{1, 4}),
			assertion.NEN(1, 0, []int{0, 1, 2}),
			assertion.NEN(1, 0, []int{0, 1, 4}),
			assertion.NEN(1, 4, []int{1, 2, 4}),
			assertion.NEN(1, 0, []int{0, 1, 2, 4}),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			got, err := OrderAndTrim(withDifficulty(fiveCandidateAssertions()), 1, 5, tt.algo, budget.Unlimited())
			require.NoError(t, err)
			assert.Equal(t, tt.want, assertionsOf(got))
		})
	}
}

func TestOrderAndTrimIsIdempotent(t *testing.T) {
	for _, tc := range trimCases() {
		for _, algo := range []Algorithm{MinimizeTree, MinimizeAssertions} {
			t.Run(tc.name+"/"+algo.String(), func(t *testing.T) {
				once, err := OrderAndTrim(withDifficulty(tc.assertions), tc.winner, tc.numCandidates, algo, budget.Unlimited())
				require.NoError(t, err)

				twice, err := OrderAndTrim(once, tc.winner, tc.numCandidates, algo, budget.Unlimited())
				require.NoError(t, err)
				assert.Equal(t, once, twice)
			})
		}
	}
}

// collectForced gathers the assertions that are the only pruner of a leaf
// reached without passing a pruned node.
func collectForced(n *Node, all []assertion.Assertion, out *[]assertion.Assertion) {
	if len(n.Pruning) > 0 {
		if len(n.Children) == 0 && len(n.Pruning) == 1 {
			*out = append(*out, all[n.Pruning[0]])
		}
		return
	}
	for _, child := range n.Children {
		collectForced(child, all, out)
	}
}

func TestOrderAndTrimKeepsSoleLeafPruners(t *testing.T) {
	for _, tc := range trimCases() {
		for _, algo := range []Algorithm{MinimizeTree, MinimizeAssertions} {
			t.Run(tc.name+"/"+algo.String(), func(t *testing.T) {
				sorted := withDifficulty(tc.assertions)
				Sort(sorted)
				all := assertionsOf(sorted)
				rule, ok := algo.stopRule()
				require.True(t, ok)

				var forced []assertion.Assertion
				for c := 0; c < tc.numCandidates; c++ {
					if c == tc.winner {
						continue
					}
					tree, err := BuildTree(nil, c, allIndices(len(all)), all, tc.numCandidates, rule, budget.Unlimited())
					require.NoError(t, err)
					collectForced(tree, all, &forced)
				}
				require.NotEmpty(t, forced)

				kept, err := OrderAndTrim(sorted, tc.winner, tc.numCandidates, algo, budget.Unlimited())
				require.NoError(t, err)
				keptAssertions := assertionsOf(kept)
				for _, f := range forced {
					assert.True(t, slices.ContainsFunc(keptAssertions, f.Equal), "%s dropped", f)
				}
			})
		}
	}
}

func TestOrderAndTrimTimeoutOnLaterPassKeepsEarlierResult(t *testing.T) {
	full := budget.Unlimited()
	want, err := OrderAndTrim(withDifficulty(fiveCandidateAssertions()), 1, 5, MinimizeAssertions, full)
	require.NoError(t, err)

	// One unit short: only the final, confirming pass runs out.
	got, err := OrderAndTrim(withDifficulty(fiveCandidateAssertions()), 1, 5, MinimizeAssertions,
		budget.New(budget.WithWorkLimit(full.WorkDone()-1)))
	require.Error(t, err)
	assert.True(t, auditerr.Is(err, auditerr.CodeTimeoutTrimmingAssertions))
	assert.Equal(t, want, got)
}

func TestAlgorithmText(t *testing.T) {
	for _, algo := range []Algorithm{None, MinimizeTree, MinimizeAssertions} {
		data, err := json.Marshal(algo)
		require.NoError(t, err)

		var back Algorithm
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, algo, back)
	}

	var a Algorithm
	assert.ErrorContains(t, json.Unmarshal([]byte(`"Fastest"`), &a), "unknown trim algorithm")
	assert.Equal(t, MinimizeTree, Algorithm(0), "zero value is the default")
}
