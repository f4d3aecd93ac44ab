package assertion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv/irvtest"
)

func TestGuideNEBDifficulties(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
	metric := difficulty.OneOnMargin{TotalAuditableBallots: irvtest.GuideTotal}
	A, B, C, D := irvtest.GuideA, irvtest.GuideB, irvtest.GuideC, irvtest.GuideD

	infinite := [][2]int{{B, A}, {C, A}, {D, A}, {A, B}, {D, B}, {A, D}, {B, D}, {C, D}}
	for _, pair := range infinite {
		got := NEB(pair[0], pair[1]).Difficulty(votes, metric)
		assert.True(t, math.IsInf(got.Difficulty, 1), "NEB(%d,%d)", pair[0], pair[1])
	}

	got := NEB(C, B).Difficulty(votes, metric)
	assert.InDelta(t, 3.375, got.Difficulty, 0.001)
	assert.Equal(t, 4000, got.Margin)
}

func TestPaperExample12(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.Example12Votes(), 4)
	require.Equal(t, irvtest.Example12Total, votes.TotalVotes())

	percent := func(m difficulty.Metric, a Assertion) float64 {
		return 100 * a.Difficulty(votes, m).Difficulty / float64(votes.TotalVotes())
	}

	t.Run("bravo", func(t *testing.T) {
		m := difficulty.BRAVO{Confidence: 0.05, TotalAuditableBallots: irvtest.Example12Total}
		assert.InDelta(t, 1.0, percent(m, NEN(0, 1, []int{0, 1})), 0.1)
		assert.InDelta(t, 0.5, percent(m, NEN(0, 2, []int{0, 2})), 0.1)
		assert.InDelta(t, 0.4, percent(m, NEB(0, 3)), 0.1)
		assert.InDelta(t, 0.1, percent(m, NEN(0, 2, []int{0, 1, 2})), 0.1)
	})

	t.Run("macro", func(t *testing.T) {
		m := difficulty.MACRO{Confidence: 0.05, ErrorInflationFactor: 1.1, TotalAuditableBallots: irvtest.Example12Total}
		assert.InDelta(t, 0.17, percent(m, NEN(0, 1, []int{0, 1})), 0.01)
		assert.InDelta(t, 0.07, percent(m, NEN(0, 2, []int{0, 1, 2})), 0.01)
		assert.InDelta(t, 0.11, percent(m, NEN(0, 2, []int{0, 2})), 0.01)
		assert.InDelta(t, 0.13, percent(m, NEB(0, 3)), 0.01)
		assert.InDelta(t, 0.04, percent(m, NEN(1, 3, []int{1, 3})), 0.01)
		assert.InDelta(t, 0.04, percent(m, NEN(2, 3, []int{2, 3})), 0.01)
	})
}

func TestNEBCache(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
	metric := difficulty.OneOnMargin{TotalAuditableBallots: irvtest.GuideTotal}
	cache := NewNEBCache(votes, metric)

	for c := 0; c < 4; c++ {
		diag := cache.Lookup(c, c)
		assert.True(t, math.IsInf(diag.Difficulty, 1))
		assert.Zero(t, diag.Margin)
	}
	for w := 0; w < 4; w++ {
		for l := 0; l < 4; l++ {
			if w != l {
				assert.Equal(t, NEB(w, l).Difficulty(votes, metric), cache.Lookup(w, l))
			}
		}
	}
}

func TestBestNEB(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
	cache := NewNEBCache(votes, difficulty.OneOnMargin{TotalAuditableBallots: irvtest.GuideTotal})

	// B eliminated last: C, outside the suffix, beats B.
	best, ok := BestNEB(irvtest.GuideB, nil, cache)
	require.True(t, ok)
	assert.True(t, best.Assertion.Equal(NEB(irvtest.GuideC, irvtest.GuideB)))
	assert.InDelta(t, 3.375, best.Difficulty, 0.001)

	// A eliminated before C: every NEB involving A is infinite.
	_, ok = BestNEB(irvtest.GuideA, []int{irvtest.GuideC}, cache)
	assert.False(t, ok)
}

func TestBestNENTieGoesToLaterCandidate(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.Example9Votes(), 3)
	m := difficulty.OneOnMargin{TotalAuditableBallots: irvtest.Example9Total}

	// With 0 and 1 only: 0 has 15999, 1 has 6000.
	best, ok := BestNEN(votes, m, []int{0, 1}, 0)
	require.True(t, ok)
	assert.True(t, best.Assertion.Equal(NEN(0, 1, []int{0, 1})))
	assert.Equal(t, 9999, best.Margin)

	_, ok = BestNEN(votes, m, []int{0}, 0)
	assert.False(t, ok, "no loser among a single continuing candidate")

	tied := irvtest.MustVotes(t, irvtest.GuideVotes()[:0], 3)
	best, ok = BestNEN(tied, m, []int{0, 1, 2}, 0)
	require.True(t, ok)
	assert.Equal(t, 2, best.Assertion.Loser)
	assert.True(t, math.IsInf(best.Difficulty, 1))
}

func TestFindBest(t *testing.T) {
	votes := irvtest.MustVotes(t, irvtest.GuideVotes(), 4)
	metric := difficulty.OneOnMargin{TotalAuditableBallots: irvtest.GuideTotal}
	cache := NewNEBCache(votes, metric)
	A, B, C, D := irvtest.GuideA, irvtest.GuideB, irvtest.GuideC, irvtest.GuideD

	t.Run("single candidate suffix uses NEB", func(t *testing.T) {
		got := FindBest([]int{B}, votes, metric, cache)
		assert.True(t, got.Assertion.Equal(NEB(C, B)))
	})

	t.Run("nen over whole suffix", func(t *testing.T) {
		// A,C,D continuing: A 4000, C 6000, D 3500. A eliminated first is
		// refuted by D having fewer votes.
		got := FindBest([]int{A, C, D}, votes, metric, cache)
		assert.True(t, got.Assertion.Equal(NEN(A, D, []int{A, C, D})))
		assert.InDelta(t, 27.0, got.Difficulty, 1e-9)
		assert.Equal(t, 500, got.Margin)
	})

	t.Run("nothing applies", func(t *testing.T) {
		// A winning outright: no NEB against A is finite and a lone
		// candidate has no NEN.
		got := FindBest([]int{A}, votes, metric, cache)
		assert.True(t, math.IsInf(got.Difficulty, 1))
		assert.True(t, got.Assertion.Equal(NEB(A, A)))
	})
}
