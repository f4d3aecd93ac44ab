package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/irv/irvtest"
	"github.com/roach88/raire/internal/trim"
)

func guideProblem() *Problem {
	return &Problem{
		NumCandidates: 4,
		Votes:         irvtest.GuideVotes(),
		Audit:         difficulty.Audit{Metric: difficulty.OneOnMargin{TotalAuditableBallots: irvtest.GuideTotal}},
	}
}

func TestLoadJSON(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "guide.json"))
	require.NoError(t, err)

	assert.Equal(t, 4, p.NumCandidates)
	require.Len(t, p.Votes, 5)
	assert.Equal(t, irv.Vote{N: 5000, Prefs: []int{2, 1, 0}}, p.Votes[0])
	require.NotNil(t, p.Winner)
	assert.Equal(t, 2, *p.Winner)
	assert.Equal(t, difficulty.OneOnMargin{TotalAuditableBallots: 13500}, p.Audit.Metric)
	assert.Nil(t, p.TrimAlgorithm)
	assert.JSONEq(t, `{"candidates":["Alice","Bob","Chuan","Diego"],"contest":"guide"}`, string(p.Metadata))
}

func TestLoadYAMLMatchesJSON(t *testing.T) {
	fromJSON, err := Load(filepath.Join("testdata", "guide.json"))
	require.NoError(t, err)
	fromYAML, err := Load(filepath.Join("testdata", "guide.yaml"))
	require.NoError(t, err)

	assert.Equal(t, fromJSON.NumCandidates, fromYAML.NumCandidates)
	assert.Equal(t, fromJSON.Votes, fromYAML.Votes)
	assert.Equal(t, fromJSON.Winner, fromYAML.Winner)
	assert.Equal(t, fromJSON.Audit, fromYAML.Audit)
	assert.JSONEq(t, string(fromJSON.Metadata), string(fromYAML.Metadata))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", `{"num_candidates":1,"votes":[],"audit":{"type":"OneOnMargin","total_auditable_ballots":1},"extra":1}`, "unknown field"},
		{"missing audit", `{"num_candidates":1,"votes":[]}`, "audit is required"},
		{"unknown metric", `{"num_candidates":1,"votes":[],"audit":{"type":"Mystery"}}`, "unknown type"},
		{"bad trim", `{"num_candidates":1,"votes":[],"audit":{"type":"OneOnMargin","total_auditable_ballots":1},"trim_algorithm":"Fastest"}`, "unknown trim algorithm"},
		{"not an object", `[1,2]`, "decode problem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeOptionalFields(t *testing.T) {
	doc := `{
		"num_candidates": 3,
		"votes": [{"n": 1, "prefs": [0]}, {"n": 1, "prefs": []}],
		"audit": {"type": "MACRO", "confidence": 0.05, "error_inflation_factor": 1.1, "total_auditable_ballots": 2},
		"trim_algorithm": "MinimizeAssertions",
		"difficulty_estimate": 12.5,
		"time_limit_seconds": 0.25
	}`
	p, err := DecodeJSON(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, trim.MinimizeAssertions, p.Trim(trim.None))
	require.NotNil(t, p.DifficultyEstimate)
	assert.Equal(t, 12.5, *p.DifficultyEstimate)
	require.NotNil(t, p.TimeLimitSeconds)
	assert.Equal(t, 0.25, *p.TimeLimitSeconds)
	assert.Equal(t, difficulty.MACRO{Confidence: 0.05, ErrorInflationFactor: 1.1, TotalAuditableBallots: 2}, p.Audit.Metric)
	assert.Empty(t, p.Votes[1].Prefs)
}

func TestSolveGuideDocument(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "guide.json"))
	require.NoError(t, err)

	sol := p.Solve(context.Background())
	require.NoError(t, sol.Err())
	res := sol.Solution.Ok
	require.NotNil(t, res)

	assert.Equal(t, 2, res.Winner)
	assert.Equal(t, 4, res.NumCandidates)
	assert.Equal(t, 27.0, res.Difficulty)
	assert.Equal(t, 500, res.Margin)
	assert.Len(t, res.Assertions, 6)
	assert.False(t, res.WarningTrimTimedOut)
	assert.JSONEq(t, string(p.Metadata), string(sol.Metadata))
}

func TestSolveUsesDefaultTrim(t *testing.T) {
	p := guideProblem()

	sol := p.Solve(context.Background(), WithDefaultTrim(trim.MinimizeAssertions))
	require.NoError(t, sol.Err())
	assert.Len(t, sol.Solution.Ok.Assertions, 5)

	algo := trim.MinimizeTree
	p.TrimAlgorithm = &algo
	sol = p.Solve(context.Background(), WithDefaultTrim(trim.MinimizeAssertions))
	require.NoError(t, sol.Err())
	assert.Len(t, sol.Solution.Ok.Assertions, 6)
}

func TestSolveValidation(t *testing.T) {
	limit := func(s float64) *float64 { return &s }
	winner := func(c int) *int { return &c }

	tests := []struct {
		name   string
		mutate func(p *Problem)
		code   auditerr.Code
	}{
		{"zero candidates", func(p *Problem) { p.NumCandidates = 0 }, auditerr.CodeInvalidNumberOfCandidates},
		{"zero time limit", func(p *Problem) { p.TimeLimitSeconds = limit(0) }, auditerr.CodeInvalidTimeout},
		{"negative time limit", func(p *Problem) { p.TimeLimitSeconds = limit(-1) }, auditerr.CodeInvalidTimeout},
		{"NaN time limit", func(p *Problem) { p.TimeLimitSeconds = limit(math.NaN()) }, auditerr.CodeInvalidTimeout},
		{"infinite time limit", func(p *Problem) { p.TimeLimitSeconds = limit(math.Inf(1)) }, auditerr.CodeInvalidTimeout},
		{"candidate out of range", func(p *Problem) { p.Votes = append(p.Votes, irv.Vote{N: 1, Prefs: []int{4}}) }, auditerr.CodeInvalidCandidateNumber},
		{"wrong winner", func(p *Problem) { p.Winner = winner(0) }, auditerr.CodeWrongWinner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := guideProblem()
			tt.mutate(p)

			sol := p.Solve(context.Background())
			require.Nil(t, sol.Solution.Ok)
			require.NotNil(t, sol.Solution.Err)
			assert.Equal(t, tt.code, sol.Solution.Err.Code)
		})
	}
}

func TestSolveTimeLimitCheckedBeforeCount(t *testing.T) {
	p := guideProblem()
	p.NumCandidates = 0
	bad := -1.0
	p.TimeLimitSeconds = &bad

	sol := p.Solve(context.Background())
	assert.Equal(t, auditerr.CodeInvalidTimeout, sol.Solution.Err.Code)
}

func TestValidate(t *testing.T) {
	p := guideProblem()
	assert.Nil(t, p.Validate())

	zero := 0.0
	p.TimeLimitSeconds = &zero
	require.NotNil(t, p.Validate())
	assert.Equal(t, auditerr.CodeInvalidTimeout, p.Validate().Code)

	p.TimeLimitSeconds = nil
	p.NumCandidates = 0
	require.NotNil(t, p.Validate())
	assert.Equal(t, auditerr.CodeInvalidNumberOfCandidates, p.Validate().Code)
}

func TestAsAuditErr(t *testing.T) {
	typed := auditerr.NewTiedWinners([]int{0, 1})
	assert.Same(t, typed, asAuditErr(fmt.Errorf("wrapped: %w", typed)))

	got := asAuditErr(errors.New("disk on fire"))
	require.NotNil(t, got)
	assert.Equal(t, auditerr.CodeInternalErrorTrimming, got.Code)
}

func TestSolveWorkLimitTimesOut(t *testing.T) {
	sol := guideProblem().Solve(context.Background(), WithWorkLimit(1))
	require.Error(t, sol.Err())
	assert.True(t, auditerr.IsTimeout(sol.Err()))
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol := guideProblem().Solve(ctx)
	// The context is only consulted at clock checks, so a small contest may
	// finish first. Either way nothing but a timeout may be reported.
	if err := sol.Err(); err != nil {
		assert.True(t, auditerr.IsTimeout(err), err)
	}
}

func TestSolutionJSONErr(t *testing.T) {
	tests := []struct {
		name string
		err  *auditerr.Error
		wire string
	}{
		{"unit", auditerr.New(auditerr.CodeInvalidTimeout), `{"metadata":{"id":1},"solution":{"Err":"InvalidTimeout"}}`},
		{"difficulty", auditerr.NewTimeoutFindingAssertions(3), `{"metadata":{"id":1},"solution":{"Err":{"TimeoutFindingAssertions":3.0}}}`},
		{"candidates", auditerr.NewTiedWinners([]int{2, 3}), `{"metadata":{"id":1},"solution":{"Err":{"TiedWinners":[2,3]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := Solution{Metadata: json.RawMessage(`{"id":1}`), Solution: Outcome{Err: tt.err}}
			data, err := json.Marshal(sol)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, string(data))

			back, err := DecodeSolution(strings.NewReader(tt.wire))
			require.NoError(t, err)
			assert.Equal(t, tt.err, back.Solution.Err)
			assert.Nil(t, back.Solution.Ok)
		})
	}
}

func TestSolutionJSONOkRoundTrip(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "guide.json"))
	require.NoError(t, err)
	sol := p.Solve(context.Background())
	require.NoError(t, sol.Err())

	var buf strings.Builder
	require.NoError(t, EncodeSolution(&buf, sol))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	back, err := DecodeSolution(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.NotNil(t, back.Solution.Ok)
	assert.Equal(t, sol.Solution.Ok, back.Solution.Ok)
	assert.JSONEq(t, string(sol.Metadata), string(back.Metadata))
}

func TestOutcomeJSONRejects(t *testing.T) {
	for _, wire := range []string{`{}`, `{"Ok":{},"Err":"InvalidTimeout"}`, `{"Maybe":1}`, `"Ok"`} {
		var o Outcome
		assert.Error(t, json.Unmarshal([]byte(wire), &o), wire)
	}

	_, err := json.Marshal(Outcome{})
	assert.Error(t, err)
}

func TestAssertionStatusPreserved(t *testing.T) {
	wire := `{"solution":{"Ok":{
		"assertions":[{"assertion":{"type":"NEB","winner":2,"loser":1},"difficulty":27,"margin":500,"status":{"risk":0.1}}],
		"difficulty":27,"margin":500,"winner":2,"num_candidates":4,
		"time_to_determine_winners":{"work":4,"seconds":0},
		"time_to_find_assertions":{"work":10,"seconds":0},
		"time_to_trim_assertions":{"work":3,"seconds":0},
		"warning_trim_timed_out":false}}}`
	sol, err := DecodeSolution(strings.NewReader(wire))
	require.NoError(t, err)
	require.Len(t, sol.Solution.Ok.Assertions, 1)
	assert.Equal(t, map[string]any{"risk": 0.1}, sol.Solution.Ok.Assertions[0].Status)

	data, err := json.Marshal(sol)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":{"risk":0.1}`)
}
