package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/roach88/raire/internal/engine"
	"github.com/roach88/raire/internal/problem"
	"github.com/roach88/raire/internal/store"
	"github.com/roach88/raire/internal/testutil"
	"github.com/roach88/raire/internal/trim"
)

// epoch is where every scenario's clock is frozen.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine.
// It runs scenarios with a frozen clock and sequential run IDs.
type Harness struct {
	store  *store.Store
	clock  *testutil.FakeClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory archive for isolation.
//
// Execution flow:
// 1. Create fresh in-memory archive
// 2. Load the problem and apply scenario overrides
// 3. Solve with a frozen clock
// 4. Archive the run and read it back
// 5. Check expectations and assertions
//
// An error is returned only when the scenario cannot be executed; failed
// expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewFakeClock(epoch)
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		store.WithNow(clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  clock,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	p, err := problem.Load(scenario.Problem)
	if err != nil {
		return nil, fmt.Errorf("load problem: %w", err)
	}
	if scenario.TrimAlgorithm != "" {
		algo, err := trim.ParseAlgorithm(scenario.TrimAlgorithm)
		if err != nil {
			return nil, err
		}
		p.TrimAlgorithm = &algo
	}

	solved := p.Solve(ctx,
		problem.WithWorkLimit(scenario.WorkLimit),
		problem.WithClock(h.clock),
		problem.WithSolverOptions(engine.WithLogger(h.logger)),
	)

	result := NewResult()
	result.RunID, result.ProblemHash, result.Solution, err = h.archive(ctx, scenario.Problem, p, solved)
	if err != nil {
		return nil, err
	}
	if !sameSolution(solved, result.Solution) {
		result.AddError("archive round trip changed the solution")
	}

	result.Outcome = OutcomeOK
	if e := result.Solution.Solution.Err; e != nil {
		result.Outcome = string(e.Code)
	}

	checkExpect(result, scenario.Expect)
	if result.Outcome == OutcomeOK && scenario.Expect.Outcome == OutcomeOK {
		for _, msg := range EvaluateAssertions(result.Solution.Solution.Ok, scenario.Assertions) {
			result.AddError(msg)
		}
	}
	return result, nil
}

// archive stores the run and returns what the archive gives back.
func (h *Harness) archive(ctx context.Context, source string, p *problem.Problem, sol problem.Solution) (id, hash string, stored problem.Solution, err error) {
	hash, err = p.Hash(trim.MinimizeTree)
	if err != nil {
		return "", "", problem.Solution{}, fmt.Errorf("hash problem: %w", err)
	}
	run, err := store.NewRun(p, sol, hash, source)
	if err != nil {
		return "", "", problem.Solution{}, err
	}
	id, err = h.store.SaveRun(ctx, run)
	if err != nil {
		return "", "", problem.Solution{}, fmt.Errorf("archive run: %w", err)
	}
	back, err := h.store.GetRun(ctx, id)
	if err != nil {
		return "", "", problem.Solution{}, fmt.Errorf("read back run %s: %w", id, err)
	}
	decoded, err := back.DecodeSolution()
	if err != nil {
		return "", "", problem.Solution{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return id, hash, *decoded, nil
}

// sameSolution compares canonical encodings.
func sameSolution(a, b problem.Solution) bool {
	ca, errA := problem.MarshalCanonical(a)
	cb, errB := problem.MarshalCanonical(b)
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}

// checkExpect compares the outcome with the scenario's expectations.
func checkExpect(result *Result, expect Expect) {
	if result.Outcome != expect.Outcome {
		msg := fmt.Sprintf("outcome: expected %s, got %s", expect.Outcome, result.Outcome)
		if e := result.Solution.Solution.Err; e != nil {
			msg += fmt.Sprintf(" (%v)", e)
		}
		result.AddError(msg)
		return
	}

	if e := result.Solution.Solution.Err; e != nil {
		if expect.Candidates != nil && !slices.Equal(expect.Candidates, e.Candidates) {
			result.AddError(fmt.Sprintf("candidates: expected %v, got %v", expect.Candidates, e.Candidates))
		}
		return
	}

	res := result.Solution.Solution.Ok
	if expect.Winner != nil && *expect.Winner != res.Winner {
		result.AddError(fmt.Sprintf("winner: expected %d, got %d", *expect.Winner, res.Winner))
	}
	if expect.Difficulty != nil && !closeEnough(*expect.Difficulty, res.Difficulty) {
		result.AddError(fmt.Sprintf("difficulty: expected %g, got %g", *expect.Difficulty, res.Difficulty))
	}
	if expect.Margin != nil && *expect.Margin != res.Margin {
		result.AddError(fmt.Sprintf("margin: expected %d, got %d", *expect.Margin, res.Margin))
	}
}

func closeEnough(want, got float64) bool {
	if math.IsInf(want, 1) || math.IsInf(got, 1) {
		return want == got
	}
	return math.Abs(want-got) <= 1e-9*math.Max(1, math.Abs(want))
}
