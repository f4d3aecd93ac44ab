package problem

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/engine"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/trim"
)

type solveConfig struct {
	workLimit        uint64
	defaultTimeLimit float64
	defaultTrim      trim.Algorithm
	clock            budget.Clock
	solverOpts       []engine.SolverOption
}

// SolveOption configures Problem.Solve.
type SolveOption func(*solveConfig)

// WithWorkLimit caps the units of work across all stages. Zero means no cap.
func WithWorkLimit(units uint64) SolveOption {
	return func(c *solveConfig) {
		c.workLimit = units
	}
}

// WithDefaultTimeLimit applies when the problem sets no time limit. Zero
// means no limit.
func WithDefaultTimeLimit(seconds float64) SolveOption {
	return func(c *solveConfig) {
		c.defaultTimeLimit = seconds
	}
}

// WithDefaultTrim applies when the problem names no trim algorithm.
func WithDefaultTrim(a trim.Algorithm) SolveOption {
	return func(c *solveConfig) {
		c.defaultTrim = a
	}
}

// WithClock replaces the wall clock. Used by tests.
func WithClock(clock budget.Clock) SolveOption {
	return func(c *solveConfig) {
		c.clock = clock
	}
}

// WithSolverOptions passes options through to the engine.
func WithSolverOptions(opts ...engine.SolverOption) SolveOption {
	return func(c *solveConfig) {
		c.solverOpts = append(c.solverOpts, opts...)
	}
}

// Solve runs the problem. Every failure, including invalid input, is
// reported inside the returned Solution.
func (p *Problem) Solve(ctx context.Context, opts ...SolveOption) Solution {
	cfg := solveConfig{defaultTrim: trim.MinimizeTree}
	for _, opt := range opts {
		opt(&cfg)
	}

	res, err := p.solve(ctx, cfg)
	if err != nil {
		return Solution{Metadata: p.Metadata, Solution: Outcome{Err: err}}
	}
	return Solution{Metadata: p.Metadata, Solution: Outcome{Ok: res}}
}

// Validate checks the inputs that must be rejected before any work is done.
// The time limit is checked before the candidate count.
func (p *Problem) Validate() *auditerr.Error {
	if t := p.TimeLimitSeconds; t != nil && (!(*t > 0) || math.IsInf(*t, 1)) {
		return auditerr.New(auditerr.CodeInvalidTimeout)
	}
	if p.NumCandidates < 1 {
		return auditerr.New(auditerr.CodeInvalidNumberOfCandidates)
	}
	return nil
}

func (p *Problem) solve(ctx context.Context, cfg solveConfig) (*engine.Result, *auditerr.Error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	timeLimit := cfg.defaultTimeLimit
	if p.TimeLimitSeconds != nil {
		timeLimit = *p.TimeLimitSeconds
	}

	votes, err := irv.NewVotes(p.Votes, p.NumCandidates)
	if err != nil {
		return nil, asAuditErr(err)
	}

	metric := p.Audit.Metric
	if metric == nil {
		metric = difficulty.OneOnMargin{TotalAuditableBallots: votes.TotalVotes()}
	}

	budgetOpts := []budget.Option{budget.WithContext(ctx)}
	if cfg.workLimit > 0 {
		budgetOpts = append(budgetOpts, budget.WithWorkLimit(cfg.workLimit))
	}
	if timeLimit > 0 {
		budgetOpts = append(budgetOpts, budget.WithTimeLimit(timeLimit))
	}
	if cfg.clock != nil {
		budgetOpts = append(budgetOpts, budget.WithClock(cfg.clock))
	}
	b := budget.New(budgetOpts...)

	res, err := engine.Solve(ctx, votes, p.Winner, metric, p.Trim(cfg.defaultTrim), b, cfg.solverOpts...)
	if err != nil {
		return nil, asAuditErr(err)
	}
	return res, nil
}

// asAuditErr narrows err to the typed taxonomy. The engine and tabulator
// only return *auditerr.Error; anything else is reported as an internal
// trimming failure rather than escaping the Solution.
func asAuditErr(err error) *auditerr.Error {
	var ae *auditerr.Error
	if errors.As(err, &ae) {
		return ae
	}
	slog.Error("untyped solver error", "error", err)
	return auditerr.New(auditerr.CodeInternalErrorTrimming)
}
