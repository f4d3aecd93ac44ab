package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/trim"
)

// Result is a successful solve: a sufficient, trimmed assertion set and the
// effort each stage took.
type Result struct {
	Assertions             []assertion.WithDifficulty `json:"assertions"`
	Difficulty             float64                    `json:"difficulty"`
	Margin                 int                        `json:"margin"`
	Winner                 int                        `json:"winner"`
	NumCandidates          int                        `json:"num_candidates"`
	TimeToDetermineWinners budget.TimeTaken           `json:"time_to_determine_winners"`
	TimeToFindAssertions   budget.TimeTaken           `json:"time_to_find_assertions"`
	TimeToTrimAssertions   budget.TimeTaken           `json:"time_to_trim_assertions"`
	WarningTrimTimedOut    bool                       `json:"warning_trim_timed_out"`
}

// Solver runs assertion generation. A Solver holds only configuration and is
// safe to reuse across runs.
type Solver struct {
	diving      bool
	trimWorkers int
	logger      *slog.Logger
	metrics     *Metrics
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithDiving toggles the dive heuristic. It is on by default; turning it off
// only changes how fast the search converges.
func WithDiving(enabled bool) SolverOption {
	return func(s *Solver) {
		s.diving = enabled
	}
}

// WithTrimWorkers sets how many pruning trees are built at once.
//
// Default: 1
func WithTrimWorkers(n int) SolverOption {
	return func(s *Solver) {
		s.trimWorkers = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = l
	}
}

// WithMetrics records run statistics. Default: none.
func WithMetrics(m *Metrics) SolverOption {
	return func(s *Solver) {
		s.metrics = m
	}
}

// New creates a Solver.
func New(opts ...SolverOption) *Solver {
	s := &Solver{
		diving:      true,
		trimWorkers: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve is shorthand for New(opts...).Solve.
func Solve(ctx context.Context, votes *irv.Votes, claimedWinner *int, metric difficulty.Metric,
	algo trim.Algorithm, b *budget.Budget, opts ...SolverOption) (*Result, error) {
	return New(opts...).Solve(ctx, votes, claimedWinner, metric, algo, b)
}

// Solve determines the winner, searches for assertions proving it, and trims
// them with algo. claimedWinner, if set, must match the computed winner.
//
// Cancelling ctx is reported as a timeout of whichever stage is running.
func (s *Solver) Solve(ctx context.Context, votes *irv.Votes, claimedWinner *int, metric difficulty.Metric,
	algo trim.Algorithm, b *budget.Budget) (*Result, error) {
	b.Bind(ctx)
	res, err := s.solve(votes, claimedWinner, metric, algo, b)
	s.metrics.observeOutcome(err)
	if err != nil {
		s.logger.Debug("solve failed", "error", err)
	}
	return res, err
}

func (s *Solver) solve(votes *irv.Votes, claimedWinner *int, metric difficulty.Metric,
	algo trim.Algorithm, b *budget.Budget) (*Result, error) {
	n := votes.NumCandidates()
	if n < 1 {
		return nil, auditerr.New(auditerr.CodeInvalidNumberOfCandidates)
	}

	outcome, err := votes.RunElection(b)
	if err != nil {
		return nil, err
	}
	determine := b.TimeTaken()
	s.metrics.observeStage(StageDetermineWinners, determine.Work, determine.Seconds)
	s.logger.Debug("winners determined",
		"winners", outcome.PossibleWinners,
		"elimination_order", outcome.EliminationOrder,
		"took", determine.String(),
	)

	if len(outcome.PossibleWinners) != 1 {
		return nil, auditerr.NewTiedWinners(outcome.PossibleWinners)
	}
	winner := outcome.PossibleWinners[0]
	if claimedWinner != nil && *claimedWinner != winner {
		return nil, auditerr.NewWrongWinner(outcome.PossibleWinners)
	}

	sv := &search{
		votes:  votes,
		metric: metric,
		cache:  assertion.NewNEBCache(votes, metric),
		budget: b,
		logger: s.logger,
		diving: s.diving,
		winner: winner,
		order:  outcome.EliminationOrder,
	}
	err = sv.run()
	s.metrics.observeSearch(sv.expansions, len(sv.assertions))
	if err != nil {
		return nil, err
	}
	find := b.TimeTaken().Minus(determine)
	s.metrics.observeStage(StageFindAssertions, find.Work, find.Seconds)
	s.logger.Debug("assertions found",
		"count", len(sv.assertions),
		"difficulty", sv.lowerBound,
		"expansions", sv.expansions,
		"took", find.String(),
	)

	kept, err := trim.OrderAndTrim(sv.assertions, winner, n, algo, b,
		trim.WithWorkers(s.trimWorkers), trim.WithLogger(s.logger))
	trimTimedOut := false
	if err != nil {
		if !auditerr.Is(err, auditerr.CodeTimeoutTrimmingAssertions) {
			return nil, err
		}
		trimTimedOut = true
		s.logger.Warn("trimming timed out, returning untrimmed assertions", "count", len(kept))
	}
	trimmed := b.TimeTaken().Minus(find).Minus(determine)
	s.metrics.observeStage(StageTrimAssertions, trimmed.Work, trimmed.Seconds)
	s.metrics.observeKept(len(kept))

	res := &Result{
		Assertions:             kept,
		Difficulty:             sv.lowerBound,
		Margin:                 minMargin(kept),
		Winner:                 winner,
		NumCandidates:          n,
		TimeToDetermineWinners: determine,
		TimeToFindAssertions:   find,
		TimeToTrimAssertions:   trimmed,
		WarningTrimTimedOut:    trimTimedOut,
	}

	for _, a := range res.Assertions {
		if a.Assertion.CheckSuffix(outcome.EliminationOrder) != assertion.Ok {
			return nil, auditerr.New(auditerr.CodeInternalErrorRuledOutWinner)
		}
	}
	return res, nil
}

func minMargin(assertions []assertion.WithDifficulty) int {
	if len(assertions) == 0 {
		return 0
	}
	m := assertions[0].Margin
	for _, a := range assertions[1:] {
		m = min(m, a.Margin)
	}
	return m
}
