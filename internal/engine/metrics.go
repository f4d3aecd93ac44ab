package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/raire/internal/auditerr"
)

// Metrics instruments solver runs.
//
// Metrics are registered on the Registerer passed to NewMetrics so that each
// CLI invocation or test gets an isolated registry.
type Metrics struct {
	// Solves counts finished runs.
	// Labels: outcome (ok, or the failure code)
	Solves *prometheus.CounterVec

	// StageSeconds measures wall-clock time per stage.
	// Labels: stage (determine_winners, find_assertions, trim_assertions)
	StageSeconds *prometheus.HistogramVec

	// StageWork measures work units per stage.
	// Labels: stage
	StageWork *prometheus.HistogramVec

	// Expansions counts suffixes evaluated by the search.
	Expansions prometheus.Counter

	// AssertionsFound counts assertions committed by the search before trimming.
	AssertionsFound prometheus.Counter

	// AssertionsKept counts assertions surviving trimming.
	AssertionsKept prometheus.Counter
}

// Stage labels.
const (
	StageDetermineWinners = "determine_winners"
	StageFindAssertions   = "find_assertions"
	StageTrimAssertions   = "trim_assertions"
)

// OutcomeOK labels a successful run.
const OutcomeOK = "ok"

// NewMetrics registers solver metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raire",
			Subsystem: "solver",
			Name:      "solves_total",
			Help:      "Total solver runs by outcome",
		}, []string{"outcome"}),
		StageSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raire",
			Subsystem: "solver",
			Name:      "stage_seconds",
			Help:      "Wall-clock time spent in each solver stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		}, []string{"stage"}),
		StageWork: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raire",
			Subsystem: "solver",
			Name:      "stage_work_units",
			Help:      "Work units spent in each solver stage",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		}, []string{"stage"}),
		Expansions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "raire",
			Subsystem: "search",
			Name:      "expansions_total",
			Help:      "Elimination-order suffixes evaluated by the search",
		}),
		AssertionsFound: f.NewCounter(prometheus.CounterOpts{
			Namespace: "raire",
			Subsystem: "search",
			Name:      "assertions_found_total",
			Help:      "Assertions committed by the search before trimming",
		}),
		AssertionsKept: f.NewCounter(prometheus.CounterOpts{
			Namespace: "raire",
			Subsystem: "trim",
			Name:      "assertions_kept_total",
			Help:      "Assertions surviving trimming",
		}),
	}
}

func (m *Metrics) observeOutcome(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = "error"
		if code, ok := auditerr.CodeOf(err); ok {
			outcome = string(code)
		}
	}
	m.Solves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeStage(stage string, work uint64, seconds float64) {
	if m == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
	m.StageWork.WithLabelValues(stage).Observe(float64(work))
}

func (m *Metrics) observeSearch(expansions, found int) {
	if m == nil {
		return
	}
	m.Expansions.Add(float64(expansions))
	m.AssertionsFound.Add(float64(found))
}

func (m *Metrics) observeKept(kept int) {
	if m == nil {
		return
	}
	m.AssertionsKept.Add(float64(kept))
}
