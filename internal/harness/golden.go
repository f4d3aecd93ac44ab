package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/raire/internal/budget"
	"github.com/roach88/raire/internal/problem"
)

// Snapshot captures what a scenario produced, minus anything that varies
// between runs.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Outcome      string           `json:"outcome"`
	Solution     problem.Solution `json:"solution"`
}

// newSnapshot zeroes stage timings. The clock is frozen, but work units
// depend on search internals that golden files should not pin.
func newSnapshot(name string, result *Result) Snapshot {
	sol := result.Solution
	if res := sol.Solution.Ok; res != nil {
		stripped := *res
		stripped.TimeToDetermineWinners = budget.TimeTaken{}
		stripped.TimeToFindAssertions = budget.TimeTaken{}
		stripped.TimeToTrimAssertions = budget.TimeTaken{}
		sol.Solution.Ok = &stripped
	}
	return Snapshot{ScenarioName: name, Outcome: result.Outcome, Solution: sol}
}

// MarshalSnapshot returns the canonical JSON golden files hold for result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	return problem.MarshalCanonical(newSnapshot(scenarioName, result))
}

// RunWithGolden executes a scenario and compares its solution against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the solution doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file, using
// canonical JSON so key order and number formatting are stable.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
