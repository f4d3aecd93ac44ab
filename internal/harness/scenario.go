package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/trim"
)

// OutcomeOK is the expected outcome of a successful solve.
const OutcomeOK = "Ok"

// Scenario defines an audit conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Problem is the path to a problem document (JSON or YAML).
	// Relative paths are resolved against the scenario file's directory.
	Problem string `yaml:"problem"`

	// TrimAlgorithm overrides the problem's trim algorithm when set.
	TrimAlgorithm string `yaml:"trim_algorithm,omitempty"`

	// WorkLimit caps units of work. Zero means none.
	WorkLimit uint64 `yaml:"work_limit,omitempty"`

	// Expect describes the solution's outcome.
	Expect Expect `yaml:"expect"`

	// Assertions check the assertion list of a successful solution.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies the expected outcome. Unset fields are not checked.
type Expect struct {
	// Outcome is "Ok" or an error code such as "TiedWinners".
	Outcome string `yaml:"outcome"`

	Winner     *int     `yaml:"winner,omitempty"`
	Difficulty *float64 `yaml:"difficulty,omitempty"`
	Margin     *int     `yaml:"margin,omitempty"`

	// Candidates is the error payload for TiedWinners, WrongWinner and
	// CouldNotRuleOut.
	Candidates []int `yaml:"candidates,omitempty"`
}

// Assertion is a check on the generated assertions.
type Assertion struct {
	// Type specifies the check:
	// - "contains": the given assertion is present
	// - "absent": the given assertion is not present
	// - "count": exactly Count assertions
	// - "rules_out_losers": every losing elimination order is contradicted
	// - "difficulty_is_max": overall difficulty is the largest assertion's
	Type string `yaml:"type"`

	// Assertion is the audit assertion (used by contains and absent).
	Assertion *AssertionSpec `yaml:"assertion,omitempty"`

	// Count is the expected number of assertions (used by count).
	Count int `yaml:"count,omitempty"`
}

// AssertionSpec is an audit assertion as written in a scenario.
type AssertionSpec struct {
	Type       string `yaml:"type"`
	Winner     int    `yaml:"winner"`
	Loser      int    `yaml:"loser"`
	Continuing []int  `yaml:"continuing,omitempty"`
}

// Build converts the spec to an assertion.
func (s AssertionSpec) Build() (assertion.Assertion, error) {
	switch s.Type {
	case "NEB":
		if len(s.Continuing) > 0 {
			return assertion.Assertion{}, fmt.Errorf("NEB takes no continuing list")
		}
		return assertion.NEB(s.Winner, s.Loser), nil
	case "NEN":
		if len(s.Continuing) == 0 {
			return assertion.Assertion{}, fmt.Errorf("NEN requires a continuing list")
		}
		return assertion.NEN(s.Winner, s.Loser, s.Continuing), nil
	default:
		return assertion.Assertion{}, fmt.Errorf("unknown assertion type %q", s.Type)
	}
}

// Assertion type constants.
const (
	AssertContains        = "contains"
	AssertAbsent          = "absent"
	AssertCount           = "count"
	AssertRulesOutLosers  = "rules_out_losers"
	AssertDifficultyIsMax = "difficulty_is_max"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the problem path relative to the scenario BEFORE validation
	if scenario.Problem != "" && !filepath.IsAbs(scenario.Problem) {
		scenario.Problem = filepath.Join(filepath.Dir(path), scenario.Problem)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Problem == "" {
		return fmt.Errorf("problem is required")
	}
	if _, err := os.Stat(s.Problem); os.IsNotExist(err) {
		return fmt.Errorf("problem file not found: %s", s.Problem)
	}

	if s.TrimAlgorithm != "" {
		if _, err := trim.ParseAlgorithm(s.TrimAlgorithm); err != nil {
			return fmt.Errorf("trim_algorithm: %w", err)
		}
	}

	switch {
	case s.Expect.Outcome == "":
		return fmt.Errorf("expect.outcome is required")
	case s.Expect.Outcome == OutcomeOK:
		if len(s.Expect.Candidates) > 0 {
			return fmt.Errorf("expect.candidates only applies to error outcomes")
		}
	case !auditerr.Code(s.Expect.Outcome).Valid():
		return fmt.Errorf("expect.outcome: unknown error code %q", s.Expect.Outcome)
	default:
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions only apply when expect.outcome is %s", OutcomeOK)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertAbsent:
		if a.Assertion == nil {
			return fmt.Errorf("assertions[%d]: assertion is required for %s", index, a.Type)
		}
		if _, err := a.Assertion.Build(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertRulesOutLosers, AssertDifficultyIsMax:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
