package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/engine"
)

// maxBruteForceCandidates bounds rules_out_losers, which checks n! orders.
const maxBruteForceCandidates = 8

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type       string                     // Assertion type for categorization
	Expected   string                     // Human-readable expected outcome
	Actual     string                     // Human-readable actual outcome
	Assertions []assertion.WithDifficulty // Full assertion list for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nAssertions:\n")
	for i, a := range e.Assertions {
		fmt.Fprintf(&buf, "  [%d] %s difficulty=%g margin=%d\n", i+1, a.Assertion, a.Difficulty, a.Margin)
	}

	return buf.String()
}

func contains(list []assertion.WithDifficulty, want assertion.Assertion) bool {
	for _, a := range list {
		if a.Assertion.Equal(want) {
			return true
		}
	}
	return false
}

func assertContains(res *engine.Result, spec AssertionSpec, present bool) error {
	want, err := spec.Build()
	if err != nil {
		return err
	}
	if contains(res.Assertions, want) == present {
		return nil
	}

	typ, actual := AssertContains, "not found"
	if !present {
		typ, actual = AssertAbsent, "found"
	}
	return &AssertionError{
		Type:       typ,
		Expected:   want.String(),
		Actual:     actual,
		Assertions: res.Assertions,
	}
}

func assertCount(res *engine.Result, count int) error {
	if len(res.Assertions) == count {
		return nil
	}
	return &AssertionError{
		Type:       AssertCount,
		Expected:   fmt.Sprintf("%d assertions", count),
		Actual:     fmt.Sprintf("%d assertions", len(res.Assertions)),
		Assertions: res.Assertions,
	}
}

// assertRulesOutLosers enumerates every complete elimination order and
// requires each one not ending in the winner to be contradicted.
func assertRulesOutLosers(res *engine.Result) error {
	if res.NumCandidates > maxBruteForceCandidates {
		return fmt.Errorf("%s: %d candidates is too many to enumerate (max %d)",
			AssertRulesOutLosers, res.NumCandidates, maxBruteForceCandidates)
	}

	order := make([]int, res.NumCandidates)
	for i := range order {
		order[i] = i
	}

	var survivor []int
	permute(order, 0, func(o []int) bool {
		if o[len(o)-1] == res.Winner || contradicted(res.Assertions, o) {
			return true
		}
		survivor = append([]int(nil), o...)
		return false
	})
	if survivor == nil {
		return nil
	}
	return &AssertionError{
		Type:       AssertRulesOutLosers,
		Expected:   fmt.Sprintf("every order not ending in %d contradicted", res.Winner),
		Actual:     fmt.Sprintf("order %v is not ruled out", survivor),
		Assertions: res.Assertions,
	}
}

func contradicted(list []assertion.WithDifficulty, order []int) bool {
	for _, a := range list {
		if a.Assertion.CheckSuffix(order) == assertion.Contradiction {
			return true
		}
	}
	return false
}

// permute calls visit with each permutation of s[k:] until visit returns
// false. s is restored on return.
func permute(s []int, k int, visit func([]int) bool) bool {
	if k == len(s) {
		return visit(s)
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		ok := permute(s, k+1, visit)
		s[k], s[i] = s[i], s[k]
		if !ok {
			return false
		}
	}
	return true
}

func assertDifficultyIsMax(res *engine.Result) error {
	highest := 0.0
	for _, a := range res.Assertions {
		if a.Difficulty > highest {
			highest = a.Difficulty
		}
	}
	if closeEnough(highest, res.Difficulty) {
		return nil
	}
	return &AssertionError{
		Type:       AssertDifficultyIsMax,
		Expected:   fmt.Sprintf("difficulty %g", highest),
		Actual:     fmt.Sprintf("difficulty %g", res.Difficulty),
		Assertions: res.Assertions,
	}
}

// EvaluateAssertions evaluates all assertions against a successful solution.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(res *engine.Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertContains, AssertAbsent:
			if a.Assertion == nil {
				err = fmt.Errorf("assertion[%d]: %s requires an assertion", i, a.Type)
			} else {
				err = assertContains(res, *a.Assertion, a.Type == AssertContains)
			}
		case AssertCount:
			err = assertCount(res, a.Count)
		case AssertRulesOutLosers:
			err = assertRulesOutLosers(res)
		case AssertDifficultyIsMax:
			err = assertDifficultyIsMax(res)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
