// Package auditerr defines the typed failures an assertion-generation run can
// end with.
//
// Every failure is an *Error carrying a Code. Four codes also carry a payload:
// TimeoutFindingAssertions reports the difficulty bound reached, and
// TiedWinners, WrongWinner and CouldNotRuleOut report a candidate list.
package auditerr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Code categorizes a failure.
type Code string

const (
	// CodeInvalidNumberOfCandidates indicates a problem with fewer than one candidate.
	CodeInvalidNumberOfCandidates Code = "InvalidNumberOfCandidates"

	// CodeInvalidTimeout indicates a time limit that is zero, negative or NaN.
	CodeInvalidTimeout Code = "InvalidTimeout"

	// CodeInvalidCandidateNumber indicates a vote referencing an unknown candidate.
	CodeInvalidCandidateNumber Code = "InvalidCandidateNumber"

	// CodeTimeoutCheckingWinner indicates the budget ran out while tabulating.
	CodeTimeoutCheckingWinner Code = "TimeoutCheckingWinner"

	// CodeTimeoutFindingAssertions indicates the budget ran out during the search.
	CodeTimeoutFindingAssertions Code = "TimeoutFindingAssertions"

	// CodeTimeoutTrimmingAssertions indicates the budget ran out while trimming.
	CodeTimeoutTrimmingAssertions Code = "TimeoutTrimmingAssertions"

	// CodeTiedWinners indicates more than one candidate could win under some tie resolution.
	CodeTiedWinners Code = "TiedWinners"

	// CodeWrongWinner indicates the declared winner is not the computed winner.
	CodeWrongWinner Code = "WrongWinner"

	// CodeCouldNotRuleOut indicates an alternate elimination order no assertion can exclude.
	CodeCouldNotRuleOut Code = "CouldNotRuleOut"

	// CodeInternalErrorRuledOutWinner indicates the final assertions contradict the real outcome.
	CodeInternalErrorRuledOutWinner Code = "InternalErrorRuledOutWinner"

	// CodeInternalErrorDidntRuleOutLoser indicates a losing candidate left uncovered.
	CodeInternalErrorDidntRuleOutLoser Code = "InternalErrorDidntRuleOutLoser"

	// CodeInternalErrorTrimming indicates a trimming invariant was violated.
	CodeInternalErrorTrimming Code = "InternalErrorTrimming"
)

// AllCodes lists every code in a stable order.
var AllCodes = []Code{
	CodeInvalidNumberOfCandidates,
	CodeInvalidTimeout,
	CodeInvalidCandidateNumber,
	CodeTimeoutCheckingWinner,
	CodeTimeoutFindingAssertions,
	CodeTimeoutTrimmingAssertions,
	CodeTiedWinners,
	CodeWrongWinner,
	CodeCouldNotRuleOut,
	CodeInternalErrorRuledOutWinner,
	CodeInternalErrorDidntRuleOutLoser,
	CodeInternalErrorTrimming,
}

// Valid reports whether c is one of the known codes.
func (c Code) Valid() bool {
	for _, known := range AllCodes {
		if c == known {
			return true
		}
	}
	return false
}

// HasDifficulty reports whether errors with this code carry a difficulty payload.
func (c Code) HasDifficulty() bool {
	return c == CodeTimeoutFindingAssertions
}

// HasCandidates reports whether errors with this code carry a candidate list.
func (c Code) HasCandidates() bool {
	return c == CodeTiedWinners || c == CodeWrongWinner || c == CodeCouldNotRuleOut
}

// Error is a failure of an assertion-generation run.
type Error struct {
	// Code identifies the failure kind.
	Code Code

	// Difficulty is the best bound reached before a search timeout.
	// Only meaningful for CodeTimeoutFindingAssertions.
	Difficulty float64

	// Candidates is the tie set, the computed winners, or the elimination
	// order that could not be ruled out, depending on Code.
	Candidates []int
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code.HasDifficulty():
		return fmt.Sprintf("%s: %s (difficulty=%s)", e.Code, e.describe(), formatDifficulty(e.Difficulty))
	case e.Code.HasCandidates():
		return fmt.Sprintf("%s: %s %s", e.Code, e.describe(), formatCandidates(e.Candidates))
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.describe())
	}
}

// Message is the human-readable description without code or payload.
func (e *Error) Message() string {
	return e.describe()
}

func (e *Error) describe() string {
	switch e.Code {
	case CodeInvalidNumberOfCandidates:
		return "number of candidates must be at least 1"
	case CodeInvalidTimeout:
		return "time limit must be positive and finite"
	case CodeInvalidCandidateNumber:
		return "vote references a candidate outside the contest"
	case CodeTimeoutCheckingWinner:
		return "timed out while determining the winner"
	case CodeTimeoutFindingAssertions:
		return "timed out while finding assertions"
	case CodeTimeoutTrimmingAssertions:
		return "timed out while trimming assertions"
	case CodeTiedWinners:
		return "contest has tied winners"
	case CodeWrongWinner:
		return "declared winner differs from computed winners"
	case CodeCouldNotRuleOut:
		return "no assertion can rule out elimination order"
	case CodeInternalErrorRuledOutWinner:
		return "assertions rule out the actual winner"
	case CodeInternalErrorDidntRuleOutLoser:
		return "assertions fail to rule out a losing candidate"
	case CodeInternalErrorTrimming:
		return "trimming left a branch uncovered"
	default:
		return "unknown failure"
	}
}

func formatDifficulty(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return fmt.Sprintf("%g", d)
}

func formatCandidates(cs []int) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// New creates an Error without payload.
func New(code Code) *Error {
	return &Error{Code: code}
}

// NewTimeoutFindingAssertions creates a search timeout carrying the bound reached.
func NewTimeoutFindingAssertions(difficulty float64) *Error {
	return &Error{Code: CodeTimeoutFindingAssertions, Difficulty: difficulty}
}

// NewTiedWinners creates a tie error listing every possible winner.
func NewTiedWinners(winners []int) *Error {
	return &Error{Code: CodeTiedWinners, Candidates: append([]int(nil), winners...)}
}

// NewWrongWinner creates an error listing the computed winners.
func NewWrongWinner(winners []int) *Error {
	return &Error{Code: CodeWrongWinner, Candidates: append([]int(nil), winners...)}
}

// NewCouldNotRuleOut creates an error carrying the offending elimination order.
func NewCouldNotRuleOut(eliminationOrder []int) *Error {
	return &Error{Code: CodeCouldNotRuleOut, Candidates: append([]int(nil), eliminationOrder...)}
}

// CodeOf extracts the Code from err.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (Code, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

// Is returns true if err is an *Error with the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsTimeout returns true for any of the three per-stage timeouts.
func IsTimeout(err error) bool {
	c, ok := CodeOf(err)
	if !ok {
		return false
	}
	return c == CodeTimeoutCheckingWinner || c == CodeTimeoutFindingAssertions || c == CodeTimeoutTrimmingAssertions
}

// IsInternal returns true for the defensive consistency failures.
// These indicate a bug rather than bad input.
func IsInternal(err error) bool {
	c, ok := CodeOf(err)
	if !ok {
		return false
	}
	return c == CodeInternalErrorRuledOutWinner || c == CodeInternalErrorDidntRuleOutLoser || c == CodeInternalErrorTrimming
}
