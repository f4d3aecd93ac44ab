package harness

import (
	"github.com/roach88/raire/internal/problem"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Outcome is "Ok" or the solution's error code.
	Outcome string `json:"outcome"`

	// Solution is what the solver produced, read back from the archive.
	Solution problem.Solution `json:"solution"`

	// ProblemHash is the archived problem's content hash.
	ProblemHash string `json:"problem_hash"`

	// RunID is the archive ID of the run.
	RunID string `json:"run_id"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
