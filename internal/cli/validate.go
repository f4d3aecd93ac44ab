package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/problem"
	"github.com/roach88/raire/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <problem.json|problem.yaml>",
		Short: "Validate a problem document without solving it",
		Long: `Validate a problem document against the problem schema, then check
the inputs the solver would reject before doing any work: the candidate
count, candidate numbers in votes and the time limit.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := loadProblem(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Schema valid: %d candidates, %d distinct rankings", p.NumCandidates, len(p.Votes))

	if errs := checkProblem(p); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter)
}

// checkProblem mirrors the solver's input validation so that it can be
// reported without solving.
func checkProblem(p *problem.Problem) []schema.ValidationError {
	var errs []schema.ValidationError

	if t := p.TimeLimitSeconds; t != nil && (!(*t > 0) || math.IsInf(*t, 1)) {
		errs = append(errs, schema.ValidationError{
			Field:   "time_limit_seconds",
			Message: fmt.Sprintf("must be positive and finite, got %v", *t),
			Code:    string(auditerr.CodeInvalidTimeout),
		})
	}
	if p.NumCandidates < 1 {
		errs = append(errs, schema.ValidationError{
			Field:   "num_candidates",
			Message: fmt.Sprintf("must be at least 1, got %d", p.NumCandidates),
			Code:    string(auditerr.CodeInvalidNumberOfCandidates),
		})
	}
	for i, v := range p.Votes {
		for j, c := range v.Prefs {
			if c >= p.NumCandidates {
				errs = append(errs, schema.ValidationError{
					Field:   fmt.Sprintf("votes.%d.prefs.%d", i, j),
					Message: fmt.Sprintf("candidate %d is outside 0..%d", c, p.NumCandidates-1),
					Code:    string(auditerr.CodeInvalidCandidateNumber),
				})
			}
		}
	}
	if p.Winner != nil && *p.Winner >= p.NumCandidates {
		errs = append(errs, schema.ValidationError{
			Field:   "winner",
			Message: fmt.Sprintf("candidate %d is outside 0..%d", *p.Winner, p.NumCandidates-1),
			Code:    string(auditerr.CodeInvalidCandidateNumber),
		})
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Problem valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
