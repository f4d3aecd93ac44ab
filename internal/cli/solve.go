package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/raire/internal/engine"
	"github.com/roach88/raire/internal/logging"
	"github.com/roach88/raire/internal/problem"
	"github.com/roach88/raire/internal/schema"
	"github.com/roach88/raire/internal/store"
	"github.com/roach88/raire/internal/trim"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Output      string
	Trim        string
	TimeLimit   float64
	WorkLimit   uint64
	TrimWorkers int
	NoDive      bool
	Database    string
	Reuse       bool
	MetricsOut  string

	// IDGenerator overrides run IDs in the archive (for testing).
	IDGenerator store.IDGenerator
}

// SolveReport is the JSON payload of a solve.
type SolveReport struct {
	Output      string           `json:"output,omitempty"`
	ProblemHash string           `json:"problem_hash"`
	RunID       string           `json:"run_id,omitempty"`
	Reused      bool             `json:"reused"`
	Solution    problem.Solution `json:"solution"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	return newSolveCommand(&SolveOptions{RootOptions: rootOpts})
}

func newSolveCommand(opts *SolveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <problem.json|problem.yaml>",
		Short: "Generate assertions for a contest",
		Long: `Generate a trimmed set of assertions that, if confirmed by a
risk-limiting audit, prove the reported IRV winner.

The solution is written to <input-stem>_out.json next to the input unless
--output is given. Use --output - to write it to stdout.

Example:
  raire solve contest.json
  raire solve contest.yaml --trim MinimizeAssertions --time-limit 10
  raire solve contest.json --db runs.db --reuse`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "solution file (default <input-stem>_out.json)")
	cmd.Flags().StringVar(&opts.Trim, "trim", "", "trim algorithm (None|MinimizeTree|MinimizeAssertions), overrides the problem")
	cmd.Flags().Float64Var(&opts.TimeLimit, "time-limit", 0, "time limit in seconds, overrides the problem")
	cmd.Flags().Uint64Var(&opts.WorkLimit, "work-limit", 0, "cap on units of work (0 = config default)")
	cmd.Flags().IntVar(&opts.TrimWorkers, "trim-workers", 0, "pruning trees built at once (0 = config default)")
	cmd.Flags().BoolVar(&opts.NoDive, "no-dive", false, "disable the dive heuristic")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Reuse, "reuse", false, "answer from the archive when the same problem was solved before")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write solver metrics in Prometheus text format to this file")

	return cmd
}

func runSolve(opts *SolveOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := logging.New("cli")
	cfg := opts.Config

	p, err := loadProblem(formatter, path)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("trim") {
		algo, err := trim.ParseAlgorithm(opts.Trim)
		if err != nil {
			return outputCommandError(formatter, ErrCodeBadFlag, err.Error())
		}
		p.TrimAlgorithm = &algo
	}
	if cmd.Flags().Changed("time-limit") {
		limit := opts.TimeLimit
		p.TimeLimitSeconds = &limit
	}
	workLimit := cfg.WorkLimit
	if opts.WorkLimit > 0 {
		workLimit = opts.WorkLimit
	}
	trimWorkers := cfg.TrimWorkers
	if opts.TrimWorkers > 0 {
		trimWorkers = opts.TrimWorkers
	}
	dbPath := cfg.Database
	if opts.Database != "" {
		dbPath = opts.Database
	}
	if opts.Reuse && dbPath == "" {
		return outputCommandError(formatter, ErrCodeBadFlag, "--reuse requires --db")
	}

	hash, err := p.Hash(cfg.TrimAlgorithm)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDecodeFailed, err.Error())
	}
	report := SolveReport{ProblemHash: hash}

	var st *store.Store
	if dbPath != "" {
		var storeOpts []store.Option
		if opts.IDGenerator != nil {
			storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
		}
		st, err = store.Open(dbPath, storeOpts...)
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hash leaves out the time limit, so invalid input must not be
	// answered from the archive.
	if opts.Reuse && p.Validate() == nil {
		run, found, err := st.FindByProblemHash(ctx, hash)
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
		if found {
			sol, err := run.DecodeSolution()
			if err != nil {
				return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("archived run %s: %v", run.ID, err))
			}
			sol.Metadata = p.Metadata
			report.Solution = *sol
			report.RunID = run.ID
			report.Reused = true
			logger.Info("reusing archived run", "run_id", run.ID, "problem_hash", hash)
		}
	}

	var registry *prometheus.Registry
	if !report.Reused {
		registry = prometheus.NewRegistry()
		report.Solution = p.Solve(ctx,
			problem.WithDefaultTrim(cfg.TrimAlgorithm),
			problem.WithDefaultTimeLimit(cfg.TimeLimitSeconds),
			problem.WithWorkLimit(workLimit),
			problem.WithSolverOptions(
				engine.WithTrimWorkers(trimWorkers),
				engine.WithDiving(cfg.Diving && !opts.NoDive),
				engine.WithLogger(logging.New("engine")),
				engine.WithMetrics(engine.NewMetrics(registry)),
			),
		)
		logSolution(logger, path, report.Solution)

		if st != nil {
			run, err := store.NewRun(p, report.Solution, hash, path)
			if err != nil {
				return outputCommandError(formatter, ErrCodeDatabase, err.Error())
			}
			report.RunID, err = st.SaveRun(ctx, run)
			if err != nil {
				return outputCommandError(formatter, ErrCodeDatabase, err.Error())
			}
			logger.Debug("run archived", "run_id", report.RunID)
		}
	}

	report.Output = opts.Output
	if report.Output == "" {
		report.Output = defaultOutputPath(path)
	}
	if err := writeSolution(cmd, report.Output, report.Solution); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
	}

	if opts.MetricsOut != "" && registry != nil {
		if err := writeMetrics(registry, opts.MetricsOut); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
		}
	}

	if report.Output != "-" {
		if err := outputSolveReport(formatter, report); err != nil {
			return err
		}
	}

	if e := report.Solution.Solution.Err; e != nil {
		return WrapExitError(ExitFailure, "assertion generation failed", e)
	}
	return nil
}

// loadProblem validates path against the schema and decodes it.
func loadProblem(formatter *OutputFormatter, path string) (*problem.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("problem file not found: %s", path))
		}
		return nil, outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Read %d bytes from %s", len(data), path)

	if errs := schema.ValidateProblemFile(path, data); len(errs) > 0 {
		return nil, outputValidationErrors(formatter, errs)
	}

	var p *problem.Problem
	if problem.IsYAML(path) {
		p, err = problem.DecodeYAML(bytes.NewReader(data))
	} else {
		p, err = problem.DecodeJSON(bytes.NewReader(data))
	}
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeDecodeFailed, err.Error())
	}
	return p, nil
}

func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_out.json"
}

func writeSolution(cmd *cobra.Command, path string, sol problem.Solution) error {
	if path == "-" {
		return problem.EncodeSolution(cmd.OutOrStdout(), sol)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := problem.EncodeSolution(f, sol); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeMetrics dumps every gathered family in the Prometheus text format.
func writeMetrics(registry *prometheus.Registry, path string) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			f.Close()
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return f.Close()
}

func logSolution(logger *slog.Logger, path string, sol problem.Solution) {
	if e := sol.Solution.Err; e != nil {
		logger.Warn("assertion generation failed", "problem", path, "error", e)
		return
	}
	res := sol.Solution.Ok
	logger.Info("assertions generated",
		"problem", path,
		"winner", res.Winner,
		"assertions", len(res.Assertions),
		"difficulty", res.Difficulty,
		"margin", res.Margin,
	)
}

func outputSolveReport(formatter *OutputFormatter, report SolveReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if err := renderSolutionText(formatter, &report.Solution); err != nil {
		return err
	}
	if report.Reused {
		fmt.Fprintf(formatter.Writer, "Reused archived run %s.\n", report.RunID)
	} else if report.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Archived as run %s.\n", report.RunID)
	}
	fmt.Fprintf(formatter.Writer, "Solution written to %s\n", report.Output)
	return nil
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// commandContext returns the command's context, or Background outside of
// Execute (tests call RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
