package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/raire/internal/problem"
	"github.com/roach88/raire/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Run      string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [solution.json]",
		Short: "Display a solution",
		Long: `Display a solution file, or an archived run with --db and --run.

Example:
  raire show contest_out.json
  raire show --db runs.db --run 01926c3e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run archive (with --run)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "archived run ID")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var (
		sol *problem.Solution
		err error
	)
	switch {
	case len(args) == 1 && opts.Run == "":
		sol, err = readSolutionFile(formatter, args[0])
	case len(args) == 0 && opts.Run != "":
		sol, err = readArchivedSolution(formatter, opts, cmd)
	default:
		return outputCommandError(formatter, ErrCodeBadFlag, "give either a solution file or --run")
	}
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.Success(sol)
	}
	return renderSolutionText(formatter, sol)
}

func readSolutionFile(formatter *OutputFormatter, path string) (*problem.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("solution file not found: %s", path))
		}
		return nil, outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}
	defer f.Close()

	sol, err := problem.DecodeSolution(f)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeDecodeFailed, fmt.Sprintf("%s: %v", path, err))
	}
	return sol, nil
}

func readArchivedSolution(formatter *OutputFormatter, opts *ShowOptions, cmd *cobra.Command) (*problem.Solution, error) {
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Database
	}
	if dbPath == "" {
		return nil, outputCommandError(formatter, ErrCodeBadFlag, "--run requires --db")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
	}
	defer st.Close()

	run, err := st.GetRun(commandContext(cmd), opts.Run)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("run %s: %v", opts.Run, err))
	}
	sol, err := run.DecodeSolution()
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeDecodeFailed, fmt.Sprintf("run %s: %v", opts.Run, err))
	}
	return sol, nil
}
