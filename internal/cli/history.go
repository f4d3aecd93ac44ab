package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/raire/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryEntry is one run in the JSON listing.
type HistoryEntry struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Source        string    `json:"source"`
	ProblemHash   string    `json:"problem_hash"`
	Outcome       string    `json:"outcome"`
	Winner        *int      `json:"winner,omitempty"`
	Difficulty    *float64  `json:"difficulty,omitempty"`
	Margin        *int      `json:"margin,omitempty"`
	NumCandidates int       `json:"num_candidates"`
	NumAssertions int       `json:"num_assertions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs, newest first",
		Long: `List runs archived by solve --db.

Example:
  raire history --db runs.db --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run archive (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Database
	}
	if dbPath == "" {
		return outputCommandError(formatter, ErrCodeBadFlag, "no database: pass --db or set database in the config")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Limit)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}

	entries := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		entries[i] = HistoryEntry{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt,
			Source:        r.Source,
			ProblemHash:   r.ProblemHash,
			Outcome:       r.Outcome,
			Winner:        r.Winner,
			Difficulty:    r.Difficulty,
			Margin:        r.Margin,
			NumCandidates: r.NumCandidates,
			NumAssertions: r.NumAssertions,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs archived.")
		return nil
	}

	t := formatter.Table("Run", "Created", "Source", "Outcome", "Winner", "Difficulty", "Assertions")
	for _, e := range entries {
		winner, diff := "-", "-"
		if e.Winner != nil {
			winner = fmt.Sprint(*e.Winner)
		}
		if e.Difficulty != nil {
			diff = formatDifficulty(*e.Difficulty)
		}
		t.AppendRow(table.Row{
			e.ID,
			e.CreatedAt.Format(time.DateTime),
			e.Source,
			e.Outcome,
			winner,
			diff,
			e.NumAssertions,
		})
	}
	formatter.RenderTable(t)
	return nil
}
