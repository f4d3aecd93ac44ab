package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/problem"
)

// ConsolidateOptions holds flags for the consolidate command.
type ConsolidateOptions struct {
	*RootOptions
	Output         string
	Candidates     []string
	Header         bool
	Audit          string
	Confidence     float64
	ErrorInflation float64
	Winner         string
	Contest        string
}

// ConsolidateReport is the JSON payload of a consolidation.
type ConsolidateReport struct {
	Output        string `json:"output"`
	Ballots       int    `json:"ballots"`
	Rankings      int    `json:"rankings"`
	NumCandidates int    `json:"num_candidates"`
}

// NewConsolidateCommand creates the consolidate command.
func NewConsolidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConsolidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "consolidate <ballots.csv>",
		Short: "Build a problem document from a ballot CSV",
		Long: `Read one ballot per CSV row, candidate names in preference order, and
group identical rankings into a problem document. Blank cells are ignored
and a repeated name keeps only its first position.

Candidates are numbered in --candidates order, or in order of first
appearance when the flag is absent.

Example:
  raire consolidate ballots.csv --candidates Alice,Bob,Chuan,Diego -o contest.json
  raire consolidate ballots.csv --audit BRAVO --confidence 0.05 --winner Chuan`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "problem file, - for stdout")
	cmd.Flags().StringSliceVar(&opts.Candidates, "candidates", nil, "candidate names in numbering order")
	cmd.Flags().BoolVar(&opts.Header, "header", false, "skip the first CSV row")
	cmd.Flags().StringVar(&opts.Audit, "audit", difficulty.TypeOneOnMargin, "audit type (OneOnMargin|OneOnMarginSq|BRAVO|MACRO)")
	cmd.Flags().Float64Var(&opts.Confidence, "confidence", 0.05, "risk limit for BRAVO and MACRO")
	cmd.Flags().Float64Var(&opts.ErrorInflation, "error-inflation", 1.1, "error inflation factor for MACRO")
	cmd.Flags().StringVar(&opts.Winner, "winner", "", "reported winner's name")
	cmd.Flags().StringVar(&opts.Contest, "contest", "", "contest name recorded in metadata")

	return cmd
}

func runConsolidate(opts *ConsolidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("ballot file not found: %s", path))
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}
	defer f.Close()

	ballots, err := readBallots(f, opts.Header)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDecodeFailed, fmt.Sprintf("%s: %v", path, err))
	}
	formatter.VerboseLog("Read %d ballots from %s", len(ballots), path)

	names := opts.Candidates
	if len(names) == 0 {
		names = namesInOrder(ballots)
	}
	c := irv.NewConsolidatorWithNames(names)
	for i, b := range ballots {
		if err := c.AddVoteNames(b); err != nil {
			return outputCommandError(formatter, ErrCodeDecodeFailed, fmt.Sprintf("ballot %d: %v", i+1, err))
		}
	}

	audit, err := buildAudit(opts, len(ballots))
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadFlag, err.Error())
	}

	p := &problem.Problem{
		NumCandidates: c.NumCandidates(),
		Votes:         c.Votes(),
		Audit:         audit,
	}
	if opts.Winner != "" {
		w := slices.Index(c.CandidateNames(), norm.NFC.String(opts.Winner))
		if w < 0 {
			return outputCommandError(formatter, ErrCodeBadFlag, fmt.Sprintf("winner %q is not a candidate", opts.Winner))
		}
		p.Winner = &w
	}
	p.Metadata, err = consolidateMetadata(c.CandidateNames(), opts.Contest)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	if err := writeProblem(cmd, opts.Output, p); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
	}
	if opts.Output == "-" {
		return nil
	}

	report := ConsolidateReport{
		Output:        opts.Output,
		Ballots:       len(ballots),
		Rankings:      len(p.Votes),
		NumCandidates: p.NumCandidates,
	}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d ballots, %d distinct rankings, %d candidates written to %s\n",
		report.Ballots, report.Rankings, report.NumCandidates, report.Output)
	return nil
}

// readBallots returns each row's names with blanks and repeats dropped.
func readBallots(r io.Reader, header bool) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var ballots [][]string
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ballots, nil
		}
		if err != nil {
			return nil, err
		}
		if header && line == 1 {
			continue
		}
		var ranking []string
		for _, cell := range record {
			name := strings.TrimSpace(cell)
			if name == "" || slices.Contains(ranking, name) {
				continue
			}
			ranking = append(ranking, name)
		}
		ballots = append(ballots, ranking)
	}
}

// namesInOrder lists distinct names by first appearance.
func namesInOrder(ballots [][]string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, b := range ballots {
		for _, name := range b {
			key := norm.NFC.String(name)
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}
	return names
}

func buildAudit(opts *ConsolidateOptions, ballots int) (difficulty.Audit, error) {
	switch opts.Audit {
	case difficulty.TypeOneOnMargin:
		return difficulty.Audit{Metric: difficulty.OneOnMargin{TotalAuditableBallots: ballots}}, nil
	case difficulty.TypeOneOnMarginSq:
		return difficulty.Audit{Metric: difficulty.OneOnMarginSquared{TotalAuditableBallots: ballots}}, nil
	case difficulty.TypeBRAVO:
		return difficulty.Audit{Metric: difficulty.BRAVO{
			Confidence:            opts.Confidence,
			TotalAuditableBallots: ballots,
		}}, nil
	case difficulty.TypeMACRO:
		return difficulty.Audit{Metric: difficulty.MACRO{
			Confidence:            opts.Confidence,
			ErrorInflationFactor:  opts.ErrorInflation,
			TotalAuditableBallots: ballots,
		}}, nil
	default:
		return difficulty.Audit{}, fmt.Errorf("unknown audit type %q", opts.Audit)
	}
}

func consolidateMetadata(names []string, contest string) (json.RawMessage, error) {
	meta := map[string]any{"candidates": names}
	if contest != "" {
		meta["contest"] = contest
	}
	return json.Marshal(meta)
}

func writeProblem(cmd *cobra.Command, path string, p *problem.Problem) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
