package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/problem"
)

// candidateNames reads metadata.candidates, the convention for labelling
// candidate numbers. Returns nil when absent.
func candidateNames(metadata json.RawMessage) []string {
	if len(metadata) == 0 {
		return nil
	}
	var meta struct {
		Candidates []string `json:"candidates"`
	}
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return nil
	}
	return meta.Candidates
}

func candidateLabel(c int, names []string) string {
	if c >= 0 && c < len(names) {
		return names[c]
	}
	return strconv.Itoa(c)
}

func candidateList(cs []int, names []string) string {
	labels := make([]string, len(cs))
	for i, c := range cs {
		labels[i] = candidateLabel(c, names)
	}
	return strings.Join(labels, ", ")
}

// describeAssertion renders a in words.
func describeAssertion(a assertion.Assertion, names []string) string {
	w := candidateLabel(a.Winner, names)
	l := candidateLabel(a.Loser, names)
	if a.IsNEB() {
		return fmt.Sprintf("%s beats %s always", w, l)
	}
	return fmt.Sprintf("%s beats %s while {%s} remain", w, l, candidateList(a.Continuing, names))
}

// formatDifficulty prints d in full without an exponent.
func formatDifficulty(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// renderSolutionText writes the human-readable form of sol.
func renderSolutionText(f *OutputFormatter, sol *problem.Solution) error {
	names := candidateNames(sol.Metadata)

	if e := sol.Solution.Err; e != nil {
		return f.Error(string(e.Code), describeError(e, names), nil)
	}

	res := sol.Solution.Ok
	fmt.Fprintf(f.Writer, "Winner:     %s\n", candidateLabel(res.Winner, names))
	fmt.Fprintf(f.Writer, "Difficulty: %s\n", formatDifficulty(res.Difficulty))
	fmt.Fprintf(f.Writer, "Margin:     %d\n", res.Margin)
	if res.WarningTrimTimedOut {
		fmt.Fprintln(f.Writer, "Warning:    trimming timed out; assertions are untrimmed")
	}
	fmt.Fprintln(f.Writer)

	t := f.Table("#", "Type", "Assertion", "Difficulty", "Margin")
	for i, a := range res.Assertions {
		t.AppendRow(table.Row{
			i + 1,
			a.Assertion.Kind.String(),
			describeAssertion(a.Assertion, names),
			formatDifficulty(a.Difficulty),
			a.Margin,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	f.RenderTable(t)

	fmt.Fprintf(f.Writer, "Took %s to determine winners, %s to find assertions, %s to trim.\n",
		res.TimeToDetermineWinners, res.TimeToFindAssertions, res.TimeToTrimAssertions)
	return nil
}

// describeError renders e with candidate names substituted for numbers.
func describeError(e *auditerr.Error, names []string) string {
	switch {
	case e.Code.HasCandidates():
		return fmt.Sprintf("%s [%s]", e.Message(), candidateList(e.Candidates, names))
	case e.Code.HasDifficulty():
		return fmt.Sprintf("%s (difficulty reached %s)", e.Message(), formatDifficulty(e.Difficulty))
	default:
		return e.Message()
	}
}
