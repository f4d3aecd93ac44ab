// raire generates the assertions a risk-limiting audit checks to confirm the
// winner of an IRV contest.
//
// Usage:
//
//	raire solve <problem.json|problem.yaml> [-o solution.json] [--db runs.db]
//	raire validate <problem.json|problem.yaml>
//	raire consolidate <ballots.csv> --candidates A,B,C [-o problem.json]
//	raire show <solution.json> | --db runs.db --run <id>
//	raire history --db runs.db
//	raire test <scenarios-dir> [--golden dir]
package main

import (
	"fmt"
	"os"

	"github.com/roach88/raire/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	code := cli.GetExitCode(err)
	// Audit failures are reported by the command itself.
	if err != nil && code != cli.ExitFailure {
		fmt.Fprintf(os.Stderr, "raire: %v\n", err)
	}
	os.Exit(code)
}
