package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/problem"
)

const ballotsCSV = `first,second,third
Chuan,Bob,Alice
Bob,Chuan,Diego
Chuan,Bob,Alice
Diego,Alice,
Alice,Diego,Alice
Diego,,
`

func TestReadBallots(t *testing.T) {
	ballots, err := readBallots(strings.NewReader(ballotsCSV), true)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Chuan", "Bob", "Alice"},
		{"Bob", "Chuan", "Diego"},
		{"Chuan", "Bob", "Alice"},
		{"Diego", "Alice"},
		{"Alice", "Diego"},
		{"Diego"},
	}, ballots)
}

func TestNamesInOrder(t *testing.T) {
	names := namesInOrder([][]string{{"Chuan", "Bob"}, {"Alice", "Chuan"}, {"Diego"}})
	assert.Equal(t, []string{"Chuan", "Bob", "Alice", "Diego"}, names)
}

func TestConsolidateWithCandidates(t *testing.T) {
	path := writeTemp(t, "ballots.csv", ballotsCSV)

	stdout, _, err := executeRoot(t, "consolidate", path, "--header",
		"--candidates", "Alice,Bob,Chuan,Diego", "--winner", "Chuan", "--contest", "mini")
	require.NoError(t, err)

	p, err := problem.DecodeJSON(strings.NewReader(stdout))
	require.NoError(t, err)
	assert.Equal(t, 4, p.NumCandidates)
	assert.Equal(t, []irv.Vote{
		{N: 2, Prefs: []int{2, 1, 0}},
		{N: 1, Prefs: []int{1, 2, 3}},
		{N: 1, Prefs: []int{3, 0}},
		{N: 1, Prefs: []int{0, 3}},
		{N: 1, Prefs: []int{3}},
	}, p.Votes)
	require.NotNil(t, p.Winner)
	assert.Equal(t, 2, *p.Winner)
	assert.Equal(t, difficulty.OneOnMargin{TotalAuditableBallots: 6}, p.Audit.Metric)
	assert.JSONEq(t, `{"candidates":["Alice","Bob","Chuan","Diego"],"contest":"mini"}`, string(p.Metadata))
}

func TestConsolidateInfersCandidates(t *testing.T) {
	path := writeTemp(t, "ballots.csv", ballotsCSV)
	out := filepath.Join(t.TempDir(), "contest.json")

	stdout, _, err := executeRoot(t, "--format", "json", "consolidate", path, "--header",
		"--audit", "BRAVO", "--confidence", "0.1", "-o", out)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   ConsolidateReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, ConsolidateReport{Output: out, Ballots: 6, Rankings: 5, NumCandidates: 4}, resp.Data)

	p, err := problem.Load(out)
	require.NoError(t, err)
	assert.Equal(t, difficulty.BRAVO{Confidence: 0.1, TotalAuditableBallots: 6}, p.Audit.Metric)
	assert.JSONEq(t, `{"candidates":["Chuan","Bob","Alice","Diego"]}`, string(p.Metadata))
	assert.Nil(t, p.Winner)
}

func TestConsolidateOutputValidates(t *testing.T) {
	path := writeTemp(t, "ballots.csv", ballotsCSV)
	out := filepath.Join(t.TempDir(), "contest.json")

	_, _, err := executeRoot(t, "consolidate", path, "--header", "--audit", "MACRO", "-o", out)
	require.NoError(t, err)

	stdout, _, err := executeRoot(t, "validate", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Problem valid")
}

func TestConsolidateUnknownCandidate(t *testing.T) {
	path := writeTemp(t, "ballots.csv", "Alice,Zed\n")

	stdout, _, err := executeRoot(t, "consolidate", path, "--candidates", "Alice,Bob")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, `ballot 1: unknown candidate name "Zed"`)
}

func TestConsolidateBadFlags(t *testing.T) {
	path := writeTemp(t, "ballots.csv", "Alice,Bob\n")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown audit", []string{"--audit", "Simple"}},
		{"unknown winner", []string{"--winner", "Zed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"consolidate", path}, tt.args...)
			stdout, _, err := executeRoot(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, ErrCodeBadFlag)
		})
	}
}

func TestConsolidateMissingFile(t *testing.T) {
	_, _, err := executeRoot(t, "consolidate", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
