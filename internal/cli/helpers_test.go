package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const guideProblem = "../problem/testdata/guide.json"

// executeRoot runs the full command tree with args and returns what it wrote.
func executeRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("RAIRE_CONFIG", "")

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeTemp writes content to name inside a fresh temp dir.
func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// copyGuide copies the guide problem into a temp dir so that the default
// output lands there.
func copyGuide(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(guideProblem)
	require.NoError(t, err)
	return writeTemp(t, "guide.json", string(data))
}
