package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/raire/internal/testutil"
)

// createTestStore creates a new store in a temp dir with predictable IDs
// and a clock that advances one second per run.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
		WithNow(func() time.Time {
			clock.Advance(time.Second)
			return clock.Now()
		}),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
