package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDGenerator hands out predictable run IDs.
//
// Archive tests use it in place of the UUIDv7 generator so stored rows and
// golden output are byte-identical between runs. IDs sort lexically in the
// order they were generated, like UUIDv7.
//
// Thread-safety: safe for concurrent use (atomic counter).
type SequentialIDGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewSequentialIDGenerator creates a generator. An empty prefix becomes "run".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns prefix-000001, prefix-000002, ...
func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%06d", g.prefix, g.next.Add(1))
}
