package trim

import (
	"log/slog"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
)

// Option configures trimming.
type Option func(*trimmer)

// WithWorkers bounds how many pruning trees are built concurrently.
// Values below 1 mean one.
func WithWorkers(n int) Option {
	return func(t *trimmer) {
		t.workers = max(n, 1)
	}
}

// WithLogger sets the logger for trim diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *trimmer) {
		t.logger = l
	}
}

type trimmer struct {
	workers int
	logger  *slog.Logger
	used    *bitset.BitSet
}

// Sort orders assertions canonically in place. The sort is stable.
func Sort(assertions []assertion.WithDifficulty) {
	slices.SortStableFunc(assertions, func(a, b assertion.WithDifficulty) int {
		return assertion.Compare(a.Assertion, b.Assertion)
	})
}

// OrderAndTrim sorts assertions canonically and, unless algo is None, keeps
// only those the heuristic selects, in canonical order.
//
// Rules that expand past a pruning node can leave assertions that a second
// pass over the kept set would drop. For those rules trimming repeats until
// the kept set stops shrinking, so the result is stable under re-trimming.
//
// On TimeoutTrimmingAssertions the last complete result is returned along
// with the error: the sorted, untrimmed list if the first pass timed out.
func OrderAndTrim(assertions []assertion.WithDifficulty, winner, numCandidates int,
	algo Algorithm, b *budget.Budget, opts ...Option) ([]assertion.WithDifficulty, error) {
	sorted := slices.Clone(assertions)
	Sort(sorted)

	rule, ok := algo.stopRule()
	if !ok {
		return sorted, nil
	}

	current := sorted
	for pass := 1; ; pass++ {
		t := &trimmer{workers: 1, logger: slog.Default(), used: bitset.New(uint(len(current)))}
		for _, opt := range opts {
			opt(t)
		}

		kept, err := t.trim(current, winner, numCandidates, rule, b)
		if err != nil {
			return current, err
		}
		t.logger.Debug("assertions trimmed",
			"algorithm", algo.String(),
			"pass", pass,
			"before", len(current),
			"after", len(kept),
		)
		if rule == StopImmediately || len(kept) == len(current) {
			return kept, nil
		}
		current = kept
	}
}

// trim runs one pass of the heuristic over sorted.
func (t *trimmer) trim(sorted []assertion.WithDifficulty, winner, numCandidates int,
	rule StopRule, b *budget.Budget) ([]assertion.WithDifficulty, error) {
	all := make([]assertion.Assertion, len(sorted))
	indices := make([]int, len(sorted))
	for i, a := range sorted {
		all[i] = a.Assertion
		indices[i] = i
	}

	trees, err := t.buildTrees(winner, numCandidates, indices, all, rule, b)
	if err != nil {
		return nil, err
	}

	for _, tree := range trees {
		t.addForced(tree)
	}
	for _, tree := range trees {
		if err := t.addSecondPass(tree, b); err != nil {
			return nil, err
		}
	}
	for _, tree := range trees {
		if !t.alreadyEliminated(tree) {
			return nil, auditerr.New(auditerr.CodeInternalErrorTrimming)
		}
	}

	kept := make([]assertion.WithDifficulty, 0, t.used.Count())
	for i, a := range sorted {
		if t.used.Test(uint(i)) {
			kept = append(kept, a)
		}
	}
	return kept, nil
}

// buildTrees grows one tree per losing candidate, concurrently up to the
// worker limit. Trees are returned in candidate order.
func (t *trimmer) buildTrees(winner, numCandidates int, indices []int, all []assertion.Assertion,
	rule StopRule, b *budget.Budget) ([]*Node, error) {
	trees := make([]*Node, numCandidates)
	var g errgroup.Group
	g.SetLimit(t.workers)
	for c := 0; c < numCandidates; c++ {
		if c == winner {
			continue
		}
		c := c
		g.Go(func() error {
			tree, err := BuildTree(nil, c, indices, all, numCandidates, rule, b)
			if err != nil {
				return err
			}
			if tree.Valid {
				return auditerr.New(auditerr.CodeInternalErrorDidntRuleOutLoser)
			}
			trees[c] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(trees, func(n *Node) bool { return n == nil }), nil
}

// addForced marks assertions that are the only way to prune some leaf.
func (t *trimmer) addForced(n *Node) {
	if len(n.Pruning) > 0 {
		if len(n.Children) == 0 && len(n.Pruning) == 1 {
			t.used.Set(uint(n.Pruning[0]))
		}
		return
	}
	for _, child := range n.Children {
		t.addForced(child)
	}
}

// alreadyEliminated reports whether a used assertion prunes n or every one of
// its children.
func (t *trimmer) alreadyEliminated(n *Node) bool {
	for _, idx := range n.Pruning {
		if t.used.Test(uint(idx)) {
			return true
		}
	}
	if len(n.Children) == 0 {
		return false
	}
	for _, child := range n.Children {
		if !t.alreadyEliminated(child) {
			return false
		}
	}
	return true
}

// addSecondPass covers each remaining pruned node with its first assertion.
func (t *trimmer) addSecondPass(n *Node, b *budget.Budget) error {
	if b.Exceeded() {
		return auditerr.New(auditerr.CodeTimeoutTrimmingAssertions)
	}
	if len(n.Pruning) > 0 {
		if !t.alreadyEliminated(n) {
			t.used.Set(uint(n.Pruning[0]))
		}
		return nil
	}
	for _, child := range n.Children {
		if err := t.addSecondPass(child, b); err != nil {
			return err
		}
	}
	return nil
}
