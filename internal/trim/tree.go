package trim

import (
	"slices"

	"github.com/roach88/raire/internal/assertion"
	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
)

// Node is one elimination-order suffix in a pruning tree. The suffix is the
// node's candidate followed by its ancestors' candidates.
type Node struct {
	// Candidate is eliminated at this node.
	Candidate int

	// Pruning indexes the assertions that contradict this suffix.
	Pruning []int

	// Children extend the suffix by one earlier elimination each.
	Children []*Node

	// Valid is true if this suffix, or some extension of it, survives every
	// assertion.
	Valid bool
}

// BuildTree grows the pruning tree for the suffix formed by prepending
// candidate to parentSuffix. relevant indexes the assertions in all that the
// parent could not decide. The Budget is charged one unit per node.
func BuildTree(parentSuffix []int, candidate int, relevant []int, all []assertion.Assertion,
	numCandidates int, rule StopRule, b *budget.Budget) (*Node, error) {
	if b.Exceeded() {
		return nil, auditerr.New(auditerr.CodeTimeoutTrimmingAssertions)
	}
	suffix := make([]int, 0, len(parentSuffix)+1)
	suffix = append(suffix, candidate)
	suffix = append(suffix, parentSuffix...)

	node := &Node{Candidate: candidate}
	var stillRelevant []int
	prunedByNEB := false
	for _, idx := range relevant {
		switch all[idx].CheckSuffix(suffix) {
		case assertion.Contradiction:
			node.Pruning = append(node.Pruning, idx)
			prunedByNEB = prunedByNEB || all[idx].IsNEB()
		case assertion.NeedsMoreDetail:
			stillRelevant = append(stillRelevant, idx)
		}
	}
	node.Valid = len(node.Pruning) == 0 && len(stillRelevant) == 0

	pruned := len(node.Pruning) > 0
	if (!pruned || rule.ShouldContinue(prunedByNEB)) && len(stillRelevant) > 0 {
		next := rule
		if pruned {
			next = rule.Next()
		}
		for c := 0; c < numCandidates; c++ {
			if slices.Contains(suffix, c) {
				continue
			}
			child, err := BuildTree(suffix, c, stillRelevant, all, numCandidates, next, b)
			if err != nil {
				return nil, err
			}
			if child.Valid {
				if !pruned {
					node.Valid = true
				} else {
					// Already pruned here; a surviving branch below adds nothing.
					node.Children = nil
					break
				}
			}
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}
