package irv

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// InvalidCandidateNameError is returned when a ballot names a candidate that
// was not registered with the Consolidator.
type InvalidCandidateNameError struct {
	Name string
}

func (e *InvalidCandidateNameError) Error() string {
	return fmt.Sprintf("unknown candidate name %q", e.Name)
}

// Consolidator groups individual ballots into Votes with multiplicities.
//
// Distinct rankings are emitted in the order they were first seen, so the
// same ballot stream always produces the same vote list.
type Consolidator struct {
	names    []string
	byName   map[string]int
	counts   map[string]int
	rankings [][]int
}

// NewConsolidator creates a consolidator for anonymous candidates 0..n-1.
func NewConsolidator() *Consolidator {
	return &Consolidator{
		byName: make(map[string]int),
		counts: make(map[string]int),
	}
}

// NewConsolidatorWithNames registers candidate names. Names are compared after
// Unicode NFC normalization, so composed and decomposed spellings match.
func NewConsolidatorWithNames(names []string) *Consolidator {
	c := NewConsolidator()
	for i, name := range names {
		normalized := norm.NFC.String(name)
		c.names = append(c.names, normalized)
		c.byName[normalized] = i
	}
	return c
}

// CandidateNames returns the normalized names, or nil for anonymous candidates.
func (c *Consolidator) CandidateNames() []string {
	return slices.Clone(c.names)
}

// AddVote records one ballot with the given ranking.
func (c *Consolidator) AddVote(prefs []int) {
	key := rankingKey(prefs)
	if _, seen := c.counts[key]; !seen {
		c.rankings = append(c.rankings, slices.Clone(prefs))
	}
	c.counts[key]++
}

// AddVoteNames records one ballot given by candidate names.
func (c *Consolidator) AddVoteNames(names []string) error {
	prefs := make([]int, len(names))
	for i, name := range names {
		idx, ok := c.byName[norm.NFC.String(name)]
		if !ok {
			return &InvalidCandidateNameError{Name: name}
		}
		prefs[i] = idx
	}
	c.AddVote(prefs)
	return nil
}

// Votes returns the consolidated ballots.
func (c *Consolidator) Votes() []Vote {
	out := make([]Vote, len(c.rankings))
	for i, prefs := range c.rankings {
		out[i] = Vote{N: c.counts[rankingKey(prefs)], Prefs: slices.Clone(prefs)}
	}
	return out
}

// NumCandidates returns the number of registered names, or one more than the
// highest candidate seen when anonymous.
func (c *Consolidator) NumCandidates() int {
	if c.names != nil {
		return len(c.names)
	}
	n := 0
	for _, prefs := range c.rankings {
		for _, p := range prefs {
			if p+1 > n {
				n = p + 1
			}
		}
	}
	return n
}

func rankingKey(prefs []int) string {
	var b strings.Builder
	for i, p := range prefs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", p)
	}
	return b.String()
}
