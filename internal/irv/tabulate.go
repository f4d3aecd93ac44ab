package irv

import (
	"encoding/binary"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/budget"
)

// Result is the outcome of tabulating a contest with every tie explored.
type Result struct {
	// PossibleWinners lists, in ascending order, every candidate who wins
	// under some resolution of elimination ties.
	PossibleWinners []int

	// EliminationOrder is one complete elimination sequence, winner last.
	// At each tie the lowest-numbered tied candidate is eliminated.
	EliminationOrder []int
}

type tabulator struct {
	votes   *Votes
	budget  *budget.Budget
	winners map[int]struct{}
	order   []int
	visited map[string]struct{}
}

// RunElection tabulates IRV, exploring every tie branch. Each set of
// continuing candidates is expanded at most once.
func (v *Votes) RunElection(b *budget.Budget) (*Result, error) {
	t := &tabulator{
		votes:   v,
		budget:  b,
		winners: make(map[int]struct{}),
		visited: make(map[string]struct{}),
	}
	continuing := make([]int, v.NumCandidates())
	for i := range continuing {
		continuing[i] = i
	}
	if err := t.findAllWinners(continuing); err != nil {
		return nil, err
	}

	winners := make([]int, 0, len(t.winners))
	for w := range t.winners {
		winners = append(winners, w)
	}
	slices.Sort(winners)
	slices.Reverse(t.order)
	return &Result{PossibleWinners: winners, EliminationOrder: t.order}, nil
}

// findAllWinners appends to t.order in reverse elimination order, but only
// along the first branch taken at each tie.
func (t *tabulator) findAllWinners(continuing []int) error {
	if t.budget.Exceeded() {
		return auditerr.New(auditerr.CodeTimeoutCheckingWinner)
	}
	key := continuingKey(continuing, t.votes.NumCandidates())
	if _, seen := t.visited[key]; seen {
		return nil
	}
	t.visited[key] = struct{}{}

	if len(continuing) == 1 {
		t.winners[continuing[0]] = struct{}{}
		if len(t.order) == 0 {
			t.order = append(t.order, continuing[0])
		}
		return nil
	}

	tallies := t.votes.RestrictedTallies(continuing)
	minTally := slices.Min(tallies)
	for i, tally := range tallies {
		if tally != minTally {
			continue
		}
		next := make([]int, 0, len(continuing)-1)
		next = append(next, continuing[:i]...)
		next = append(next, continuing[i+1:]...)
		if err := t.findAllWinners(next); err != nil {
			return err
		}
		if len(t.order) == len(next) {
			t.order = append(t.order, continuing[i])
		}
	}
	return nil
}

// continuingKey packs the candidate set into a fixed-width bit vector so
// each lookup is a single map access regardless of set order.
func continuingKey(continuing []int, numCandidates int) string {
	set := bitset.New(uint(numCandidates))
	for _, c := range continuing {
		set.Set(uint(c))
	}
	words := set.Bytes()
	buf := make([]byte, 0, 8*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return string(buf)
}
