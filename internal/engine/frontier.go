package engine

import "container/heap"

// frontier is a max-priority queue of sequences keyed on difficulty.
type frontier struct {
	items []sequence
}

func (f *frontier) Len() int           { return len(f.items) }
func (f *frontier) Less(i, j int) bool { return f.items[i].difficulty() > f.items[j].difficulty() }
func (f *frontier) Swap(i, j int)      { f.items[i], f.items[j] = f.items[j], f.items[i] }
func (f *frontier) Push(x any)         { f.items = append(f.items, x.(sequence)) }

func (f *frontier) Pop() any {
	last := len(f.items) - 1
	s := f.items[last]
	f.items = f.items[:last]
	return s
}

func (f *frontier) add(s sequence) {
	heap.Push(f, s)
}

// poll removes the hardest sequence. ok is false when the frontier is empty.
func (f *frontier) poll() (s sequence, ok bool) {
	if len(f.items) == 0 {
		return sequence{}, false
	}
	return heap.Pop(f).(sequence), true
}

// removeIf drops every sequence matching pred and restores heap order.
func (f *frontier) removeIf(pred func(sequence) bool) {
	kept := f.items[:0]
	for _, s := range f.items {
		if !pred(s) {
			kept = append(kept, s)
		}
	}
	clear(f.items[len(kept):])
	f.items = kept
	heap.Init(f)
}
