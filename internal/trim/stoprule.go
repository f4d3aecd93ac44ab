package trim

// StopRule decides whether a pruning tree keeps expanding below a node that
// some assertion already prunes.
type StopRule int

const (
	// StopImmediately never expands a pruned node.
	StopImmediately StopRule = iota
	// ContinueOnce expands one more level below a pruned node.
	ContinueOnce
	// Forever always expands while assertions remain relevant.
	Forever
	// StopOnNEB expands unless an NEB does the pruning.
	StopOnNEB
)

func (r StopRule) String() string {
	switch r {
	case StopImmediately:
		return "StopImmediately"
	case ContinueOnce:
		return "ContinueOnce"
	case Forever:
		return "Forever"
	case StopOnNEB:
		return "StopOnNEB"
	default:
		return "unknown"
	}
}

// ShouldContinue reports whether to expand a node pruned by at least one
// assertion.
func (r StopRule) ShouldContinue(prunedByNEB bool) bool {
	switch r {
	case StopImmediately:
		return false
	case StopOnNEB:
		return !prunedByNEB
	default:
		return true
	}
}

// Next is the rule applied to the children of a pruned node.
func (r StopRule) Next() StopRule {
	if r == ContinueOnce {
		return StopImmediately
	}
	return r
}
