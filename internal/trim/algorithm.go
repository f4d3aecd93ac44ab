// Package trim reduces a set of assertions to those needed to rule out every
// losing candidate, and orders the survivors canonically.
package trim

import (
	"fmt"
)

// Algorithm selects how aggressively assertions are trimmed.
type Algorithm int

const (
	// MinimizeTree keeps the assertions that make the pruning trees
	// smallest. It is the default.
	MinimizeTree Algorithm = iota

	// None only sorts.
	None

	// MinimizeAssertions searches past next-elimination prunings looking for
	// a smaller set of assertions.
	MinimizeAssertions
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "None"
	case MinimizeTree:
		return "MinimizeTree"
	case MinimizeAssertions:
		return "MinimizeAssertions"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm accepts the names produced by String.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "None":
		return None, nil
	case "MinimizeTree":
		return MinimizeTree, nil
	case "MinimizeAssertions":
		return MinimizeAssertions, nil
	default:
		return 0, fmt.Errorf("unknown trim algorithm %q (valid: None, MinimizeTree, MinimizeAssertions)", s)
	}
}

// MarshalText implements encoding.TextMarshaler for JSON and YAML.
func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and YAML.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// stopRule returns the tree expansion rule the algorithm trims with.
func (a Algorithm) stopRule() (StopRule, bool) {
	switch a {
	case MinimizeTree:
		return StopImmediately, true
	case MinimizeAssertions:
		return StopOnNEB, true
	default:
		return 0, false
	}
}
