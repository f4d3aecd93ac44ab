package auditerr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// infinity is how an unbounded difficulty is written. JSON has no literal for it.
const infinity = "Infinity"

// MarshalJSON writes errors without payload as a bare string and errors with
// payload as a single-key object:
//
//	"InvalidTimeout"
//	{"TimeoutFindingAssertions":3.0}
//	{"TiedWinners":[2,3]}
func (e *Error) MarshalJSON() ([]byte, error) {
	switch {
	case e.Code.HasDifficulty():
		return []byte(fmt.Sprintf("{%q:%s}", e.Code, formatJSONFloat(e.Difficulty))), nil
	case e.Code.HasCandidates():
		candidates := e.Candidates
		if candidates == nil {
			candidates = []int{}
		}
		return json.Marshal(map[string][]int{string(e.Code): candidates})
	default:
		return json.Marshal(string(e.Code))
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (e *Error) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var code Code
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		if !code.Valid() {
			return fmt.Errorf("unknown error code %q", code)
		}
		if code.HasDifficulty() || code.HasCandidates() {
			return fmt.Errorf("error code %q requires a payload", code)
		}
		*e = Error{Code: code}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("error object must have exactly one key, got %d", len(obj))
	}
	for key, raw := range obj {
		code := Code(key)
		switch {
		case code.HasDifficulty():
			d, err := parseJSONFloat(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			*e = Error{Code: code, Difficulty: d}
		case code.HasCandidates():
			var candidates []int
			if err := json.Unmarshal(raw, &candidates); err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			*e = Error{Code: code, Candidates: candidates}
		case code.Valid():
			return fmt.Errorf("error code %q takes no payload", code)
		default:
			return fmt.Errorf("unknown error code %q", code)
		}
	}
	return nil
}

// formatJSONFloat always includes a decimal point so the value reads back as
// a float in any consumer.
func formatJSONFloat(f float64) string {
	if math.IsInf(f, 1) {
		return strconv.Quote(infinity)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func parseJSONFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == infinity {
			return math.Inf(1), nil
		}
		return 0, fmt.Errorf("invalid difficulty %q", s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
