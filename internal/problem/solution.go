package problem

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/raire/internal/auditerr"
	"github.com/roach88/raire/internal/engine"
)

// Solution is the answer to a Problem.
type Solution struct {
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Solution Outcome         `json:"solution"`
}

// Outcome holds exactly one of Ok or Err.
type Outcome struct {
	Ok  *engine.Result
	Err *auditerr.Error
}

// MarshalJSON writes {"Ok":...} or {"Err":...}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Ok != nil && o.Err != nil:
		return nil, fmt.Errorf("outcome has both Ok and Err")
	case o.Ok != nil:
		return json.Marshal(struct {
			Ok *engine.Result `json:"Ok"`
		}{o.Ok})
	case o.Err != nil:
		return json.Marshal(struct {
			Err *auditerr.Error `json:"Err"`
		}{o.Err})
	default:
		return nil, fmt.Errorf("outcome is empty")
	}
}

// UnmarshalJSON accepts the forms MarshalJSON writes.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("outcome: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("outcome must have exactly one of Ok or Err")
	}
	*o = Outcome{}
	if raw, ok := obj["Ok"]; ok {
		o.Ok = new(engine.Result)
		return json.Unmarshal(raw, o.Ok)
	}
	if raw, ok := obj["Err"]; ok {
		o.Err = new(auditerr.Error)
		return json.Unmarshal(raw, o.Err)
	}
	return fmt.Errorf("outcome must have exactly one of Ok or Err")
}

// Err returns the failure as an error, or nil on success.
func (s Solution) Err() error {
	if s.Solution.Err == nil {
		return nil
	}
	return s.Solution.Err
}

// DecodeSolution reads a Solution document.
func DecodeSolution(r io.Reader) (*Solution, error) {
	var s Solution
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode solution: %w", err)
	}
	return &s, nil
}

// EncodeSolution writes s as indented JSON followed by a newline.
func EncodeSolution(w io.Writer, s Solution) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
