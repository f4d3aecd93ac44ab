// Package problem is the document form of an assertion-generation run: a
// Problem goes in, a Solution comes out, and both round-trip through JSON.
package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/trim"
)

// Problem describes one contest to generate assertions for.
type Problem struct {
	// Metadata is caller-supplied and echoed into the Solution untouched.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	NumCandidates int        `json:"num_candidates"`
	Votes         []irv.Vote `json:"votes"`

	// Winner, if set, must match the computed winner.
	Winner *int `json:"winner,omitempty"`

	Audit difficulty.Audit `json:"audit"`

	// TrimAlgorithm defaults to trim.MinimizeTree.
	TrimAlgorithm *trim.Algorithm `json:"trim_algorithm,omitempty"`

	// DifficultyEstimate is accepted for compatibility and not used.
	DifficultyEstimate *float64 `json:"difficulty_estimate,omitempty"`

	// TimeLimitSeconds bounds wall-clock time across all stages.
	TimeLimitSeconds *float64 `json:"time_limit_seconds,omitempty"`
}

// DecodeJSON reads a Problem, rejecting unknown fields.
func DecodeJSON(r io.Reader) (*Problem, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var p Problem
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode problem: %w", err)
	}
	if p.Audit.Metric == nil {
		return nil, fmt.Errorf("decode problem: audit is required")
	}
	return &p, nil
}

// DecodeYAML reads a Problem written in YAML with the JSON field names.
func DecodeYAML(r io.Reader) (*Problem, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode problem yaml: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode problem yaml: %w", err)
	}
	return DecodeJSON(bytes.NewReader(data))
}

// IsYAML reports whether path names a YAML document.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads a Problem from path, choosing the decoder by extension.
func Load(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if IsYAML(path) {
		return DecodeYAML(f)
	}
	return DecodeJSON(f)
}

// Trim returns the effective trim algorithm.
func (p *Problem) Trim(fallback trim.Algorithm) trim.Algorithm {
	if p.TrimAlgorithm != nil {
		return *p.TrimAlgorithm
	}
	return fallback
}
