// Package difficulty estimates how hard an assertion is to audit from the
// winner's and loser's tallies.
//
// Lower is easier. Every metric returns +Inf when the winner does not lead.
package difficulty

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metric maps a pair of tallies to an audit difficulty.
type Metric interface {
	Difficulty(winnerTally, loserTally int) float64
	// Type is the wire discriminator for the metric.
	Type() string
}

// Type discriminators.
const (
	TypeOneOnMargin   = "OneOnMargin"
	TypeOneOnMarginSq = "OneOnMarginSq"
	TypeBRAVO         = "BRAVO"
	TypeMACRO         = "MACRO"
)

// OneOnMargin is total ballots over margin, the inverse diluted margin.
// Expected polling sample size is proportional to it.
type OneOnMargin struct {
	TotalAuditableBallots int `json:"total_auditable_ballots"`
}

func (m OneOnMargin) Type() string { return TypeOneOnMargin }

func (m OneOnMargin) Difficulty(winnerTally, loserTally int) float64 {
	if winnerTally <= loserTally {
		return math.Inf(1)
	}
	return float64(m.TotalAuditableBallots) / float64(winnerTally-loserTally)
}

// OneOnMarginSquared is the square of OneOnMargin. Expected ballot-level
// comparison sample size is proportional to it.
type OneOnMarginSquared struct {
	TotalAuditableBallots int `json:"total_auditable_ballots"`
}

func (m OneOnMarginSquared) Type() string { return TypeOneOnMarginSq }

func (m OneOnMarginSquared) Difficulty(winnerTally, loserTally int) float64 {
	if winnerTally <= loserTally {
		return math.Inf(1)
	}
	d := float64(m.TotalAuditableBallots) / float64(winnerTally-loserTally)
	return d * d
}

// BRAVO is the expected ballot-polling sample size at the given risk limit.
type BRAVO struct {
	Confidence            float64 `json:"confidence"`
	TotalAuditableBallots int     `json:"total_auditable_ballots"`
}

func (m BRAVO) Type() string { return TypeBRAVO }

func (m BRAVO) Difficulty(winnerTally, loserTally int) float64 {
	if winnerTally <= loserTally {
		return math.Inf(1)
	}
	w := float64(winnerTally)
	l := float64(loserTally)
	s := w / (w + l)
	twoS := 2 * s
	lnTwoS := math.Log(twoS)
	numerator := 0.5*lnTwoS - math.Log(m.Confidence)
	denominator := (w*lnTwoS + l*math.Log(2-twoS)) / float64(m.TotalAuditableBallots)
	return numerator / denominator
}

// MACRO is the expected ballot-level comparison sample size at the given risk
// limit and error inflation factor.
type MACRO struct {
	Confidence            float64 `json:"confidence"`
	ErrorInflationFactor  float64 `json:"error_inflation_factor"`
	TotalAuditableBallots int     `json:"total_auditable_ballots"`
}

func (m MACRO) Type() string { return TypeMACRO }

func (m MACRO) Difficulty(winnerTally, loserTally int) float64 {
	if winnerTally <= loserTally {
		return math.Inf(1)
	}
	u := 2 * m.ErrorInflationFactor / (float64(winnerTally-loserTally) / float64(m.TotalAuditableBallots))
	return -math.Log(m.Confidence) * u
}

// TotalAuditableBallots returns the ballot count a metric was configured with.
func TotalAuditableBallots(m Metric) int {
	switch v := m.(type) {
	case OneOnMargin:
		return v.TotalAuditableBallots
	case OneOnMarginSquared:
		return v.TotalAuditableBallots
	case BRAVO:
		return v.TotalAuditableBallots
	case MACRO:
		return v.TotalAuditableBallots
	default:
		return 0
	}
}

// Audit wraps a Metric with its tagged JSON form:
//
//	{"type":"BRAVO","confidence":0.05,"total_auditable_ballots":13500}
type Audit struct {
	Metric
}

// MarshalJSON emits the metric's fields plus a "type" discriminator.
func (a Audit) MarshalJSON() ([]byte, error) {
	if a.Metric == nil {
		return []byte("null"), nil
	}
	fields, err := json.Marshal(a.Metric)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(fields, &m); err != nil {
		return nil, err
	}
	m["type"], _ = json.Marshal(a.Metric.Type())
	return json.Marshal(m)
}

// UnmarshalJSON dispatches on the "type" field.
func (a *Audit) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	m, err := decode(head.Type, data)
	if err != nil {
		return err
	}
	a.Metric = m
	return nil
}

func decode(typ string, data []byte) (Metric, error) {
	switch typ {
	case TypeOneOnMargin:
		var m OneOnMargin
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeOneOnMarginSq:
		var m OneOnMarginSquared
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeBRAVO:
		var m BRAVO
		err := json.Unmarshal(data, &m)
		return m, err
	case TypeMACRO:
		var m MACRO
		err := json.Unmarshal(data, &m)
		return m, err
	case "":
		return nil, fmt.Errorf("audit: missing type")
	default:
		return nil, fmt.Errorf("audit: unknown type %q", typ)
	}
}
