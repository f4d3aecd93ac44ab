package problem

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/raire/internal/difficulty"
	"github.com/roach88/raire/internal/irv"
	"github.com/roach88/raire/internal/trim"
)

// DomainProblem separates problem hashes from any other hash in the archive.
// The version suffix allows the hashed fields to change later.
const DomainProblem = "raire/problem/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash identifies the problem by everything that determines its answer.
// Metadata, the time limit and the difficulty estimate are excluded, so the
// same contest submitted twice with different bookkeeping hashes the same.
// The trim algorithm is hashed as resolved against fallback.
func (p *Problem) Hash(fallback trim.Algorithm) (string, error) {
	identity := struct {
		NumCandidates int              `json:"num_candidates"`
		Votes         []irv.Vote       `json:"votes"`
		Winner        *int             `json:"winner,omitempty"`
		Audit         difficulty.Audit `json:"audit"`
		TrimAlgorithm trim.Algorithm   `json:"trim_algorithm"`
	}{
		NumCandidates: p.NumCandidates,
		Winner:        p.Winner,
		Audit:         p.Audit,
		TrimAlgorithm: p.Trim(fallback),
	}
	// Empty rankings must hash as [] whether they were decoded or built.
	identity.Votes = make([]irv.Vote, len(p.Votes))
	for i, v := range p.Votes {
		identity.Votes[i] = irv.Vote{N: v.N, Prefs: v.Prefs}
		if v.Prefs == nil {
			identity.Votes[i].Prefs = []int{}
		}
	}

	canonical, err := MarshalCanonical(identity)
	if err != nil {
		return "", fmt.Errorf("problem hash: %w", err)
	}
	return hashWithDomain(DomainProblem, canonical), nil
}
