package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/raire/internal/problem"
)

// OutcomeOK marks a successful run. Failed runs store their error code.
const OutcomeOK = "Ok"

// timeFormat is fixed-width so created_at sorts chronologically as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Run is one archived solve.
type Run struct {
	ID            string
	ProblemHash   string
	Source        string
	CreatedAt     time.Time
	Outcome       string
	Winner        *int
	Difficulty    *float64
	Margin        *int
	NumCandidates int
	NumAssertions int
	Problem       json.RawMessage
	Solution      json.RawMessage
}

// NewRun summarizes a solved problem for archiving. hash is the problem's
// content hash and source where it was read from.
func NewRun(p *problem.Problem, sol problem.Solution, hash, source string) (Run, error) {
	problemJSON, err := json.Marshal(p)
	if err != nil {
		return Run{}, fmt.Errorf("new run: problem: %w", err)
	}
	solutionJSON, err := json.Marshal(sol)
	if err != nil {
		return Run{}, fmt.Errorf("new run: solution: %w", err)
	}

	r := Run{
		ProblemHash:   hash,
		Source:        source,
		NumCandidates: p.NumCandidates,
		Problem:       problemJSON,
		Solution:      solutionJSON,
	}
	if res := sol.Solution.Ok; res != nil {
		r.Outcome = OutcomeOK
		r.Winner = &res.Winner
		r.Difficulty = &res.Difficulty
		r.Margin = &res.Margin
		r.NumAssertions = len(res.Assertions)
	} else if sol.Solution.Err != nil {
		r.Outcome = string(sol.Solution.Err.Code)
	}
	return r, nil
}

// DecodeSolution parses the archived solution document.
func (r Run) DecodeSolution() (*problem.Solution, error) {
	return problem.DecodeSolution(strings.NewReader(string(r.Solution)))
}

// SaveRun inserts r, assigning an ID and creation time when they are unset.
// Returns the run's ID.
func (s *Store) SaveRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = s.ids.Generate()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if r.Outcome == "" {
		return "", fmt.Errorf("save run: outcome is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, problem_hash, source, created_at, outcome, winner, difficulty, margin,
		 num_candidates, num_assertions, problem, solution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.ProblemHash,
		r.Source,
		r.CreatedAt.UTC().Format(timeFormat),
		r.Outcome,
		nullInt(r.Winner),
		nullFloat(r.Difficulty),
		nullInt(r.Margin),
		r.NumCandidates,
		r.NumAssertions,
		string(r.Problem),
		string(r.Solution),
	)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return r.ID, nil
}

const selectRun = `
	SELECT id, problem_hash, source, created_at, outcome, winner, difficulty, margin,
	       num_candidates, num_assertions, problem, solution
	FROM runs
`

// GetRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+`WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectRun+`
		ORDER BY created_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindByProblemHash returns the most recent successful run of the problem
// with the given content hash. found is false if there is none.
func (s *Store) FindByProblemHash(ctx context.Context, hash string) (run Run, found bool, err error) {
	row := s.db.QueryRowContext(ctx, selectRun+`
		WHERE problem_hash = ? AND outcome = ?
		ORDER BY created_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, hash, OutcomeOK)

	run, err = scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r          Run
		createdAt  string
		winner     sql.NullInt64
		difficulty sql.NullFloat64
		margin     sql.NullInt64
		problemDoc string
		solution   string
	)
	err := sc.Scan(
		&r.ID,
		&r.ProblemHash,
		&r.Source,
		&createdAt,
		&r.Outcome,
		&winner,
		&difficulty,
		&margin,
		&r.NumCandidates,
		&r.NumAssertions,
		&problemDoc,
		&solution,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	r.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: created_at: %w", r.ID, err)
	}
	if winner.Valid {
		w := int(winner.Int64)
		r.Winner = &w
	}
	if difficulty.Valid {
		d := difficulty.Float64
		r.Difficulty = &d
	}
	if margin.Valid {
		m := int(margin.Int64)
		r.Margin = &m
	}
	r.Problem = json.RawMessage(problemDoc)
	r.Solution = json.RawMessage(solution)
	return r, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
