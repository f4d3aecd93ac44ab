// Package store provides a SQLite-backed archive of assertion-generation runs.
//
// Each run records the problem document, the solution document and a few
// summary columns (outcome, winner, difficulty, margin) for listing. Runs are
// identified by UUIDv7, so IDs sort by creation time.
//
// # Reuse
//
// Every run also stores the problem's content hash (problem.Problem.Hash).
// FindByProblemHash returns the most recent successful run for a hash, which
// lets the CLI answer a repeated problem without searching again.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
