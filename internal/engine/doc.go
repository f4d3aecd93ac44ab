// Package engine generates IRV audit assertions.
//
// A Solver runs three stages against one contest:
//
//  1. Determine winners: replay the IRV count and check that exactly one
//     candidate can win, optionally matching a claimed winner.
//  2. Find assertions: a branch-and-bound search over elimination-order
//     suffixes. Each suffix on the frontier carries the cheapest assertion
//     that rules it out; the hardest suffix is expanded next, and the
//     overall difficulty is the largest difficulty ever committed.
//  3. Trim: remove redundant assertions (see package trim).
//
// SEARCH ORDER:
//
// The frontier is a max-heap keyed on difficulty. Ties keep heap order,
// which is deterministic for a given input. Diving extends a polled suffix
// backwards along the real elimination order until it is a complete order,
// committing the assertions found on the way. It changes how fast the
// search converges, not the difficulty it reports.
//
// BUDGET:
//
// Every stage charges work units to a shared budget.Budget. Exceeding the
// time or work limit stops the stage with that stage's timeout error,
// except trimming, which degrades to returning untrimmed assertions with
// WarningTrimTimedOut set.
//
// A Solver holds only configuration; each Solve call allocates its own
// search state.
package engine
