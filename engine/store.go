/*
store.go - Run result persistence interface

PURPOSE:
  The engine never persists anything itself; a run either returns a
  complete Result or an error. RunStore is the optional collaborator
  interface callers use to keep results around: the CLI saves finished
  runs, reporting tools read them back.

IMPLEMENTATIONS:
  engine/store:  in-memory (tests, dev)
  store/sqlite:  SQLite-backed (cmd/payrun -db flag)
*/
package engine

import "context"

// RunStore persists finished run results. Results are immutable once
// saved; there is no update operation.
type RunStore interface {
	// SaveRun persists a complete result. Saving the same RunID twice
	// is an error.
	SaveRun(ctx context.Context, res *Result) error

	// Run loads a previously saved result by id.
	Run(ctx context.Context, runID string) (*Result, error)

	// Runs lists summaries of all saved runs, most recent first.
	Runs(ctx context.Context) ([]Summary, error)
}
