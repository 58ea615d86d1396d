/*
Package engine executes incentive compensation schemes over batches of
transaction records.

PURPOSE:
  Given a declarative Scheme (rules, payout tiers, credit splits, field
  mappings), a set of pre-parsed data tables, and an as-of date, the engine
  computes per-agent payouts, an ordered audit log of every rule firing,
  and hierarchical credit distributions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Row/Table/Dataset: Pre-parsed tabular input (no file I/O here)
  - TransactionRecord: One base-data row plus its processing outcome
  - LogEntry: A single structured audit event
  - Distribution: A credit transfer to a manager up the hierarchy
  - AgentResult/Result: Per-agent and per-run outputs

DESIGN PRINCIPLES:
  1. Precision: All money math uses decimal.Decimal, never float64
  2. Immutability: Input rows are never mutated; processing writes only
     to the derived TransactionRecord
  3. Determinism: A run over the same scheme and data always produces
     the same payouts and the same per-agent log order
  4. No hidden state: Everything a run accumulates lives in the Result;
     nothing survives between runs

USAGE:
  eng := engine.NewEngine(4)
  res, err := eng.Run(scheme, dataset, "2024-06-30")
  if err != nil { ... }
  fmt.Println(res.AgentPayouts["agent-007"])

SEE ALSO:
  - scheme.go: Scheme configuration types
  - run.go: Orchestration of a single run
  - log.go: The append-only structured log sink
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID string
type RuleID string

// =============================================================================
// TABULAR INPUT - Already parsed by an external loader
// =============================================================================

// Row is a single field-keyed record. Values are whatever the upstream
// loader produced (string, float64, bool, nil); the engine coerces them
// per the declared field data type at evaluation time.
type Row map[string]any

// Table is one named input file: its column headers and its rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// Dataset maps a file name to its parsed table.
type Dataset map[string]Table

// =============================================================================
// TRANSACTION RECORD - A base-data row plus its processing outcome
// =============================================================================

// TransactionRecord is the engine's view of one base-data row. Fields holds
// the original row and is treated as read-only; every numeric outcome of
// exclusion/adjustment processing is recorded on the struct itself.
type TransactionRecord struct {
	// RecordID is a synthetic identifier, stable within a run.
	RecordID string
	// TxnID is the value of the configured transaction-id column.
	TxnID   string
	AgentID AgentID
	Date    Date
	Fields  Row

	BaseAmount     decimal.Decimal
	AdjustedAmount decimal.Decimal
	Excluded       bool
	ExclusionRule  RuleID
}

// =============================================================================
// LOG ENTRY - One structured audit event
// =============================================================================

type RuleType string

const (
	RuleQualification RuleType = "Qualification"
	RuleExclusion     RuleType = "Exclusion"
	RuleAdjustment    RuleType = "Adjustment"
	RuleCreditSplit   RuleType = "CreditSplit"
	RuleCustom        RuleType = "Custom"
	RuleDataError     RuleType = "DataError"
	RuleWarning       RuleType = "Warning"
)

// LogEntry records a single rule firing or data anomaly. Entries are
// append-only and ordered by Seq within a run.
type LogEntry struct {
	Seq      int
	RuleType RuleType
	RuleID   RuleID
	RecordID string
	AgentID  AgentID
	Message  string
	At       time.Time
	Detail   map[string]any
}

// =============================================================================
// DISTRIBUTION - Credit transferred up the hierarchy
// =============================================================================

// Distribution credits a slice of an agent's base payout to a manager.
// It is recorded against the receiving manager, not the originator.
type Distribution struct {
	FromAgent AgentID
	ToAgent   AgentID
	Level     string
	Percent   decimal.Decimal
	Amount    decimal.Decimal
}

// =============================================================================
// RESULTS
// =============================================================================

// AgentResult is the complete per-agent outcome of a run.
type AgentResult struct {
	AgentID AgentID

	// TotalBase is the sum of parseable base amounts before any rule fired.
	TotalBase decimal.Decimal
	// TotalCredited is the post-adjustment amount used for qualification
	// and tiering. Excluded records contribute exactly zero.
	TotalCredited decimal.Decimal

	Qualified  bool
	BasePayout decimal.Decimal

	Initiated []Distribution
	Received  []Distribution
}

// Result is everything a run produces. It is self-contained: every
// recoverable anomaly encountered during the run appears as a log entry
// here rather than as an omission.
type Result struct {
	RunID    string
	SchemeID string
	AsOf     Date

	// AgentPayouts renders each agent's base payout with two decimal
	// places. Unqualified agents are present with "0.00".
	AgentPayouts map[AgentID]string

	// RuleHitLogs groups the run's audit log by agent, preserving the
	// order in which entries were emitted. Entries not attributable to
	// an agent (dropped rows, run-level warnings) appear under the
	// empty AgentID.
	RuleHitLogs map[AgentID][]LogEntry

	// CreditDistributions is keyed by the receiving manager.
	CreditDistributions map[AgentID][]Distribution

	// Records is the full record-level trail, in input order.
	Records []TransactionRecord

	Agents map[AgentID]*AgentResult

	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary condenses a Result for reporting and persistence listings.
type Summary struct {
	RunID       string
	SchemeID    string
	AsOf        Date
	Agents      int
	Qualified   int
	Records     int
	Excluded    int
	TotalPayout decimal.Decimal
}

func (r *Result) Summary() Summary {
	s := Summary{
		RunID:       r.RunID,
		SchemeID:    r.SchemeID,
		AsOf:        r.AsOf,
		Agents:      len(r.Agents),
		Records:     len(r.Records),
		TotalPayout: decimal.Zero,
	}
	for _, a := range r.Agents {
		if a.Qualified {
			s.Qualified++
		}
		s.TotalPayout = s.TotalPayout.Add(a.BasePayout)
	}
	for _, rec := range r.Records {
		if rec.Excluded {
			s.Excluded++
		}
	}
	return s
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// MustDecimal parses s, returning zero on failure. For literals in tests
// and presets; production paths parse with error handling.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
