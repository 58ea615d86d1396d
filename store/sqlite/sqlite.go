/*
Package sqlite provides a SQLite-backed implementation of engine.RunStore.

PURPOSE:
  Persists finished run results so payouts, audit logs, and credit
  distributions survive the process. The engine itself never touches
  this package; the CLI (or any other collaborator) saves the Result a
  run returns.

APPEND-ONLY ENFORCEMENT:
  Runs are immutable once saved:
  - SaveRun refuses a duplicate run id
  - No UPDATE or DELETE statements exist in this package

KEY TABLES:
  runs:              Run header plus summary counters
  agent_payouts:     Per-agent totals and payout
  distributions:     Credit distributions, keyed by receiving manager
  log_entries:       The ordered structured audit log
  records:           Record-level processing trail

PRECISION:
  All decimal values are stored as TEXT and re-parsed on load; REAL
  columns would silently reintroduce float rounding.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./payruns.db")
  if err != nil { ... }
  defer store.Close()
  err = store.SaveRun(ctx, result)

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/engine"
)

var ErrRunNotFound = errors.New("run not found")

// Store implements engine.RunStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		scheme_id TEXT NOT NULL,
		as_of TEXT NOT NULL,
		agents INTEGER NOT NULL,
		qualified INTEGER NOT NULL,
		records INTEGER NOT NULL,
		excluded INTEGER NOT NULL,
		total_payout TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_scheme ON runs(scheme_id);

	CREATE TABLE IF NOT EXISTS agent_payouts (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		agent_id TEXT NOT NULL,
		total_base TEXT NOT NULL,
		total_credited TEXT NOT NULL,
		qualified BOOLEAN NOT NULL,
		base_payout TEXT NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);

	CREATE TABLE IF NOT EXISTS distributions (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		from_agent TEXT NOT NULL,
		to_agent TEXT NOT NULL,
		level TEXT NOT NULL,
		percent TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_distributions_to_agent
		ON distributions(run_id, to_agent);

	CREATE TABLE IF NOT EXISTS log_entries (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		rule_type TEXT NOT NULL,
		rule_id TEXT,
		record_id TEXT,
		agent_id TEXT,
		message TEXT NOT NULL,
		at TEXT NOT NULL,
		detail_json TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_log_entries_agent
		ON log_entries(run_id, agent_id);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		position INTEGER NOT NULL,
		record_id TEXT NOT NULL,
		txn_id TEXT,
		agent_id TEXT,
		txn_date TEXT,
		base_amount TEXT NOT NULL,
		adjusted_amount TEXT NOT NULL,
		excluded BOOLEAN NOT NULL,
		exclusion_rule TEXT,
		fields_json TEXT,
		PRIMARY KEY (run_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE
// =============================================================================

// SaveRun persists a complete result atomically.
func (s *Store) SaveRun(ctx context.Context, res *engine.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	sum := res.Summary()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, scheme_id, as_of, agents, qualified, records, excluded, total_payout, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.SchemeID, res.AsOf.String(),
		sum.Agents, sum.Qualified, sum.Records, sum.Excluded,
		sum.TotalPayout.String(),
		res.StartedAt.Format(time.RFC3339Nano), res.FinishedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	for agentID, ar := range res.Agents {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO agent_payouts (run_id, agent_id, total_base, total_credited, qualified, base_payout)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, string(agentID), ar.TotalBase.String(), ar.TotalCredited.String(),
			ar.Qualified, ar.BasePayout.String())
		if err != nil {
			return fmt.Errorf("insert payout for %s: %w", agentID, err)
		}
	}

	seq := 0
	for _, dists := range res.CreditDistributions {
		for _, d := range dists {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO distributions (run_id, seq, from_agent, to_agent, level, percent, amount)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, seq, string(d.FromAgent), string(d.ToAgent), d.Level,
				d.Percent.String(), d.Amount.String())
			if err != nil {
				return fmt.Errorf("insert distribution: %w", err)
			}
			seq++
		}
	}

	for _, entries := range res.RuleHitLogs {
		for _, e := range entries {
			var detail []byte
			if e.Detail != nil {
				detail, _ = json.Marshal(e.Detail)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO log_entries (run_id, seq, rule_type, rule_id, record_id, agent_id, message, at, detail_json)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, e.Seq, string(e.RuleType), string(e.RuleID), e.RecordID,
				string(e.AgentID), e.Message, e.At.Format(time.RFC3339Nano), nullable(detail))
			if err != nil {
				return fmt.Errorf("insert log entry: %w", err)
			}
		}
	}

	for i, rec := range res.Records {
		fields, _ := json.Marshal(rec.Fields)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (run_id, position, record_id, txn_id, agent_id, txn_date, base_amount, adjusted_amount, excluded, exclusion_rule, fields_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, i, rec.RecordID, rec.TxnID, string(rec.AgentID), rec.Date.String(),
			rec.BaseAmount.String(), rec.AdjustedAmount.String(), rec.Excluded,
			string(rec.ExclusionRule), nullable(fields))
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.RecordID, err)
		}
	}

	return tx.Commit()
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// =============================================================================
// LOAD
// =============================================================================

// Run loads a previously saved result.
func (s *Store) Run(ctx context.Context, runID string) (*engine.Result, error) {
	res := &engine.Result{
		RunID:               runID,
		AgentPayouts:        make(map[engine.AgentID]string),
		RuleHitLogs:         make(map[engine.AgentID][]engine.LogEntry),
		CreditDistributions: make(map[engine.AgentID][]engine.Distribution),
		Agents:              make(map[engine.AgentID]*engine.AgentResult),
	}

	var asOf, startedAt, finishedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT scheme_id, as_of, started_at, finished_at FROM runs WHERE run_id = ?`, runID).
		Scan(&res.SchemeID, &asOf, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	res.AsOf, _ = engine.ParseDate(asOf)
	res.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	res.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)

	if err := s.loadAgents(ctx, runID, res); err != nil {
		return nil, err
	}
	if err := s.loadDistributions(ctx, runID, res); err != nil {
		return nil, err
	}
	if err := s.loadLogEntries(ctx, runID, res); err != nil {
		return nil, err
	}
	if err := s.loadRecords(ctx, runID, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) loadAgents(ctx context.Context, runID string, res *engine.Result) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, total_base, total_credited, qualified, base_payout
		FROM agent_payouts WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("load payouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agent, base, credited, payout string
		var qualified bool
		if err := rows.Scan(&agent, &base, &credited, &qualified, &payout); err != nil {
			return err
		}
		ar := &engine.AgentResult{
			AgentID:       engine.AgentID(agent),
			TotalBase:     mustDecimal(base),
			TotalCredited: mustDecimal(credited),
			Qualified:     qualified,
			BasePayout:    mustDecimal(payout),
		}
		res.Agents[ar.AgentID] = ar
		res.AgentPayouts[ar.AgentID] = ar.BasePayout.StringFixed(2)
	}
	return rows.Err()
}

func (s *Store) loadDistributions(ctx context.Context, runID string, res *engine.Result) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_agent, to_agent, level, percent, amount
		FROM distributions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return fmt.Errorf("load distributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to, level, percent, amount string
		if err := rows.Scan(&from, &to, &level, &percent, &amount); err != nil {
			return err
		}
		d := engine.Distribution{
			FromAgent: engine.AgentID(from),
			ToAgent:   engine.AgentID(to),
			Level:     level,
			Percent:   mustDecimal(percent),
			Amount:    mustDecimal(amount),
		}
		res.CreditDistributions[d.ToAgent] = append(res.CreditDistributions[d.ToAgent], d)
		if ar, ok := res.Agents[d.FromAgent]; ok {
			ar.Initiated = append(ar.Initiated, d)
		}
		if ar, ok := res.Agents[d.ToAgent]; ok {
			ar.Received = append(ar.Received, d)
		}
	}
	return rows.Err()
}

func (s *Store) loadLogEntries(ctx context.Context, runID string, res *engine.Result) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, rule_type, rule_id, record_id, agent_id, message, at, detail_json
		FROM log_entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return fmt.Errorf("load log entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e engine.LogEntry
		var ruleType, ruleID, agentID, at string
		var detail sql.NullString
		if err := rows.Scan(&e.Seq, &ruleType, &ruleID, &e.RecordID, &agentID, &e.Message, &at, &detail); err != nil {
			return err
		}
		e.RuleType = engine.RuleType(ruleType)
		e.RuleID = engine.RuleID(ruleID)
		e.AgentID = engine.AgentID(agentID)
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		if detail.Valid {
			_ = json.Unmarshal([]byte(detail.String), &e.Detail)
		}
		res.RuleHitLogs[e.AgentID] = append(res.RuleHitLogs[e.AgentID], e)
	}
	return rows.Err()
}

func (s *Store) loadRecords(ctx context.Context, runID string, res *engine.Result) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, txn_id, agent_id, txn_date, base_amount, adjusted_amount, excluded, exclusion_rule, fields_json
		FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec engine.TransactionRecord
		var agentID, txnDate, exclusionRule, base, adjusted string
		var fields sql.NullString
		if err := rows.Scan(&rec.RecordID, &rec.TxnID, &agentID, &txnDate, &base, &adjusted, &rec.Excluded, &exclusionRule, &fields); err != nil {
			return err
		}
		rec.AgentID = engine.AgentID(agentID)
		rec.Date, _ = engine.ParseDate(txnDate)
		rec.BaseAmount = mustDecimal(base)
		rec.AdjustedAmount = mustDecimal(adjusted)
		rec.ExclusionRule = engine.RuleID(exclusionRule)
		if fields.Valid {
			var row engine.Row
			if json.Unmarshal([]byte(fields.String), &row) == nil {
				rec.Fields = row
			}
		}
		res.Records = append(res.Records, rec)
	}
	return rows.Err()
}

// Runs lists saved run summaries, most recent first.
func (s *Store) Runs(ctx context.Context) ([]engine.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, scheme_id, as_of, agents, qualified, records, excluded, total_payout
		FROM runs ORDER BY finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []engine.Summary
	for rows.Next() {
		var sum engine.Summary
		var asOf, total string
		if err := rows.Scan(&sum.RunID, &sum.SchemeID, &asOf, &sum.Agents, &sum.Qualified, &sum.Records, &sum.Excluded, &total); err != nil {
			return nil, err
		}
		sum.AsOf, _ = engine.ParseDate(asOf)
		sum.TotalPayout = mustDecimal(total)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ engine.RunStore = (*Store)(nil)
