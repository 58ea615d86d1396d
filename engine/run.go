/*
run.go - Orchestration of a single scheme execution

PURPOSE:
  Wires the pipeline together for one batch run:

    base table -> FilterRecords -> per-agent groups
      -> RecordProcessor (exclude/adjust)
      -> CustomRuleHook delta
      -> QualificationEngine
      -> TieredPayout
      -> CreditDistributor (distribution planning)
    -> sequential merge -> Result

  All accumulation lives in the run context created here and is torn
  down when Run returns; the Engine itself holds no per-run state and
  may be reused.

FAILURE TIERS:
  Fatal validation problems (missing base mapping essentials, absent
  base file, missing transaction-id column, unparseable dates) return an
  error and no Result. Everything else is recoverable: the Result is
  complete and every anomaly appears in its log.

CONCURRENCY:
  Agents are processed on a bounded worker pool. Workers write only
  their own agent's output and the shared append-only log; the
  distribution ledgers, which receive writes keyed by OTHER agents, are
  built in a sequential merge afterwards.
*/
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine executes schemes. Safe to reuse across runs; each run's state
// is private to that run.
type Engine struct {
	// Workers bounds per-agent parallelism. <= 1 means sequential.
	Workers int
	// Hook handles declared custom rules. Defaults to NoopHook.
	Hook CustomRuleHook
}

func NewEngine(workers int) *Engine {
	return &Engine{Workers: workers, Hook: NoopHook{}}
}

// agentOutput is everything one worker produces for one agent.
type agentOutput struct {
	result        *AgentResult
	distributions []Distribution
}

// Run executes the scheme over the dataset up to the as-of date
// (inclusive, ISO YYYY-MM-DD).
func (e *Engine) Run(s *Scheme, data Dataset, asOf string) (*Result, error) {
	started := time.Now().UTC()

	if s == nil {
		return nil, &SchemeValidationError{Field: "scheme"}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	asOfDate, ok := ParseDate(asOf)
	if !ok {
		return nil, fmt.Errorf("parse as-of date %q: %w", asOf, ErrInvalidAsOfDate)
	}

	base, ok := data[s.Base.SourceFile]
	if !ok {
		return nil, &DatasetError{File: s.Base.SourceFile, Cause: ErrBaseFileMissing}
	}
	if len(base.Rows) > 0 {
		if _, ok := base.Rows[0][s.Base.TxnIDField]; !ok {
			return nil, &DatasetError{File: s.Base.SourceFile, Column: s.Base.TxnIDField, Cause: ErrTxnIDColumnMissing}
		}
	}

	runLog := NewRunLog()
	fields := BuildFieldTable(s)

	if len(s.Tiers) == 0 {
		runLog.Append(LogEntry{
			RuleType: RuleWarning,
			Message:  "scheme declares no payout tiers; all payouts will be zero",
		})
	}

	resolver := NewHierarchyResolver(e.hierarchyRecords(s, data, runLog), runLog)
	processor := NewRecordProcessor(s, fields, runLog)
	qualifier := NewQualificationEngine(s, fields, runLog)
	distributor := NewCreditDistributor(s, fields, resolver, runLog)

	filtered := FilterRecords(base, s, asOfDate, runLog)

	hook := e.Hook
	if hook == nil {
		hook = NoopHook{}
	}

	outputs := forEachAgent(e.Workers, filtered.AgentOrder, func(agent AgentID) agentOutput {
		recs := filtered.Groups[agent]

		totalBase, credited := processor.Process(agent, recs)
		credited = credited.Add(e.customDelta(hook, agent, recs, s, runLog))

		ar := &AgentResult{
			AgentID:       agent,
			TotalBase:     totalBase,
			TotalCredited: credited,
			BasePayout:    decimal.Zero,
		}

		ar.Qualified = qualifier.Qualify(agent, recs, credited)
		if !ar.Qualified {
			return agentOutput{result: ar}
		}

		ar.BasePayout = TieredPayout(credited, s.Tiers)
		dists := distributor.Distribute(agent, ar.BasePayout, recs, asOfDate)
		ar.Initiated = dists
		return agentOutput{result: ar, distributions: dists}
	})

	return e.assemble(s, asOfDate, filtered, outputs, runLog, started), nil
}

// customDelta invokes the hook when custom rules are declared. Hook
// failures degrade to a zero delta with a Warning.
func (e *Engine) customDelta(hook CustomRuleHook, agent AgentID, recs []*TransactionRecord, s *Scheme, runLog *RunLog) decimal.Decimal {
	if len(s.Custom) == 0 {
		return decimal.Zero
	}
	delta, err := hook.Apply(agent, recs, s.Custom)
	if err != nil {
		runLog.Append(LogEntry{
			RuleType: RuleWarning,
			AgentID:  agent,
			Message:  fmt.Sprintf("custom rule hook failed: %v; delta ignored", err),
		})
		return decimal.Zero
	}
	runLog.Append(LogEntry{
		RuleType: RuleCustom,
		AgentID:  agent,
		Message:  fmt.Sprintf("%d custom rule(s) evaluated; delta %s", len(s.Custom), delta),
		Detail:   map[string]any{"delta": delta.String()},
	})
	return delta
}

func (e *Engine) hierarchyRecords(s *Scheme, data Dataset, runLog *RunLog) []HierarchyRecord {
	if s.HierarchyFile == "" {
		return nil
	}
	t, ok := data[s.HierarchyFile]
	if !ok {
		runLog.Append(LogEntry{
			RuleType: RuleWarning,
			Message:  fmt.Sprintf("hierarchy file %q not in dataset; no credit can be distributed", s.HierarchyFile),
		})
		return nil
	}
	return ParseHierarchyTable(t, runLog)
}

// assemble is the sequential merge: the only stage that writes the
// shared, many-writers-per-key ledgers.
func (e *Engine) assemble(s *Scheme, asOf Date, filtered *FilteredRecords, outputs []agentOutput, runLog *RunLog, started time.Time) *Result {
	res := &Result{
		RunID:               uuid.NewString(),
		SchemeID:            s.ID,
		AsOf:                asOf,
		AgentPayouts:        make(map[AgentID]string, len(outputs)),
		CreditDistributions: make(map[AgentID][]Distribution),
		Agents:              make(map[AgentID]*AgentResult, len(outputs)),
		StartedAt:           started,
	}

	for _, out := range outputs {
		ar := out.result
		res.Agents[ar.AgentID] = ar
		res.AgentPayouts[ar.AgentID] = ar.BasePayout.StringFixed(2)
	}

	// Distributions are merged after all agent results exist so that
	// managers who are themselves run agents get their Received ledger.
	for _, out := range outputs {
		for _, dist := range out.distributions {
			res.CreditDistributions[dist.ToAgent] = append(res.CreditDistributions[dist.ToAgent], dist)
			if target, ok := res.Agents[dist.ToAgent]; ok {
				target.Received = append(target.Received, dist)
			}
		}
	}

	for _, agent := range filtered.AgentOrder {
		for _, rec := range filtered.Groups[agent] {
			res.Records = append(res.Records, *rec)
		}
	}

	res.RuleHitLogs = runLog.PerAgent()
	res.FinishedAt = time.Now().UTC()
	return res
}
