/*
qualify.go - Agent-level qualification

PURPOSE:
  Decides whether an agent receives any payout. One ordered rule list
  carries two rule families, split by the resolved field's evaluation
  level:

  PerRecord: the rule counts as met when AT LEAST ONE non-excluded record
  satisfies it. At agent scope this is an existence check, not a
  per-record gate.

  Agent: the field is aggregated across the agent's non-excluded records
  (Sum and Count are supported; anything else is logged and the rule
  skipped) and the aggregate is compared once against the rule literal.

ORDER AND SHORT-CIRCUIT:
  Rules run in declared order. The first failing rule disqualifies the
  agent and stops evaluation. An agent whose credited total is <= 0 is
  disqualified before any rule runs.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type QualificationEngine struct {
	scheme *Scheme
	fields *FieldTable
	log    *RunLog
}

func NewQualificationEngine(s *Scheme, fields *FieldTable, log *RunLog) *QualificationEngine {
	return &QualificationEngine{scheme: s, fields: fields, log: log}
}

// Qualify evaluates the scheme's qualification rules for one agent.
// Every outcome, pass or fail, is logged.
func (q *QualificationEngine) Qualify(agent AgentID, recs []*TransactionRecord, totalCredited decimal.Decimal) bool {
	if totalCredited.LessThanOrEqual(decimal.Zero) {
		q.log.Append(LogEntry{
			RuleType: RuleQualification,
			AgentID:  agent,
			Message:  fmt.Sprintf("credited amount %s is not positive; agent disqualified", totalCredited),
		})
		return false
	}

	for _, rule := range q.scheme.Qualification {
		mapping, ok := q.fields.Resolve(rule.Field)
		if !ok {
			q.log.Append(LogEntry{
				RuleType: RuleWarning,
				RuleID:   rule.ID,
				AgentID:  agent,
				Message:  fmt.Sprintf("qualification rule field %q has no mapping; rule skipped", rule.Field),
			})
			continue
		}

		var passed bool
		var skipped bool
		switch mapping.Level {
		case LevelAgent:
			passed, skipped = q.evaluateAggregate(agent, rule, mapping, recs)
		default:
			passed = q.anyRecordSatisfies(agent, rule, mapping, recs)
		}
		if skipped {
			continue
		}

		if !passed {
			q.log.Append(LogEntry{
				RuleType: RuleQualification,
				RuleID:   rule.ID,
				AgentID:  agent,
				Message:  fmt.Sprintf("qualification failed: %s %s %q", rule.Field, rule.Operator, rule.Value),
			})
			return false
		}
		q.log.Append(LogEntry{
			RuleType: RuleQualification,
			RuleID:   rule.ID,
			AgentID:  agent,
			Message:  fmt.Sprintf("qualification passed: %s %s %q", rule.Field, rule.Operator, rule.Value),
		})
	}
	return true
}

// anyRecordSatisfies is the PerRecord existence check over non-excluded
// records.
func (q *QualificationEngine) anyRecordSatisfies(agent AgentID, rule Rule, mapping FieldMapping, recs []*TransactionRecord) bool {
	for _, rec := range recs {
		if rec.Excluded {
			continue
		}
		matched, issue := EvaluateCondition(rec.Fields[mapping.SourceField], rule.Operator, rule.Value, mapping.DataType)
		if issue != nil {
			q.log.Append(LogEntry{
				RuleType: issue.Kind,
				RuleID:   rule.ID,
				RecordID: rec.RecordID,
				AgentID:  agent,
				Message:  issue.Message,
			})
		}
		if matched {
			return true
		}
	}
	return false
}

// evaluateAggregate compares the aggregated field once against the rule
// literal. The skipped return marks unsupported aggregation modes.
func (q *QualificationEngine) evaluateAggregate(agent AgentID, rule Rule, mapping FieldMapping, recs []*TransactionRecord) (passed, skipped bool) {
	agg, ok := q.aggregate(agent, rule, mapping, recs)
	if !ok {
		return false, true
	}

	matched, issue := EvaluateCondition(agg, rule.Operator, rule.Value, TypeNumber)
	if issue != nil {
		q.log.Append(LogEntry{
			RuleType: issue.Kind,
			RuleID:   rule.ID,
			AgentID:  agent,
			Message:  issue.Message,
		})
	}
	return matched, false
}

func (q *QualificationEngine) aggregate(agent AgentID, rule Rule, mapping FieldMapping, recs []*TransactionRecord) (decimal.Decimal, bool) {
	switch mapping.Aggregation {
	case AggSum:
		sum := decimal.Zero
		for _, rec := range recs {
			if rec.Excluded {
				continue
			}
			v, ok := ToDecimal(rec.Fields[mapping.SourceField])
			if !ok {
				q.log.Append(LogEntry{
					RuleType: RuleDataError,
					RuleID:   rule.ID,
					RecordID: rec.RecordID,
					AgentID:  agent,
					Message:  fmt.Sprintf("field %q value %v not numeric; skipped from sum", rule.Field, rec.Fields[mapping.SourceField]),
				})
				continue
			}
			sum = sum.Add(v)
		}
		return sum, true

	case AggCount:
		n := 0
		for _, rec := range recs {
			if rec.Excluded {
				continue
			}
			if !isMissing(rec.Fields[mapping.SourceField]) {
				n++
			}
		}
		return decimal.NewFromInt(int64(n)), true

	default:
		q.log.Append(LogEntry{
			RuleType: RuleDataError,
			RuleID:   rule.ID,
			AgentID:  agent,
			Message:  fmt.Sprintf("aggregation %q not supported for agent-level rules; rule skipped", mapping.Aggregation),
			Detail:   map[string]any{"severity": "Error"},
		})
		return decimal.Zero, false
	}
}
