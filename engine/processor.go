/*
processor.go - Exclusion and adjustment processing

PURPOSE:
  Turns each in-window record into its adjusted amount:
  1. Parse the base amount (exact decimal); a parse failure excludes the
     record with a DataError and it contributes zero everywhere.
  2. Exclusion rules in declared order; the FIRST match excludes the
     record and short-circuits the rest, so exactly one exclusion reason
     is ever recorded.
  3. Adjustment rules in declared order. Conditions always look at the
     ORIGINAL record fields, but effects compose: each rule sees the
     running amount and rate multiplier left by earlier rules.
  4. adjusted = currentAmount * rateMultiplier; excluded records are
     exactly zero.

ADJUSTMENT EFFECTS:
  Amount/Percentage: currentAmount += currentAmount * factor/100
  Amount/Fixed:      currentAmount += factor
  Rate/Percentage:   rateMultiplier *= factor/100
  Rate/Fixed:        rateMultiplier *= factor
  Anything else is logged as a Warning and has no numeric effect.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecordProcessor applies exclusion and adjustment rules to one agent's
// records. It is stateless across agents; all diagnostics go to the sink.
type RecordProcessor struct {
	scheme *Scheme
	fields *FieldTable
	log    *RunLog
}

func NewRecordProcessor(s *Scheme, fields *FieldTable, log *RunLog) *RecordProcessor {
	return &RecordProcessor{scheme: s, fields: fields, log: log}
}

// Process mutates each record in place with its processing outcome and
// returns the agent's total base and total adjusted (credited) amounts.
func (p *RecordProcessor) Process(agent AgentID, recs []*TransactionRecord) (totalBase, totalCredited decimal.Decimal) {
	totalBase = decimal.Zero
	totalCredited = decimal.Zero

	for _, rec := range recs {
		p.processRecord(agent, rec)
		totalBase = totalBase.Add(rec.BaseAmount)
		totalCredited = totalCredited.Add(rec.AdjustedAmount)
	}
	return totalBase, totalCredited
}

func (p *RecordProcessor) processRecord(agent AgentID, rec *TransactionRecord) {
	rec.AdjustedAmount = decimal.Zero

	amount, ok := ToDecimal(rec.Fields[p.scheme.Base.AmountField])
	if !ok {
		rec.Excluded = true
		p.log.Append(LogEntry{
			RuleType: RuleDataError,
			RecordID: rec.RecordID,
			AgentID:  agent,
			Message:  fmt.Sprintf("amount %v is not a number; record excluded", rec.Fields[p.scheme.Base.AmountField]),
		})
		return
	}
	rec.BaseAmount = amount

	if p.applyExclusions(agent, rec) {
		return
	}
	rec.AdjustedAmount = p.applyAdjustments(agent, rec, amount)
}

// applyExclusions returns true when a rule matched. Only the first match
// is recorded.
func (p *RecordProcessor) applyExclusions(agent AgentID, rec *TransactionRecord) bool {
	for _, rule := range p.scheme.Exclusion {
		value, mapping, ok := p.fieldValue(agent, rec, rule, RuleExclusion)
		if !ok {
			continue
		}
		matched, issue := EvaluateCondition(value, rule.Operator, rule.Value, mapping.DataType)
		if issue != nil {
			p.logIssue(issue, rule.ID, agent, rec.RecordID)
		}
		if matched {
			rec.Excluded = true
			rec.ExclusionRule = rule.ID
			p.log.Append(LogEntry{
				RuleType: RuleExclusion,
				RuleID:   rule.ID,
				RecordID: rec.RecordID,
				AgentID:  agent,
				Message:  fmt.Sprintf("record excluded: %s %s %q", rule.Field, rule.Operator, rule.Value),
				Detail:   map[string]any{"field": rule.Field, "value": value},
			})
			return true
		}
	}
	return false
}

func (p *RecordProcessor) applyAdjustments(agent AgentID, rec *TransactionRecord, base decimal.Decimal) decimal.Decimal {
	current := base
	multiplier := decimal.NewFromInt(1)

	for _, rule := range p.scheme.Adjustment {
		value, mapping, ok := p.fieldValue(agent, rec, rule.Rule, RuleAdjustment)
		if !ok {
			continue
		}
		matched, issue := EvaluateCondition(value, rule.Operator, rule.Value, mapping.DataType)
		if issue != nil {
			p.logIssue(issue, rule.ID, agent, rec.RecordID)
		}
		if !matched {
			continue
		}

		before := current
		switch {
		case rule.Target == TargetAmount && rule.Method == MethodPercentage:
			current = current.Add(current.Mul(rule.Factor).Div(hundred))
		case rule.Target == TargetAmount && rule.Method == MethodFixed:
			current = current.Add(rule.Factor)
		case rule.Target == TargetRate && rule.Method == MethodPercentage:
			multiplier = multiplier.Mul(rule.Factor.Div(hundred))
		case rule.Target == TargetRate && rule.Method == MethodFixed:
			multiplier = multiplier.Mul(rule.Factor)
		default:
			p.log.Append(LogEntry{
				RuleType: RuleWarning,
				RuleID:   rule.ID,
				RecordID: rec.RecordID,
				AgentID:  agent,
				Message:  fmt.Sprintf("unknown adjustment target/type %q/%q; no effect", rule.Target, rule.Method),
			})
			continue
		}

		p.log.Append(LogEntry{
			RuleType: RuleAdjustment,
			RuleID:   rule.ID,
			RecordID: rec.RecordID,
			AgentID:  agent,
			Message:  fmt.Sprintf("adjustment applied: %s/%s %s", rule.Target, rule.Method, rule.Factor),
			Detail: map[string]any{
				"amountBefore": before.String(),
				"amountAfter":  current.String(),
				"multiplier":   multiplier.String(),
			},
		})
	}

	return current.Mul(multiplier)
}

// fieldValue resolves the rule's logical field and reads it from the
// original record. Unresolvable fields skip the rule with a Warning.
func (p *RecordProcessor) fieldValue(agent AgentID, rec *TransactionRecord, rule Rule, stage RuleType) (any, FieldMapping, bool) {
	mapping, ok := p.fields.Resolve(rule.Field)
	if !ok {
		p.log.Append(LogEntry{
			RuleType: RuleWarning,
			RuleID:   rule.ID,
			RecordID: rec.RecordID,
			AgentID:  agent,
			Message:  fmt.Sprintf("%s rule field %q has no mapping; rule skipped", stage, rule.Field),
		})
		return nil, FieldMapping{}, false
	}
	return rec.Fields[mapping.SourceField], mapping, true
}

func (p *RecordProcessor) logIssue(issue *EvalIssue, ruleID RuleID, agent AgentID, recordID string) {
	p.log.Append(LogEntry{
		RuleType: issue.Kind,
		RuleID:   ruleID,
		RecordID: recordID,
		AgentID:  agent,
		Message:  issue.Message,
	})
}
