/*
distribute.go - Credit distribution up the hierarchy

PURPOSE:
  Splits a qualified agent's base payout across hierarchy levels. For the
  split at declared position i, the manager chain is walked from the
  originating agent through the levels of splits 0..i in order; the agent
  found at the end of the chain receives basePayout * percent / 100.
  Resolving a deep level therefore requires every shallower level on the
  way to resolve first.

FAILURE POLICY:
  A chain step with no valid manager logs a Warning and aborts only that
  split; remaining splits still run. Splits with a non-positive
  percentage or a non-positive resolved amount are skipped without a
  distribution record.

GATING:
  When the scheme declares credit rules, each must be satisfied by at
  least one non-excluded record of the agent before any split is paid.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CreditDistributor struct {
	scheme   *Scheme
	fields   *FieldTable
	resolver *HierarchyResolver
	log      *RunLog
}

func NewCreditDistributor(s *Scheme, fields *FieldTable, resolver *HierarchyResolver, log *RunLog) *CreditDistributor {
	return &CreditDistributor{scheme: s, fields: fields, resolver: resolver, log: log}
}

// Distribute computes the distributions initiated by one agent. Records
// are returned for the caller to merge into the per-manager ledgers; the
// distributor itself never writes shared state.
func (d *CreditDistributor) Distribute(agent AgentID, basePayout decimal.Decimal, recs []*TransactionRecord, asOf Date) []Distribution {
	if basePayout.LessThanOrEqual(decimal.Zero) || len(d.scheme.CreditSplits) == 0 {
		return nil
	}
	if !d.creditRulesSatisfied(agent, recs) {
		return nil
	}

	var out []Distribution
	for i, split := range d.scheme.CreditSplits {
		if split.Percent.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := basePayout.Mul(split.Percent).Div(hundred)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		target, ok := d.resolveChain(agent, i, asOf)
		if !ok {
			continue
		}

		out = append(out, Distribution{
			FromAgent: agent,
			ToAgent:   target,
			Level:     split.Level,
			Percent:   split.Percent,
			Amount:    amount,
		})
		d.log.Append(LogEntry{
			RuleType: RuleCreditSplit,
			AgentID:  agent,
			Message:  fmt.Sprintf("credited %s (%s%% of %s) to %s at %s", amount.StringFixed(2), split.Percent, basePayout.StringFixed(2), target, split.Level),
			Detail: map[string]any{
				"manager": string(target),
				"level":   split.Level,
				"amount":  amount.String(),
			},
		})
	}
	return out
}

// resolveChain walks the manager chain for the split at index i.
func (d *CreditDistributor) resolveChain(agent AgentID, i int, asOf Date) (AgentID, bool) {
	current := agent
	for j := 0; j <= i; j++ {
		level := d.scheme.CreditSplits[j].Level
		manager, ok := d.resolver.FindManager(current, level, d.scheme.EffectiveFrom, asOf)
		if !ok {
			d.log.Append(LogEntry{
				RuleType: RuleWarning,
				AgentID:  agent,
				Message:  fmt.Sprintf("no valid manager for %q at level %q; split %q aborted", current, level, d.scheme.CreditSplits[i].Level),
			})
			return "", false
		}
		current = manager
	}
	return current, true
}

// creditRulesSatisfied applies the declared credit rules as an existence
// gate over the agent's non-excluded records.
func (d *CreditDistributor) creditRulesSatisfied(agent AgentID, recs []*TransactionRecord) bool {
	for _, rule := range d.scheme.Credit {
		mapping, ok := d.fields.Resolve(rule.Field)
		if !ok {
			d.log.Append(LogEntry{
				RuleType: RuleWarning,
				RuleID:   rule.ID,
				AgentID:  agent,
				Message:  fmt.Sprintf("credit rule field %q has no mapping; rule skipped", rule.Field),
			})
			continue
		}

		satisfied := false
		for _, rec := range recs {
			if rec.Excluded {
				continue
			}
			matched, issue := EvaluateCondition(rec.Fields[mapping.SourceField], rule.Operator, rule.Value, mapping.DataType)
			if issue != nil {
				d.log.Append(LogEntry{
					RuleType: issue.Kind,
					RuleID:   rule.ID,
					RecordID: rec.RecordID,
					AgentID:  agent,
					Message:  issue.Message,
				})
			}
			if matched {
				satisfied = true
				break
			}
		}

		if !satisfied {
			d.log.Append(LogEntry{
				RuleType: RuleCreditSplit,
				RuleID:   rule.ID,
				AgentID:  agent,
				Message:  fmt.Sprintf("credit rule not met: %s %s %q; distribution withheld", rule.Field, rule.Operator, rule.Value),
			})
			return false
		}
	}
	return true
}
