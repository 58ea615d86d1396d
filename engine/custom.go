package engine

import "github.com/shopspring/decimal"

// =============================================================================
// CUSTOM RULE HOOK
// =============================================================================
// Custom rules are declared in the scheme but carry no engine-defined
// behavior. The hook is the stable extension point: it receives an
// agent's processed records and the declared custom-rule list and returns
// a decimal delta added to the agent's credited amount before
// qualification. The default hook returns zero; the engine still emits a
// Custom log entry whenever custom rules are declared so their presence
// is visible in the audit trail.

type CustomRuleHook interface {
	Apply(agent AgentID, recs []*TransactionRecord, rules []CustomRule) (decimal.Decimal, error)
}

// NoopHook is the default CustomRuleHook: no monetary change.
type NoopHook struct{}

func (NoopHook) Apply(AgentID, []*TransactionRecord, []CustomRule) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

var _ CustomRuleHook = NoopHook{}
