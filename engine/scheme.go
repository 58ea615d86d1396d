/*
scheme.go - Scheme configuration types

PURPOSE:
  A Scheme is the complete declarative configuration for one incentive
  program: where the base data lives, which rules qualify/exclude/adjust,
  how the credited amount converts to a payout, and how credit is split
  up the reporting hierarchy.

KEY CONCEPTS:
  - BaseMapping: The physical columns of the base data file
  - Rule: One field/operator/value condition
  - AdjustmentRule: A condition plus its monetary effect
  - PayoutTier: A marginal payout band
  - CreditSplit: A percentage routed to a hierarchy level
  - FieldCatalog/FieldMapping: Logical field name -> physical column,
    data type, evaluation level, and aggregation mode

RULE ORDERING:
  Every rule list is ordered, and order is semantic:
  - Exclusions: first match excludes the record and stops
  - Adjustments: later rules see the running amount/multiplier
  - Qualifications: first failure disqualifies the agent and stops

SEE ALSO:
  - fieldmap.go: Catalog merging and lookup
  - condition.go: Operator evaluation per data type
*/
package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMS
// =============================================================================

type DataType string

const (
	TypeNumber DataType = "Number"
	TypeString DataType = "String"
	TypeDate   DataType = "Date"
)

type EvalLevel string

const (
	LevelPerRecord EvalLevel = "PerRecord"
	LevelAgent     EvalLevel = "Agent"
)

type Aggregation string

const (
	AggSum           Aggregation = "Sum"
	AggCount         Aggregation = "Count"
	AggAvg           Aggregation = "Avg"
	AggMin           Aggregation = "Min"
	AggMax           Aggregation = "Max"
	AggNotApplicable Aggregation = "NotApplicable"
)

// Operator names are stored upper-case; ParseOperator normalizes.
type Operator string

const (
	OpEq          Operator = "="
	OpNeq         Operator = "!="
	OpGt          Operator = ">"
	OpGte         Operator = ">="
	OpLt          Operator = "<"
	OpLte         Operator = "<="
	OpContains    Operator = "CONTAINS"
	OpNotContains Operator = "NOT CONTAINS"
	OpStartsWith  Operator = "STARTSWITH"
	OpEndsWith    Operator = "ENDSWITH"
	OpIn          Operator = "IN"
	OpNotIn       Operator = "NOT IN"
)

func ParseOperator(s string) Operator {
	return Operator(strings.ToUpper(strings.TrimSpace(s)))
}

type AdjustTarget string

const (
	TargetAmount AdjustTarget = "Amount"
	TargetRate   AdjustTarget = "Rate"
)

type AdjustMethod string

const (
	MethodPercentage AdjustMethod = "Percentage"
	MethodFixed      AdjustMethod = "Fixed"
)

// =============================================================================
// RULES
// =============================================================================

// Rule is a single condition against a logical field.
type Rule struct {
	ID       RuleID
	Field    string
	Operator Operator
	Value    string
}

// AdjustmentRule is a condition plus the monetary effect applied when the
// condition matches. The condition is always evaluated against the
// original record fields; the effect composes with earlier adjustments.
type AdjustmentRule struct {
	Rule
	Target AdjustTarget
	Method AdjustMethod
	// Factor is the adjustment value: a percentage when Method is
	// Percentage, an absolute amount or multiplicative factor when Fixed.
	Factor decimal.Decimal
}

// CustomRule is an opaque declaration handed to the CustomRuleHook.
// The engine assigns it no behavior of its own.
type CustomRule struct {
	ID     RuleID
	Name   string
	Params map[string]any
}

// =============================================================================
// PAYOUT TIERS AND CREDIT SPLITS
// =============================================================================

// PayoutTier is one marginal band. A nil To marks the final, unbounded
// tier. Rate is a percentage when IsPercentage, otherwise a per-unit
// multiplier applied to the band's slice.
type PayoutTier struct {
	From         decimal.Decimal
	To           *decimal.Decimal
	Rate         decimal.Decimal
	IsPercentage bool
}

// CreditSplit routes Percent of the base payout to the manager found at
// Level. Declared order defines traversal depth through the hierarchy.
type CreditSplit struct {
	Level   string
	Percent decimal.Decimal
}

// =============================================================================
// HIERARCHY
// =============================================================================

// HierarchyRecord states who manages an agent at a level, and when.
// A zero ReportsTo means the relationship is open-ended.
type HierarchyRecord struct {
	AgentID     AgentID
	Level       string
	ManagerID   AgentID
	ReportsFrom Date
	ReportsTo   Date
}

// =============================================================================
// FIELD CATALOG
// =============================================================================

// FieldMapping binds a logical field name to its physical source column
// and declares how the field is typed, evaluated, and aggregated.
type FieldMapping struct {
	Name        string
	SourceField string
	DataType    DataType
	Level       EvalLevel
	Aggregation Aggregation
}

// FieldCatalog holds the scheme's field lists. They are merged into a
// single lookup table in this declared order; later entries for the same
// logical name overwrite earlier ones.
type FieldCatalog struct {
	Base          []FieldMapping
	Qualification []FieldMapping
	Adjustment    []FieldMapping
	Exclusion     []FieldMapping
	Credit        []FieldMapping
}

// =============================================================================
// SCHEME
// =============================================================================

// BaseMapping names the physical columns of the base data file.
type BaseMapping struct {
	SourceFile   string
	AgentField   string
	AmountField  string
	TxnIDField   string
	TxnDateField string
}

// Scheme is the full configuration for one incentive program run.
type Scheme struct {
	ID   string
	Name string

	EffectiveFrom Date
	EffectiveTo   Date // optional; zero means open-ended

	Base BaseMapping

	Qualification []Rule
	Exclusion     []Rule
	Adjustment    []AdjustmentRule
	// Credit rules gate the distribution pass per agent: each must be
	// satisfied by at least one non-excluded record before any split
	// is paid out. An empty list gates nothing.
	Credit []Rule
	Custom []CustomRule

	Tiers        []PayoutTier
	CreditSplits []CreditSplit

	// HierarchyFile names the dataset table holding HierarchyRecords.
	HierarchyFile string

	Fields FieldCatalog
}

// Validate performs the structural self-checks that abort a run.
// Recoverable per-record and per-rule anomalies are NOT checked here;
// those are logged and skipped during execution.
func (s *Scheme) Validate() error {
	if s.Base.SourceFile == "" {
		return &SchemeValidationError{Field: "base.sourceFile"}
	}
	if s.Base.AgentField == "" {
		return &SchemeValidationError{Field: "base.agentField"}
	}
	if s.Base.AmountField == "" {
		return &SchemeValidationError{Field: "base.amountField"}
	}
	if s.Base.TxnIDField == "" {
		return &SchemeValidationError{Field: "base.txnIdField"}
	}
	if s.Base.TxnDateField == "" {
		return &SchemeValidationError{Field: "base.txnDateField"}
	}
	if s.EffectiveFrom.IsZero() {
		return &SchemeValidationError{Field: "effectiveFrom"}
	}
	return nil
}
