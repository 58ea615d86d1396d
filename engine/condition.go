/*
condition.go - Typed condition evaluation

PURPOSE:
  Compares a record (or aggregate) value against a rule's operator and
  literal, under the field's declared data type. This is the single
  comparison primitive behind exclusion, adjustment, qualification, and
  credit rules.

CONTRACT:
  EvaluateCondition never panics and never returns an error. A value that
  cannot be coerced, or an operator the data type does not support, makes
  the condition false and yields an EvalIssue the caller turns into a
  DataError or Warning log entry.

TYPE SEMANTICS:
  Number: exact decimal comparison (=, !=, >, >=, <, <=)
  Date:   whole-day UTC comparison, same six operators
  String: case-insensitive, trimmed; =, !=, CONTAINS, NOT CONTAINS,
          STARTSWITH, ENDSWITH, IN, NOT IN (IN sets are comma-delimited)

NULL SEMANTICS:
  A missing record value satisfies only "=" against an empty rule value.
  Every other operator/value combination is false.
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EvalIssue reports why a condition evaluation degraded to false.
// Kind is RuleDataError for coercion failures and RuleWarning for
// unsupported operators.
type EvalIssue struct {
	Kind    RuleType
	Message string
}

// EvaluateCondition compares recordValue against ruleValue under the
// operator and data type. The returned issue, when non-nil, must be
// logged by the caller with rule/record/agent context attached.
func EvaluateCondition(recordValue any, op Operator, ruleValue string, dt DataType) (bool, *EvalIssue) {
	if isMissing(recordValue) {
		return op == OpEq && strings.TrimSpace(ruleValue) == "", nil
	}

	switch dt {
	case TypeNumber:
		return evaluateNumber(recordValue, op, ruleValue)
	case TypeDate:
		return evaluateDate(recordValue, op, ruleValue)
	case TypeString:
		return evaluateString(recordValue, op, ruleValue)
	default:
		return false, &EvalIssue{
			Kind:    RuleWarning,
			Message: fmt.Sprintf("unknown data type %q", dt),
		}
	}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// =============================================================================
// NUMBER
// =============================================================================

func evaluateNumber(recordValue any, op Operator, ruleValue string) (bool, *EvalIssue) {
	left, ok := ToDecimal(recordValue)
	if !ok {
		return false, &EvalIssue{
			Kind:    RuleDataError,
			Message: fmt.Sprintf("record value %v is not a number", recordValue),
		}
	}
	right, ok := ToDecimal(ruleValue)
	if !ok {
		return false, &EvalIssue{
			Kind:    RuleDataError,
			Message: fmt.Sprintf("rule value %q is not a number", ruleValue),
		}
	}

	cmp := left.Cmp(right)
	switch op {
	case OpEq:
		return cmp == 0, nil
	case OpNeq:
		return cmp != 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	default:
		return false, unsupportedOp(op, TypeNumber)
	}
}

// ToDecimal coerces a raw field value to an exact decimal.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// =============================================================================
// DATE
// =============================================================================

func evaluateDate(recordValue any, op Operator, ruleValue string) (bool, *EvalIssue) {
	left, ok := ParseDate(recordValue)
	if !ok {
		return false, &EvalIssue{
			Kind:    RuleDataError,
			Message: fmt.Sprintf("record value %v is not a date", recordValue),
		}
	}
	right, ok := ParseDate(ruleValue)
	if !ok {
		return false, &EvalIssue{
			Kind:    RuleDataError,
			Message: fmt.Sprintf("rule value %q is not a date", ruleValue),
		}
	}

	switch op {
	case OpEq:
		return left.Equal(right), nil
	case OpNeq:
		return !left.Equal(right), nil
	case OpGt:
		return left.After(right), nil
	case OpGte:
		return left.AfterOrEqual(right), nil
	case OpLt:
		return left.Before(right), nil
	case OpLte:
		return left.BeforeOrEqual(right), nil
	default:
		return false, unsupportedOp(op, TypeDate)
	}
}

// =============================================================================
// STRING
// =============================================================================

func evaluateString(recordValue any, op Operator, ruleValue string) (bool, *EvalIssue) {
	left := normalizeString(recordValue)
	right := strings.ToLower(strings.TrimSpace(ruleValue))

	switch op {
	case OpEq:
		return left == right, nil
	case OpNeq:
		return left != right, nil
	case OpContains:
		return strings.Contains(left, right), nil
	case OpNotContains:
		return !strings.Contains(left, right), nil
	case OpStartsWith:
		return strings.HasPrefix(left, right), nil
	case OpEndsWith:
		return strings.HasSuffix(left, right), nil
	case OpIn:
		return inSet(left, ruleValue), nil
	case OpNotIn:
		return !inSet(left, ruleValue), nil
	default:
		return false, unsupportedOp(op, TypeString)
	}
}

func normalizeString(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	default:
		s = fmt.Sprintf("%v", v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// inSet treats the rule value as a comma-delimited literal set and tests
// membership by case-insensitive equality to any member.
func inSet(value, ruleValue string) bool {
	for _, member := range strings.Split(ruleValue, ",") {
		if strings.ToLower(strings.TrimSpace(member)) == value {
			return true
		}
	}
	return false
}

func unsupportedOp(op Operator, dt DataType) *EvalIssue {
	return &EvalIssue{
		Kind:    RuleWarning,
		Message: fmt.Sprintf("operator %q not supported for %s fields", op, dt),
	}
}
