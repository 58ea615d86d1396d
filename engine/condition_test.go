package engine_test

import (
	"testing"

	"github.com/warp/incentive-engine/engine"
)

func TestEvaluateCondition_Number(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		op        engine.Operator
		rule      string
		want      bool
		wantIssue bool
	}{
		{name: "eq string number", value: "100", op: engine.OpEq, rule: "100", want: true},
		{name: "eq float", value: 100.0, op: engine.OpEq, rule: "100", want: true},
		{name: "eq exact decimal", value: "0.30", op: engine.OpEq, rule: "0.3", want: true},
		{name: "neq", value: "100", op: engine.OpNeq, rule: "99", want: true},
		{name: "gt true", value: "100.01", op: engine.OpGt, rule: "100", want: true},
		{name: "gt false on equal", value: "100", op: engine.OpGt, rule: "100", want: false},
		{name: "gte on equal", value: "100", op: engine.OpGte, rule: "100", want: true},
		{name: "lt", value: "-5", op: engine.OpLt, rule: "0", want: true},
		{name: "lte", value: "0", op: engine.OpLte, rule: "0", want: true},
		{name: "record not a number", value: "abc", op: engine.OpGt, rule: "100", want: false, wantIssue: true},
		{name: "rule not a number", value: "100", op: engine.OpGt, rule: "abc", want: false, wantIssue: true},
		{name: "string operator on number", value: "100", op: engine.OpContains, rule: "10", want: false, wantIssue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, issue := engine.EvaluateCondition(tt.value, tt.op, tt.rule, engine.TypeNumber)
			if got != tt.want {
				t.Errorf("EvaluateCondition() = %v, want %v", got, tt.want)
			}
			if (issue != nil) != tt.wantIssue {
				t.Errorf("issue = %v, wantIssue %v", issue, tt.wantIssue)
			}
		})
	}
}

func TestEvaluateCondition_Date(t *testing.T) {
	tests := []struct {
		name  string
		value any
		op    engine.Operator
		rule  string
		want  bool
	}{
		{name: "eq same day", value: "2024-03-10", op: engine.OpEq, rule: "2024-03-10", want: true},
		{name: "eq ignores time of day", value: "2024-03-10T18:30:00Z", op: engine.OpEq, rule: "2024-03-10", want: true},
		{name: "gt strictly later day", value: "2024-03-11", op: engine.OpGt, rule: "2024-03-10", want: true},
		{name: "gt same day is false", value: "2024-03-10T23:59:00Z", op: engine.OpGt, rule: "2024-03-10", want: false},
		{name: "lte", value: "2024-03-10", op: engine.OpLte, rule: "2024-03-10", want: true},
		{name: "unparseable record date", value: "not-a-date", op: engine.OpEq, rule: "2024-03-10", want: false},
		{name: "unparseable rule date", value: "2024-03-10", op: engine.OpEq, rule: "whenever", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := engine.EvaluateCondition(tt.value, tt.op, tt.rule, engine.TypeDate)
			if got != tt.want {
				t.Errorf("EvaluateCondition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_String(t *testing.T) {
	tests := []struct {
		name  string
		value any
		op    engine.Operator
		rule  string
		want  bool
	}{
		{name: "eq case-insensitive trimmed", value: "  Retail ", op: engine.OpEq, rule: "retail", want: true},
		{name: "neq", value: "online", op: engine.OpNeq, rule: "retail", want: true},
		{name: "contains", value: "north-east-2", op: engine.OpContains, rule: "EAST", want: true},
		{name: "not contains", value: "north-west", op: engine.OpNotContains, rule: "east", want: true},
		{name: "startswith", value: "AGT-1001", op: engine.OpStartsWith, rule: "agt-", want: true},
		{name: "endswith", value: "policy.pdf", op: engine.OpEndsWith, rule: ".PDF", want: true},
		{name: "in membership", value: "Gold", op: engine.OpIn, rule: "silver, gold, platinum", want: true},
		{name: "in miss", value: "bronze", op: engine.OpIn, rule: "silver, gold, platinum", want: false},
		{name: "not in", value: "bronze", op: engine.OpNotIn, rule: "silver, gold", want: true},
		{name: "numeric operator on string", value: "abc", op: engine.OpGt, rule: "abb", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := engine.EvaluateCondition(tt.value, tt.op, tt.rule, engine.TypeString)
			if got != tt.want {
				t.Errorf("EvaluateCondition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateCondition_MissingValue(t *testing.T) {
	// A missing record value satisfies only "=" against an empty rule value.
	for _, dt := range []engine.DataType{engine.TypeNumber, engine.TypeString, engine.TypeDate} {
		got, issue := engine.EvaluateCondition(nil, engine.OpEq, "", dt)
		if !got || issue != nil {
			t.Errorf("%s: nil = \"\" should match without issue, got %v issue %v", dt, got, issue)
		}
		got, _ = engine.EvaluateCondition(nil, engine.OpEq, "x", dt)
		if got {
			t.Errorf("%s: nil = \"x\" should not match", dt)
		}
		got, _ = engine.EvaluateCondition(nil, engine.OpNeq, "", dt)
		if got {
			t.Errorf("%s: nil != \"\" should not match", dt)
		}
		got, _ = engine.EvaluateCondition("   ", engine.OpGt, "0", dt)
		if got {
			t.Errorf("%s: blank > 0 should not match", dt)
		}
	}
}

func TestEvaluateCondition_UnknownOperatorNeverPanics(t *testing.T) {
	got, issue := engine.EvaluateCondition("x", engine.Operator("LIKE"), "y", engine.TypeString)
	if got {
		t.Error("unknown operator must evaluate to false")
	}
	if issue == nil || issue.Kind != engine.RuleWarning {
		t.Errorf("unknown operator must yield a Warning issue, got %+v", issue)
	}
}
