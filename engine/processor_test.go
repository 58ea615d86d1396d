package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/engine"
)

func newProcessor(s *engine.Scheme, log *engine.RunLog) *engine.RecordProcessor {
	return engine.NewRecordProcessor(s, engine.BuildFieldTable(s), log)
}

func TestProcess_ExclusionFirstMatchShortCircuits(t *testing.T) {
	// GIVEN two exclusion rules that both match the record
	s := testScheme()
	s.Fields.Exclusion = []engine.FieldMapping{{Name: "channel"}}
	s.Exclusion = []engine.Rule{
		{ID: "EX-1", Field: "channel", Operator: engine.OpEq, Value: "internal"},
		{ID: "EX-2", Field: "channel", Operator: engine.OpContains, Value: "inter"},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 1000, "2024-05-01", map[string]any{"channel": "internal"}))

	// WHEN the record is processed
	_, credited := newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	// THEN only the first rule is recorded and the record credits zero
	assert.True(t, rec.Excluded)
	assert.Equal(t, engine.RuleID("EX-1"), rec.ExclusionRule)
	assert.True(t, rec.AdjustedAmount.IsZero())
	assert.True(t, credited.IsZero())

	exclusions := entriesOfType(runLog, engine.RuleExclusion)
	require.Len(t, exclusions, 1)
	assert.Equal(t, engine.RuleID("EX-1"), exclusions[0].RuleID)
}

func TestProcess_ExcludedRecordStillCountsInBase(t *testing.T) {
	s := testScheme()
	s.Fields.Exclusion = []engine.FieldMapping{{Name: "channel"}}
	s.Exclusion = []engine.Rule{
		{ID: "EX-1", Field: "channel", Operator: engine.OpEq, Value: "internal"},
	}
	runLog := engine.NewRunLog()

	recs := []*engine.TransactionRecord{
		record("rec-0", salesRow("T1", "A1", 1000, "2024-05-01", map[string]any{"channel": "internal"})),
		record("rec-1", salesRow("T2", "A1", 500, "2024-05-02", map[string]any{"channel": "retail"})),
	}

	totalBase, credited := newProcessor(s, runLog).Process("A1", recs)

	assert.Equal(t, "1500", totalBase.String())
	assert.Equal(t, "500", credited.String())
}

func TestProcess_AdjustmentsCompose(t *testing.T) {
	// GIVEN a chain of adjustments whose effects stack:
	//   +10% on the amount, then +50 fixed, then a 2x rate multiplier
	s := testScheme()
	s.Fields.Adjustment = []engine.FieldMapping{{Name: "tier"}}
	s.Adjustment = []engine.AdjustmentRule{
		{
			Rule:   engine.Rule{ID: "ADJ-1", Field: "tier", Operator: engine.OpEq, Value: "gold"},
			Target: engine.TargetAmount, Method: engine.MethodPercentage, Factor: dec("10"),
		},
		{
			Rule:   engine.Rule{ID: "ADJ-2", Field: "tier", Operator: engine.OpEq, Value: "gold"},
			Target: engine.TargetAmount, Method: engine.MethodFixed, Factor: dec("50"),
		},
		{
			Rule:   engine.Rule{ID: "ADJ-3", Field: "tier", Operator: engine.OpEq, Value: "gold"},
			Target: engine.TargetRate, Method: engine.MethodFixed, Factor: dec("2"),
		},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 1000, "2024-05-01", map[string]any{"tier": "gold"}))
	_, credited := newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	// THEN adjusted = (1000*1.10 + 50) * 2 = 2300
	assert.Equal(t, "2300", rec.AdjustedAmount.String())
	assert.Equal(t, "2300", credited.String())
	assert.Len(t, entriesOfType(runLog, engine.RuleAdjustment), 3)
}

func TestProcess_AdjustmentConditionsSeeOriginalFields(t *testing.T) {
	// The first rule raises the running amount above 1000, but the second
	// rule's "amount = 1000" condition still matches: conditions always
	// read the original record.
	s := testScheme()
	s.Adjustment = []engine.AdjustmentRule{
		{
			Rule:   engine.Rule{ID: "ADJ-1", Field: "amount", Operator: engine.OpEq, Value: "1000"},
			Target: engine.TargetAmount, Method: engine.MethodPercentage, Factor: dec("10"),
		},
		{
			Rule:   engine.Rule{ID: "ADJ-2", Field: "amount", Operator: engine.OpEq, Value: "1000"},
			Target: engine.TargetAmount, Method: engine.MethodFixed, Factor: dec("25"),
		},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 1000, "2024-05-01", nil))
	newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	assert.Equal(t, "1125", rec.AdjustedAmount.String())
}

func TestProcess_RatePercentageScalesMultiplier(t *testing.T) {
	s := testScheme()
	s.Adjustment = []engine.AdjustmentRule{
		{
			Rule:   engine.Rule{ID: "ADJ-1", Field: "amount", Operator: engine.OpGt, Value: "0"},
			Target: engine.TargetRate, Method: engine.MethodPercentage, Factor: dec("150"),
		},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 200, "2024-05-01", nil))
	newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	assert.Equal(t, "300", rec.AdjustedAmount.String())
}

func TestProcess_UnknownAdjustmentTargetHasNoEffect(t *testing.T) {
	s := testScheme()
	s.Adjustment = []engine.AdjustmentRule{
		{
			Rule:   engine.Rule{ID: "ADJ-X", Field: "amount", Operator: engine.OpGt, Value: "0"},
			Target: engine.AdjustTarget("Bonus"), Method: engine.MethodFixed, Factor: dec("999"),
		},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 100, "2024-05-01", nil))
	newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	assert.Equal(t, "100", rec.AdjustedAmount.String())
	assert.Empty(t, entriesOfType(runLog, engine.RuleAdjustment))
	require.Len(t, entriesOfType(runLog, engine.RuleWarning), 1)
}

func TestProcess_UnparseableAmountExcludesRecord(t *testing.T) {
	s := testScheme()
	runLog := engine.NewRunLog()

	recs := []*engine.TransactionRecord{
		record("rec-0", salesRow("T1", "A1", "oops", "2024-05-01", nil)),
		record("rec-1", salesRow("T2", "A1", 250, "2024-05-02", nil)),
	}

	totalBase, credited := newProcessor(s, runLog).Process("A1", recs)

	assert.True(t, recs[0].Excluded)
	assert.True(t, recs[0].BaseAmount.IsZero())
	assert.Equal(t, "250", totalBase.String())
	assert.Equal(t, "250", credited.String())
	require.Len(t, entriesOfType(runLog, engine.RuleDataError), 1)
}

func TestProcess_UnmappedRuleFieldSkipsRule(t *testing.T) {
	s := testScheme()
	s.Exclusion = []engine.Rule{
		{ID: "EX-1", Field: "ghost", Operator: engine.OpEq, Value: "x"},
	}
	runLog := engine.NewRunLog()

	rec := record("rec-0", salesRow("T1", "A1", 100, "2024-05-01", nil))
	newProcessor(s, runLog).Process("A1", []*engine.TransactionRecord{rec})

	assert.False(t, rec.Excluded)
	assert.Equal(t, "100", rec.AdjustedAmount.String())
	require.Len(t, entriesOfType(runLog, engine.RuleWarning), 1)
}
