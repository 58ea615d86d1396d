package engine_test

import (
	"time"

	"github.com/warp/incentive-engine/engine"
)

// Shared fixtures for the engine tests. The scheme builder returns the
// minimal valid configuration; tests add the rules they exercise.

func testScheme() *engine.Scheme {
	return &engine.Scheme{
		ID:            "scheme-q2",
		Name:          "Q2 Sales Incentive",
		EffectiveFrom: engine.NewDate(2024, time.April, 1),
		Base: engine.BaseMapping{
			SourceFile:   "sales.csv",
			AgentField:   "agentId",
			AmountField:  "amount",
			TxnIDField:   "txnId",
			TxnDateField: "txnDate",
		},
		Tiers: []engine.PayoutTier{pctTier("0", nil, "10")},
	}
}

func salesRow(txn, agent string, amount any, date string, extra map[string]any) engine.Row {
	row := engine.Row{
		"txnId":   txn,
		"agentId": agent,
		"amount":  amount,
		"txnDate": date,
	}
	for k, v := range extra {
		row[k] = v
	}
	return row
}

func salesTable(rows ...engine.Row) engine.Table {
	return engine.Table{
		Columns: []string{"txnId", "agentId", "amount", "txnDate"},
		Rows:    rows,
	}
}

func record(id string, fields engine.Row) *engine.TransactionRecord {
	return &engine.TransactionRecord{RecordID: id, Fields: fields}
}

func entriesOfType(log *engine.RunLog, kind engine.RuleType) []engine.LogEntry {
	var out []engine.LogEntry
	for _, e := range log.Entries() {
		if e.RuleType == kind {
			out = append(out, e)
		}
	}
	return out
}
