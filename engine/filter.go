/*
filter.go - Transaction window filtering and agent grouping

PURPOSE:
  The first pipeline stage. Takes every row of the base data file, keeps
  those whose transaction date parses and lies inside the scheme window
  [effectiveFrom, asOf] inclusive, and groups the survivors by agent.

DROP POLICY:
  Nothing is silently discarded. Rows with an unparseable or missing
  transaction date, and rows with no agent identifier, are routed to a
  dropped bucket and logged as Warnings.

ORDERING:
  Rows keep their input order within each agent group. Downstream
  aggregation is a commutative sum, so no further ordering is guaranteed
  or required.
*/
package engine

import (
	"fmt"
	"strings"
)

// FilteredRecords is the output of the filtering stage.
type FilteredRecords struct {
	// Groups maps each agent to its in-window records, input order.
	Groups map[AgentID][]*TransactionRecord
	// AgentOrder lists agents by first appearance in the base data.
	AgentOrder []AgentID
	// Dropped holds rows excluded before processing: bad dates, dates
	// outside the window, or missing agent ids.
	Dropped []*TransactionRecord
}

// FilterRecords builds FilteredRecords from the base table. Synthetic
// record ids are assigned from the row's position so they are stable for
// a given input.
func FilterRecords(base Table, s *Scheme, asOf Date, log *RunLog) *FilteredRecords {
	out := &FilteredRecords{Groups: make(map[AgentID][]*TransactionRecord)}

	for i, row := range base.Rows {
		rec := &TransactionRecord{
			RecordID: fmt.Sprintf("rec-%d", i),
			TxnID:    stringField(row, s.Base.TxnIDField),
			Fields:   row,
		}

		date, ok := ParseDate(row[s.Base.TxnDateField])
		if !ok {
			out.Dropped = append(out.Dropped, rec)
			log.Append(LogEntry{
				RuleType: RuleWarning,
				RecordID: rec.RecordID,
				Message:  fmt.Sprintf("transaction date %v is missing or unparseable; record dropped", row[s.Base.TxnDateField]),
			})
			continue
		}
		rec.Date = date

		if !date.InWindow(s.EffectiveFrom, asOf) {
			out.Dropped = append(out.Dropped, rec)
			continue
		}

		agent := AgentID(strings.TrimSpace(stringField(row, s.Base.AgentField)))
		if agent == "" {
			out.Dropped = append(out.Dropped, rec)
			log.Append(LogEntry{
				RuleType: RuleWarning,
				RecordID: rec.RecordID,
				Message:  "record has no agent identifier; routed to unassigned bucket",
			})
			continue
		}
		rec.AgentID = agent

		if _, seen := out.Groups[agent]; !seen {
			out.AgentOrder = append(out.AgentOrder, agent)
		}
		out.Groups[agent] = append(out.Groups[agent], rec)
	}
	return out
}

func stringField(row Row, name string) string {
	v, ok := row[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
