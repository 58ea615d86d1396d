/*
hierarchy.go - Manager lookup over the reporting hierarchy

PURPOSE:
  Answers "who manages agent X at level L, as of this run?" by scanning
  hierarchy records. A record applies when its validity window overlaps
  the run interval [schemeEffectiveFrom, runAsOfDate]:

      reportsFrom <= asOf  AND  reportsToEnd >= effectiveFrom

  Agent ids and level labels match case-insensitively. When several
  records overlap the window, the FIRST in input order wins; the
  ambiguity is surfaced as a Warning so the configuration can be fixed.

  A failed lookup is not an error: it simply means no distribution to
  that role.
*/
package engine

import (
	"fmt"
	"strings"
)

type HierarchyResolver struct {
	records []HierarchyRecord
	log     *RunLog
}

func NewHierarchyResolver(records []HierarchyRecord, log *RunLog) *HierarchyResolver {
	return &HierarchyResolver{records: records, log: log}
}

// FindManager returns the manager of agent at level, valid for the run
// interval, or false when none exists.
func (h *HierarchyResolver) FindManager(agent AgentID, level string, effectiveFrom, asOf Date) (AgentID, bool) {
	wantAgent := strings.ToLower(strings.TrimSpace(string(agent)))
	wantLevel := strings.ToLower(strings.TrimSpace(level))

	var found AgentID
	matches := 0
	for _, rec := range h.records {
		if strings.ToLower(strings.TrimSpace(string(rec.AgentID))) != wantAgent {
			continue
		}
		if strings.ToLower(strings.TrimSpace(rec.Level)) != wantLevel {
			continue
		}
		if !overlapsWindow(rec, effectiveFrom, asOf) {
			continue
		}
		matches++
		if matches == 1 {
			found = rec.ManagerID
		}
	}

	if matches > 1 {
		h.log.Append(LogEntry{
			RuleType: RuleWarning,
			AgentID:  agent,
			Message:  fmt.Sprintf("%d hierarchy records overlap the run window for agent %q level %q; first in input order used", matches, agent, level),
		})
	}
	return found, matches > 0
}

func overlapsWindow(rec HierarchyRecord, effectiveFrom, asOf Date) bool {
	if rec.ReportsFrom.After(asOf) {
		return false
	}
	// Open-ended relationships never expire.
	if rec.ReportsTo.IsZero() {
		return true
	}
	return rec.ReportsTo.AfterOrEqual(effectiveFrom)
}

// ParseHierarchyTable reads HierarchyRecords out of a dataset table.
// Column headers are matched case-insensitively against the canonical
// names agentId, level, managerId, reportsFrom, reportsToEnd. Rows with
// unparseable validity dates keep a zero date on that side (treated as
// unbounded) and are logged.
func ParseHierarchyTable(t Table, log *RunLog) []HierarchyRecord {
	cols := hierarchyColumns(t.Columns)
	records := make([]HierarchyRecord, 0, len(t.Rows))

	for i, row := range t.Rows {
		rec := HierarchyRecord{
			AgentID:   AgentID(stringField(row, cols.agent)),
			Level:     stringField(row, cols.level),
			ManagerID: AgentID(stringField(row, cols.manager)),
		}
		if rec.AgentID == "" || rec.ManagerID == "" {
			log.Append(LogEntry{
				RuleType: RuleWarning,
				Message:  fmt.Sprintf("hierarchy row %d missing agent or manager id; row skipped", i),
			})
			continue
		}

		if raw := row[cols.from]; !isMissing(raw) {
			if d, ok := ParseDate(raw); ok {
				rec.ReportsFrom = d
			} else {
				log.Append(LogEntry{
					RuleType: RuleWarning,
					AgentID:  rec.AgentID,
					Message:  fmt.Sprintf("hierarchy row %d has unparseable reportsFrom %v; treated as unbounded", i, raw),
				})
			}
		}
		if raw := row[cols.to]; !isMissing(raw) {
			if d, ok := ParseDate(raw); ok {
				rec.ReportsTo = d
			} else {
				log.Append(LogEntry{
					RuleType: RuleWarning,
					AgentID:  rec.AgentID,
					Message:  fmt.Sprintf("hierarchy row %d has unparseable reportsToEnd %v; treated as unbounded", i, raw),
				})
			}
		}
		records = append(records, rec)
	}
	return records
}

type hierarchyCols struct {
	agent, level, manager, from, to string
}

func hierarchyColumns(columns []string) hierarchyCols {
	// Canonical defaults; actual headers may differ only in case.
	cols := hierarchyCols{
		agent:   "agentId",
		level:   "level",
		manager: "managerId",
		from:    "reportsFrom",
		to:      "reportsToEnd",
	}
	for _, c := range columns {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "agentid":
			cols.agent = c
		case "level":
			cols.level = c
		case "managerid":
			cols.manager = c
		case "reportsfrom":
			cols.from = c
		case "reportstoend", "reportsto":
			cols.to = c
		}
	}
	return cols
}
