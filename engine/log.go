/*
log.go - Append-only structured log sink

PURPOSE:
  Every rule firing, skip, and data anomaly in a run is recorded here and
  returned inside the Result. Diagnostics are part of the output, not a
  side channel: callers render or persist them however they like.

INVARIANTS:
  1. APPEND-ONLY: entries are never modified or removed
  2. ORDERED: Seq is a run-wide monotonic sequence; per-agent order is
     the order entries were emitted for that agent
  3. SAFE FOR CONCURRENT APPEND: the per-agent pipeline runs on multiple
     goroutines, each appending only its own agent's entries
*/
package engine

import (
	"sync"
	"time"
)

// RunLog collects LogEntry values for one run.
type RunLog struct {
	mu      sync.Mutex
	nextSeq int
	entries []LogEntry
}

func NewRunLog() *RunLog {
	return &RunLog{}
}

// Append stamps the entry with the next sequence number and the current
// UTC time (unless the caller already set one) and stores it.
func (l *RunLog) Append(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSeq++
	e.Seq = l.nextSeq
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of all entries in emission order.
func (l *RunLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// PerAgent groups entries by agent, preserving emission order within each
// agent. Entries with no agent (dropped rows, run-level warnings) group
// under the empty AgentID.
func (l *RunLog) PerAgent() map[AgentID][]LogEntry {
	out := make(map[AgentID][]LogEntry)
	for _, e := range l.Entries() {
		out[e.AgentID] = append(out[e.AgentID], e)
	}
	return out
}

// Len reports the number of entries appended so far.
func (l *RunLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
