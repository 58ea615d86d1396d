// Package store provides RunStore implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/warp/incentive-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var (
	ErrDuplicateRun = errors.New("run already saved")
	ErrRunNotFound  = errors.New("run not found")
)

type Memory struct {
	mu   sync.RWMutex
	runs map[string]*engine.Result
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[string]*engine.Result)}
}

func (m *Memory) SaveRun(_ context.Context, res *engine.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[res.RunID]; ok {
		return ErrDuplicateRun
	}
	m.runs[res.RunID] = res
	return nil
}

func (m *Memory) Run(_ context.Context, runID string) (*engine.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return res, nil
}

func (m *Memory) Runs(_ context.Context) ([]engine.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]*engine.Result, 0, len(m.runs))
	for _, res := range m.runs {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FinishedAt.After(results[j].FinishedAt) })

	out := make([]engine.Summary, 0, len(results))
	for _, res := range results {
		out = append(out, res.Summary())
	}
	return out, nil
}

var _ engine.RunStore = (*Memory)(nil)
