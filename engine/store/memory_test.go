package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/engine"
	"github.com/warp/incentive-engine/engine/store"
)

func result(runID string, finished time.Time) *engine.Result {
	return &engine.Result{
		RunID:    runID,
		SchemeID: "scheme-q2",
		AsOf:     engine.NewDate(2024, time.June, 30),
		Agents: map[engine.AgentID]*engine.AgentResult{
			"A1": {AgentID: "A1", Qualified: true, BasePayout: decimal.NewFromInt(60)},
		},
		FinishedAt: finished,
	}
}

func TestMemory_SaveAndLoad(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	res := result("run-1", time.Now())
	require.NoError(t, m.SaveRun(ctx, res))

	loaded, err := m.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res, loaded)
}

func TestMemory_DuplicateRunRejected(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveRun(ctx, result("run-1", time.Now())))
	assert.ErrorIs(t, m.SaveRun(ctx, result("run-1", time.Now())), store.ErrDuplicateRun)
}

func TestMemory_RunNotFound(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestMemory_RunsMostRecentFirst(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.SaveRun(ctx, result("run-old", now.Add(-time.Hour))))
	require.NoError(t, m.SaveRun(ctx, result("run-new", now)))
	require.NoError(t, m.SaveRun(ctx, result("run-mid", now.Add(-time.Minute))))

	summaries, err := m.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "run-new", summaries[0].RunID)
	assert.Equal(t, "run-mid", summaries[1].RunID)
	assert.Equal(t, "run-old", summaries[2].RunID)
}
