package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/engine"
)

func TestBuildFieldTable_ImplicitFields(t *testing.T) {
	// The configured agent and amount columns resolve without any
	// catalog entry.
	table := engine.BuildFieldTable(testScheme())

	agent, ok := table.Resolve("agentId")
	require.True(t, ok)
	assert.Equal(t, engine.TypeString, agent.DataType)

	amount, ok := table.Resolve("amount")
	require.True(t, ok)
	assert.Equal(t, engine.TypeNumber, amount.DataType)
	assert.Equal(t, engine.LevelPerRecord, amount.Level)
}

func TestBuildFieldTable_LaterListsOverride(t *testing.T) {
	s := testScheme()
	s.Fields.Base = []engine.FieldMapping{
		{Name: "channel", DataType: engine.TypeString},
	}
	s.Fields.Credit = []engine.FieldMapping{
		{Name: "channel", SourceField: "salesChannel", DataType: engine.TypeString},
	}

	table := engine.BuildFieldTable(s)
	m, ok := table.Resolve("channel")
	require.True(t, ok)
	assert.Equal(t, "salesChannel", m.SourceField)
}

func TestBuildFieldTable_CatalogOverridesImplicit(t *testing.T) {
	s := testScheme()
	s.Fields.Qualification = []engine.FieldMapping{
		{Name: "amount", DataType: engine.TypeNumber, Level: engine.LevelAgent, Aggregation: engine.AggSum},
	}

	table := engine.BuildFieldTable(s)
	m, ok := table.Resolve("amount")
	require.True(t, ok)
	assert.Equal(t, engine.LevelAgent, m.Level)
	assert.Equal(t, engine.AggSum, m.Aggregation)
}

func TestBuildFieldTable_Defaults(t *testing.T) {
	s := testScheme()
	s.Fields.Exclusion = []engine.FieldMapping{{Name: "region"}}

	table := engine.BuildFieldTable(s)
	m, ok := table.Resolve("region")
	require.True(t, ok)
	assert.Equal(t, "region", m.SourceField)
	assert.Equal(t, engine.TypeString, m.DataType)
	assert.Equal(t, engine.LevelPerRecord, m.Level)
	assert.Equal(t, engine.AggNotApplicable, m.Aggregation)
}

func TestFieldTable_UnknownField(t *testing.T) {
	table := engine.BuildFieldTable(testScheme())
	_, ok := table.Resolve("nope")
	assert.False(t, ok)
}
