package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func ptr(v int64) *int64 { return &v }

func validModel() *Model {
	return &Model{
		Pipeline: Pipeline{Batches: 6},
		Stages: []*Stage{
			{Name: "a", Index: 0, Forward: Segment{Nodes: []string{"T1"}}},
			{Name: "b", Index: 1, Backward: Segment{Nodes: []string{"T1_grad"}}},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validModel().Validate())

	m := validModel()
	m.Stages[1].Name = "a"
	m.Stages[1].Backward.Nodes = nil
	m.Pipeline.Batches = -1
	err := m.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3, "every problem is reported")
	assert.Contains(t, err.Error(), `stage "a" declared twice`)
}

func TestValidate_PartialStartIDs(t *testing.T) {
	m := validModel()
	m.Stages[0].StartEventID = ptr(100)
	assert.ErrorContains(t, m.Validate(), "set it on all or none")
}

func TestValidate_NoStages(t *testing.T) {
	assert.ErrorContains(t, (&Model{}).Validate(), "no stage")
}

func TestStartEventIDs(t *testing.T) {
	m := validModel()
	_, ok := m.StartEventIDs()
	assert.False(t, ok)

	m.Stages[0].StartEventID = ptr(100)
	m.Stages[1].StartEventID = ptr(200)
	ids, ok := m.StartEventIDs()
	require.True(t, ok)
	assert.Equal(t, []int64{100, 200}, ids)
}
