package partition_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorytopology"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/partition"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/testutil"
)

func nodeByID(t *testing.T, g *graph.Graph, id string) *node.Node {
	t.Helper()
	n, ok := g.Node(context.Background(), *nodeid.MustParse(id))
	require.True(t, ok, "node %q missing from %s", id, g.Name)
	return n
}

func isSync(n *node.Node) bool {
	return n.Domain == pipeline.SyncDomain
}

func TestSplit_MLP(t *testing.T) {
	ctx := context.Background()
	main := testutil.MLPGraph(t)

	subs, err := partition.Split(ctx, main, testutil.MLPCuts())
	require.NoError(t, err)
	require.Len(t, subs, 3)

	t.Run("stage 0", func(t *testing.T) {
		g := subs[0]
		assert.Equal(t, "mlp_stage_0", g.Name)
		assert.Equal(t, 13, g.NodeCount(ctx))
		assert.Equal(t, []string{
			"X_sync", "wait_pipeline_0_fw", "record_pipeline_0_fw", "record_data_0_fw",
			"T3_grad_sync", "wait_data_0_bw", "wait_pipeline_0_bw", "record_pipeline_0_bw",
		}, g.Inputs.Names())
		assert.Equal(t, []string{"T3_sync", "B1_grad", "W1_grad"}, g.Outputs.Names())
		assert.Equal(t, []string{"W1", "B1"}, g.Initializers.Names())

		x, ok := g.Inputs.Get("X_sync")
		require.True(t, ok)
		assert.Equal(t, graph.Tensor("X_sync", graph.ElemFloat, 1, 784), x)

		wait := nodeByID(t, g, "X")
		assert.Equal(t, []string{"wait_pipeline_0_fw", "X_sync"}, wait.Inputs)

		waitData := nodeByID(t, g, "T3_grad_recv")
		assert.Equal(t, "wait_data_0_bw", waitData.Name)
		assert.Equal(t, []string{"wait_data_0_bw", "T3_grad_sync", "T3_sync"}, waitData.Inputs)

		tail := nodeByID(t, g, "record_pipeline_0_bw")
		assert.Equal(t, []string{"record_pipeline_0_bw", "B1_grad", "W1_grad"}, tail.Inputs)
		assert.Empty(t, tail.Outputs)

		for _, name := range []string{"X", "T3_send", "T3", "T3_grad_recv", "T3_grad"} {
			assert.True(t, g.ValueInfo.Has(name), "value info for %q", name)
		}
	})

	t.Run("stage 1", func(t *testing.T) {
		g := subs[1]
		assert.Equal(t, 16, g.NodeCount(ctx))
		assert.Equal(t, []string{
			"T3_sync", "wait_data_1_fw", "wait_pipeline_1_fw", "record_pipeline_1_fw", "record_data_1_fw",
			"T6_grad_sync", "wait_data_1_bw", "wait_pipeline_1_bw", "record_pipeline_1_bw", "record_data_1_bw",
		}, g.Inputs.Names())
		assert.Equal(t, []string{"T6_sync", "B2_grad", "W2_grad", "T3_grad_sync"}, g.Outputs.Names())

		rec := nodeByID(t, g, "T3_grad_send")
		assert.Equal(t, []string{"record_pipeline_1_bw", "T3_grad", "B2_grad", "W2_grad"}, rec.Inputs)
		assert.Equal(t, []string{"record_data_1_bw", "T3_grad_send"}, nodeByID(t, g, "T3_grad_sync").Inputs)
	})

	t.Run("stage 2", func(t *testing.T) {
		g := subs[2]
		assert.Equal(t, 18, g.NodeCount(ctx))
		assert.Equal(t, []string{
			"T6_sync", "wait_data_2_fw", "wait_pipeline_2_fw", "labels", "record_pipeline_2_bw", "record_data_2_bw",
		}, g.Inputs.Names())
		assert.Equal(t, []string{"predictions", "loss", "B3_grad", "W3_grad", "T6_grad_sync"}, g.Outputs.Names())
		assert.Equal(t, []string{"W3", "B3", "loss_grad"}, g.Initializers.Names())

		rec := nodeByID(t, g, "T6_grad_send")
		assert.Equal(t, []string{"record_pipeline_2_bw", "T6_grad", "loss", "predictions", "B3_grad", "W3_grad"}, rec.Inputs)
		assert.False(t, g.Inputs.Has("wait_pipeline_2_bw"), "backward of the last stage needs no wait")
		assert.False(t, g.Inputs.Has("record_pipeline_2_fw"), "forward of the last stage needs no record")
	})

	t.Run("every original node is copied exactly once", func(t *testing.T) {
		var copied []string
		for _, sub := range subs {
			require.NoError(t, sub.Validate(ctx))
			for _, n := range sub.Nodes(ctx) {
				if !isSync(n) {
					copied = append(copied, n.ID())
				}
			}
		}
		var want []string
		for _, n := range main.Nodes(ctx) {
			want = append(want, n.ID())
		}
		slices.Sort(copied)
		slices.Sort(want)
		assert.Equal(t, want, copied)
	})

	t.Run("event inputs are int64 scalars", func(t *testing.T) {
		for _, sub := range subs {
			for _, in := range sub.Inputs.All() {
				if isEventInput(in.Name) {
					assert.Equal(t, graph.Scalar(in.Name, graph.ElemInt64), in)
				}
			}
		}
	})
}

func isEventInput(name string) bool {
	for stage := range 8 {
		for _, dir := range pipeline.Directions {
			for _, f := range []func(int, pipeline.Direction) string{
				pipeline.WaitDataInput, pipeline.WaitPipelineInput, pipeline.RecordPipelineInput, pipeline.RecordDataInput,
			} {
				if f(stage, dir) == name {
					return true
				}
			}
		}
	}
	return false
}

func TestSplit_EveryEventInputHasAFeed(t *testing.T) {
	for stages := 1; stages <= 4; stages++ {
		t.Run(fmt.Sprintf("%d stages", stages), func(t *testing.T) {
			ctx := context.Background()
			subs, err := partition.Split(ctx, testutil.ChainGraph(t, stages), testutil.ChainCuts(stages))
			require.NoError(t, err)
			require.Len(t, subs, stages)

			data := pipeline.DataEvents{Stages: stages}
			info := pipeline.BatchInfo{Events: make([]pipeline.EventPair, 2*stages)}
			waited := map[int64]bool{}
			recorded := map[int64]bool{}
			for s, sub := range subs {
				feeds, err := data.Feeds(info, 0, s)
				require.NoError(t, err)

				for _, name := range sub.Inputs.Names() {
					if !isEventInput(name) {
						continue
					}
					id, ok := feeds[name]
					require.True(t, ok, "stage %d input %q has no feed", s, name)
					switch {
					case strings.HasPrefix(name, "wait_data_"):
						waited[id] = true
					case strings.HasPrefix(name, "record_data_"):
						recorded[id] = true
					}
				}
				assert.Contains(t, sub.Inputs.Names(), pipeline.WaitPipelineInput(s, pipeline.Backward))
				assert.Contains(t, sub.Inputs.Names(), pipeline.RecordPipelineInput(s, pipeline.Forward))
			}
			assert.Equal(t, recorded, waited, "every data event recorded by one stage is waited on by another")
			assert.Len(t, recorded, int(data.PerBatch()))
		})
	}
}

func TestSplit_ScopedValueNames(t *testing.T) {
	ctx := context.Background()
	subs, err := partition.Split(ctx, testutil.ChainGraph(t, 2), testutil.ChainCuts(2))
	require.NoError(t, err)

	n := nodeByID(t, subs[1], "/model/layer.1/Relu_output_0")
	assert.Equal(t, []string{"/model/layer.0/Relu_output_0"}, n.Inputs)
	assert.Contains(t, subs[0].Inputs.Names(), "input ids_sync")
	assert.Contains(t, subs[0].Outputs.Names(), "/model/layer.0/Relu_output_0_sync")
	assert.Contains(t, subs[1].Outputs.Names(), "/model/layer.1/Relu_output_0_grad_sync")
}

// A three-node chain cut once keeps every original value name and adds one
// record barrier on the sender and one wait barrier on the receiver.
func TestSplit_LinearRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := graph.New("chain", inmemorytopology.New())
	g.Inputs.Add(graph.Tensor("X", graph.ElemFloat, 4))
	g.Outputs.Add(graph.Tensor("Y", graph.ElemFloat, 4))
	g.ValueInfo.Add(graph.Tensor("A", graph.ElemFloat, 4))
	g.ValueInfo.Add(graph.Tensor("B", graph.ElemFloat, 4))
	original := []*node.Node{
		{OpType: "Relu", Inputs: []string{"X"}, Outputs: []string{"A"}},
		{OpType: "Neg", Inputs: []string{"A"}, Outputs: []string{"B"}},
		{OpType: "Abs", Inputs: []string{"B"}, Outputs: []string{"Y"}},
	}
	for _, n := range original {
		require.NoError(t, g.AddNode(ctx, n))
	}

	cuts := []partition.CutInfo{
		{Forward: partition.Segment{Nodes: []string{"A"}, SyncOutputs: []string{"A"}}},
		{Forward: partition.Segment{Nodes: []string{"B", "Y"}, SyncInputs: []string{"A"}}},
	}
	subs, err := partition.Split(ctx, g, cuts)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	var compute []*node.Node
	var waits, records int
	for _, sub := range subs {
		for _, n := range sub.Nodes(ctx) {
			switch {
			case n.OpType == pipeline.OpWaitEvent:
				waits++
			case n.OpType == pipeline.OpRecordEvent:
				records++
			default:
				compute = append(compute, n)
			}
		}
	}
	assert.Equal(t, original, compute)
	assert.Equal(t, 2, waits, "one two-level wait barrier")
	assert.Equal(t, 2, records, "one two-level record barrier")

	assert.Equal(t, []string{"X", "record_pipeline_0_fw", "record_data_0_fw"}, subs[0].Inputs.Names())
	assert.Equal(t, []string{"A_sync"}, subs[0].Outputs.Names())
	assert.Equal(t, []string{"A_sync", "wait_data_1_fw", "wait_pipeline_1_fw"}, subs[1].Inputs.Names())
	assert.Equal(t, []string{"Y"}, subs[1].Outputs.Names())
}

// Barriers are placed around the first and last member in graph order, not
// around the first and last entry of the cut list.
func TestSplit_BarriersFollowGraphOrder(t *testing.T) {
	ctx := context.Background()
	g := graph.New("chain", inmemorytopology.New())
	g.Inputs.Add(graph.Tensor("X", graph.ElemFloat, 4))
	g.Outputs.Add(graph.Tensor("Y", graph.ElemFloat, 4))
	for _, n := range []*node.Node{
		{OpType: "Relu", Inputs: []string{"X"}, Outputs: []string{"A"}},
		{OpType: "Neg", Inputs: []string{"A"}, Outputs: []string{"B"}},
		{OpType: "Abs", Inputs: []string{"B"}, Outputs: []string{"C"}},
		{OpType: "Exp", Inputs: []string{"C"}, Outputs: []string{"Y"}},
	} {
		require.NoError(t, g.AddNode(ctx, n))
	}

	cuts := []partition.CutInfo{
		{Forward: partition.Segment{Nodes: []string{"A"}, SyncOutputs: []string{"A"}}},
		{Forward: partition.Segment{Nodes: []string{"Y", "C", "B"}, SyncInputs: []string{"A"}, RecordDepends: []string{"Y"}}},
	}
	subs, err := partition.Split(ctx, g, cuts)
	require.NoError(t, err)

	var order []string
	for _, n := range subs[1].Nodes(ctx) {
		order = append(order, n.ID())
	}
	assert.Equal(t, []string{
		"A_recv", "A",
		"B", "C", "Y",
		"record_pipeline_1_fw",
	}, order)
}

func TestSplit_CutErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cuts []partition.CutInfo) []partition.CutInfo
		want   []error
	}{
		{
			name:   "no cuts",
			mutate: func([]partition.CutInfo) []partition.CutInfo { return nil },
			want:   []error{partition.ErrNoCuts},
		},
		{
			name: "unassigned node",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[0].Forward.Nodes = []string{"T1", "T3"}
				return c
			},
			want: []error{partition.ErrUnassignedNode},
		},
		{
			name: "all problems reported together",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[0].Forward.Nodes = []string{"T1", "T3", "T4", "ghost"}
				return c
			},
			want: []error{partition.ErrUnassignedNode, partition.ErrDuplicateAssignment, partition.ErrUnknownNode},
		},
		{
			name: "malformed node identity",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[1].Backward.Nodes = append(c[1].Backward.Nodes, "bad//id")
				return c
			},
			want: []error{partition.ErrUnknownNode},
		},
		{
			name: "unknown sync value",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[1].Forward.SyncInputs = append(c[1].Forward.SyncInputs, "nope")
				return c
			},
			want: []error{partition.ErrMissingValue},
		},
		{
			name: "graph input synchronized late",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[2].Forward.SyncInputs = append(c[2].Forward.SyncInputs, "labels")
				return c
			},
			want: []error{partition.ErrGraphInputOutsideFirstStage},
		},
		{
			name: "value consumed across stages without sync",
			mutate: func(c []partition.CutInfo) []partition.CutInfo {
				c[0].Forward.Nodes = []string{"T1", "T3"}
				c[1].Forward.Nodes = append([]string{"T2"}, c[1].Forward.Nodes...)
				return c
			},
			want: []error{graph.ErrNotTopological},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			subs, err := partition.Split(context.Background(), testutil.MLPGraph(t), tc.mutate(testutil.MLPCuts()))
			require.Error(t, err)
			assert.Nil(t, subs)
			for _, want := range tc.want {
				assert.True(t, errors.Is(err, want), "expected %v in %v", want, err)
			}
		})
	}
}

func TestSplit_ReportsOffendingNode(t *testing.T) {
	cuts := testutil.MLPCuts()
	cuts[2].Backward.Nodes = slices.DeleteFunc(cuts[2].Backward.Nodes, func(s string) bool {
		return s == testutil.MLPTileGrad
	})

	_, err := partition.Split(context.Background(), testutil.MLPGraph(t), cuts)
	require.ErrorIs(t, err, partition.ErrUnassignedNode)
	assert.Contains(t, err.Error(), testutil.MLPTileGrad)
	assert.Contains(t, err.Error(), "Expand")
}
