package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorytopology"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/partition"
	"github.com/vk/pipegrid/internal/pipeline"
)

// ChainInput is the graph input of the chain fixture.
const ChainInput = "input ids"

// ChainForward names the activation of layer s, in the form exporters
// produce for scoped modules.
func ChainForward(s int) string {
	return fmt.Sprintf("/model/layer.%d/Relu_output_0", s)
}

// ChainBackward names the gradient flowing out of layer s.
func ChainBackward(s int) string {
	return ChainForward(s) + "_grad"
}

// ChainGraph builds a training graph of one layer per stage: a forward chain
// through every layer followed by the backward chain in reverse. The gradient
// of layer 0 is the graph output.
func ChainGraph(t testing.TB, stages int) *graph.Graph {
	t.Helper()
	ctx := context.Background()
	g := graph.New(fmt.Sprintf("chain_%d", stages), inmemorytopology.New())
	g.Inputs.Add(graph.Tensor(ChainInput, graph.ElemFloat, 1, 16))
	g.Outputs.Add(graph.Tensor(ChainBackward(0), graph.ElemFloat, 1, 16))

	for s := 0; s < stages; s++ {
		in := ChainInput
		if s > 0 {
			in = ChainForward(s - 1)
		}
		require.NoError(t, g.AddNode(ctx, &node.Node{OpType: "Relu", Inputs: []string{in}, Outputs: []string{ChainForward(s)}}))
		g.ValueInfo.Add(graph.Tensor(ChainForward(s), graph.ElemFloat, 1, 16))
	}
	for s := stages - 1; s >= 0; s-- {
		inputs := []string{ChainForward(s)}
		if s < stages-1 {
			inputs = append(inputs, ChainBackward(s+1))
		}
		require.NoError(t, g.AddNode(ctx, &node.Node{OpType: "ReluGrad", Inputs: inputs, Outputs: []string{ChainBackward(s)}}))
		if s > 0 {
			g.ValueInfo.Add(graph.Tensor(ChainBackward(s), graph.ElemFloat, 1, 16))
		}
	}
	require.NoError(t, g.Validate(ctx))
	return g
}

// ChainCuts puts layer s on stage s. Every segment carries both barriers, so
// every slot of the timeline waits and records.
func ChainCuts(stages int) []partition.CutInfo {
	cuts := make([]partition.CutInfo, stages)
	last := stages - 1
	for s := range cuts {
		fw := partition.Segment{Nodes: []string{ChainForward(s)}}
		if s == 0 {
			fw.SyncInputs = []string{ChainInput}
		} else {
			fw.SyncInputs = []string{ChainForward(s - 1)}
		}
		if s < last {
			fw.SyncOutputs = []string{ChainForward(s)}
		} else {
			fw.RecordDepends = []string{ChainForward(s)}
		}

		bw := partition.Segment{Nodes: []string{ChainBackward(s)}}
		if s < last {
			bw.SyncInputs = []string{ChainBackward(s + 1)}
			bw.WaitDepends = []string{pipeline.SyncName(ChainForward(s))}
		} else {
			bw.WaitDepends = []string{ChainForward(s)}
		}
		if s > 0 {
			bw.SyncOutputs = []string{ChainBackward(s)}
		} else {
			bw.RecordDepends = []string{ChainBackward(s)}
		}

		cuts[s] = partition.CutInfo{Forward: fw, Backward: bw}
	}
	return cuts
}
