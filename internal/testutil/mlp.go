package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorytopology"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/partition"
)

// Value names of the MLP fixture that tests refer to directly.
const (
	MLPUnsqueezeGrad = "MeanSquaredError_reduce_mean_Grad/Unqueezed_Grad"
	MLPTileGrad      = "MeanSquaredError_reduce_mean_Grad/Tiled_Grad"
)

type mlpNode struct {
	op      string
	inputs  []string
	outputs []string
}

// mlpNodes is a three-layer perceptron with a mean-squared-error loss, its
// gradient graph appended in the order a gradient builder would emit it.
var mlpNodes = []mlpNode{
	{"MatMul", []string{"X", "W1"}, []string{"T1"}},
	{"Add", []string{"T1", "B1"}, []string{"T2"}},
	{"Relu", []string{"T2"}, []string{"T3"}},
	{"MatMul", []string{"T3", "W2"}, []string{"T4"}},
	{"Add", []string{"T4", "B2"}, []string{"T5"}},
	{"Relu", []string{"T5"}, []string{"T6"}},
	{"MatMul", []string{"T6", "W3"}, []string{"T7"}},
	{"Add", []string{"T7", "B3"}, []string{"predictions"}},
	{"Sub", []string{"predictions", "labels"}, []string{"MeanSquaredError_diff"}},
	{"Mul", []string{"MeanSquaredError_diff", "MeanSquaredError_diff"}, []string{"MeanSquaredError_diff_square"}},
	{"ReduceMean", []string{"MeanSquaredError_diff_square"}, []string{"loss"}},

	{"Unsqueeze", []string{"loss_grad"}, []string{MLPUnsqueezeGrad}},
	{"Expand", []string{MLPUnsqueezeGrad, "MeanSquaredError_diff_square"}, []string{MLPTileGrad}},
	{"Mul", []string{MLPTileGrad, "MeanSquaredError_diff"}, []string{"MeanSquaredError_diff_square_grad"}},
	{"Add", []string{"MeanSquaredError_diff_square_grad", "MeanSquaredError_diff_square_grad"}, []string{"MeanSquaredError_diff_grad"}},
	{"Identity", []string{"MeanSquaredError_diff_grad"}, []string{"predictions_grad"}},
	{"ReduceSum", []string{"predictions_grad"}, []string{"B3_grad"}},
	{"Identity", []string{"predictions_grad"}, []string{"T7_grad"}},
	{"Gemm", []string{"T6", "T7_grad"}, []string{"W3_grad"}},
	{"MatMul", []string{"T7_grad", "W3"}, []string{"T6_grad"}},

	{"ReluGrad", []string{"T6_grad", "T6"}, []string{"T5_grad"}},
	{"Identity", []string{"T5_grad"}, []string{"T4_grad"}},
	{"MatMul", []string{"T4_grad", "W2"}, []string{"T3_grad"}},
	{"ReduceSum", []string{"T5_grad"}, []string{"B2_grad"}},
	{"Gemm", []string{"T3", "T4_grad"}, []string{"W2_grad"}},

	{"ReluGrad", []string{"T3_grad", "T3"}, []string{"T2_grad"}},
	{"Identity", []string{"T2_grad"}, []string{"T1_grad"}},
	{"ReduceSum", []string{"T2_grad"}, []string{"B1_grad"}},
	{"Gemm", []string{"X", "T1_grad"}, []string{"W1_grad"}},
}

var mlpWidths = map[string][]int64{
	"X": {1, 784}, "labels": {1, 10},
	"W1": {784, 128}, "B1": {128}, "W2": {128, 32}, "B2": {32}, "W3": {32, 10}, "B3": {10},
	"T1": {1, 128}, "T2": {1, 128}, "T3": {1, 128},
	"T4": {1, 32}, "T5": {1, 32}, "T6": {1, 32},
	"T7": {1, 10}, "predictions": {1, 10},
	"MeanSquaredError_diff": {1, 10}, "MeanSquaredError_diff_square": {1, 10},
	MLPUnsqueezeGrad: {1, 1}, MLPTileGrad: {1, 10},
	"MeanSquaredError_diff_square_grad": {1, 10}, "MeanSquaredError_diff_grad": {1, 10},
	"predictions_grad": {1, 10}, "T7_grad": {1, 10},
	"T6_grad": {1, 32}, "T5_grad": {1, 32}, "T4_grad": {1, 32},
	"T3_grad": {1, 128}, "T2_grad": {1, 128}, "T1_grad": {1, 128},
	"W1_grad": {784, 128}, "B1_grad": {128}, "W2_grad": {128, 32}, "B2_grad": {32}, "W3_grad": {32, 10}, "B3_grad": {10},
}

// MLPGraph builds the fixture graph.
func MLPGraph(t testing.TB) *graph.Graph {
	t.Helper()
	ctx := context.Background()
	g := graph.New("mlp", inmemorytopology.New())

	for _, in := range []string{"X", "labels"} {
		g.Inputs.Add(graph.Tensor(in, graph.ElemFloat, mlpWidths[in]...))
	}
	for _, w := range []string{"W1", "B1", "W2", "B2", "W3", "B3"} {
		g.Initializers.Add(graph.Initializer{Name: w, ElemType: graph.ElemFloat, Dims: mlpWidths[w]})
	}
	g.Initializers.Add(graph.Initializer{Name: "loss_grad", ElemType: graph.ElemFloat, Raw: []byte{0, 0, 128, 63}})

	outputs := map[string]bool{"loss": true}
	g.Outputs.Add(graph.Scalar("loss", graph.ElemFloat))
	for _, out := range []string{"predictions", "B1_grad", "W1_grad", "B2_grad", "W2_grad", "B3_grad", "W3_grad"} {
		g.Outputs.Add(graph.Tensor(out, graph.ElemFloat, mlpWidths[out]...))
		outputs[out] = true
	}

	for _, n := range mlpNodes {
		require.NoError(t, g.AddNode(ctx, &node.Node{OpType: n.op, Inputs: n.inputs, Outputs: n.outputs}))
		for _, out := range n.outputs {
			if !outputs[out] {
				g.ValueInfo.Add(graph.Tensor(out, graph.ElemFloat, mlpWidths[out]...))
			}
		}
	}
	require.NoError(t, g.Validate(ctx))
	return g
}

// MLPCuts splits the fixture into three stages, one layer each, with the loss
// on the last stage.
func MLPCuts() []partition.CutInfo {
	return []partition.CutInfo{
		{
			Forward: partition.Segment{
				Nodes:       []string{"T1", "T2", "T3"},
				SyncInputs:  []string{"X"},
				SyncOutputs: []string{"T3"},
			},
			Backward: partition.Segment{
				Nodes:         []string{"T2_grad", "T1_grad", "B1_grad", "W1_grad"},
				SyncInputs:    []string{"T3_grad"},
				WaitDepends:   []string{"T3_sync"},
				RecordDepends: []string{"B1_grad", "W1_grad"},
			},
		},
		{
			Forward: partition.Segment{
				Nodes:       []string{"T4", "T5", "T6"},
				SyncInputs:  []string{"T3"},
				SyncOutputs: []string{"T6"},
			},
			Backward: partition.Segment{
				Nodes:         []string{"T5_grad", "T4_grad", "T3_grad", "B2_grad", "W2_grad"},
				SyncInputs:    []string{"T6_grad"},
				SyncOutputs:   []string{"T3_grad"},
				WaitDepends:   []string{"T6_sync"},
				RecordDepends: []string{"B2_grad", "W2_grad"},
			},
		},
		{
			Forward: partition.Segment{
				Nodes:      []string{"T7", "MeanSquaredError_diff", "MeanSquaredError_diff_square", "loss", "predictions"},
				SyncInputs: []string{"T6"},
			},
			Backward: partition.Segment{
				Nodes: []string{
					MLPUnsqueezeGrad, MLPTileGrad,
					"MeanSquaredError_diff_square_grad", "MeanSquaredError_diff_grad",
					"predictions_grad", "B3_grad", "T7_grad", "W3_grad", "T6_grad",
				},
				SyncOutputs:   []string{"T6_grad"},
				RecordDepends: []string{"loss", "predictions", "B3_grad", "W3_grad"},
			},
		},
	}
}

// MLPSpecHCL is the HCL form of MLPCuts with explicit start ids 100, 200, 300.
const MLPSpecHCL = `
pipeline {
  batches         = 6
  event_pool_size = 1024
  data_event_base = 0
}

stage "input" {
  start_event_id = 100 * (stage.index + 1)

  forward {
    nodes        = ["T1", "T2", "T3"]
    sync_inputs  = ["X"]
    sync_outputs = ["T3"]
  }

  backward {
    nodes          = ["T2_grad", "T1_grad", "B1_grad", "W1_grad"]
    sync_inputs    = ["T3_grad"]
    wait_depends   = ["T3_sync"]
    record_depends = ["B1_grad", "W1_grad"]
  }
}

stage "hidden" {
  start_event_id = 100 * (stage.index + 1)

  forward {
    nodes        = ["T4", "T5", "T6"]
    sync_inputs  = ["T3"]
    sync_outputs = ["T6"]
  }

  backward {
    nodes          = ["T5_grad", "T4_grad", "T3_grad", "B2_grad", "W2_grad"]
    sync_inputs    = ["T6_grad"]
    sync_outputs   = ["T3_grad"]
    wait_depends   = ["T6_sync"]
    record_depends = ["B2_grad", "W2_grad"]
  }
}

stage "loss" {
  start_event_id = 100 * (stage.index + 1)

  forward {
    nodes       = ["T7", "MeanSquaredError_diff", "MeanSquaredError_diff_square", "loss", "predictions"]
    sync_inputs = ["T6"]
  }

  backward {
    nodes = [
      "MeanSquaredError_reduce_mean_Grad/Unqueezed_Grad",
      "MeanSquaredError_reduce_mean_Grad/Tiled_Grad",
      "MeanSquaredError_diff_square_grad",
      "MeanSquaredError_diff_grad",
      "predictions_grad",
      "B3_grad",
      "T7_grad",
      "W3_grad",
      "T6_grad",
    ]
    sync_outputs   = ["T6_grad"]
    record_depends = ["loss", "predictions", "B3_grad", "W3_grad"]
  }
}
`
