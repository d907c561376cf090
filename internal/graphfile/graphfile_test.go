package graphfile

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/graph"
)

const sample = `name: tiny
inputs:
  - {name: X, type: float, shape: [batch, 4]}
outputs:
  - {name: Y, type: float, shape: [batch, 4]}
value_info:
  - {name: A, type: float, shape: [batch, 4]}
initializers:
  - {name: W, type: float, dims: [4, 4], raw: AQID}
nodes:
  - {op: MatMul, inputs: [X, W], outputs: [A]}
  - {name: act, op: Relu, inputs: [A], outputs: [Y]}
`

func TestDecode(t *testing.T) {
	ctx := context.Background()
	g, err := Decode(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "tiny", g.Name)
	x, ok := g.Inputs.Get("X")
	require.True(t, ok)
	assert.Equal(t, []graph.Dim{{Param: "batch"}, {Value: 4}}, x.Shape)

	w, ok := g.Initializers.Get("W")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, w.Raw)
	assert.Equal(t, []int64{4, 4}, w.Dims)

	nodes := g.Nodes(ctx)
	require.Len(t, nodes, 2)
	assert.Equal(t, "act", nodes[1].Name)
	assert.NoError(t, g.Validate(ctx))
}

func TestEncodeDecode_PreservesGraph(t *testing.T) {
	ctx := context.Background()
	g, err := Decode(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, Save(ctx, path, g))

	again, err := Load(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, g.Inputs.All(), again.Inputs.All())
	assert.Equal(t, g.Outputs.All(), again.Outputs.All())
	assert.Equal(t, g.ValueInfo.All(), again.ValueInfo.All())
	assert.Equal(t, g.Initializers.All(), again.Initializers.All())
	if diff := cmp.Diff(g.Nodes(ctx), again.Nodes(ctx)); diff != "" {
		t.Errorf("nodes differ (-want +got):\n%s", diff)
	}
}

func TestEncode_SymbolicDimsAreQuoted(t *testing.T) {
	ctx := context.Background()
	g, err := Decode(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(ctx, &buf, g))
	assert.Contains(t, buf.String(), `shape: ["batch", 4]`)
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{name: "unknown field", doc: "name: g\nbogus: 1\nnodes: []\n", wantMsg: "bogus"},
		{name: "missing name", doc: "nodes: []\n", wantMsg: "name is required"},
		{name: "duplicate input", doc: "name: g\ninputs: [{name: X}, {name: X}]\nnodes: []\n", wantMsg: `duplicate "X"`},
		{name: "node without op", doc: "name: g\nnodes: [{outputs: [Y]}]\n", wantMsg: "has no op"},
		{name: "duplicate producer", doc: "name: g\nnodes: [{op: A, outputs: [Y]}, {op: B, outputs: [Y]}]\n", wantMsg: "node #1"},
		{name: "bad base64", doc: "name: g\ninitializers: [{name: W, raw: '***'}]\nnodes: []\n", wantMsg: `initializer "W"`},
		{name: "mapping dim", doc: "name: g\ninputs: [{name: X, shape: [{a: 1}]}]\nnodes: []\n", wantMsg: "scalar"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(context.Background(), strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
