// Package graphfile reads and writes graphs as YAML documents.
//
// A document lists the graph name, its value tables and its nodes in order:
//
//	name: mlp
//	inputs:
//	  - {name: X, type: float, shape: [batch, 784]}
//	initializers:
//	  - {name: W1, type: float, dims: [784, 128], raw: <base64>}
//	nodes:
//	  - {op: MatMul, inputs: [X, W1], outputs: [T1]}
//
// Shape dimensions are integers for fixed sizes and strings for symbolic
// parameters.
package graphfile

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorytopology"
	"github.com/vk/pipegrid/internal/node"
)

// ErrMalformed wraps every structural problem found while decoding.
var ErrMalformed = errors.New("malformed graph document")

type document struct {
	Name         string           `yaml:"name"`
	Inputs       []valueDoc       `yaml:"inputs,omitempty"`
	Outputs      []valueDoc       `yaml:"outputs,omitempty"`
	ValueInfo    []valueDoc       `yaml:"value_info,omitempty"`
	Initializers []initializerDoc `yaml:"initializers,omitempty"`
	Nodes        []nodeDoc        `yaml:"nodes"`
}

type valueDoc struct {
	Name  string         `yaml:"name"`
	Type  graph.ElemType `yaml:"type,omitempty"`
	Shape []dim          `yaml:"shape,flow,omitempty"`
}

type initializerDoc struct {
	Name string         `yaml:"name"`
	Type graph.ElemType `yaml:"type,omitempty"`
	Dims []int64        `yaml:"dims,flow,omitempty"`
	Raw  string         `yaml:"raw,omitempty"`
}

type nodeDoc struct {
	Name    string   `yaml:"name,omitempty"`
	Op      string   `yaml:"op"`
	Domain  string   `yaml:"domain,omitempty"`
	Inputs  []string `yaml:"inputs,flow,omitempty"`
	Outputs []string `yaml:"outputs,flow,omitempty"`
}

// dim is the YAML form of graph.Dim.
type dim graph.Dim

func (d dim) MarshalYAML() (interface{}, error) {
	if d.Param != "" {
		return yaml.Node{Kind: yaml.ScalarNode, Value: d.Param, Style: yaml.DoubleQuotedStyle}, nil
	}
	return d.Value, nil
}

func (d *dim) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: shape dimension must be a scalar", n.Line)
	}
	if n.ShortTag() == "!!int" {
		var v int64
		if err := n.Decode(&v); err != nil {
			return err
		}
		*d = dim{Value: v}
		return nil
	}
	*d = dim{Param: n.Value}
	return nil
}

// Decode reads a graph document.
func Decode(ctx context.Context, r io.Reader) (*graph.Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return fromDocument(ctx, &doc)
}

// Encode writes g as a graph document.
func Encode(ctx context.Context, w io.Writer, g *graph.Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(ctx, g)); err != nil {
		return fmt.Errorf("failed to encode graph %q: %w", g.Name, err)
	}
	return enc.Close()
}

// Load reads the graph document at path.
func Load(ctx context.Context, path string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graph.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g, err := Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("Graph loaded.", "path", path, "name", g.Name, "nodes", g.NodeCount(ctx))
	return g, nil
}

// Save writes g to path, replacing any existing file.
func Save(ctx context.Context, path string, g *graph.Graph) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := Encode(ctx, f, g); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Graph saved.", "path", path, "name", g.Name)
	return nil
}

func fromDocument(ctx context.Context, doc *document) (*graph.Graph, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: graph name is required", ErrMalformed)
	}
	g := graph.New(doc.Name, inmemorytopology.New())

	add := func(table *graph.Table[graph.ValueInfo], section string, docs []valueDoc) error {
		for _, vd := range docs {
			if vd.Name == "" {
				return fmt.Errorf("%w: unnamed entry in %s", ErrMalformed, section)
			}
			if !table.Add(fromValueDoc(vd)) {
				return fmt.Errorf("%w: duplicate %q in %s", ErrMalformed, vd.Name, section)
			}
		}
		return nil
	}
	if err := add(g.Inputs, "inputs", doc.Inputs); err != nil {
		return nil, err
	}
	if err := add(g.Outputs, "outputs", doc.Outputs); err != nil {
		return nil, err
	}
	if err := add(g.ValueInfo, "value_info", doc.ValueInfo); err != nil {
		return nil, err
	}

	for _, id := range doc.Initializers {
		var raw []byte
		if id.Raw != "" {
			var err error
			if raw, err = base64.StdEncoding.DecodeString(id.Raw); err != nil {
				return nil, fmt.Errorf("%w: initializer %q: %w", ErrMalformed, id.Name, err)
			}
		}
		c := graph.Initializer{Name: id.Name, ElemType: id.Type, Dims: id.Dims, Raw: raw}
		if id.Name == "" || !g.Initializers.Add(c) {
			return nil, fmt.Errorf("%w: missing or duplicate initializer name %q", ErrMalformed, id.Name)
		}
	}

	for i, nd := range doc.Nodes {
		if nd.Op == "" {
			return nil, fmt.Errorf("%w: node #%d has no op", ErrMalformed, i)
		}
		n := &node.Node{Name: nd.Name, OpType: nd.Op, Domain: nd.Domain, Inputs: nd.Inputs, Outputs: nd.Outputs}
		if err := g.AddNode(ctx, n); err != nil {
			return nil, fmt.Errorf("%w: node #%d: %w", ErrMalformed, i, err)
		}
	}
	return g, nil
}

func toDocument(ctx context.Context, g *graph.Graph) *document {
	doc := &document{
		Name:      g.Name,
		Inputs:    toValueDocs(g.Inputs),
		Outputs:   toValueDocs(g.Outputs),
		ValueInfo: toValueDocs(g.ValueInfo),
	}
	for _, c := range g.Initializers.All() {
		doc.Initializers = append(doc.Initializers, initializerDoc{
			Name: c.Name,
			Type: c.ElemType,
			Dims: c.Dims,
			Raw:  base64.StdEncoding.EncodeToString(c.Raw),
		})
	}
	for _, n := range g.Nodes(ctx) {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			Name:    n.Name,
			Op:      n.OpType,
			Domain:  n.Domain,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
		})
	}
	return doc
}

func toValueDocs(table *graph.Table[graph.ValueInfo]) []valueDoc {
	var out []valueDoc
	for _, vi := range table.All() {
		vd := valueDoc{Name: vi.Name, Type: vi.ElemType}
		for _, d := range vi.Shape {
			vd.Shape = append(vd.Shape, dim(d))
		}
		out = append(out, vd)
	}
	return out
}

func fromValueDoc(vd valueDoc) graph.ValueInfo {
	vi := graph.ValueInfo{Name: vd.Name, ElemType: vd.Type}
	for _, d := range vd.Shape {
		vi.Shape = append(vi.Shape, graph.Dim(d))
	}
	return vi
}
