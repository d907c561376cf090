package partition

import (
	"context"
	"fmt"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorytopology"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/pipeline"
)

// Split cuts g into one sub-graph per cut. The graph is walked once in its
// original order; each node is copied into the sub-graph of its owning
// segment, and barrier nodes are inserted before the first and after the last
// node of every segment.
//
// The result is all-or-nothing: any configuration problem returns an error
// and no sub-graphs.
func Split(ctx context.Context, g *graph.Graph, cuts []CutInfo) ([]*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	if len(cuts) == 0 {
		return nil, ErrNoCuts
	}

	a, err := assign(ctx, g, cuts)
	if err != nil {
		return nil, fmt.Errorf("invalid cuts for graph %q: %w", g.Name, err)
	}

	s := &splitter{ctx: ctx, main: g, cuts: cuts, subs: make([]*graph.Graph, len(cuts))}
	for i := range cuts {
		s.subs[i] = graph.New(fmt.Sprintf("%s_stage_%d", g.Name, i), inmemorytopology.New())
	}

	for i := range cuts {
		if err := s.enter(i, pipeline.Forward); err != nil {
			return nil, err
		}
	}

	for pos, n := range g.Nodes(ctx) {
		o := a.owners[n.ID()]
		if o.dir == pipeline.Backward && a.isFirst(o, pos) {
			if err := s.enter(o.stage, pipeline.Backward); err != nil {
				return nil, err
			}
		}
		if err := s.copyNode(o.stage, n); err != nil {
			return nil, err
		}
		if a.isLast(o, pos) {
			if err := s.exit(o.stage, o.dir); err != nil {
				return nil, err
			}
		}
	}

	for i, sub := range s.subs {
		if err := sub.Validate(ctx); err != nil {
			return nil, fmt.Errorf("sub-graph of stage %d is not self-contained: %w", i, err)
		}
		logger.Debug("Sub-graph built.", "stage", i, "name", sub.Name,
			"nodes", sub.NodeCount(ctx), "inputs", sub.Inputs.Len(), "outputs", sub.Outputs.Len())
	}
	logger.Info("Graph split.", "graph", g.Name, "stages", len(s.subs))
	return s.subs, nil
}

type splitter struct {
	ctx  context.Context
	main *graph.Graph
	cuts []CutInfo
	subs []*graph.Graph
}

// enter emits the wait chain of a segment and declares the inputs it reads.
func (s *splitter) enter(stage int, dir pipeline.Direction) error {
	seg := s.cuts[stage].Segment(dir)
	b := entryBarrier(stage, len(s.cuts), dir, seg)
	if b.state == barrierNone {
		return nil
	}
	ctxlog.FromContext(s.ctx).Debug("Inserting wait barrier.", "stage", stage, "direction", dir, "state", b.state)

	sub := s.subs[stage]
	if err := s.addNodes(stage, b.waitNodes(seg.SyncInputs, seg.WaitDepends)); err != nil {
		return err
	}

	for _, v := range seg.SyncInputs {
		if s.main.Inputs.Has(v) {
			if stage != 0 || dir != pipeline.Forward {
				return fmt.Errorf("%w: %q used by stage %d %s", ErrGraphInputOutsideFirstStage, v, stage, dir)
			}
			graph.CopyByName(sub.Inputs, s.main.Inputs, v, pipeline.SyncName(v))
			graph.CopyByName(sub.ValueInfo, s.main.Inputs, v, v)
			continue
		}

		vi, err := s.describe(v, stage, dir)
		if err != nil {
			return err
		}
		sub.Inputs.Add(vi.WithName(pipeline.SyncName(v)))
		if b.twoLevel() {
			sub.ValueInfo.Add(vi.WithName(pipeline.RecvName(v)))
		}
		sub.ValueInfo.Add(vi.WithName(v))
	}

	for _, event := range b.waitEvents() {
		sub.Inputs.Add(graph.Scalar(event, graph.ElemInt64))
	}
	return nil
}

// exit emits the record chain of a segment and declares the outputs it
// publishes.
func (s *splitter) exit(stage int, dir pipeline.Direction) error {
	seg := s.cuts[stage].Segment(dir)
	b := exitBarrier(stage, len(s.cuts), dir, seg)
	if b.state == barrierNone {
		return nil
	}
	ctxlog.FromContext(s.ctx).Debug("Inserting record barrier.", "stage", stage, "direction", dir, "state", b.state)

	sub := s.subs[stage]
	if err := s.addNodes(stage, b.recordNodes(seg.SyncOutputs, seg.RecordDepends)); err != nil {
		return err
	}
	for _, event := range b.recordEvents() {
		sub.Inputs.Add(graph.Scalar(event, graph.ElemInt64))
	}

	for _, v := range seg.SyncOutputs {
		vi, err := s.describe(v, stage, dir)
		if err != nil {
			return err
		}
		sub.Outputs.Add(vi.WithName(pipeline.SyncName(v)))
		if b.twoLevel() {
			sub.ValueInfo.Add(vi.WithName(pipeline.SendName(v)))
		}
		sub.ValueInfo.Add(vi.WithName(v))
	}
	return nil
}

// copyNode copies n into its stage along with the initializers, graph inputs,
// graph outputs and shape records it touches.
func (s *splitter) copyNode(stage int, n *node.Node) error {
	sub, cut := s.subs[stage], s.cuts[stage]
	if err := sub.AddNode(s.ctx, n.Clone()); err != nil {
		return fmt.Errorf("stage %d: %w", stage, err)
	}

	for _, in := range n.Inputs {
		if in == "" {
			continue
		}
		graph.CopyByName(sub.Initializers, s.main.Initializers, in, in)
		if !cut.syncsInput(in) {
			graph.CopyByName(sub.Inputs, s.main.Inputs, in, in)
		}
	}

	for _, out := range n.Outputs {
		if out == "" || cut.syncsOutput(out) {
			continue
		}
		if !graph.CopyByName(sub.Outputs, s.main.Outputs, out, out) {
			graph.CopyByName(sub.ValueInfo, s.main.ValueInfo, out, out)
		}
	}
	return nil
}

func (s *splitter) addNodes(stage int, nodes []*node.Node) error {
	for _, n := range nodes {
		if err := s.subs[stage].AddNode(s.ctx, n); err != nil {
			return fmt.Errorf("stage %d: inserting %s: %w", stage, n.QualifiedOp(), err)
		}
	}
	return nil
}

// describe returns the metadata of a value crossing a stage boundary. A value
// produced by some node but lacking a shape record is described by name only.
func (s *splitter) describe(value string, stage int, dir pipeline.Direction) (graph.ValueInfo, error) {
	if vi, ok := s.main.Describe(value); ok {
		return vi, nil
	}
	if _, ok := s.main.Producer(s.ctx, value); ok {
		return graph.ValueInfo{Name: value}, nil
	}
	return graph.ValueInfo{}, fmt.Errorf("%w: %q used by stage %d %s", ErrMissingValue, value, stage, dir)
}
