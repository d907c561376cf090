package localsession

import (
	"context"
	"fmt"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/session"
	"github.com/vk/pipegrid/internal/valuestore"
)

// Events is the part of an event pool a session needs.
type Events interface {
	Wait(ctx context.Context, id int64) error
	Record(id int64) error
}

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	Events Events
}

// NewSession creates a session for g. The node list is captured once; g must
// not be modified afterwards.
func (f *SessionFactory) NewSession(ctx context.Context, g *graph.Graph) (session.Session, error) {
	if g == nil {
		return nil, fmt.Errorf("localsession: nil graph")
	}
	if f.Events == nil {
		return nil, fmt.Errorf("localsession: no event pool for graph %q", g.Name)
	}
	ctxlog.FromContext(ctx).Debug("Local session created.", "graph", g.Name, "nodes", g.NodeCount(ctx))
	return &Session{graph: g, nodes: g.Nodes(ctx), events: f.Events}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	graph  *graph.Graph
	nodes  []*node.Node
	events Events
}

// run is the state of one Run call.
type run struct {
	s      *Session
	values valuestore.Store
	local  map[string]any
}

// Run executes every node in order.
func (s *Session) Run(ctx context.Context, values valuestore.Store, fetches []string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("graph", s.graph.Name)
	r := &run{s: s, values: values, local: make(map[string]any)}

	for _, n := range s.nodes {
		if err := r.exec(ctx, n); err != nil {
			return nil, fmt.Errorf("graph %q: node %s (%s): %w", s.graph.Name, n.Name, n.QualifiedOp(), err)
		}
	}
	logger.Debug("Sub-graph executed.", "nodes", len(s.nodes))

	out := make(map[string]any, len(fetches))
	for _, name := range fetches {
		v, err := r.resolve(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("graph %q: fetching: %w", s.graph.Name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (r *run) exec(ctx context.Context, n *node.Node) error {
	if n.Domain == pipeline.SyncDomain {
		switch n.OpType {
		case pipeline.OpWaitEvent:
			return r.wait(ctx, n)
		case pipeline.OpRecordEvent:
			return r.record(ctx, n)
		}
	}
	return r.compute(ctx, n)
}

func (r *run) wait(ctx context.Context, n *node.Node) error {
	id, err := r.eventID(ctx, n)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Waiting for event.", "graph", r.s.graph.Name, "event", id)
	if err := r.s.events.Wait(ctx, id); err != nil {
		return err
	}
	args, err := r.args(ctx, n.Inputs[1:])
	if err != nil {
		return err
	}
	return r.passThrough(ctx, n, args)
}

func (r *run) record(ctx context.Context, n *node.Node) error {
	id, err := r.eventID(ctx, n)
	if err != nil {
		return err
	}
	args, err := r.args(ctx, n.Inputs[1:])
	if err != nil {
		return err
	}
	if err := r.passThrough(ctx, n, args); err != nil {
		return err
	}
	if err := r.s.events.Record(id); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Event recorded.", "graph", r.s.graph.Name, "event", id)
	return nil
}

func (r *run) passThrough(ctx context.Context, n *node.Node, args []any) error {
	if len(args) < len(n.Outputs) {
		return fmt.Errorf("%d outputs but only %d pass-through inputs", len(n.Outputs), len(args))
	}
	for i, out := range n.Outputs {
		if err := r.set(ctx, out, args[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) compute(ctx context.Context, n *node.Node) error {
	args, err := r.args(ctx, n.Inputs)
	if err != nil {
		return err
	}
	for i, out := range n.Outputs {
		sym := &Symbol{Node: n.Name, Op: n.QualifiedOp(), Index: i, Args: args}
		if err := r.set(ctx, out, sym); err != nil {
			return err
		}
	}
	return nil
}

// set binds an output locally and publishes it when the sub-graph exports it.
func (r *run) set(ctx context.Context, name string, v any) error {
	if name == "" {
		return nil
	}
	r.local[name] = v
	if r.s.graph.Outputs.Has(name) {
		return r.values.Put(ctx, name, v)
	}
	return nil
}

func (r *run) args(ctx context.Context, names []string) ([]any, error) {
	args := make([]any, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		v, err := r.resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (r *run) resolve(ctx context.Context, name string) (any, error) {
	if v, ok := r.local[name]; ok {
		return v, nil
	}
	if v, ok := r.values.Get(ctx, name); ok {
		return v, nil
	}
	if c, ok := r.s.graph.Initializers.Get(name); ok {
		return &c, nil
	}
	return nil, fmt.Errorf("%w: %q", session.ErrUnresolvedInput, name)
}

func (r *run) eventID(ctx context.Context, n *node.Node) (int64, error) {
	if len(n.Inputs) == 0 {
		return 0, fmt.Errorf("no event input")
	}
	v, err := r.resolve(ctx, n.Inputs[0])
	if err != nil {
		return 0, err
	}
	switch id := v.(type) {
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	default:
		return 0, fmt.Errorf("event input %q holds %T, want int64", n.Inputs[0], v)
	}
}
