package partition

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/pipeline"
)

// owner is the segment a node belongs to.
type owner struct {
	stage int
	dir   pipeline.Direction
}

func (o owner) String() string {
	return fmt.Sprintf("stage %d %s", o.stage, o.dir)
}

// assignment maps every node of the main graph to its segment, and every
// non-empty segment to the positions of its first and last node in graph
// order.
type assignment struct {
	owners map[string]owner
	first  map[owner]int
	last   map[owner]int
}

// assign checks that the cuts partition the nodes of g exactly. Every problem
// found is reported.
func assign(ctx context.Context, g *graph.Graph, cuts []CutInfo) (*assignment, error) {
	a := &assignment{
		owners: make(map[string]owner),
		first:  make(map[owner]int),
		last:   make(map[owner]int),
	}
	var errs error

	for stage, cut := range cuts {
		for _, dir := range pipeline.Directions {
			o := owner{stage: stage, dir: dir}
			for _, raw := range cut.Segment(dir).Nodes {
				addr, err := nodeid.Parse(raw)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%w: %s: %w", ErrUnknownNode, o, err))
					continue
				}
				if _, ok := g.Node(ctx, *addr); !ok {
					errs = multierr.Append(errs, fmt.Errorf("%w: %s lists %q, which is not a node of graph %q",
						ErrUnknownNode, o, raw, g.Name))
					continue
				}
				key := addr.Key()
				if prev, dup := a.owners[key]; dup {
					errs = multierr.Append(errs, fmt.Errorf("%w: node %q is listed by %s and by %s",
						ErrDuplicateAssignment, key, prev, o))
					continue
				}
				a.owners[key] = o
			}
		}
	}

	for pos, n := range g.Nodes(ctx) {
		id := n.ID()
		o, ok := a.owners[id]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: node %q (%s)", ErrUnassignedNode, id, n.QualifiedOp()))
			continue
		}
		if _, seen := a.first[o]; !seen {
			a.first[o] = pos
		}
		a.last[o] = pos
	}

	if errs != nil {
		return nil, errs
	}
	return a, nil
}

// isFirst reports whether pos holds the first node of segment o.
func (a *assignment) isFirst(o owner, pos int) bool {
	p, ok := a.first[o]
	return ok && p == pos
}

// isLast reports whether pos holds the last node of segment o.
func (a *assignment) isLast(o owner, pos int) bool {
	p, ok := a.last[o]
	return ok && p == pos
}
