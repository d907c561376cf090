// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package graph

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrNotTopological indicates a node consuming a value that is neither a
	// graph input, an initializer, nor produced by an earlier node.
	ErrNotTopological = errors.New("graph is not in topological order")

	// ErrDanglingOutput indicates a graph output nothing produces.
	ErrDanglingOutput = errors.New("graph output is never produced")
)

// Validate checks the ordering invariant of the graph. All violations are
// reported, combined into one error.
func (g *Graph) Validate(ctx context.Context) error {
	var errs error

	for i, n := range g.Nodes(ctx) {
		for _, in := range n.Inputs {
			if in == "" || g.Inputs.Has(in) || g.Initializers.Has(in) {
				continue
			}
			producer, ok := g.Producer(ctx, in)
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%w: node %q reads unknown value %q", ErrNotTopological, n.ID(), in))
				continue
			}
			addr, err := producer.Address()
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if pos, _ := g.Position(ctx, *addr); pos >= i {
				errs = multierr.Append(errs, fmt.Errorf("%w: node %q reads %q before node %q produces it", ErrNotTopological, n.ID(), in, producer.ID()))
			}
		}
	}

	for _, out := range g.Outputs.Names() {
		if g.Inputs.Has(out) || g.Initializers.Has(out) {
			continue
		}
		if _, ok := g.Producer(ctx, out); !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrDanglingOutput, out))
		}
	}

	return errs
}
