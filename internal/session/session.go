// Package session defines the contract for running one pipeline stage's
// sub-graph. It abstracts away the details of local vs. remote execution.
package session

import (
	"context"
	"errors"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/valuestore"
)

// ErrUnresolvedInput is returned when a node reads a value that is neither
// computed earlier in the sub-graph, present in the batch store, nor an
// initializer.
var ErrUnresolvedInput = errors.New("unresolved input")

// SessionFactory creates a Session for a sub-graph. Different implementations
// can support various backends, such as local or distributed execution.
type SessionFactory interface {
	NewSession(ctx context.Context, g *graph.Graph) (Session, error)
}

// Session executes one sub-graph, once per call.
//
// # Contract
//
// Run reads every graph input it needs from values at the moment the reading
// node executes, not before. Sync inputs only become visible after their
// WaitEvent has been released, so reading them eagerly would race with the
// producing stage. Graph outputs are written back to values; for outputs of a
// RecordEvent node this happens before the event is recorded.
//
// Run must be safe for concurrent use: the driver runs one call per in-flight
// batch on the same session.
type Session interface {
	Run(ctx context.Context, values valuestore.Store, fetches []string) (map[string]any, error)
}
