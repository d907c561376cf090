// Package topologystore defines the interface for storing and retrieving the
// nodes of a computation graph in their original topological order.
//
// # Why Topology Store Exists
//
// The partitioner walks the main graph exactly once, in the order its nodes
// were declared, and appends to several sub-graphs at the same time. The
// store isolates that ordering guarantee, together with the identity and
// single-producer rules, from the name-indexed value tables kept by the graph.
//
// # Lifecycle and Usage
//
// A store is:
//  1. **Created** empty for every graph (main graph on load, one per sub-graph on split)
//  2. **Populated** by appending nodes in topological order
//  3. **Read-only** afterwards; sub-graphs are independent once built
package topologystore

import (
	"context"
	"errors"

	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
)

// ErrDuplicateNode is returned when a node's identity or one of its outputs
// is already claimed by a previously added node.
var ErrDuplicateNode = errors.New("duplicate node")

// Store is the interface for managing the ordered node list of a graph.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The partitioner itself is
// single-threaded, but sub-graphs are handed to runtime sessions that read
// them from many goroutines.
type Store interface {
	// AddNode appends a node at the end of the order.
	//
	// The node's Address must be unique in the store and none of its outputs
	// may be produced by an earlier node. Violations return an error wrapping
	// ErrDuplicateNode and leave the store unchanged.
	AddNode(ctx context.Context, n *node.Node) error

	// GetNode retrieves a single node by its address.
	GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool)

	// AllNodes returns a snapshot of all nodes in insertion order.
	AllNodes(ctx context.Context) []*node.Node

	// Position returns the zero-based insertion index of a node.
	Position(ctx context.Context, id nodeid.Address) (int, bool)

	// Producer returns the node that lists value among its outputs.
	Producer(ctx context.Context, value string) (*node.Node, bool)

	// Len returns the number of stored nodes.
	Len(ctx context.Context) int
}
