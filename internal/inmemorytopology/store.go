package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using a slice and maps
// guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	order     []*node.Node
	positions map[string]int // Key: node address, Value: index into order
	producers map[string]int // Key: value name, Value: index into order
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		positions: make(map[string]int),
		producers: make(map[string]int),
	}
}

// AddNode appends a node after validating its identity and outputs.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	addr, err := n.Address()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := addr.Key()
	if _, exists := s.positions[key]; exists {
		return fmt.Errorf("%w: identity %q is already taken", topologystore.ErrDuplicateNode, key)
	}
	for _, out := range n.Outputs {
		if out == "" {
			continue
		}
		if idx, exists := s.producers[out]; exists {
			return fmt.Errorf("%w: value %q of node %q is already produced by node %q",
				topologystore.ErrDuplicateNode, out, key, s.order[idx].ID())
		}
	}

	idx := len(s.order)
	s.order = append(s.order, n)
	s.positions[key] = idx
	for _, out := range n.Outputs {
		if out != "" {
			s.producers[out] = idx
		}
	}
	ctxlog.FromContext(ctx).Debug("Node added to topology.", "id", key, "op", n.QualifiedOp(), "position", idx)
	return nil
}

// GetNode retrieves a single node by its address.
func (s *Store) GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.positions[id.Key()]
	if !ok {
		return nil, false
	}
	return s.order[idx], true
}

// AllNodes returns a copy of the node slice in insertion order.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

// Position returns the insertion index of a node.
func (s *Store) Position(ctx context.Context, id nodeid.Address) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.positions[id.Key()]
	return idx, ok
}

// Producer returns the node producing the given value.
func (s *Store) Producer(ctx context.Context, value string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.producers[value]
	if !ok {
		return nil, false
	}
	return s.order[idx], true
}

// Len returns the number of nodes.
func (s *Store) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}
