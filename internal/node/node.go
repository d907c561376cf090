package node

import (
	"fmt"
	"slices"

	"github.com/vk/pipegrid/internal/nodeid"
)

// Node is a single vertex in the computation graph. It carries no kernel
// semantics: only its declared inputs, outputs and the domain-qualified kind
// of operation it performs.
//
// Nodes are immutable once added to a graph. Code that needs a variant builds
// a new Node, and copies between graphs go through Clone.
type Node struct {
	// Name is the optional human-readable node name. It doubles as the
	// identity of nodes that produce no outputs.
	Name string
	// OpType is the operation kind, e.g. "MatMul" or "WaitEvent".
	OpType string
	// Domain qualifies OpType. The empty string is the default operator set.
	Domain string
	// Inputs lists consumed value names in positional order. An empty string
	// marks an omitted optional input.
	Inputs []string
	// Outputs lists produced value names in positional order.
	Outputs []string
}

// Address returns the identity of the node: its first output, or
// its name when it has no outputs.
func (n *Node) Address() (*nodeid.Address, error) {
	raw := n.Name
	if len(n.Outputs) > 0 && n.Outputs[0] != "" {
		raw = n.Outputs[0]
	}
	if raw == "" {
		return nil, fmt.Errorf("node of kind %q has neither outputs nor a name", n.QualifiedOp())
	}
	addr, err := nodeid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid identity for %q node: %w", n.QualifiedOp(), err)
	}
	return addr, nil
}

// ID returns the canonical string form of the node's identity, or an empty
// string when the node cannot be identified.
func (n *Node) ID() string {
	addr, err := n.Address()
	if err != nil {
		return ""
	}
	return addr.String()
}

// QualifiedOp returns "domain::op" for nodes outside the default domain.
func (n *Node) QualifiedOp() string {
	if n.Domain == "" {
		return n.OpType
	}
	return n.Domain + "::" + n.OpType
}

// Produces reports whether the node lists name among its outputs.
func (n *Node) Produces(name string) bool {
	return slices.Contains(n.Outputs, name)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	return &Node{
		Name:    n.Name,
		OpType:  n.OpType,
		Domain:  n.Domain,
		Inputs:  slices.Clone(n.Inputs),
		Outputs: slices.Clone(n.Outputs),
	}
}
