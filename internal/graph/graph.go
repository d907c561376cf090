// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package graph

import (
	"context"

	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/topologystore"
)

// ErrDuplicateNode is returned by AddNode for nodes whose identity or outputs
// collide with an earlier node.
var ErrDuplicateNode = topologystore.ErrDuplicateNode

// Graph is a named computation graph.
type Graph struct {
	Name string

	Inputs       *Table[ValueInfo]
	Outputs      *Table[ValueInfo]
	ValueInfo    *Table[ValueInfo]
	Initializers *Table[Initializer]

	nodes topologystore.Store
}

// New creates an empty graph backed by the given node store.
func New(name string, nodes topologystore.Store) *Graph {
	return &Graph{
		Name:         name,
		Inputs:       NewTable[ValueInfo](),
		Outputs:      NewTable[ValueInfo](),
		ValueInfo:    NewTable[ValueInfo](),
		Initializers: NewTable[Initializer](),
		nodes:        nodes,
	}
}

// AddNode appends a node after all existing ones.
func (g *Graph) AddNode(ctx context.Context, n *node.Node) error {
	return g.nodes.AddNode(ctx, n)
}

// Nodes returns the nodes in topological (insertion) order.
func (g *Graph) Nodes(ctx context.Context) []*node.Node {
	return g.nodes.AllNodes(ctx)
}

// Node looks a node up by identity.
func (g *Graph) Node(ctx context.Context, id nodeid.Address) (*node.Node, bool) {
	return g.nodes.GetNode(ctx, id)
}

// Position returns the order index of a node.
func (g *Graph) Position(ctx context.Context, id nodeid.Address) (int, bool) {
	return g.nodes.Position(ctx, id)
}

// Producer returns the node producing a value.
func (g *Graph) Producer(ctx context.Context, value string) (*node.Node, bool) {
	return g.nodes.Producer(ctx, value)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount(ctx context.Context) int {
	return g.nodes.Len(ctx)
}

// Describe returns the best metadata known for a value, looking at graph
// inputs, then shape records, then graph outputs.
func (g *Graph) Describe(name string) (ValueInfo, bool) {
	if vi, ok := g.Inputs.Get(name); ok {
		return vi, true
	}
	if vi, ok := g.ValueInfo.Get(name); ok {
		return vi, true
	}
	return g.Outputs.Get(name)
}
