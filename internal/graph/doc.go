// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package graph provides the in-memory Graph Model consumed and produced by
// the partitioner.
//
// # Structure
//
// A Graph combines two kinds of storage:
//
//   - **Nodes** (topologystore.Store): the ordered node list. Insertion order is
//     the original topological order and is preserved by every copy.
//   - **Value tables** (Table): graph inputs, graph outputs, constant
//     initializers and shape-metadata records, each keyed by value name and
//     kept in declaration order.
//
// # Invariant
//
// Every node input is a graph input, an initializer, or the output of an
// earlier node. Validate checks it, together with the rule that every graph
// output is produced by some node or passed straight through from an input.
//
// # Copy-by-name
//
// CopyByName implements the idempotent "copy if absent, under a new name"
// operation the partitioner uses to carry metadata from the main graph into
// sub-graphs. It reports whether the target name is present afterwards, so
// callers can tell a no-op from a lookup failure.
package graph
