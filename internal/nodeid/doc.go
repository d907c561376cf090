/*
Package nodeid provides a type-safe identity for nodes of a computation graph.

A node is identified by the name of its first output, for example
`/encoder/layer.0/Add_output_0` or `MeanSquaredError_reduce_mean_Grad/Tiled_Grad`.
Nodes that produce no outputs (pure ordering nodes) fall back to their own
name. Value names are opaque: slashes, dots and spaces carry no structure and
are kept byte for byte. Only the empty string is rejected.

The graph model refuses to hold two nodes with the same Address, which makes
the mapping from node to Address injective. Cut specifications refer to nodes
through this package only.
*/
package nodeid
