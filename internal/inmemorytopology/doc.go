// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface. Nodes are kept in a
// slice to preserve order, with two maps indexing identities and produced
// values.
package inmemorytopology
