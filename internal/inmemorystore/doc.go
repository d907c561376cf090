// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the valuestore.Store interface.
//
// # Concurrency Model
//
// Unlike inmemorytopology which uses RWMutex, this store uses sync.Map:
//   - **Disjoint Writers:** every stage writes its own value names
//   - **Write Once, Read Later:** a value is read only after the event that
//     follows its write has fired
package inmemorystore
