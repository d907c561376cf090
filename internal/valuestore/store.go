// Package valuestore defines the interface for the named values one batch
// exchanges between pipeline stages.
//
// # Why Value Store Exists
//
// Stages of the same batch never call each other. A stage publishes the
// values it sends (T3_sync, ...) into the batch's store and fires a record
// event; the receiving stage waits on that event and only then reads the
// store. The event pair orders the accesses, the store only has to be safe for
// concurrent use.
//
// # Lifecycle and Usage
//
// A store is:
//  1. **Created** once per batch context
//  2. **Seeded** with the batch's graph inputs (X, labels, ...)
//  3. **Mutated** by every stage running the batch
//  4. **Reset** when the driver recycles the context for a later batch
package valuestore

import "context"

// Store is the interface for the named values of one batch.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Every stage of a batch
// runs on its own goroutine.
type Store interface {
	// Put sets a value, replacing any previous one.
	Put(ctx context.Context, name string, value any) error

	// Get returns a value and whether it was set.
	Get(ctx context.Context, name string) (any, bool)

	// Names returns the names of all values, sorted.
	Names(ctx context.Context) []string

	// Reset removes every value.
	Reset(ctx context.Context)
}
