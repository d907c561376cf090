// Package driver runs a partitioned graph batch by batch.
//
// Every batch gets one worker per stage. Workers of all in-flight batches run
// concurrently; the event ids of the plan order them. A batch owns a context
// (its value store) from its first worker start until it appears in the
// retired list of a later batch. At that point the driver joins its workers
// and hands the context to the next batch, so the number of contexts stays
// bounded by the plan rather than by the batch count.
package driver
