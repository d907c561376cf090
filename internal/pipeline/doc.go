// Package pipeline holds the vocabulary shared by the partitioner, the
// scheduler and the runtime driver: pass directions, event-id pairs, per-batch
// plans, and the naming and numbering of the event inputs inserted into
// sub-graphs.
//
// Each stage boundary is guarded by two kinds of events. Pipeline events order
// the work of one stage across batches and are assigned by the scheduler.
// Data events order one batch across neighbouring stages and follow the fixed
// per-batch layout described by DataEvents.
package pipeline
