// Package partition splits one computation graph into an ordered chain of
// self-contained sub-graphs, one per pipeline stage.
//
// # Cuts
//
// Each stage is described by a CutInfo holding a forward and a backward
// Segment. A segment lists the nodes it owns, the values it receives from
// other stages (SyncInputs), the values it publishes (SyncOutputs), and pure
// ordering dependencies (WaitDepends, RecordDepends). Across all cuts the node
// lists must partition the graph's nodes exactly.
//
// # Barriers
//
// Every segment entry and exit is guarded by a barrier of up to two levels:
//
//	wait_data -> wait_pipeline -> segment -> record_pipeline -> record_data
//
// Data events order one batch across neighbouring stages. Pipeline events
// order one stage across batches. The first forward entry has no upstream
// stage and skips the data wait; the last backward exit (stage 0) has no
// downstream stage and skips the data record.
//
// A value v crossing a boundary is renamed along the chain:
//
//	receiver: v_sync -> v_recv -> v
//	sender:   v -> v_send -> v_sync
package partition
