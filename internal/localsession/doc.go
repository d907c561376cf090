// Package localsession provides an in-process, symbolic implementation of
// session.Session.
//
// Compute nodes are opaque: each output becomes a *Symbol recording the node
// and the argument values it was computed from. WaitEvent and RecordEvent
// nodes are honored against an event pool, which makes the package a dry run
// of the synchronization a real runtime would perform.
//
// # Synchronization Nodes
//
// Both operators take the event id as their first input. The following
// inputs are passed through, in order, to the outputs; inputs beyond the
// outputs are ordering dependencies and are only checked for presence.
//
//	WaitEvent:   wait(id)  then  outputs[i] = inputs[i+1]
//	RecordEvent: outputs[i] = inputs[i+1], publish, then record(id)
package localsession
