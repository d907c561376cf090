package partition

import "errors"

var (
	// ErrNoCuts is returned when Split is called without any cut.
	ErrNoCuts = errors.New("at least one cut is required")

	// ErrUnassignedNode reports a graph node no cut lists.
	ErrUnassignedNode = errors.New("node is not assigned to any cut")

	// ErrDuplicateAssignment reports a node listed more than once.
	ErrDuplicateAssignment = errors.New("node is assigned more than once")

	// ErrUnknownNode reports a cut entry naming no node of the graph.
	ErrUnknownNode = errors.New("cut references an unknown node")

	// ErrMissingValue reports a synchronized value the graph knows nothing about.
	ErrMissingValue = errors.New("synchronized value not found in graph")

	// ErrGraphInputOutsideFirstStage reports a graph input used as a sync
	// input anywhere but the first forward segment.
	ErrGraphInputOutsideFirstStage = errors.New("graph input synchronized outside the first forward segment")
)
