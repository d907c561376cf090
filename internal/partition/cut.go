package partition

import (
	"slices"

	"github.com/vk/pipegrid/internal/pipeline"
)

// Segment is one direction of a stage.
type Segment struct {
	// Nodes lists the identities of the nodes the segment owns.
	Nodes []string
	// SyncInputs are values produced by other stages (or graph inputs, for
	// the first forward segment) that the segment waits for.
	SyncInputs []string
	// SyncOutputs are values the segment publishes to other stages.
	SyncOutputs []string
	// WaitDepends are extra inputs of the first wait node, carrying no data.
	WaitDepends []string
	// RecordDepends are extra inputs of the first record node, carrying no data.
	RecordDepends []string
}

func (s Segment) needsEntry() bool {
	return len(s.SyncInputs)+len(s.WaitDepends) > 0
}

func (s Segment) needsExit() bool {
	return len(s.SyncOutputs)+len(s.RecordDepends) > 0
}

// CutInfo describes one stage.
type CutInfo struct {
	Forward  Segment
	Backward Segment
}

// Segment returns the segment of the given direction.
func (c CutInfo) Segment(dir pipeline.Direction) Segment {
	if dir == pipeline.Backward {
		return c.Backward
	}
	return c.Forward
}

func (c CutInfo) syncsInput(value string) bool {
	return slices.Contains(c.Forward.SyncInputs, value) || slices.Contains(c.Backward.SyncInputs, value)
}

func (c CutInfo) syncsOutput(value string) bool {
	return slices.Contains(c.Forward.SyncOutputs, value) || slices.Contains(c.Backward.SyncOutputs, value)
}
