package scheduler

import (
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/timeline"
)

// Scheduler decides when every stage runs every batch's forward and backward
// segment, and which event ids guard each of those runs.
//
// # Why Scheduler Exists
//
// Sub-graphs produced by the partitioner only know the names of their event
// inputs. The scheduler supplies the values: for each stage it walks the
// timeline in chronological order and chains one (wait, record) pair per
// occupied slot, so a stage can never start a slot before finishing the
// previous one.
//
// # Lifecycle
//
//  1. **Generate** the timeline once for a (stages, batches) shape
//  2. **Plan** every stage, in stage order, into a shared []pipeline.BatchInfo
//  3. **Hand off** the plan to the runtime, which may reuse it for any number
//     of runs since it depends only on the shape
//
// # Thread-Safety
//
// Implementations are not safe for concurrent use. Schedules are computed
// once, before any execution starts.
type Scheduler interface {
	// GenerateOneFWOneBWTimeline sizes the timeline to 2(S-1)+2B slots per
	// stage and places every batch, in batch order, forward first.
	GenerateOneFWOneBWTimeline(numStages, numBatches int) error

	// CreatePlan appends the event pairs of one stage to the plan and, for
	// stage 0, sets each batch's retired list. It returns the first unused
	// event id. On error the plan is left untouched.
	CreatePlan(startEventID int64, stage int, plan []pipeline.BatchInfo) (int64, error)

	// Timeline exposes the generated grid for diagnostics.
	Timeline() *timeline.Timeline
}

// EventPool is the part of the event pool the scheduler depends on.
type EventPool interface {
	Capacity() int64
}
