package scheduler

import (
	"fmt"

	"github.com/vk/pipegrid/internal/pipeline"
)

// EventsPerStage is the number of pipeline event ids one stage consumes.
func EventsPerStage(numBatches int) int64 {
	return 2 * int64(numBatches)
}

// DefaultStartEventIDs lays stage ranges out back to back, right after the
// data events.
func DefaultStartEventIDs(numBatches int, data pipeline.DataEvents) []int64 {
	starts := make([]int64, data.Stages)
	next := data.End(numBatches)
	for s := range starts {
		starts[s] = next
		next += EventsPerStage(numBatches)
	}
	return starts
}

type idRange struct {
	owner      string
	start, end int64
}

// ValidateRanges checks that no two stages, and no stage and the data
// events, share an event id.
func ValidateRanges(starts []int64, numBatches int, data pipeline.DataEvents) error {
	if len(starts) != data.Stages {
		return fmt.Errorf("%w: %d start ids for %d stages", ErrInvalidShape, len(starts), data.Stages)
	}

	ranges := []idRange{{owner: "data events", start: data.Base, end: data.End(numBatches)}}
	for s, start := range starts {
		ranges = append(ranges, idRange{
			owner: fmt.Sprintf("stage %d", s),
			start: start,
			end:   start + EventsPerStage(numBatches),
		})
	}

	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			if a.start == a.end || b.start == b.end {
				continue
			}
			if a.start < b.end && b.start < a.end {
				return fmt.Errorf("%w: %s [%d,%d) and %s [%d,%d)",
					ErrOverlappingRanges, a.owner, a.start, a.end, b.owner, b.start, b.end)
			}
		}
	}
	return nil
}

// Plan generates the timeline and plans every stage in order. It returns the
// per-batch plan and the first unused id of each stage.
func (p *Planner) Plan(numBatches int, starts []int64) ([]pipeline.BatchInfo, []int64, error) {
	if err := p.GenerateOneFWOneBWTimeline(len(starts), numBatches); err != nil {
		return nil, nil, err
	}

	plan := make([]pipeline.BatchInfo, numBatches)
	ends := make([]int64, len(starts))
	for stage, start := range starts {
		end, err := p.CreatePlan(start, stage, plan)
		if err != nil {
			return nil, nil, err
		}
		ends[stage] = end
	}
	return plan, ends, nil
}
