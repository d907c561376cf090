package scheduler

import (
	"fmt"

	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/timeline"
)

// Planner is the default Scheduler.
type Planner struct {
	pool       EventPool
	tl         *timeline.Timeline
	numBatches int
}

var _ Scheduler = (*Planner)(nil)

// New creates a planner bounded by the capacity of pool.
func New(pool EventPool) *Planner {
	return &Planner{pool: pool}
}

// Timeline returns the generated timeline, or nil before generation.
func (p *Planner) Timeline() *timeline.Timeline {
	return p.tl
}

// NumBatches returns the batch count of the generated timeline.
func (p *Planner) NumBatches() int {
	return p.numBatches
}

// GenerateOneFWOneBWTimeline places batches one at a time. The first batch
// leaves 2(S-1) idle slots between its forward and backward at stage 0, and
// every batch then needs one forward and one backward slot per stage.
func (p *Planner) GenerateOneFWOneBWTimeline(numStages, numBatches int) error {
	if numStages < 1 || numBatches < 1 {
		return fmt.Errorf("%w: %d stages, %d batches", ErrInvalidShape, numStages, numBatches)
	}

	tl := timeline.New(numStages, 2*(numStages-1)+2*numBatches)
	tFw := make([]int, numStages)
	tBw := make([]int, numStages)

	for batch := 0; batch < numBatches; batch++ {
		for s := 0; s < numStages; s++ {
			for tl.IsOccupied(s, tFw[s]) {
				tFw[s]++
			}
			for ss := s + 1; ss < numStages; ss++ {
				tFw[ss] = max(tFw[ss], tFw[s]+(ss-s))
			}
			tl.Occupy(s, tFw[s], batch, pipeline.Forward)
			tFw[s]++
		}

		for s := numStages - 1; s >= 0; s-- {
			tBw[s] = max(tFw[s], tBw[s])
			for tl.IsOccupied(s, tBw[s]) {
				tBw[s]++
			}
			for ss := s - 1; ss >= 0; ss-- {
				tBw[ss] = max(tBw[ss], tBw[s]+(s-ss))
			}
			tl.Occupy(s, tBw[s], batch, pipeline.Backward)
		}
	}

	p.tl = tl
	p.numBatches = numBatches
	return nil
}

// CreatePlan chains the occupied slots of one stage: the first slot waits on
// pipeline.NoWait and records startEventID, each later slot waits on the
// previous record.
//
// At stage 0 a batch becomes retired once its backward slot is done, and the
// list of batches retired since the previous forward slot is attached to the
// batch starting next.
func (p *Planner) CreatePlan(startEventID int64, stage int, plan []pipeline.BatchInfo) (int64, error) {
	if p.tl == nil {
		return 0, ErrNoTimeline
	}
	if stage < 0 || stage >= p.tl.NumStages() {
		return 0, fmt.Errorf("%w: stage %d not in [0,%d)", ErrInvalidShape, stage, p.tl.NumStages())
	}
	if len(plan) < p.numBatches {
		return 0, fmt.Errorf("%w: plan holds %d batches, timeline has %d", ErrInvalidShape, len(plan), p.numBatches)
	}
	if startEventID < 0 {
		return 0, fmt.Errorf("%w: negative start event id %d", ErrInvalidShape, startEventID)
	}

	events := make([][]pipeline.EventPair, p.numBatches)
	retired := make(map[int][]int)
	var pending []int

	prev, next := pipeline.NoWait, startEventID
	capacity := p.pool.Capacity()
	_, cells := p.tl.Occupied(stage)
	for _, cell := range cells {
		if next >= capacity {
			return 0, fmt.Errorf("%w: stage %d needs event id %d, capacity is %d", ErrEventPoolExhausted, stage, next, capacity)
		}
		if stage == 0 {
			if cell.Dir == pipeline.Forward {
				retired[cell.Batch] = append(make([]int, 0, len(pending)), pending...)
				pending = pending[:0]
			} else {
				pending = append(pending, cell.Batch)
			}
		}
		events[cell.Batch] = append(events[cell.Batch], pipeline.EventPair{Wait: prev, Record: next})
		prev, next = next, next+1
	}

	for batch, pairs := range events {
		plan[batch].Events = append(plan[batch].Events, pairs...)
	}
	for batch, list := range retired {
		plan[batch].RetiredBatches = list
	}
	return next, nil
}
