package pipeline

import (
	"fmt"
)

// NoWait is the wait id of a stage's very first occupied slot.
const NoWait int64 = -1

// Direction is the pass a segment belongs to.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Directions lists both passes in execution order.
var Directions = [...]Direction{Forward, Backward}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Suffix is the short form used in event input names.
func (d Direction) Suffix() string {
	if d == Backward {
		return "bw"
	}
	return "fw"
}

// EventPair is the (wait, record) ids of one occupied timeline slot.
type EventPair struct {
	Wait   int64 `json:"wait"`
	Record int64 `json:"record"`
}

func (p EventPair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Wait, p.Record)
}

// BatchInfo is the plan of one batch: its event pairs in the order the stages
// were planned, and the batches whose resources may be reused once this batch
// starts.
type BatchInfo struct {
	Events         []EventPair `json:"events"`
	RetiredBatches []int       `json:"retired_batches"`
}

// StageEvents returns the forward and backward pairs of the given stage. It
// relies on plans being created for stages 0..S-1 in order, which makes
// Events[2s] the forward and Events[2s+1] the backward slot of stage s.
func (b BatchInfo) StageEvents(stage int) (fw, bw EventPair, err error) {
	if stage < 0 || 2*stage+1 >= len(b.Events) {
		return EventPair{}, EventPair{}, fmt.Errorf("batch plan has %d event pairs, stage %d needs %d", len(b.Events), stage, 2*stage+2)
	}
	return b.Events[2*stage], b.Events[2*stage+1], nil
}
