package pipeline

import "fmt"

// DataEvents is the layout of data-event ids. Every batch owns a block of
// 2(S-1) consecutive ids starting at Base:
//
//	record_data_s_fw  = wait_data_{s+1}_fw = block + s              (s < S-1)
//	record_data_s_bw  = wait_data_{s-1}_bw = block + (S-1) + (S-1-s) (s > 0)
type DataEvents struct {
	Base   int64
	Stages int
}

// PerBatch is the number of data events one batch consumes.
func (l DataEvents) PerBatch() int64 {
	if l.Stages < 1 {
		return 0
	}
	return 2 * int64(l.Stages-1)
}

// End returns the first id past the data range for the given batch count.
func (l DataEvents) End(batches int) int64 {
	return l.Base + int64(batches)*l.PerBatch()
}

// HasUpstream reports whether a segment receives data from a neighbouring
// stage. Forward segments read from stage-1, backward segments from stage+1.
func HasUpstream(stage, stages int, dir Direction) bool {
	if dir == Forward {
		return stage > 0
	}
	return stage+1 < stages
}

// HasDownstream reports whether a segment hands data to a neighbouring stage.
// Forward segments feed stage+1, backward segments feed stage-1.
func HasDownstream(stage, stages int, dir Direction) bool {
	if dir == Forward {
		return stage+1 < stages
	}
	return stage > 0
}

// Record returns the id a segment fires once its outputs are published. It
// reports false for segments with no downstream neighbour.
func (l DataEvents) Record(batch, stage int, dir Direction) (int64, bool) {
	if !HasDownstream(stage, l.Stages, dir) {
		return 0, false
	}
	block := l.Base + int64(batch)*l.PerBatch()
	last := l.Stages - 1
	if dir == Forward {
		return block + int64(stage), true
	}
	return block + int64(last) + int64(last-stage), true
}

// Wait returns the id a segment waits on before reading its inputs. It
// reports false for segments with no upstream neighbour.
func (l DataEvents) Wait(batch, stage int, dir Direction) (int64, bool) {
	if !HasUpstream(stage, l.Stages, dir) {
		return 0, false
	}
	if dir == Forward {
		return l.Record(batch, stage-1, Forward)
	}
	return l.Record(batch, stage+1, Backward)
}

// Feeds returns the value of every event input of one stage for one batch.
// Sub-graphs declare only the inputs they use, so callers pick from the map
// by name.
func (l DataEvents) Feeds(info BatchInfo, batch, stage int) (map[string]int64, error) {
	if stage < 0 || stage >= l.Stages {
		return nil, fmt.Errorf("stage %d out of range [0,%d)", stage, l.Stages)
	}
	fw, bw, err := info.StageEvents(stage)
	if err != nil {
		return nil, fmt.Errorf("batch %d: %w", batch, err)
	}

	feeds := map[string]int64{
		WaitPipelineInput(stage, Forward):    fw.Wait,
		RecordPipelineInput(stage, Forward):  fw.Record,
		WaitPipelineInput(stage, Backward):   bw.Wait,
		RecordPipelineInput(stage, Backward): bw.Record,
	}
	for _, dir := range Directions {
		if id, ok := l.Wait(batch, stage, dir); ok {
			feeds[WaitDataInput(stage, dir)] = id
		}
		if id, ok := l.Record(batch, stage, dir); ok {
			feeds[RecordDataInput(stage, dir)] = id
		}
	}
	return feeds, nil
}
