package scheduler

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/eventpool"
	"github.com/vk/pipegrid/internal/pipeline"
)

type fixedPool int64

func (p fixedPool) Capacity() int64 { return int64(p) }

func pairs(ids ...int64) []pipeline.EventPair {
	out := make([]pipeline.EventPair, 0, len(ids)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		out = append(out, pipeline.EventPair{Wait: ids[i], Record: ids[i+1]})
	}
	return out
}

func TestPlanner_ThreeStagesSixBatches(t *testing.T) {
	p := New(eventpool.New(eventpool.DefaultCapacity))
	plan, ends, err := p.Plan(6, []int64{100, 200, 300})
	require.NoError(t, err)

	assert.Equal(t, []int64{112, 212, 312}, ends)

	want := []pipeline.BatchInfo{
		{Events: pairs(-1, 100, 104, 105, -1, 200, 202, 203, -1, 300, 300, 301), RetiredBatches: []int{}},
		{Events: pairs(100, 101, 106, 107, 200, 201, 204, 205, 301, 302, 302, 303), RetiredBatches: []int{}},
		{Events: pairs(101, 102, 107, 108, 201, 202, 206, 207, 303, 304, 304, 305), RetiredBatches: []int{}},
		{Events: pairs(102, 103, 108, 109, 203, 204, 208, 209, 305, 306, 306, 307), RetiredBatches: []int{}},
		{Events: pairs(103, 104, 109, 110, 205, 206, 209, 210, 307, 308, 308, 309), RetiredBatches: []int{}},
		{Events: pairs(105, 106, 110, 111, 207, 208, 210, 211, 309, 310, 310, 311), RetiredBatches: []int{0}},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	wantChart := "stage 0: F0 F1 F2 F3 F4 B0 F5 B1 .  B2 .  B3 .  B4 .  B5\n" +
		"stage 1: .  F0 F1 F2 B0 F3 B1 F4 B2 F5 B3 .  B4 .  B5 .\n" +
		"stage 2: .  .  F0 B0 F1 B1 F2 B2 F3 B3 F4 B4 F5 B5 .  .\n"
	assert.Equal(t, wantChart, p.Timeline().String())
}

func TestPlanner_StageZeroSeventhSlot(t *testing.T) {
	p := New(fixedPool(1000))
	require.NoError(t, p.GenerateOneFWOneBWTimeline(3, 6))

	plan := make([]pipeline.BatchInfo, 6)
	end, err := p.CreatePlan(100, 0, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(112), end)

	slots, cells := p.Timeline().Occupied(0)
	require.Len(t, slots, 12)
	assert.Equal(t, "F5", cells[6].String())
	assert.Equal(t, pipeline.EventPair{Wait: 105, Record: 106}, plan[5].Events[0])
	assert.Equal(t, []int{0}, plan[5].RetiredBatches)
}

func TestCreatePlan_EventPoolBoundary(t *testing.T) {
	testCases := []struct {
		name     string
		capacity int64
		wantErr  bool
	}{
		{name: "last id fits", capacity: 112},
		{name: "last id at capacity", capacity: 111, wantErr: true},
		{name: "start id at capacity", capacity: 100, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(fixedPool(tc.capacity))
			require.NoError(t, p.GenerateOneFWOneBWTimeline(3, 6))
			plan := make([]pipeline.BatchInfo, 6)

			end, err := p.CreatePlan(100, 0, plan)
			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, int64(112), end)
				return
			}
			assert.ErrorIs(t, err, ErrEventPoolExhausted)
			for b, info := range plan {
				assert.Empty(t, info.Events, "batch %d must be untouched", b)
				assert.Nil(t, info.RetiredBatches, "batch %d must be untouched", b)
			}
		})
	}
}

func TestCreatePlan_Errors(t *testing.T) {
	p := New(fixedPool(100))
	_, err := p.CreatePlan(0, 0, nil)
	assert.ErrorIs(t, err, ErrNoTimeline)

	assert.ErrorIs(t, p.GenerateOneFWOneBWTimeline(0, 3), ErrInvalidShape)
	assert.ErrorIs(t, p.GenerateOneFWOneBWTimeline(2, 0), ErrInvalidShape)

	require.NoError(t, p.GenerateOneFWOneBWTimeline(2, 3))
	_, err = p.CreatePlan(0, 2, make([]pipeline.BatchInfo, 3))
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = p.CreatePlan(0, 0, make([]pipeline.BatchInfo, 2))
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = p.CreatePlan(-5, 0, make([]pipeline.BatchInfo, 3))
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestPlanner_SingleStage(t *testing.T) {
	p := New(fixedPool(100))
	plan, ends, err := p.Plan(3, []int64{0})
	require.NoError(t, err)

	assert.Equal(t, []int64{6}, ends)
	assert.Equal(t, "stage 0: F0 B0 F1 B1 F2 B2\n", p.Timeline().String())
	assert.Equal(t, []int{}, plan[0].RetiredBatches)
	assert.Equal(t, []int{0}, plan[1].RetiredBatches)
	assert.Equal(t, []int{1}, plan[2].RetiredBatches)
}

// slotsOf returns, per stage, the forward and backward slot of every batch.
func slotsOf(t *testing.T, p *Planner, numStages, numBatches int) (fw, bw [][]int) {
	t.Helper()
	fw = make([][]int, numStages)
	bw = make([][]int, numStages)
	for s := range numStages {
		fw[s] = make([]int, numBatches)
		bw[s] = make([]int, numBatches)
		for b := range numBatches {
			fw[s][b], bw[s][b] = -1, -1
		}
		slots, cells := p.Timeline().Occupied(s)
		for i, cell := range cells {
			target := fw[s]
			if cell.Dir == pipeline.Backward {
				target = bw[s]
			}
			require.Equal(t, -1, target[cell.Batch], "stage %d holds %s twice", s, cell)
			target[cell.Batch] = slots[i]
		}
	}
	return fw, bw
}

func TestPlanner_Properties(t *testing.T) {
	for numStages := 1; numStages <= 8; numStages++ {
		for numBatches := 1; numBatches <= 20; numBatches++ {
			t.Run(fmt.Sprintf("S%d_B%d", numStages, numBatches), func(t *testing.T) {
				starts := DefaultStartEventIDs(numBatches, pipeline.DataEvents{Stages: numStages})
				p := New(fixedPool(eventpool.DefaultCapacity))
				plan, ends, err := p.Plan(numBatches, starts)
				require.NoError(t, err)

				fw, bw := slotsOf(t, p, numStages, numBatches)
				for s := range numStages {
					assert.Equal(t, starts[s]+EventsPerStage(numBatches), ends[s])
					for b := range numBatches {
						require.NotEqual(t, -1, fw[s][b])
						require.NotEqual(t, -1, bw[s][b])
						assert.Greater(t, bw[s][b], fw[s][b], "backward after forward")
						if s+1 < numStages {
							assert.Greater(t, fw[s+1][b], fw[s][b], "forward flows downstream")
							assert.Greater(t, bw[s][b], bw[s+1][b], "backward flows upstream")
						}
					}
				}

				for s := range numStages {
					_, cells := p.Timeline().Occupied(s)
					prev := pipeline.NoWait
					next := make([]int, numBatches)
					for _, cell := range cells {
						pair := plan[cell.Batch].Events[2*s+next[cell.Batch]]
						next[cell.Batch]++
						assert.Equal(t, prev, pair.Wait, "hand-off chain of stage %d", s)
						prev = pair.Record
					}
				}

				seen := make(map[int]bool)
				live := 0
				for b := range numBatches {
					for _, r := range plan[b].RetiredBatches {
						assert.False(t, seen[r], "batch %d retired twice", r)
						seen[r] = true
						assert.Less(t, bw[0][r], fw[0][b], "batch %d retired before its stage-0 backward", r)
					}
					live += 1 - len(plan[b].RetiredBatches)
					assert.LessOrEqual(t, live, 2*numStages-1)
				}
			})
		}
	}
}

func TestDefaultStartEventIDs(t *testing.T) {
	data := pipeline.DataEvents{Base: 10, Stages: 3}
	starts := DefaultStartEventIDs(6, data)

	assert.Equal(t, []int64{34, 46, 58}, starts)
	assert.NoError(t, ValidateRanges(starts, 6, data))
}

func TestValidateRanges(t *testing.T) {
	data := pipeline.DataEvents{Base: 0, Stages: 3}

	assert.NoError(t, ValidateRanges([]int64{100, 200, 300}, 6, data))

	err := ValidateRanges([]int64{100, 105, 300}, 6, data)
	assert.ErrorIs(t, err, ErrOverlappingRanges)
	assert.Contains(t, err.Error(), "stage 0")

	err = ValidateRanges([]int64{20, 200, 300}, 6, data)
	assert.ErrorIs(t, err, ErrOverlappingRanges)
	assert.Contains(t, err.Error(), "data events")

	assert.ErrorIs(t, ValidateRanges([]int64{100}, 6, data), ErrInvalidShape)
}
