// Package timeline implements the stage by slot occupancy grid of a pipeline
// schedule. Cells are write-once.
package timeline

import (
	"fmt"

	"github.com/vk/pipegrid/internal/pipeline"
)

// Slot is one cell of the grid.
type Slot struct {
	Occupied bool
	Dir      pipeline.Direction
	Batch    int
}

// String renders the slot as F<batch>, B<batch>, or "." when unused.
func (s Slot) String() string {
	if !s.Occupied {
		return "."
	}
	if s.Dir == pipeline.Backward {
		return fmt.Sprintf("B%d", s.Batch)
	}
	return fmt.Sprintf("F%d", s.Batch)
}

// Timeline is a fixed-size grid of slots, one row per stage. The zero value is
// an empty timeline; call Initialize before use.
type Timeline struct {
	slots [][]Slot
}

// New returns an initialized timeline.
func New(numStages, numSlots int) *Timeline {
	t := &Timeline{}
	t.Initialize(numStages, numSlots)
	return t
}

// Initialize discards any previous content and sizes the grid.
func (t *Timeline) Initialize(numStages, numSlots int) {
	t.slots = make([][]Slot, numStages)
	for s := range t.slots {
		t.slots[s] = make([]Slot, numSlots)
	}
}

// NumStages returns the number of rows.
func (t *Timeline) NumStages() int {
	return len(t.slots)
}

// NumSlots returns the number of slots per stage.
func (t *Timeline) NumSlots() int {
	if len(t.slots) == 0 {
		return 0
	}
	return len(t.slots[0])
}

// IsOccupied reports whether a cell has been written.
func (t *Timeline) IsOccupied(stage, slot int) bool {
	return t.slots[stage][slot].Occupied
}

// Get returns the content of a cell.
func (t *Timeline) Get(stage, slot int) Slot {
	return t.slots[stage][slot]
}

// Occupy assigns a cell to one pass of a batch. It panics if the cell is
// already occupied.
func (t *Timeline) Occupy(stage, slot, batch int, dir pipeline.Direction) {
	cell := &t.slots[stage][slot]
	if cell.Occupied {
		panic(fmt.Sprintf("timeline: slot %d of stage %d already holds %s, cannot place %s",
			slot, stage, cell, Slot{Occupied: true, Dir: dir, Batch: batch}))
	}
	*cell = Slot{Occupied: true, Dir: dir, Batch: batch}
}

// Occupied returns the occupied cells of a stage in chronological order
// together with their slot indices.
func (t *Timeline) Occupied(stage int) (slots []int, cells []Slot) {
	for i, cell := range t.slots[stage] {
		if cell.Occupied {
			slots = append(slots, i)
			cells = append(cells, cell)
		}
	}
	return slots, cells
}
