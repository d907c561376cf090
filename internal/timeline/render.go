package timeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/vk/pipegrid/internal/pipeline"
)

// String renders the grid without colors, one line per stage:
//
//	stage 0: F0 F1 B0 F2 B1 .  B2
func (t *Timeline) String() string {
	var sb strings.Builder
	_ = t.render(&sb, func(_ Slot, text string) string { return text })
	return sb.String()
}

// Render writes the grid to w, coloring forward and backward slots when
// useColor is set.
func (t *Timeline) Render(w io.Writer, useColor bool) error {
	paint := func(_ Slot, text string) string { return text }
	if useColor {
		forward := color.New(color.FgCyan)
		backward := color.New(color.FgMagenta, color.Bold)
		idle := color.New(color.FgHiBlack)
		for _, c := range []*color.Color{forward, backward, idle} {
			c.EnableColor()
		}
		paint = func(cell Slot, text string) string {
			switch {
			case !cell.Occupied:
				return idle.Sprint(text)
			case cell.Dir == pipeline.Backward:
				return backward.Sprint(text)
			default:
				return forward.Sprint(text)
			}
		}
	}
	return t.render(w, paint)
}

func (t *Timeline) render(w io.Writer, paint func(Slot, string) string) error {
	width := 1
	for _, row := range t.slots {
		for _, cell := range row {
			width = max(width, len(cell.String()))
		}
	}

	for s, row := range t.slots {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = paint(cell, fmt.Sprintf("%-*s", width, cell.String()))
		}
		line := strings.TrimRight(strings.Join(cells, " "), " ")
		if _, err := fmt.Fprintf(w, "stage %d: %s\n", s, line); err != nil {
			return err
		}
	}
	return nil
}
