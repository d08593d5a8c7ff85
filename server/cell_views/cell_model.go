// cell_views contains views derived from the Board view-model.
package cell_views

import (
	"fmt"
	"path"

	"cellgrid/maze"
)

// Cell is a grid cell flattened into view parameters. As a rule of thumb, Cell fields
// should be immediately usable in templates and ele-updates.
type Cell struct {
	Id                  string
	Row, Column         int
	X, Y, Width, Height float64
	Fill                string
	// Href is the served image url, empty when the cell shows no image.
	Href string
}

// Visibility is the svg visibility of the cell's image element.
func (c Cell) Visibility() string {
	if c.Href == "" {
		return "hidden"
	}
	return "visible"
}

// Board is the view-model of one replay frame.
type Board struct {
	ReplayID   string
	Width      float64
	Height     float64
	Background string
	Cells      [][]Cell
	Visited    int
	Step       int
	Agent      string
}

// CellId is the element id prefix of the cell at row, column.
func CellId(row, column int) string {
	return fmt.Sprintf("cell-%d-%d", row, column)
}

// NewConverter returns the frame to view-model conversion, serving cell images under
// imageRoute.
func NewConverter(imageRoute string) func(maze.Frame) Board {
	return func(frame maze.Frame) Board {
		return Convert(frame, imageRoute)
	}
}

// Convert transforms a replay frame into a Board. The svg viewport spans the grid's
// bounds including its origin offset.
func Convert(frame maze.Frame, imageRoute string) Board {
	board := Board{
		ReplayID:   frame.ReplayID,
		Width:      frame.Bounds.X + frame.Bounds.Width,
		Height:     frame.Bounds.Y + frame.Bounds.Height,
		Background: frame.Background,
		Cells:      make([][]Cell, len(frame.Cells)),
		Visited:    frame.Visited,
		Step:       frame.Step,
		Agent:      fmt.Sprintf("(%d, %d)", frame.Agent.Row, frame.Agent.Column),
	}
	for i, row := range frame.Cells {
		board.Cells[i] = make([]Cell, len(row))
		for j, state := range row {
			cell := Cell{
				Id:     CellId(state.Row, state.Column),
				Row:    state.Row,
				Column: state.Column,
				X:      state.X,
				Y:      state.Y,
				Width:  state.Width,
				Height: state.Height,
				Fill:   state.Color,
			}
			if state.Image != "" {
				cell.Href = path.Join(imageRoute, state.Image)
			}
			if cell.Fill == "" {
				cell.Fill = "none"
			}
			board.Cells[i][j] = cell
		}
	}
	return board
}
