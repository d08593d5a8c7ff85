package grid

import (
	"context"

	"cellgrid/render"
)

// Cell is one paintable region of a Grid. Geometry fields are fixed; color, image and
// custom are the display attributes, each empty/nil when unset.
type Cell struct {
	grid                *Grid
	Row, Column         int
	X, Y, Width, Height float64

	color  string
	image  string
	custom CustomDraw

	// Tag is free for callers to attach their own data.
	Tag interface{}
}

// Grid returns the grid owning this cell.
func (c *Cell) Grid() *Grid { return c.grid }

func (c *Cell) Color() string      { return c.color }
func (c *Cell) Image() string      { return c.image }
func (c *Cell) Custom() CustomDraw { return c.custom }

// SetColor sets the fill color; "" clears it. Observers are notified on change only.
func (c *Cell) SetColor(color string) {
	if c.color == color {
		return
	}
	c.color = color
	c.grid.changed(c)
}

// SetImage sets the image path; "" clears it.
func (c *Cell) SetImage(path string) {
	if c.image == path {
		return
	}
	c.image = path
	c.grid.changed(c)
}

// SetCustom sets the custom render callback; nil clears it.
func (c *Cell) SetCustom(fn CustomDraw) {
	c.custom = fn
	c.grid.changed(c)
}

// Rect returns the cell's pixel rectangle.
func (c *Cell) Rect() render.Rect {
	return render.Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// Draw clears the cell, then paints its color, its image and its custom callback in that
// order. An image that fails to load aborts the draw and is reported.
func (c *Cell) Draw(ctx context.Context) error {
	canvas := c.grid.canvas
	if canvas == nil {
		return nil
	}

	canvas.Surface.Clear(c.Rect())
	if c.color != "" {
		canvas.Surface.Fill(c.Rect(), c.color)
	}
	if c.image != "" {
		if err := canvas.DrawImage(ctx, c.image, c.Rect()); err != nil {
			return err
		}
	}
	if c.custom != nil {
		c.custom(c, canvas.Surface)
	}
	return nil
}

// CellState is an immutable copy of a cell, safe to hand to other goroutines.
type CellState struct {
	Row, Column         int
	X, Y, Width, Height float64
	Color               string
	Image               string
}

func (c *Cell) State() CellState {
	return CellState{
		Row:    c.Row,
		Column: c.Column,
		X:      c.X,
		Y:      c.Y,
		Width:  c.Width,
		Height: c.Height,
		Color:  c.color,
		Image:  c.image,
	}
}

// Snapshot is a row-major copy of every cell's state.
type Snapshot [][]CellState

func (g *Grid) Snapshot() Snapshot {
	snap := make(Snapshot, g.rows)
	for i, row := range g.cells {
		snap[i] = make([]CellState, len(row))
		for j, cell := range row {
			snap[i][j] = cell.State()
		}
	}
	return snap
}
