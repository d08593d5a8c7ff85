// grid is a rectangular arrangement of independently paintable cells separated by
// uniform gaps. Cell geometry is fixed at construction; only the display attributes
// of a cell change afterwards.
package grid

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cellgrid/input"
	"cellgrid/render"
)

const (
	defaultSize      = 400.0
	defaultLineWidth = 1.0
)

// ErrInvalidGeometry is returned when the grid cannot be laid out.
var ErrInvalidGeometry = errors.New("invalid grid geometry")

// CustomDraw is a per-cell render callback, run after the color and image are painted.
type CustomDraw func(cell *Cell, surface render.Surface)

// Grid owns rows x columns cells in row-major order.
type Grid struct {
	rows, columns       int
	x, y, width, height float64
	cellWidth           float64
	cellHeight          float64
	lineWidth           float64
	color               string
	canvas              *render.Canvas
	cells               [][]*Cell
	observers           []func(*Cell)

	// Activation is edge-triggered: a held press activates at most one cell.
	activatable bool
	activeCell  *Cell
}

// Option configures a Grid at construction.
type Option func(*Grid)

// WithBounds sets the pixel rectangle the grid covers.
func WithBounds(x, y, width, height float64) Option {
	return func(g *Grid) {
		g.x, g.y, g.width, g.height = x, y, width, height
	}
}

func WithLineWidth(lineWidth float64) Option {
	return func(g *Grid) {
		g.lineWidth = lineWidth
	}
}

// WithColor sets the background color, which shows through the gaps between cells.
func WithColor(color string) Option {
	return func(g *Grid) {
		g.color = color
	}
}

// WithCanvas attaches the canvas Draw paints on. Unless bounds are given the grid
// covers the whole canvas.
func WithCanvas(canvas *render.Canvas) Option {
	return func(g *Grid) {
		g.canvas = canvas
	}
}

// NewGrid lays out a rows x columns grid. Rows and columns must be at least one, the
// line width non-negative, and the resulting cells must have positive size.
func NewGrid(rows, columns int, opts ...Option) (*Grid, error) {
	g := &Grid{
		rows:        rows,
		columns:     columns,
		lineWidth:   defaultLineWidth,
		width:       math.NaN(),
		height:      math.NaN(),
		activatable: true,
	}
	for _, opt := range opts {
		opt(g)
	}

	if math.IsNaN(g.width) || math.IsNaN(g.height) {
		w, h := defaultSize, defaultSize
		if g.canvas != nil {
			w, h = g.canvas.Size()
		}
		g.width, g.height = w-2*g.x, h-2*g.y
	}
	if g.color == "" && g.canvas != nil {
		g.color = g.canvas.Foreground
	}

	if rows < 1 || columns < 1 {
		return nil, fmt.Errorf("%w: %d rows x %d columns", ErrInvalidGeometry, rows, columns)
	}
	if g.lineWidth < 0 {
		return nil, fmt.Errorf("%w: negative line width %g", ErrInvalidGeometry, g.lineWidth)
	}

	g.cellWidth = (g.width - float64(columns+1)*g.lineWidth) / float64(columns)
	g.cellHeight = (g.height - float64(rows+1)*g.lineWidth) / float64(rows)
	if g.cellWidth <= 0 || g.cellHeight <= 0 {
		return nil, fmt.Errorf("%w: %gx%g pixels leaves no room for %dx%d cells",
			ErrInvalidGeometry, g.width, g.height, rows, columns)
	}

	g.cells = make([][]*Cell, rows)
	for i := 0; i < rows; i++ {
		g.cells[i] = make([]*Cell, columns)
		for j := 0; j < columns; j++ {
			g.cells[i][j] = &Cell{
				grid:   g,
				Row:    i,
				Column: j,
				X:      g.x + float64(j)*(g.cellWidth+g.lineWidth) + g.lineWidth,
				Y:      g.y + float64(i)*(g.cellHeight+g.lineWidth) + g.lineWidth,
				Width:  g.cellWidth,
				Height: g.cellHeight,
			}
		}
	}

	return g, nil
}

func (g *Grid) Rows() int    { return g.rows }
func (g *Grid) Columns() int { return g.columns }

// Bounds returns the pixel rectangle covered by the grid.
func (g *Grid) Bounds() render.Rect {
	return render.Rect{X: g.x, Y: g.y, Width: g.width, Height: g.height}
}

// CellSize returns the uniform cell width and height.
func (g *Grid) CellSize() (width, height float64) {
	return g.cellWidth, g.cellHeight
}

func (g *Grid) LineWidth() float64 { return g.lineWidth }
func (g *Grid) Color() string      { return g.color }

// At returns the cell at (row, column), or nil when out of range.
func (g *Grid) At(row, column int) *Cell {
	if row < 0 || row >= g.rows || column < 0 || column >= g.columns {
		return nil
	}
	return g.cells[row][column]
}

// GetCell returns the cell containing the pixel (x, y), or nil when the point lies in
// a gap between cells, on the border, or outside the grid. Both axes must resolve.
func (g *Grid) GetCell(x, y float64) *Cell {
	column, ok := axisIndex(x-g.x, g.cellWidth, g.lineWidth, g.columns)
	if !ok {
		return nil
	}
	row, ok := axisIndex(y-g.y, g.cellHeight, g.lineWidth, g.rows)
	if !ok {
		return nil
	}
	return g.cells[row][column]
}

// axisIndex resolves a coordinate relative to the grid origin to a cell index on one
// axis. Each cell begins lineWidth past the start of its period.
func axisIndex(coord, cellSize, lineWidth float64, count int) (int, bool) {
	offset := coord - lineWidth
	period := cellSize + lineWidth
	index := math.Floor(offset / period)
	// Written so NaN fails both checks.
	if !(index >= 0 && index < float64(count)) {
		return 0, false
	}
	if rem := offset - index*period; !(rem >= 0 && rem < cellSize) {
		return 0, false
	}
	return int(index), true
}

// Center returns the pixel center of the cell at (row, column).
func (g *Grid) Center(row, column int) (x, y float64) {
	x = g.x + g.lineWidth + float64(column)*(g.cellWidth+g.lineWidth) + g.cellWidth/2
	y = g.y + g.lineWidth + float64(row)*(g.cellHeight+g.lineWidth) + g.cellHeight/2
	return
}

// Visit calls fn for every cell in row-major order.
func (g *Grid) Visit(fn func(cell *Cell)) {
	for _, row := range g.cells {
		for _, cell := range row {
			fn(cell)
		}
	}
}

// Observe registers fn to be called with each cell whose display attributes change.
func (g *Grid) Observe(fn func(*Cell)) {
	g.observers = append(g.observers, fn)
}

func (g *Grid) changed(cell *Cell) {
	for _, fn := range g.observers {
		fn(cell)
	}
}

// Canvas returns the attached canvas, or nil.
func (g *Grid) Canvas() *render.Canvas {
	return g.canvas
}

// Draw paints the background and then every cell. A cell that fails to draw does not
// stop the others; the first failure is returned. Drawing without a canvas is a no-op.
func (g *Grid) Draw(ctx context.Context) (err error) {
	if g.canvas == nil {
		return nil
	}
	if g.color != "" {
		g.canvas.Surface.Fill(g.Bounds(), g.color)
	}
	for _, row := range g.cells {
		for _, cell := range row {
			if cellErr := cell.Draw(ctx); cellErr != nil && err == nil {
				err = cellErr
			}
		}
	}
	return
}

// Activate checks the pointer in snap and, on a new press over a cell, makes that cell
// active and returns true. While the press is held no further activation happens.
func (g *Grid) Activate(snap input.Snapshot) bool {
	x, y, pressed := snap.Pointer()
	if !pressed {
		g.activatable = true
		return false
	}
	if !g.activatable {
		return false
	}
	g.activatable = false
	g.activeCell = g.GetCell(x, y)
	return g.activeCell != nil
}

// ActiveCell returns the cell chosen by the last press, or nil if it missed every cell.
func (g *Grid) ActiveCell() *Cell {
	return g.activeCell
}
