package maze

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cellgrid/grid"
	"cellgrid/render"

	"github.com/charmbracelet/lipgloss"
)

// Palette is how a board paints the maze.
type Palette struct {
	Floor      string // every cell starts with this color
	Visited    string // color of visited cells
	Wall       string // wall color, used when WallImage is unset
	WallImage  string
	AgentImage string
}

// DefaultPalette matches the classic exercise: white floor, green trail, brick walls.
var DefaultPalette = Palette{
	Floor:      "white",
	Visited:    "green",
	Wall:       "black",
	WallImage:  "lada.png",
	AgentImage: "robot.png",
}

// Frame is a published view of the board after one replay event.
type Frame struct {
	ReplayID   string
	Step       int
	Agent      Position
	Visited    int
	Bounds     render.Rect
	Background string
	Cells      grid.Snapshot
}

// Board binds a puzzle to a grid and repaints cells as the replay observes visits and
// moves. Draw failures (an image that cannot be loaded) are logged and remembered but
// never stop the replay.
type Board struct {
	puzzle   *Puzzle
	grid     *grid.Grid
	palette  Palette
	replayID string
	agent    Position
	visited  int
	steps    int
	onFrame  []func(Frame)
	err      error
}

// NewBoard paints the puzzle's initial state onto g, which must have the puzzle's shape.
func NewBoard(ctx context.Context, puzzle *Puzzle, g *grid.Grid, palette Palette) (*Board, error) {
	if g.Rows() != puzzle.Rows || g.Columns() != puzzle.Columns {
		return nil, fmt.Errorf("%w: %dx%d grid for a %dx%d maze",
			ErrInvalidPuzzle, g.Rows(), g.Columns(), puzzle.Rows, puzzle.Columns)
	}

	board := &Board{
		puzzle:  puzzle,
		grid:    g,
		palette: palette,
		agent:   puzzle.Start,
	}

	g.Visit(func(cell *grid.Cell) {
		cell.SetColor(palette.Floor)
		switch puzzle.Tile(Position{Row: cell.Row, Column: cell.Column}) {
		case WALL:
			if palette.WallImage != "" {
				cell.SetImage(palette.WallImage)
			} else {
				cell.SetColor(palette.Wall)
			}
		case START:
			cell.SetImage(palette.AgentImage)
		}
	})

	if err := g.Draw(ctx); err != nil {
		board.fail(err)
	}
	return board, nil
}

// Follow returns the replay option that attaches the board to a replayer's events.
func (b *Board) Follow() ReplayOption {
	return func(r *Replayer) {
		b.replayID = r.id
		r.observers = append(r.observers, b)
	}
}

// OnFrame registers fn to receive a frame after each repaint.
func (b *Board) OnFrame(fn func(Frame)) {
	b.onFrame = append(b.onFrame, fn)
}

func (b *Board) Grid() *grid.Grid { return b.grid }

// Err returns the first draw failure, if any.
func (b *Board) Err() error { return b.err }

func (b *Board) Visited(ctx context.Context, pos Position, count int) {
	b.visited = count
	b.repaint(ctx, pos, func(cell *grid.Cell) {
		cell.SetColor(b.palette.Visited)
	})
	b.publish()
}

func (b *Board) Moved(ctx context.Context, from, to Position) {
	b.steps++
	b.agent = to
	b.repaint(ctx, from, func(cell *grid.Cell) {
		cell.SetImage("")
	})
	b.repaint(ctx, to, func(cell *grid.Cell) {
		cell.SetImage(b.palette.AgentImage)
	})
	b.publish()
}

// Frame returns the board's current frame.
func (b *Board) Frame() Frame {
	return Frame{
		ReplayID:   b.replayID,
		Step:       b.steps,
		Agent:      b.agent,
		Visited:    b.visited,
		Bounds:     b.grid.Bounds(),
		Background: b.grid.Color(),
		Cells:      b.grid.Snapshot(),
	}
}

func (b *Board) repaint(ctx context.Context, pos Position, mutate func(*grid.Cell)) {
	cell := b.grid.At(pos.Row, pos.Column)
	mutate(cell)
	if err := cell.Draw(ctx); err != nil {
		b.fail(err)
	}
}

func (b *Board) publish() {
	if len(b.onFrame) == 0 {
		return
	}
	frame := b.Frame()
	for _, fn := range b.onFrame {
		fn(frame)
	}
}

func (b *Board) fail(err error) {
	log.Println("[board] draw:", err)
	if b.err == nil {
		b.err = err
	}
}

var terminalColors = map[string]lipgloss.Color{
	"white":     "#ffffff",
	"black":     "#000000",
	"green":     "#008000",
	"gray":      "#808080",
	"lightgray": "#d3d3d3",
	"red":       "#ff0000",
	"blue":      "#0000ff",
}

// Terminal renders the board as colored text: walls '#', the agent 'O', a dot on
// visited floor.
func (b *Board) Terminal() string {
	var sb strings.Builder
	for i, row := range b.grid.Snapshot() {
		for j, cell := range row {
			glyph := " "
			switch {
			case b.puzzle.Tile(Position{Row: i, Column: j}) == WALL:
				glyph = "#"
			case cell.Image == b.palette.AgentImage:
				glyph = "O"
			case cell.Color == b.palette.Visited:
				glyph = "."
			}
			style := lipgloss.NewStyle()
			if color, ok := terminalColors[cell.Color]; ok {
				style = style.Background(color).Foreground(lipgloss.Color("#808080"))
			}
			sb.WriteString(style.Render(glyph + " "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
