// maze replays slide-until-wall movement commands over a character maze and counts
// the distinct floor cells visited.
package maze

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Maze tiles
const (
	WALL  = '#'
	START = 'O'
	FLOOR = '.'
)

// Direction is a unit row/column step.
type Direction struct {
	DRow, DCol int
}

var (
	West  = Direction{DRow: 0, DCol: -1}
	East  = Direction{DRow: 0, DCol: 1}
	North = Direction{DRow: -1, DCol: 0}
	South = Direction{DRow: 1, DCol: 0}
)

// ErrInvalidPuzzle wraps every malformed input.
var ErrInvalidPuzzle = errors.New("invalid puzzle")

// ErrUnknownDirection is returned for command characters other than < > ^ v.
var ErrUnknownDirection = errors.New("unknown direction")

// ParseDirection maps a command character to its step.
func ParseDirection(command rune) (Direction, error) {
	switch command {
	case '<':
		return West, nil
	case '>':
		return East, nil
	case '^':
		return North, nil
	case 'v':
		return South, nil
	}
	return Direction{}, fmt.Errorf("%w: %q", ErrUnknownDirection, command)
}

func (d Direction) String() string {
	switch d {
	case West:
		return "<"
	case East:
		return ">"
	case North:
		return "^"
	case South:
		return "v"
	}
	return fmt.Sprintf("(%d,%d)", d.DRow, d.DCol)
}

// Position is a (row, column) maze coordinate.
type Position struct {
	Row, Column int
}

func (p Position) Step(d Direction) Position {
	return Position{Row: p.Row + d.DRow, Column: p.Column + d.DCol}
}

// Puzzle is a parsed maze and its command sequence.
type Puzzle struct {
	Rows, Columns int
	Commands      []Direction
	Layout        []string
	Start         Position
}

// IsWall reports whether p is a wall. Positions outside the maze count as walls, so a
// maze without a closed border cannot walk the agent off the edge.
func (p *Puzzle) IsWall(pos Position) bool {
	if pos.Row < 0 || pos.Row >= p.Rows || pos.Column < 0 || pos.Column >= p.Columns {
		return true
	}
	return p.Layout[pos.Row][pos.Column] == WALL
}

// Tile returns the layout character at pos.
func (p *Puzzle) Tile(pos Position) byte {
	return p.Layout[pos.Row][pos.Column]
}

// LineSource answers prompts one line at a time.
type LineSource interface {
	Next(ctx context.Context, prompt string) (string, error)
}

// Parse reads a puzzle: a "R C N" line, a line of N commands, then R rows of C tiles
// with exactly one start.
func Parse(ctx context.Context, src LineSource) (*Puzzle, error) {
	header, err := src.Next(ctx, "R C N")
	if err != nil {
		return nil, err
	}
	rows, columns, count, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	commandLine, err := src.Next(ctx, "commands")
	if err != nil {
		return nil, err
	}
	if len(commandLine) != count {
		return nil, fmt.Errorf("%w: expected %d commands, got %d", ErrInvalidPuzzle, count, len(commandLine))
	}
	puzzle := &Puzzle{
		Rows:     rows,
		Columns:  columns,
		Commands: make([]Direction, 0, count),
		Layout:   make([]string, 0, rows),
		Start:    Position{Row: -1, Column: -1},
	}
	for i, command := range commandLine {
		dir, err := ParseDirection(command)
		if err != nil {
			return nil, fmt.Errorf("%w: command %d: %w", ErrInvalidPuzzle, i, err)
		}
		puzzle.Commands = append(puzzle.Commands, dir)
	}

	for i := 0; i < rows; i++ {
		row, err := src.Next(ctx, "Row "+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		if len(row) != columns {
			return nil, fmt.Errorf("%w: row %d has %d tiles, expected %d", ErrInvalidPuzzle, i, len(row), columns)
		}
		for j := 0; j < columns; j++ {
			switch row[j] {
			case WALL, FLOOR:
			case START:
				if puzzle.Start.Row >= 0 {
					return nil, fmt.Errorf("%w: second start at row %d column %d", ErrInvalidPuzzle, i, j)
				}
				puzzle.Start = Position{Row: i, Column: j}
			default:
				return nil, fmt.Errorf("%w: unknown tile %q at row %d column %d", ErrInvalidPuzzle, row[j], i, j)
			}
		}
		puzzle.Layout = append(puzzle.Layout, row)
	}

	if puzzle.Start.Row < 0 {
		return nil, fmt.Errorf("%w: no start tile", ErrInvalidPuzzle)
	}
	return puzzle, nil
}

func parseHeader(header string) (rows, columns, count int, err error) {
	fields := strings.Fields(header)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: header %q must be \"R C N\"", ErrInvalidPuzzle, header)
	}
	values := make([]int, 3)
	for i, field := range fields {
		if values[i], err = strconv.Atoi(field); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: header %q: %v", ErrInvalidPuzzle, header, err)
		}
	}
	rows, columns, count = values[0], values[1], values[2]
	if rows < 1 || columns < 1 || count < 0 {
		return 0, 0, 0, fmt.Errorf("%w: header %q out of range", ErrInvalidPuzzle, header)
	}
	return
}

// Sample is the shipped example puzzle.
const Sample = `5 5 4
v>^v
#####
#O#.#
#...#
##..#
#####`
