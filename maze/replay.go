package maze

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
)

// Observer follows a replay as it happens. Visited is called on each first visit with
// the new count; Moved on each single-cell step.
type Observer interface {
	Visited(ctx context.Context, pos Position, count int)
	Moved(ctx context.Context, from, to Position)
}

// Replayer steps an agent through a puzzle's commands. Each command slides the agent
// until the next cell in its direction is a wall.
type Replayer struct {
	id        string
	puzzle    *Puzzle
	delay     time.Duration
	observers []Observer

	agent   Position
	visited mapset.Set[Position]
	count   int
	steps   int
}

type ReplayOption func(*Replayer)

// WithStepDelay sets the pause before each move, purely for pacing a live view.
func WithStepDelay(delay time.Duration) ReplayOption {
	return func(r *Replayer) {
		r.delay = delay
	}
}

func WithObserver(obs Observer) ReplayOption {
	return func(r *Replayer) {
		r.observers = append(r.observers, obs)
	}
}

func NewReplayer(puzzle *Puzzle, opts ...ReplayOption) *Replayer {
	r := &Replayer{
		id:      uuid.NewString(),
		puzzle:  puzzle,
		agent:   puzzle.Start,
		visited: mapset.New[Position](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID identifies this replay in logs and views.
func (r *Replayer) ID() string       { return r.id }
func (r *Replayer) Agent() Position { return r.agent }
func (r *Replayer) Count() int      { return r.count }
func (r *Replayer) Steps() int      { return r.steps }
func (r *Replayer) Puzzle() *Puzzle { return r.puzzle }

func (r *Replayer) HasVisited(pos Position) bool {
	return r.visited.Has(pos)
}

// Visit marks the agent's cell visited. It returns false, leaving the count alone,
// when the cell was already visited.
func (r *Replayer) Visit(ctx context.Context) bool {
	if r.visited.Has(r.agent) {
		return false
	}
	r.visited.Put(r.agent)
	r.count++
	for _, obs := range r.observers {
		obs.Visited(ctx, r.agent, r.count)
	}
	return true
}

// Execute slides the agent in dir until blocked. The current cell is counted even when
// the very first step is blocked.
func (r *Replayer) Execute(ctx context.Context, dir Direction) error {
	for {
		r.Visit(ctx)
		next := r.agent.Step(dir)
		if r.puzzle.IsWall(next) {
			return nil
		}
		if err := r.wait(ctx); err != nil {
			return err
		}
		from := r.agent
		r.agent = next
		r.steps++
		for _, obs := range r.observers {
			obs.Moved(ctx, from, next)
		}
	}
}

// Run executes every command in order and returns the visited count. Cancelling ctx
// stops the replay at the next step and returns the count so far with ctx's error.
func (r *Replayer) Run(ctx context.Context) (int, error) {
	for _, dir := range r.puzzle.Commands {
		if err := r.Execute(ctx, dir); err != nil {
			return r.count, err
		}
	}
	return r.count, nil
}

func (r *Replayer) wait(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Count replays the puzzle without pacing or observers.
func Count(puzzle *Puzzle) int {
	count, _ := NewReplayer(puzzle).Run(context.Background())
	return count
}
