// turtle is classic turtle graphics over a render.Canvas: a pen that walks a heading and
// leaves a line behind it.
package turtle

import (
	"context"
	"time"

	"cellgrid/geometry"
	"cellgrid/render"
)

const (
	DefaultDelay   = 100 * time.Millisecond
	DefaultPenSize = 1.0
)

// Turtle walks the canvas. Heading is in degrees, 0 is east and positive angles turn
// clockwise, since the surface's y-axis points down.
type Turtle struct {
	X, Y     float64
	Heading  float64
	PenColor string
	PenSize  float64
	// Delay is waited before every move or turn.
	Delay time.Duration

	canvas  *render.Canvas
	pen     bool
	visible bool
}

type Option func(*Turtle)

// At places the turtle; the default is the middle of the canvas.
func At(x, y float64) Option {
	return func(t *Turtle) {
		t.X, t.Y = x, y
	}
}

func WithHeading(degAngle float64) Option {
	return func(t *Turtle) {
		t.Heading = degAngle
	}
}

func WithDelay(delay time.Duration) Option {
	return func(t *Turtle) {
		t.Delay = delay
	}
}

func New(canvas *render.Canvas, opts ...Option) *Turtle {
	w, h := canvas.Size()
	t := &Turtle{
		X:        w / 2,
		Y:        h / 2,
		PenColor: canvas.Foreground,
		PenSize:  DefaultPenSize,
		Delay:    DefaultDelay,
		canvas:   canvas,
		pen:      true,
		visible:  true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Forward moves length pixels along the heading, stroking a line when the pen is down.
func (t *Turtle) Forward(ctx context.Context, length float64) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	x, y := geometry.FromPolar(length, t.Heading, t.X, t.Y)
	if t.pen {
		render.DrawLine(t.canvas.Surface, t.X, t.Y, x, y, t.PenColor, t.PenSize)
	}
	t.X, t.Y = x, y
	return nil
}

func (t *Turtle) Backward(ctx context.Context, length float64) error {
	return t.Forward(ctx, -length)
}

// Right turns clockwise by degAngle.
func (t *Turtle) Right(ctx context.Context, degAngle float64) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	t.Heading += degAngle
	return nil
}

func (t *Turtle) Left(ctx context.Context, degAngle float64) error {
	return t.Right(ctx, -degAngle)
}

func (t *Turtle) PenUp()   { t.pen = false }
func (t *Turtle) PenDown() { t.pen = true }
func (t *Turtle) Hide()    { t.visible = false }
func (t *Turtle) Show()    { t.visible = true }

func (t *Turtle) IsDown() bool    { return t.pen }
func (t *Turtle) IsVisible() bool { return t.visible }

// Marker returns the arrowhead outline at the turtle's position, pointing along its
// heading, or nil when hidden. Views draw it over the canvas.
func (t *Turtle) Marker() []geometry.Vector2 {
	if !t.visible {
		return nil
	}
	point := func(radius, degAngle float64) geometry.Vector2 {
		x, y := geometry.FromPolar(radius, t.Heading+degAngle, t.X, t.Y)
		return geometry.Vector2{X: x, Y: y}
	}
	return []geometry.Vector2{
		{X: t.X, Y: t.Y},
		point(10, 150),
		point(6, 180),
		point(10, -150),
	}
}

// DrawMarker fills the marker onto the canvas surface in the pen color.
func (t *Turtle) DrawMarker() {
	if marker := t.Marker(); marker != nil {
		render.DrawPolygon(t.canvas.Surface, marker, t.PenColor, 0)
	}
}

func (t *Turtle) wait(ctx context.Context) error {
	if t.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
