// render defines the drawing surface everything else paints on, and a few conveniences
// over it. The surface only knows primitive operations addressed by pixel coordinates;
// grids, turtles and hitboxes are all built from these.
package render

import (
	"cellgrid/geometry"
)

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Shape is one of the closed set of outline/fill primitives: Polygon, Line or Circle.
type Shape interface {
	isShape()
}

// Polygon is a closed path through Points.
type Polygon struct {
	Points []geometry.Vector2
}

// Line is a single segment. Lines are never filled.
type Line struct {
	From, To geometry.Vector2
}

type Circle struct {
	Center geometry.Vector2
	Radius float64
}

func (Polygon) isShape() {}
func (Line) isShape()    {}
func (Circle) isShape()  {}

// Surface is the primitive drawing api. Calls are synchronous writes and must be
// serialized by the caller.
type Surface interface {
	Size() (width, height float64)
	Clear(r Rect)
	Fill(r Rect, color string)
	// Shape strokes the shape with lineWidth, or fills it when lineWidth <= 0.
	Shape(shape Shape, color string, lineWidth float64)
	Text(value string, x, y float64, font, color string)
	Image(img *Image, r Rect)
}

const (
	DefaultFont = "20px monospace"
)

// Rectangle draws an outlined (lineWidth > 0) or filled rectangle.
func Rectangle(s Surface, x, y, width, height float64, color string, lineWidth float64) {
	if lineWidth <= 0 {
		s.Fill(Rect{X: x, Y: y, Width: width, Height: height}, color)
		return
	}
	s.Shape(Polygon{Points: []geometry.Vector2{
		{X: x, Y: y},
		{X: x + width, Y: y},
		{X: x + width, Y: y + height},
		{X: x, Y: y + height},
	}}, color, lineWidth)
}

func Triangle(s Surface, x1, y1, x2, y2, x3, y3 float64, color string, lineWidth float64) {
	s.Shape(Polygon{Points: []geometry.Vector2{
		{X: x1, Y: y1},
		{X: x2, Y: y2},
		{X: x3, Y: y3},
	}}, color, lineWidth)
}

func DrawCircle(s Surface, x, y, radius float64, color string, lineWidth float64) {
	s.Shape(Circle{Center: geometry.Vector2{X: x, Y: y}, Radius: radius}, color, lineWidth)
}

// DrawLine strokes a segment; a non-positive lineWidth falls back to 1.
func DrawLine(s Surface, x1, y1, x2, y2 float64, color string, lineWidth float64) {
	if lineWidth <= 0 {
		lineWidth = 1
	}
	s.Shape(Line{
		From: geometry.Vector2{X: x1, Y: y1},
		To:   geometry.Vector2{X: x2, Y: y2},
	}, color, lineWidth)
}

func DrawPolygon(s Surface, points []geometry.Vector2, color string, lineWidth float64) {
	s.Shape(Polygon{Points: points}, color, lineWidth)
}

// Outline strokes the edges of a hitbox, mostly useful for debugging collisions.
func Outline(s Surface, hb geometry.Hitbox, color string) {
	Rectangle(s, hb.X, hb.Y, hb.Width, hb.Height, color, 1)
}

// FillAll paints the whole surface.
func FillAll(s Surface, color string) {
	w, h := s.Size()
	s.Fill(Rect{Width: w, Height: h}, color)
}

func ClearAll(s Surface) {
	w, h := s.Size()
	s.Clear(Rect{Width: w, Height: h})
}
