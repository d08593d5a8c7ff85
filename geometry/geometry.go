// geometry holds the small amount of plane math shared by the drawing helpers:
// vectors, axis-aligned hitboxes and angle conversions. Angles are in radians unless
// a name says otherwise; the y-axis points down, as on any raster surface.
package geometry

import (
	"fmt"
	"math"
)

// Vector2 is a 2d vector in surface coordinates.
type Vector2 struct {
	X, Y float64
}

// FromPolarVector returns the vector of the given length pointing at angle (radians).
func FromPolarVector(length, angle float64) Vector2 {
	return Vector2{
		X: math.Cos(angle) * length,
		Y: math.Sin(angle) * length,
	}
}

func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Angle returns the direction of v in radians, in (-pi, pi].
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// WithLength returns v rescaled to the passed length, keeping its direction.
// The zero vector has no direction and is returned unchanged.
func (v Vector2) WithLength(length float64) Vector2 {
	cur := v.Length()
	if cur == 0 {
		return v
	}
	return v.Scale(length / cur)
}

// WithAngle returns v rotated to point at angle, keeping its length.
func (v Vector2) WithAngle(angle float64) Vector2 {
	return FromPolarVector(v.Length(), angle)
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2) Subtract(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector2) DistanceTo(o Vector2) float64 {
	return v.Subtract(o).Length()
}

func (v Vector2) DistanceToSquared(o Vector2) float64 {
	return v.Subtract(o).LengthSquared()
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Hitbox is an axis-aligned rectangle used for overlap and point tests.
type Hitbox struct {
	X, Y, Width, Height float64
}

// Intersects reports whether the two boxes overlap. Touching edges do not overlap.
func (hb Hitbox) Intersects(other Hitbox) bool {
	return hb.X+hb.Width > other.X &&
		hb.X < other.X+other.Width &&
		hb.Y+hb.Height > other.Y &&
		hb.Y < other.Y+other.Height
}

// Contains reports whether (x, y) lies in the half-open box [X, X+Width) x [Y, Y+Height).
func (hb Hitbox) Contains(x, y float64) bool {
	return hb.X <= x && x < hb.X+hb.Width &&
		hb.Y <= y && y < hb.Y+hb.Height
}

func Radians(degAngle float64) float64 {
	return degAngle * math.Pi / 180
}

func Degrees(radAngle float64) float64 {
	return radAngle * 180 / math.Pi
}

// FromPolar returns the point at radius and degAngle (degrees) from the origin (x0, y0).
func FromPolar(radius, degAngle, x0, y0 float64) (x, y float64) {
	a := Radians(degAngle)
	return x0 + math.Cos(a)*radius, y0 + math.Sin(a)*radius
}

func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
