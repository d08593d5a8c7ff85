package geometry

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVector2(t *testing.T) {
	Convey("Vector arithmetic", t, func() {
		v := Vector2{X: 3, Y: 4}

		So(v.Length(), ShouldEqual, 5)
		So(v.LengthSquared(), ShouldEqual, 25)
		So(v.Add(Vector2{X: 1, Y: -1}), ShouldResemble, Vector2{X: 4, Y: 3})
		So(v.Subtract(Vector2{X: 3, Y: 4}), ShouldResemble, Vector2{})
		So(v.Scale(2), ShouldResemble, Vector2{X: 6, Y: 8})
		So(v.Dot(Vector2{X: -4, Y: 3}), ShouldEqual, 0)
		So(v.DistanceTo(Vector2{}), ShouldEqual, 5)
		So(v.DistanceToSquared(Vector2{X: 3}), ShouldEqual, 16)
		So(v.String(), ShouldEqual, "(3, 4)")

		Convey("Polar construction and rotation keep lengths", func() {
			p := FromPolarVector(2, math.Pi/2)
			So(p.X, ShouldAlmostEqual, 0)
			So(p.Y, ShouldAlmostEqual, 2)
			So(p.Angle(), ShouldAlmostEqual, math.Pi/2)

			r := v.WithAngle(math.Pi)
			So(r.X, ShouldAlmostEqual, -5)
			So(r.Y, ShouldAlmostEqual, 0)

			w := v.WithLength(10)
			So(w.X, ShouldAlmostEqual, 6)
			So(w.Y, ShouldAlmostEqual, 8)
			So(Vector2{}.WithLength(3), ShouldResemble, Vector2{})
		})
	})
}

func TestHitbox(t *testing.T) {
	Convey("Hitboxes", t, func() {
		hb := Hitbox{X: 10, Y: 10, Width: 20, Height: 10}

		Convey("Overlap requires shared area", func() {
			So(hb.Intersects(Hitbox{X: 25, Y: 15, Width: 10, Height: 10}), ShouldBeTrue)
			So(hb.Intersects(Hitbox{X: 30, Y: 10, Width: 5, Height: 5}), ShouldBeFalse)
			So(hb.Intersects(Hitbox{X: 0, Y: 0, Width: 100, Height: 100}), ShouldBeTrue)
		})

		Convey("Containment is half open", func() {
			So(hb.Contains(10, 10), ShouldBeTrue)
			So(hb.Contains(29.9, 19.9), ShouldBeTrue)
			So(hb.Contains(30, 15), ShouldBeFalse)
			So(hb.Contains(15, 20), ShouldBeFalse)
		})
	})
}

func TestAngles(t *testing.T) {
	Convey("Angle helpers", t, func() {
		So(Radians(180), ShouldAlmostEqual, math.Pi)
		So(Degrees(math.Pi/2), ShouldAlmostEqual, 90)

		x, y := FromPolar(10, 90, 5, 5)
		So(x, ShouldAlmostEqual, 5)
		So(y, ShouldAlmostEqual, 15)

		So(Distance(0, 0, 6, 8), ShouldEqual, 10)
	})
}
