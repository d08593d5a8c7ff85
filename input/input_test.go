package input

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSource(t *testing.T) {
	Convey("When answering prompts", t, func() {
		ctx := context.Background()

		Convey("Provided lines come back in order, split on newlines", func() {
			src := NewSource(nil, nil)
			src.Provide("5 5 4\nv>^v", "#####")
			So(src.Remaining(), ShouldEqual, 3)

			for _, expected := range []string{"5 5 4", "v>^v", "#####"} {
				line, err := src.Next(ctx, "prompt")
				So(err, ShouldBeNil)
				So(line, ShouldEqual, expected)
			}
			So(src.Remaining(), ShouldEqual, 0)
		})

		Convey("Exhausted lines without a reader are an error", func() {
			src := NewSource(nil, nil)
			_, err := src.Next(ctx, "R C N")
			So(errors.Is(err, ErrNoInput), ShouldBeTrue)
		})

		Convey("Provided lines are consumed before interactive ones", func() {
			var echo strings.Builder
			src := NewSource(strings.NewReader("typed\r\nlast"), &echo)
			src.Provide("given")

			line, err := src.Next(ctx, "first")
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "given")

			line, err = src.Next(ctx, "second")
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "typed")

			line, err = src.Next(ctx, "third")
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "last")

			_, err = src.Next(ctx, "fourth")
			So(errors.Is(err, ErrNoInput), ShouldBeTrue)
			So(echo.String(), ShouldStartWith, "first: given\nsecond: ")
		})

		Convey("A blocked interactive read honors cancellation", func() {
			reader, writer := io.Pipe()
			defer writer.Close()
			src := NewSource(reader, nil)

			timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := src.Next(timeout, "waiting")
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)

			// The abandoned read still delivers to the next caller.
			go func() { _, _ = writer.Write([]byte("late\n")) }()
			line, err := src.Next(ctx, "again")
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "late")
		})
	})
}

func TestKeys(t *testing.T) {
	Convey("When parsing key codes", t, func() {
		Convey("Named, digit and letter codes map to keys and back", func() {
			for _, code := range []string{"ShiftLeft", "ArrowDown", "Space", "Digit0", "Digit9", "KeyA", "KeyZ"} {
				key, err := ParseKey(code)
				So(err, ShouldBeNil)
				So(key.String(), ShouldEqual, code)
			}
			key, _ := ParseKey("Digit7")
			So(key, ShouldEqual, KeyDigit0+7)
		})

		Convey("Arrow keys use their DOM codes", func() {
			for code, want := range map[string]Key{
				"ArrowLeft":  KeyArrowLeft,
				"ArrowUp":    KeyArrowUp,
				"ArrowRight": KeyArrowRight,
				"ArrowDown":  KeyArrowDown,
			} {
				key, err := ParseKey(code)
				So(err, ShouldBeNil)
				So(key, ShouldEqual, want)
			}
		})

		Convey("Unknown codes are rejected", func() {
			for _, code := range []string{"AltLeft", "Digit", "Digit10", "Keya", "KeyAB", ""} {
				_, err := ParseKey(code)
				So(errors.Is(err, ErrUnknownKey), ShouldBeTrue)
			}
		})
	})
}

func TestTracker(t *testing.T) {
	Convey("When ticking the input tracker", t, func() {
		tracker := NewTracker(16)

		Convey("The initial snapshot has no pointer", func() {
			snap := tracker.Tick()
			So(snap.Mouse.X, ShouldEqual, -1)
			So(snap.Mouse.Over, ShouldBeFalse)
			_, _, ok := snap.Pointer()
			So(ok, ShouldBeFalse)
		})

		Convey("Key events update key state and the polled key", func() {
			So(tracker.Push(Event{Kind: KeyDown, Code: "KeyW", Key: "w"}), ShouldBeNil)
			snap := tracker.Tick()
			So(snap.Pressed(KeyA+('W'-'A')), ShouldBeTrue)
			So(snap.Poll(), ShouldEqual, "w")

			So(tracker.Push(Event{Kind: KeyUp, Code: "KeyW", Key: "w"}), ShouldBeNil)
			later := tracker.Tick()
			So(later.Pressed(KeyA+('W'-'A')), ShouldBeFalse)
			So(later.Poll(), ShouldEqual, "")
			// Earlier snapshots are values and do not change.
			So(snap.Poll(), ShouldEqual, "w")
		})

		Convey("Invalid events are rejected at the queue", func() {
			So(errors.Is(tracker.Push(Event{Kind: KeyDown, Code: "F13"}), ErrUnknownKey), ShouldBeTrue)
			So(errors.Is(tracker.Push(Event{Kind: PointerDown, Button: 7}), ErrUnknownEvent), ShouldBeTrue)
			So(errors.Is(tracker.Push(Event{Kind: EventKind(99)}), ErrUnknownEvent), ShouldBeTrue)
		})

		Convey("A full queue refuses further events", func() {
			small := NewTracker(1)
			So(small.Push(Event{Kind: PointerMove}), ShouldBeNil)
			So(small.Push(Event{Kind: PointerMove}), ShouldEqual, ErrQueueFull)
		})

		Convey("Mouse buttons report the pointer until released or left", func() {
			So(tracker.Push(Event{Kind: PointerMove, X: 10, Y: 12}), ShouldBeNil)
			So(tracker.Push(Event{Kind: PointerDown, Button: ButtonLeft, X: 11, Y: 13}), ShouldBeNil)
			snap := tracker.Tick()
			So(snap.Mouse.Over, ShouldBeTrue)
			x, y, ok := snap.Pointer()
			So(ok, ShouldBeTrue)
			So(x, ShouldEqual, 11)
			So(y, ShouldEqual, 13)

			So(tracker.Push(Event{Kind: PointerLeave}), ShouldBeNil)
			snap = tracker.Tick()
			So(snap.Mouse.Left, ShouldBeFalse)
			So(snap.Mouse.Over, ShouldBeFalse)
		})

		Convey("Touches report the first touch", func() {
			So(tracker.Push(Event{Kind: TouchChange, Touches: []Touch{{X: 3, Y: 4, ID: 1}, {X: 9, Y: 9, ID: 2}}}), ShouldBeNil)
			snap := tracker.Tick()
			So(snap.Touch.Touched, ShouldBeTrue)
			So(len(snap.Touch.Touches), ShouldEqual, 2)
			x, y, ok := snap.Pointer()
			So(ok, ShouldBeTrue)
			So(x, ShouldEqual, 3)
			So(y, ShouldEqual, 4)

			So(tracker.Push(Event{Kind: TouchChange}), ShouldBeNil)
			So(tracker.Tick().Touch.Touched, ShouldBeFalse)
		})

		Convey("Blur resets keys and touches", func() {
			So(tracker.Push(Event{Kind: KeyDown, Code: "Space", Key: " "}), ShouldBeNil)
			So(tracker.Push(Event{Kind: TouchChange, Touches: []Touch{{X: 1, Y: 1}}}), ShouldBeNil)
			So(tracker.Push(Event{Kind: Blur}), ShouldBeNil)
			snap := tracker.Tick()
			So(snap.Pressed(KeySpace), ShouldBeFalse)
			So(snap.Poll(), ShouldEqual, "")
			So(snap.Touch.Touched, ShouldBeFalse)
		})

		Convey("Events decode from page json", func() {
			var ev Event
			err := json.Unmarshal([]byte(`{"type":"pointerdown","button":0,"x":5.5,"y":6}`), &ev)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, PointerDown)
			So(ev.X, ShouldEqual, 5.5)

			err = json.Unmarshal([]byte(`{"type":"wheel"}`), &ev)
			So(err, ShouldNotBeNil)
		})
	})
}
