package input

import (
	"errors"
	"fmt"
)

// EventKind enumerates the raw events a host (a browser page, a test) can report.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	PointerMove
	PointerDown
	PointerUp
	PointerLeave
	TouchChange
	Blur
)

var eventKindNames = [...]string{
	KeyDown:      "keydown",
	KeyUp:        "keyup",
	PointerMove:  "pointermove",
	PointerDown:  "pointerdown",
	PointerUp:    "pointerup",
	PointerLeave: "pointerleave",
	TouchChange:  "touch",
	Blur:         "blur",
}

var ErrUnknownEvent = errors.New("unknown event kind")

func ParseEventKind(name string) (EventKind, error) {
	for kind, kindName := range eventKindNames {
		if kindName == name {
			return EventKind(kind), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func (kind EventKind) String() string {
	if kind >= 0 && int(kind) < len(eventKindNames) {
		return eventKindNames[kind]
	}
	return fmt.Sprintf("EventKind(%d)", int(kind))
}

// UnmarshalText lets events decode straight from json sent by a page.
func (kind *EventKind) UnmarshalText(text []byte) (err error) {
	*kind, err = ParseEventKind(string(text))
	return
}

func (kind EventKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

// Mouse buttons, as numbered by DOM MouseEvent.button.
const (
	ButtonLeft = iota
	ButtonMiddle
	ButtonRight
)

type Touch struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	ID int     `json:"id"`
}

// Event is a single raw input event. Code is the physical key code and Key the
// produced key value (what Poll reports); both only matter for key events.
type Event struct {
	Kind    EventKind `json:"type"`
	Code    string    `json:"code,omitempty"`
	Key     string    `json:"key,omitempty"`
	Button  int       `json:"button,omitempty"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Touches []Touch   `json:"touches,omitempty"`
}

type Mouse struct {
	X, Y                float64
	Over                bool
	Left, Middle, Right bool
}

type TouchScreen struct {
	X, Y    float64
	Touches []Touch
	Touched bool
}

// Snapshot is the input state as of one tick. It is a value; later ticks never
// modify a snapshot already handed out.
type Snapshot struct {
	keys    [numKeys]bool
	LastKey string
	Mouse   Mouse
	Touch   TouchScreen
}

// Pressed reports whether k is held down.
func (s Snapshot) Pressed(k Key) bool {
	return k >= 0 && k < numKeys && s.keys[k]
}

// Poll returns the value of the key currently held, or "" once it is released.
func (s Snapshot) Poll() string {
	return s.LastKey
}

// Pointer returns the active pointer position: the mouse while its left button is
// down, else the first touch. ok is false when neither is pressed.
func (s Snapshot) Pointer() (x, y float64, ok bool) {
	if s.Mouse.Left {
		return s.Mouse.X, s.Mouse.Y, true
	}
	if s.Touch.Touched {
		return s.Touch.X, s.Touch.Y, true
	}
	return 0, 0, false
}

var ErrQueueFull = errors.New("input queue full")

// Tracker queues raw events from whatever context receives them and folds them into
// a snapshot when the owner ticks. Push is safe from any goroutine; Tick belongs to
// the single goroutine that consumes the snapshots.
type Tracker struct {
	events chan Event
	state  Snapshot
}

func NewTracker(capacity int) *Tracker {
	return &Tracker{
		events: make(chan Event, capacity),
		state: Snapshot{
			Mouse: Mouse{X: -1, Y: -1},
			Touch: TouchScreen{X: -1, Y: -1},
		},
	}
}

// Push validates and enqueues ev without blocking.
func (t *Tracker) Push(ev Event) error {
	switch ev.Kind {
	case KeyDown, KeyUp:
		if _, err := ParseKey(ev.Code); err != nil {
			return err
		}
	case PointerDown, PointerUp:
		if ev.Button < ButtonLeft || ev.Button > ButtonRight {
			return fmt.Errorf("%w: button %d", ErrUnknownEvent, ev.Button)
		}
	case PointerMove, PointerLeave, TouchChange, Blur:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownEvent, int(ev.Kind))
	}

	select {
	case t.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Tick applies every queued event and returns the resulting snapshot.
func (t *Tracker) Tick() Snapshot {
	for {
		select {
		case ev := <-t.events:
			t.apply(ev)
		default:
			snap := t.state
			snap.Touch.Touches = append([]Touch(nil), t.state.Touch.Touches...)
			return snap
		}
	}
}

func (t *Tracker) apply(ev Event) {
	st := &t.state
	switch ev.Kind {
	case KeyDown:
		key, _ := ParseKey(ev.Code)
		st.keys[key] = true
		st.LastKey = ev.Key
	case KeyUp:
		key, _ := ParseKey(ev.Code)
		st.keys[key] = false
		st.LastKey = ""
	case PointerMove:
		st.Mouse.X, st.Mouse.Y = ev.X, ev.Y
		st.Mouse.Over = true
	case PointerDown, PointerUp:
		st.Mouse.X, st.Mouse.Y = ev.X, ev.Y
		down := ev.Kind == PointerDown
		switch ev.Button {
		case ButtonLeft:
			st.Mouse.Left = down
		case ButtonMiddle:
			st.Mouse.Middle = down
		case ButtonRight:
			st.Mouse.Right = down
		}
	case PointerLeave:
		st.Mouse.Over = false
		st.Mouse.Left, st.Mouse.Middle, st.Mouse.Right = false, false, false
	case TouchChange:
		st.Touch.Touches = append(st.Touch.Touches[:0:0], ev.Touches...)
		st.Touch.Touched = len(ev.Touches) > 0
		if st.Touch.Touched {
			st.Touch.X, st.Touch.Y = ev.Touches[0].X, ev.Touches[0].Y
		}
	case Blur:
		st.keys = [numKeys]bool{}
		st.LastKey = ""
		st.Touch.Touched = false
		st.Touch.Touches = nil
	}
}
