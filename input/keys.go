package input

import (
	"errors"
	"fmt"
	"strings"
)

// Key is one of the tracked keyboard keys.
type Key int

const (
	KeyShiftLeft Key = iota
	KeyShiftRight
	KeyBackspace
	KeyEnter
	KeySpace
	KeyArrowLeft
	KeyArrowUp
	KeyArrowRight
	KeyArrowDown
	KeyDigit0 // KeyDigit0 + n is digit n
	KeyA      = KeyDigit0 + 10 // KeyA + n is the nth letter
	numKeys   = KeyA + 26
)

var namedKeys = [...]string{
	KeyShiftLeft:  "ShiftLeft",
	KeyShiftRight: "ShiftRight",
	KeyBackspace:  "Backspace",
	KeyEnter:      "Enter",
	KeySpace:      "Space",
	KeyArrowLeft:  "ArrowLeft",
	KeyArrowUp:    "ArrowUp",
	KeyArrowRight: "ArrowRight",
	KeyArrowDown:  "ArrowDown",
}

// ErrUnknownKey is returned for key codes outside the tracked set.
var ErrUnknownKey = errors.New("unknown key code")

// ParseKey maps a DOM KeyboardEvent.code (e.g. "ArrowUp", "Digit4", "KeyQ") to a Key.
func ParseKey(code string) (Key, error) {
	for k, name := range namedKeys {
		if name == code {
			return Key(k), nil
		}
	}
	if rest, ok := strings.CutPrefix(code, "Digit"); ok && len(rest) == 1 && rest[0] >= '0' && rest[0] <= '9' {
		return KeyDigit0 + Key(rest[0]-'0'), nil
	}
	if rest, ok := strings.CutPrefix(code, "Key"); ok && len(rest) == 1 && rest[0] >= 'A' && rest[0] <= 'Z' {
		return KeyA + Key(rest[0]-'A'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, code)
}

// String returns the DOM code of the key.
func (k Key) String() string {
	switch {
	case k >= 0 && int(k) < len(namedKeys):
		return namedKeys[k]
	case k >= KeyDigit0 && k < KeyA:
		return fmt.Sprintf("Digit%d", k-KeyDigit0)
	case k >= KeyA && k < numKeys:
		return "Key" + string(rune('A'+(k-KeyA)))
	}
	return fmt.Sprintf("Key(%d)", int(k))
}
