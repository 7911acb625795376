// Package recording holds the recorded input event model and its textual
// persistence format.
package recording

import (
	"github.com/offlinefirst/actionrec/pkg/keys"
)

// Kind tags the type of a recorded event.
type Kind string

// Event kinds, spelled as they appear in persisted recordings.
const (
	KeyPress    Kind = "key_press"
	KeyRelease  Kind = "key_release"
	MouseMove   Kind = "mouse_move"
	MouseClick  Kind = "mouse_click"
	MouseScroll Kind = "mouse_scroll"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KeyPress, KeyRelease, MouseMove, MouseClick, MouseScroll:
		return true
	default:
		return false
	}
}

// Button names a mouse button.
type Button string

// Supported mouse buttons.
const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Valid reports whether b is a supported button.
func (b Button) Valid() bool {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return true
	default:
		return false
	}
}

// Event is one observed input action. Elapsed is seconds since the start of
// the recording on a monotonic clock. Only the payload fields relevant to
// Kind are meaningful; the others stay zero so events compare with ==.
type Event struct {
	Kind    Kind
	Elapsed float64

	Key keys.Key

	X, Y    int
	Button  Button
	Pressed bool
	DX, DY  int
}

// KeyPressEvent builds a KeyPress event.
func KeyPressEvent(elapsed float64, key keys.Key) Event {
	return Event{Kind: KeyPress, Elapsed: elapsed, Key: key}
}

// KeyReleaseEvent builds a KeyRelease event.
func KeyReleaseEvent(elapsed float64, key keys.Key) Event {
	return Event{Kind: KeyRelease, Elapsed: elapsed, Key: key}
}

// MoveEvent builds a MouseMove event.
func MoveEvent(elapsed float64, x, y int) Event {
	return Event{Kind: MouseMove, Elapsed: elapsed, X: x, Y: y}
}

// ClickEvent builds a MouseClick event.
func ClickEvent(elapsed float64, x, y int, button Button, pressed bool) Event {
	return Event{Kind: MouseClick, Elapsed: elapsed, X: x, Y: y, Button: button, Pressed: pressed}
}

// ScrollEvent builds a MouseScroll event.
func ScrollEvent(elapsed float64, x, y, dx, dy int) Event {
	return Event{Kind: MouseScroll, Elapsed: elapsed, X: x, Y: y, DX: dx, DY: dy}
}

// Duration returns the elapsed offset of the final event, or zero.
func Duration(events []Event) float64 {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].Elapsed
}

// Check validates e as the record at index using the same rules as Encode.
func (e Event) Check(index int) error {
	_, err := toWire(index, e)
	return err
}
