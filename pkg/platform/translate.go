package platform

import (
	"time"

	"github.com/offlinefirst/actionrec/pkg/recorder"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

// Window messages delivered to low-level hooks.
const (
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmMouseHWheel = 0x020E

	wheelDelta = 120
)

// keyKind maps a keyboard hook message to a key event kind.
func keyKind(message uint32) (recording.Kind, bool) {
	switch message {
	case wmKeyDown, wmSysKeyDown:
		return recording.KeyPress, true
	case wmKeyUp, wmSysKeyUp:
		return recording.KeyRelease, true
	default:
		return "", false
	}
}

// translateMouse converts a mouse hook message. Extra buttons are ignored.
func translateMouse(message uint32, x, y int, mouseData uint32, at time.Time) (recorder.Input, bool) {
	in := recorder.Input{At: at, X: x, Y: y}
	switch message {
	case wmMouseMove:
		in.Kind = recording.MouseMove
	case wmLButtonDown, wmLButtonUp:
		in.Kind, in.Button, in.Pressed = recording.MouseClick, recording.ButtonLeft, message == wmLButtonDown
	case wmRButtonDown, wmRButtonUp:
		in.Kind, in.Button, in.Pressed = recording.MouseClick, recording.ButtonRight, message == wmRButtonDown
	case wmMButtonDown, wmMButtonUp:
		in.Kind, in.Button, in.Pressed = recording.MouseClick, recording.ButtonMiddle, message == wmMButtonDown
	case wmMouseWheel:
		in.Kind, in.DY = recording.MouseScroll, wheelSteps(mouseData)
	case wmMouseHWheel:
		in.Kind, in.DX = recording.MouseScroll, wheelSteps(mouseData)
	default:
		return recorder.Input{}, false
	}
	return in, true
}

// wheelSteps converts the signed high word of mouseData into notches. A
// partial notch from a precision touchpad still counts as one.
func wheelSteps(mouseData uint32) int {
	delta := int(int16(mouseData >> 16))
	steps := delta / wheelDelta
	if steps == 0 && delta != 0 {
		if delta > 0 {
			return 1
		}
		return -1
	}
	return steps
}

// wheelData converts notches back into the value SendInput expects.
func wheelData(steps int) uint32 {
	return uint32(int32(steps * wheelDelta))
}
