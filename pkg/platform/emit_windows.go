//go:build windows

package platform

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/recording"
	"github.com/offlinefirst/actionrec/pkg/replay"
)

type sendInputEmitter struct{}

// NewEmitter returns an emitter backed by SendInput and SetCursorPos.
func NewEmitter() (replay.Emitter, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return sendInputEmitter{}, nil
}

func (sendInputEmitter) PressKey(k keys.Key) error   { return sendKey(k, 0) }
func (sendInputEmitter) ReleaseKey(k keys.Key) error { return sendKey(k, keyeventfKeyUp) }

func (sendInputEmitter) MoveTo(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func (sendInputEmitter) PressButton(b recording.Button) error {
	flags, err := buttonFlags(b, true)
	if err != nil {
		return err
	}
	return sendMouse(mouseinput{DwFlags: flags})
}

func (sendInputEmitter) ReleaseButton(b recording.Button) error {
	flags, err := buttonFlags(b, false)
	if err != nil {
		return err
	}
	return sendMouse(mouseinput{DwFlags: flags})
}

func (sendInputEmitter) Scroll(dx, dy int) error {
	if dy != 0 {
		if err := sendMouse(mouseinput{DwFlags: mouseeventfWheel, MouseData: wheelData(dy)}); err != nil {
			return err
		}
	}
	if dx != 0 {
		return sendMouse(mouseinput{DwFlags: mouseeventfHWheel, MouseData: wheelData(dx)})
	}
	return nil
}

func buttonFlags(b recording.Button, down bool) (uint32, error) {
	switch b {
	case recording.ButtonLeft:
		if down {
			return mouseeventfLeftDown, nil
		}
		return mouseeventfLeftUp, nil
	case recording.ButtonRight:
		if down {
			return mouseeventfRightDown, nil
		}
		return mouseeventfRightUp, nil
	case recording.ButtonMiddle:
		if down {
			return mouseeventfMiddleDown, nil
		}
		return mouseeventfMiddleUp, nil
	default:
		return 0, fmt.Errorf("unknown button %q", b)
	}
}

func sendMouse(mi mouseinput) error {
	input := mouseInput{Type: inputMouse, Mi: mi}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&input)), unsafe.Sizeof(input))
	if ret == 0 {
		return fmt.Errorf("SendInput (mouse): %w", err)
	}
	return nil
}

// sendKey prefers a plain virtual key so applications that ignore
// KEYEVENTF_UNICODE still see the stroke.
func sendKey(k keys.Key, flags uint32) error {
	switch {
	case k.Special != keys.SpecialNone:
		vk, ok := virtualKeyFor(k.Special)
		if !ok {
			return fmt.Errorf("no virtual key for %s", k)
		}
		if extendedKeys[vk] {
			flags |= keyeventfExtendedKey
		}
		return sendKeyboard(keybdinput{WVk: vk, DwFlags: flags})
	case k.Code != 0:
		vk := uint16(k.Code)
		if extendedKeys[vk] {
			flags |= keyeventfExtendedKey
		}
		return sendKeyboard(keybdinput{WVk: vk, DwFlags: flags})
	case k.Char != 0:
		if vk, ok := plainVirtualKey(k.Char); ok {
			return sendKeyboard(keybdinput{WVk: vk, DwFlags: flags})
		}
		for _, unit := range utf16.Encode([]rune{k.Char}) {
			if err := sendKeyboard(keybdinput{WScan: unit, DwFlags: flags | keyeventfUnicode}); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("empty key")
	}
}

// plainVirtualKey reports the virtual key that types ch without modifiers.
func plainVirtualKey(ch rune) (uint16, bool) {
	if ch > 0xFFFF {
		return 0, false
	}
	ret, _, _ := procVkKeyScanW.Call(uintptr(ch))
	scan := int16(ret)
	if scan == -1 || scan>>8 != 0 {
		return 0, false
	}
	return uint16(scan & 0xFF), true
}

func sendKeyboard(ki keybdinput) error {
	input := keyboardInput{Type: inputKeyboard, Ki: ki}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&input)), unsafe.Sizeof(input))
	if ret == 0 {
		return fmt.Errorf("SendInput (keyboard): %w", err)
	}
	return nil
}
