package platform

import "github.com/offlinefirst/actionrec/pkg/keys"

// Windows virtual key codes for keys that have a canonical name.
var virtualKeys = func() map[keys.Special]uint16 {
	out := map[keys.Special]uint16{
		keys.Backspace:       0x08,
		keys.Tab:             0x09,
		keys.Enter:           0x0D,
		keys.Shift:           0x10,
		keys.Ctrl:            0x11,
		keys.Alt:             0x12,
		keys.Pause:           0x13,
		keys.CapsLock:        0x14,
		keys.Esc:             0x1B,
		keys.Space:           0x20,
		keys.PageUp:          0x21,
		keys.PageDown:        0x22,
		keys.End:             0x23,
		keys.Home:            0x24,
		keys.Left:            0x25,
		keys.Up:              0x26,
		keys.Right:           0x27,
		keys.Down:            0x28,
		keys.PrintScreen:     0x2C,
		keys.Insert:          0x2D,
		keys.Delete:          0x2E,
		keys.Cmd:             0x5B,
		keys.CmdL:            0x5B,
		keys.CmdR:            0x5C,
		keys.Menu:            0x5D,
		keys.NumLock:         0x90,
		keys.ScrollLock:      0x91,
		keys.ShiftL:          0xA0,
		keys.ShiftR:          0xA1,
		keys.CtrlL:           0xA2,
		keys.CtrlR:           0xA3,
		keys.AltL:            0xA4,
		keys.AltR:            0xA5,
		keys.AltGr:           0xA5,
		keys.MediaVolumeMute: 0xAD,
		keys.MediaVolumeDown: 0xAE,
		keys.MediaVolumeUp:   0xAF,
		keys.MediaNext:       0xB0,
		keys.MediaPrevious:   0xB1,
		keys.MediaPlayPause:  0xB3,
	}
	for i := uint16(0); i < 24; i++ {
		out[keys.F1+keys.Special(i)] = 0x70 + i
	}
	return out
}()

// namedKeys is the inverse of virtualKeys. Where two names share a code the
// sided name wins.
var namedKeys = func() map[uint16]keys.Special {
	out := make(map[uint16]keys.Special, len(virtualKeys))
	for s, vk := range virtualKeys {
		if s == keys.Cmd || s == keys.AltGr {
			continue
		}
		out[vk] = s
	}
	return out
}()

// extendedKeys need KEYEVENTF_EXTENDEDKEY when synthesised.
var extendedKeys = map[uint16]bool{
	0x21: true, 0x22: true, 0x23: true, 0x24: true,
	0x25: true, 0x26: true, 0x27: true, 0x28: true,
	0x2C: true, 0x2D: true, 0x2E: true,
	0x5B: true, 0x5C: true, 0x5D: true,
	0x90: true, 0xA3: true, 0xA5: true,
	0xAD: true, 0xAE: true, 0xAF: true,
	0xB0: true, 0xB1: true, 0xB3: true,
}

// specialForVirtualKey reports the named key for a virtual key code.
func specialForVirtualKey(vk uint16) (keys.Special, bool) {
	s, ok := namedKeys[vk]
	return s, ok
}

// virtualKeyFor reports the virtual key used to synthesise a named key.
func virtualKeyFor(s keys.Special) (uint16, bool) {
	vk, ok := virtualKeys[s]
	return vk, ok
}

// keyFromVirtual builds the canonical key for an observed virtual key code.
// ch is the character the layout produces for it, or zero.
func keyFromVirtual(vk uint16, ch rune) keys.Key {
	if s, ok := specialForVirtualKey(vk); ok {
		return keys.Named(s)
	}
	if ch != 0 {
		return keys.Char(ch)
	}
	return keys.VirtualCode(uint32(vk))
}
