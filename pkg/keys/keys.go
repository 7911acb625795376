// Package keys defines the canonical identity of keyboard keys shared by the
// recorder and the replayer, together with the textual name encoding used in
// persisted recordings.
//
// A key is exactly one of: a single character, a named special key from a
// closed table, or a raw virtual key code. Named keys are written with the
// "Key." prefix and raw codes as "<N>", so a decoder can always tell the
// letter "a" apart from a special key.
package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NamePrefix marks a named special key in its encoded form.
const NamePrefix = "Key."

// ErrUnknownKey reports an encoded key name that cannot be decoded.
var ErrUnknownKey = errors.New("unknown key name")

// Special enumerates keys that have no single printable character.
type Special uint8

// Named special keys. The zero value means "not a special key".
const (
	SpecialNone Special = iota
	Alt
	AltL
	AltR
	AltGr
	Backspace
	CapsLock
	Cmd
	CmdL
	CmdR
	Ctrl
	CtrlL
	CtrlR
	Delete
	Down
	End
	Enter
	Esc
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
	Home
	Insert
	Left
	MediaNext
	MediaPlayPause
	MediaPrevious
	MediaVolumeDown
	MediaVolumeMute
	MediaVolumeUp
	Menu
	NumLock
	PageDown
	PageUp
	Pause
	PrintScreen
	Right
	ScrollLock
	Shift
	ShiftL
	ShiftR
	Space
	Tab
	Up

	specialCount
)

var specialNames = [specialCount]string{
	SpecialNone:     "",
	Alt:             "alt",
	AltL:            "alt_l",
	AltR:            "alt_r",
	AltGr:           "alt_gr",
	Backspace:       "backspace",
	CapsLock:        "caps_lock",
	Cmd:             "cmd",
	CmdL:            "cmd_l",
	CmdR:            "cmd_r",
	Ctrl:            "ctrl",
	CtrlL:           "ctrl_l",
	CtrlR:           "ctrl_r",
	Delete:          "delete",
	Down:            "down",
	End:             "end",
	Enter:           "enter",
	Esc:             "esc",
	F1:              "f1",
	F2:              "f2",
	F3:              "f3",
	F4:              "f4",
	F5:              "f5",
	F6:              "f6",
	F7:              "f7",
	F8:              "f8",
	F9:              "f9",
	F10:             "f10",
	F11:             "f11",
	F12:             "f12",
	F13:             "f13",
	F14:             "f14",
	F15:             "f15",
	F16:             "f16",
	F17:             "f17",
	F18:             "f18",
	F19:             "f19",
	F20:             "f20",
	F21:             "f21",
	F22:             "f22",
	F23:             "f23",
	F24:             "f24",
	Home:            "home",
	Insert:          "insert",
	Left:            "left",
	MediaNext:       "media_next",
	MediaPlayPause:  "media_play_pause",
	MediaPrevious:   "media_previous",
	MediaVolumeDown: "media_volume_down",
	MediaVolumeMute: "media_volume_mute",
	MediaVolumeUp:   "media_volume_up",
	Menu:            "menu",
	NumLock:         "num_lock",
	PageDown:        "page_down",
	PageUp:          "page_up",
	Pause:           "pause",
	PrintScreen:     "print_screen",
	Right:           "right",
	ScrollLock:      "scroll_lock",
	Shift:           "shift",
	ShiftL:          "shift_l",
	ShiftR:          "shift_r",
	Space:           "space",
	Tab:             "tab",
	Up:              "up",
}

var specialByName = func() map[string]Special {
	m := make(map[string]Special, len(specialNames))
	for i, name := range specialNames {
		if name == "" {
			continue
		}
		m[name] = Special(i)
	}
	return m
}()

// Name returns the canonical lower-case name, or "" for SpecialNone and
// out-of-range values.
func (s Special) Name() string {
	if s >= specialCount {
		return ""
	}
	return specialNames[s]
}

// Valid reports whether s is a member of the named-key table.
func (s Special) Valid() bool {
	return s > SpecialNone && s < specialCount
}

// Specials lists every named key in table order.
func Specials() []Special {
	out := make([]Special, 0, int(specialCount)-1)
	for s := SpecialNone + 1; s < specialCount; s++ {
		out = append(out, s)
	}
	return out
}

// LookupSpecial resolves a canonical name such as "esc" or "ctrl_l".
func LookupSpecial(name string) (Special, bool) {
	s, ok := specialByName[name]
	return s, ok
}

// Key identifies one physical or logical key. Exactly one of Char, Special
// or Code is set; the zero Key is invalid.
type Key struct {
	Char    rune
	Special Special
	Code    uint32
}

// Char builds a character key.
func Char(r rune) Key { return Key{Char: r} }

// Named builds a special key.
func Named(s Special) Key { return Key{Special: s} }

// VirtualCode builds a key known only by its platform virtual key code.
func VirtualCode(code uint32) Key { return Key{Code: code} }

// IsZero reports whether no identity is set.
func (k Key) IsZero() bool {
	return k == Key{}
}

// Is reports whether k is the named key s.
func (k Key) Is(s Special) bool {
	return k.Char == 0 && k.Code == 0 && k.Special == s
}

// String encodes the key in its persisted form.
func (k Key) String() string {
	switch {
	case k.Special.Valid():
		return NamePrefix + k.Special.Name()
	case k.Char != 0:
		return string(k.Char)
	case k.Code != 0:
		return "<" + strconv.FormatUint(uint64(k.Code), 10) + ">"
	default:
		return ""
	}
}

// Parse decodes a persisted key name.
func Parse(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrUnknownKey)
	}
	if r, size := utf8.DecodeRuneInString(s); size == len(s) {
		if r == utf8.RuneError && size == 1 {
			return Key{}, fmt.Errorf("%w: invalid utf-8 %q", ErrUnknownKey, s)
		}
		if r == 0 {
			return Key{}, fmt.Errorf("%w: NUL character", ErrUnknownKey)
		}
		return Char(r), nil
	}
	if name, ok := strings.CutPrefix(s, NamePrefix); ok {
		special, found := LookupSpecial(name)
		if !found {
			return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
		}
		return Named(special), nil
	}
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		code, err := strconv.ParseUint(s[1:len(s)-1], 10, 32)
		if err != nil || code == 0 {
			return Key{}, fmt.Errorf("%w: bad virtual code %q", ErrUnknownKey, s)
		}
		return VirtualCode(uint32(code)), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}
