//go:build windows

package platform

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/offlinefirst/actionrec/pkg/recorder"
)

// NewFocusQuery reports the foreground window handle.
func NewFocusQuery() recorder.FocusQuery {
	return recorder.FocusFunc(func() (recorder.WindowID, error) {
		hwnd, _, _ := procGetForegroundWindow.Call()
		if hwnd == 0 {
			return 0, errors.New("no foreground window")
		}
		return recorder.WindowID(hwnd), nil
	})
}

var (
	enumMu       sync.Mutex
	enumOnce     sync.Once
	enumCallback uintptr
	enumResult   []Window
)

// ListWindows returns visible top-level windows that have a title.
func ListWindows() ([]Window, error) {
	enumOnce.Do(func() {
		enumCallback = syscall.NewCallback(enumWindowsProc)
	})

	enumMu.Lock()
	defer enumMu.Unlock()
	enumResult = nil
	ret, _, err := procEnumWindows.Call(enumCallback, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	out := enumResult
	enumResult = nil
	return out, nil
}

func enumWindowsProc(hwnd, _ uintptr) uintptr {
	visible, _, _ := procIsWindowVisible.Call(hwnd)
	if visible == 0 {
		return 1
	}
	if title := windowTitle(hwnd); title != "" {
		enumResult = append(enumResult, Window{ID: recorder.WindowID(hwnd), Title: title})
	}
	return 1
}

func windowTitle(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

// Activate restores the window if minimised and brings it to the foreground.
func Activate(id recorder.WindowID) error {
	hwnd := uintptr(id)
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		procShowWindow.Call(hwnd, swRestore)
	}
	ret, _, err := procSetForegroundWindow.Call(hwnd)
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow: %w", err)
	}
	return nil
}
