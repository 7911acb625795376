//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unicode"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/offlinefirst/actionrec/pkg/recorder"
)

// hookSource installs low-level keyboard and mouse hooks on a dedicated OS
// thread. Only one source may hold the hooks at a time.
type hookSource struct {
	mu         sync.Mutex
	subscribed bool
	done       chan struct{}
	threadID   atomic.Uint32

	// sink is only touched by the hook thread.
	sink    chan<- recorder.Input
	dropped atomic.Int64
}

var activeSource atomic.Pointer[hookSource]

var (
	callbackOnce     sync.Once
	keyboardCallback uintptr
	mouseCallback    uintptr
)

func hookCallbacks() (uintptr, uintptr) {
	callbackOnce.Do(func() {
		keyboardCallback = syscall.NewCallback(keyboardProc)
		mouseCallback = syscall.NewCallback(mouseProc)
	})
	return keyboardCallback, mouseCallback
}

// NewInputSource returns a source backed by WH_KEYBOARD_LL and WH_MOUSE_LL.
func NewInputSource() recorder.Source {
	return &hookSource{}
}

func (s *hookSource) Subscribe(buffer int) (<-chan recorder.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribed {
		return nil, errors.New("input hooks already subscribed")
	}
	if !activeSource.CompareAndSwap(nil, s) {
		return nil, errors.New("input hooks held by another session")
	}

	out := make(chan recorder.Input, buffer)
	ready := make(chan error, 1)
	done := make(chan struct{})
	go s.run(out, ready, done)
	if err := <-ready; err != nil {
		<-done
		return nil, err
	}
	s.subscribed = true
	s.done = done
	return out, nil
}

func (s *hookSource) run(out chan recorder.Input, ready chan<- error, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)
	defer close(out)
	defer activeSource.CompareAndSwap(s, nil)

	s.sink = out
	defer func() { s.sink = nil }()

	// Force creation of the thread message queue before anyone posts to it.
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	kbProc, mouseProcPtr := hookCallbacks()
	kbHook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, kbProc, 0, 0)
	if kbHook == 0 {
		ready <- fmt.Errorf("install keyboard hook: %w", err)
		return
	}
	defer procUnhookWindowsHookEx.Call(kbHook)

	mouseHook, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseProcPtr, 0, 0)
	if mouseHook == 0 {
		ready <- fmt.Errorf("install mouse hook: %w", err)
		return
	}
	defer procUnhookWindowsHookEx.Call(mouseHook)

	s.threadID.Store(windows.GetCurrentThreadId())
	ready <- nil

	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return
		}
	}
}

func (s *hookSource) Unsubscribe() error {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.subscribed = false
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}
	ret, _, err := procPostThreadMessageW.Call(uintptr(s.threadID.Load()), wmQuit, 0, 0)
	if ret == 0 {
		return fmt.Errorf("stop hook thread: %w", err)
	}
	<-done
	return nil
}

func (s *hookSource) Dropped() int64 {
	return s.dropped.Load()
}

// deliver never blocks the hook thread.
func (s *hookSource) deliver(in recorder.Input) {
	select {
	case s.sink <- in:
	default:
		s.dropped.Add(1)
	}
}

func keyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if s := activeSource.Load(); s != nil && s.sink != nil {
			if kind, ok := keyKind(uint32(wParam)); ok {
				info := (*kbdllhookstruct)(unsafe.Pointer(lParam))
				vk := uint16(info.VkCode)
				s.deliver(recorder.Input{
					Kind: kind,
					At:   time.Now(),
					Key:  keyFromVirtual(vk, layoutChar(vk)),
				})
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

func mouseProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) >= 0 {
		if s := activeSource.Load(); s != nil && s.sink != nil {
			info := (*msllhookstruct)(unsafe.Pointer(lParam))
			if in, ok := translateMouse(uint32(wParam), int(info.Pt.X), int(info.Pt.Y), info.MouseData, time.Now()); ok {
				s.deliver(in)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

// layoutChar returns the character the active layout maps vk to, or zero.
// Letters follow the shift and caps lock state; other shifted symbols are
// reported unshifted.
func layoutChar(vk uint16) rune {
	ret, _, _ := procMapVirtualKeyW.Call(uintptr(vk), mapvkVKToChar)
	code := uint32(ret) & 0x7FFFFFFF
	if code < 0x20 {
		return 0
	}
	ch := rune(code)
	if unicode.IsLetter(ch) {
		if upperCase() {
			return unicode.ToUpper(ch)
		}
		return unicode.ToLower(ch)
	}
	return ch
}

func upperCase() bool {
	shift, _, _ := procGetAsyncKeyState.Call(vkShift)
	caps, _, _ := procGetKeyState.Call(vkCapital)
	return (uint16(shift)&0x8000 != 0) != (uint16(caps)&0x0001 != 0)
}
