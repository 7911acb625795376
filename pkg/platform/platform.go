// Package platform binds the recorder and replayer to the host desktop:
// global input hooks, synthetic input, the foreground window query and
// top-level window enumeration. Only Windows has a real backend; elsewhere
// every constructor reports ErrUnsupported.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/offlinefirst/actionrec/pkg/permissions"
	"github.com/offlinefirst/actionrec/pkg/recorder"
)

// ErrUnsupported indicates the host has no input backend.
var ErrUnsupported = errors.New("input backend unsupported on " + runtime.GOOS)

// ErrWindowNotFound is returned when no window matches a selector.
var ErrWindowNotFound = errors.New("window not found")

// Window is a visible top-level window.
type Window struct {
	ID    recorder.WindowID
	Title string
}

// FindWindowByID returns the window whose id is id.
func FindWindowByID(windows []Window, id recorder.WindowID) (Window, error) {
	for _, w := range windows {
		if w.ID == id {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("%w: id %d", ErrWindowNotFound, uint64(id))
}

// FindWindowByTitle matches a case-insensitive title substring, which must
// select exactly one window unless one of the matches has that exact title.
// Numeric text is treated as title text, never as an id.
func FindWindowByTitle(windows []Window, title string) (Window, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Window{}, fmt.Errorf("%w: empty title", ErrWindowNotFound)
	}

	needle := strings.ToLower(title)
	var matches []Window
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			matches = append(matches, w)
		}
	}
	switch len(matches) {
	case 0:
		return Window{}, fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	case 1:
		return matches[0], nil
	default:
		for _, w := range matches {
			if strings.EqualFold(w.Title, title) {
				return w, nil
			}
		}
		return Window{}, fmt.Errorf("%w: %q matches %d windows", ErrWindowNotFound, title, len(matches))
	}
}

// Environment summarises input backend support.
type Environment struct {
	Provider        string
	Capture         bool
	Replay          bool
	HookPermission  string
	InputPermission string
	Message         string
	Guidance        string
}

const (
	providerWin32 = "win32_hooks"
	providerStub  = "stub"
)

// DetectEnvironment reports whether capture and replay can run on this host.
func DetectEnvironment() Environment {
	hooks := permissions.ProbeInputHooks(nil)
	synthetic := permissions.ProbeSyntheticInput(nil)
	env := Environment{
		Provider:        providerStub,
		HookPermission:  hooks.StatusString(),
		InputPermission: synthetic.StatusString(),
		Message:         hooks.Message,
		Guidance:        hooks.Guidance,
	}
	if backendAvailable {
		env.Provider = providerWin32
		env.Capture = hooks.Usable()
		env.Replay = synthetic.Usable()
	}
	if !env.Capture && env.Message == "" {
		env.Message = "input capture unavailable"
	}
	return env
}

// Preflight returns the capture permission check used before recording.
func Preflight() error {
	if !backendAvailable {
		return ErrUnsupported
	}
	return permissions.ProbeInputHooks(nil).Err()
}
