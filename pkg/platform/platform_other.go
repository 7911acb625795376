//go:build !windows

package platform

import (
	"github.com/offlinefirst/actionrec/pkg/recorder"
	"github.com/offlinefirst/actionrec/pkg/replay"
)

const backendAvailable = false

type unsupportedSource struct{}

func (unsupportedSource) Subscribe(int) (<-chan recorder.Input, error) { return nil, ErrUnsupported }
func (unsupportedSource) Unsubscribe() error                          { return nil }
func (unsupportedSource) Dropped() int64                              { return 0 }

// NewInputSource returns a source whose Subscribe always fails.
func NewInputSource() recorder.Source {
	return unsupportedSource{}
}

// NewEmitter reports ErrUnsupported.
func NewEmitter() (replay.Emitter, error) {
	return nil, ErrUnsupported
}

// NewFocusQuery returns a query that always errors, which the recorder
// treats as "accept".
func NewFocusQuery() recorder.FocusQuery {
	return recorder.FocusFunc(func() (recorder.WindowID, error) {
		return 0, ErrUnsupported
	})
}

// ListWindows reports ErrUnsupported.
func ListWindows() ([]Window, error) {
	return nil, ErrUnsupported
}

// Activate reports ErrUnsupported.
func Activate(recorder.WindowID) error {
	return ErrUnsupported
}
