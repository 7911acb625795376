package replay

import (
	"errors"
	"fmt"

	"github.com/offlinefirst/actionrec/pkg/recording"
)

// ErrEmitFailure marks a synthetic input action rejected by the environment.
// Emit failures are collected and never abort a replay.
var ErrEmitFailure = errors.New("synthetic input rejected")

// ErrRecordingNotFound is returned before any work when a recording file is
// missing.
var ErrRecordingNotFound = errors.New("recording not found")

// EmitError records which event failed to dispatch.
type EmitError struct {
	Index int
	Kind  recording.Kind
	Err   error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("%s: event %d (%s): %v", ErrEmitFailure, e.Index, e.Kind, e.Err)
}

func (e *EmitError) Is(target error) bool {
	return target == ErrEmitFailure
}

func (e *EmitError) Unwrap() error {
	return e.Err
}
