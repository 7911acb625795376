package recorder

import (
	"errors"
	"fmt"
)

// ErrCaptureUnavailable indicates input listeners could not be attached.
var ErrCaptureUnavailable = errors.New("input capture unavailable")

// ErrAlreadyRecording is returned when Record is called during a session.
var ErrAlreadyRecording = errors.New("recording is already in progress")

type captureError struct {
	stage string
	err   error
}

func (e *captureError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCaptureUnavailable, e.stage, e.err)
}

func (e *captureError) Is(target error) bool {
	return target == ErrCaptureUnavailable
}

func (e *captureError) Unwrap() error {
	return e.err
}

func newCaptureError(stage string, err error) error {
	return &captureError{stage: stage, err: err}
}
