package recording

import (
	"errors"
	"fmt"
)

// ErrMalformedRecording indicates persisted data that does not match the
// recording schema.
var ErrMalformedRecording = errors.New("malformed recording")

// MalformedError locates a schema violation. Index is the zero-based record
// position, or -1 when the document itself is not a record collection.
type MalformedError struct {
	Index  int
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedRecording, e.Reason)
	}
	return fmt.Sprintf("%s: record %d: %s", ErrMalformedRecording, e.Index, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedRecording
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func malformed(index int, format string, args ...any) error {
	return &MalformedError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
