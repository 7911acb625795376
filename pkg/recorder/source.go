package recorder

import (
	"time"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

// Input is a raw observation delivered by an input-notification source.
// At should be taken with time.Now at the moment of observation so that it
// carries a monotonic reading; a zero At is stamped on receipt.
type Input struct {
	Kind recording.Kind
	At   time.Time

	Key keys.Key

	X, Y    int
	Button  recording.Button
	Pressed bool
	DX, DY  int
}

// Source supplies raw keyboard and mouse notifications.
type Source interface {
	// Subscribe attaches listeners and returns a channel with the given
	// capacity. The source closes the channel once unsubscribed.
	Subscribe(buffer int) (<-chan Input, error)

	// Unsubscribe detaches listeners. It is safe to call more than once.
	Unsubscribe() error

	// Dropped reports notifications discarded because the channel was full.
	Dropped() int64
}

// WindowID is an opaque platform window identifier. Zero means "none".
type WindowID uint64

// FocusQuery reports which window currently holds input focus.
type FocusQuery interface {
	Foreground() (WindowID, error)
}

// FocusFunc adapts a function to FocusQuery.
type FocusFunc func() (WindowID, error)

// Foreground calls f.
func (f FocusFunc) Foreground() (WindowID, error) {
	return f()
}
