package recorder

import (
	"sync"
	"sync/atomic"
)

// stopSignal is a one-shot flag safe to raise from any goroutine.
type stopSignal struct {
	once   sync.Once
	raised atomic.Bool
	done   chan struct{}
}

func newStopSignal() *stopSignal {
	return &stopSignal{done: make(chan struct{})}
}

// raise closes the signal and reports whether this call was the first.
func (s *stopSignal) raise() bool {
	first := false
	s.once.Do(func() {
		first = true
		s.raised.Store(true)
		close(s.done)
	})
	return first
}

func (s *stopSignal) isRaised() bool {
	return s.raised.Load()
}
