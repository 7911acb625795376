package recorder

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ScriptedSource delivers a fixed list of inputs. It stands in for the host
// hooks in tests of the recorder and its callers.
type ScriptedSource struct {
	Inputs []Input
	// Interval is waited before each delivery.
	Interval time.Duration
	// CloseAfter closes the channel once every input has been delivered.
	CloseAfter bool
	// SubscribeErr is returned from Subscribe when set.
	SubscribeErr error

	mu       sync.Mutex
	done     chan struct{}
	finished chan struct{}

	subscribes   atomic.Int32
	unsubscribes atomic.Int32
	dropped      atomic.Int64
}

// Subscribe starts delivering the scripted inputs.
func (s *ScriptedSource) Subscribe(buffer int) (<-chan Input, error) {
	if s.SubscribeErr != nil {
		return nil, s.SubscribeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil, errors.New("scripted source already subscribed")
	}
	out := make(chan Input, buffer)
	s.done = make(chan struct{})
	s.finished = make(chan struct{})
	s.subscribes.Add(1)
	go s.feed(out, s.done, s.finished)
	return out, nil
}

func (s *ScriptedSource) feed(out chan<- Input, done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	defer close(out)
	for _, in := range s.Inputs {
		if s.Interval > 0 {
			timer := time.NewTimer(s.Interval)
			select {
			case <-done:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		select {
		case out <- in:
		case <-done:
			return
		}
	}
	if s.CloseAfter {
		return
	}
	<-done
}

// Unsubscribe stops delivery and waits for the channel to close.
func (s *ScriptedSource) Unsubscribe() error {
	s.mu.Lock()
	done, finished := s.done, s.finished
	s.done, s.finished = nil, nil
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	s.unsubscribes.Add(1)
	close(done)
	<-finished
	return nil
}

// Dropped always reports zero; scripted delivery blocks instead of dropping.
func (s *ScriptedSource) Dropped() int64 {
	return s.dropped.Load()
}

// Subscriptions reports how many times Subscribe succeeded.
func (s *ScriptedSource) Subscriptions() int {
	return int(s.subscribes.Load())
}

// Detachments reports how many subscriptions were torn down.
func (s *ScriptedSource) Detachments() int {
	return int(s.unsubscribes.Load())
}
