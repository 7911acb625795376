// Package recorder captures a time-ordered log of keyboard and mouse input,
// optionally restricted to moments when a target window holds focus.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/logging"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

// DefaultBufferSize is the capacity of the source channel when unset.
const DefaultBufferSize = 1024

// Termination causes reported in Result.
const (
	TerminationEscape       = "escape"
	TerminationRequested    = "requested"
	TerminationCanceled     = "canceled"
	TerminationSourceClosed = "source_closed"
)

// Options configures a Recorder.
type Options struct {
	Source     Source
	Focus      FocusQuery
	Target     WindowID
	BufferSize int
	Clock      func() time.Time
	Preflight  func() error
	Logger     *slog.Logger
}

// Result describes a finished capture session.
type Result struct {
	Events      []recording.Event
	StartedAt   time.Time
	EndedAt     time.Time
	Termination string
	Observed    int
	Filtered    int
	Dropped     int64
	OutputPath  string
}

// Recorder runs capture sessions against a Source. A stop requested before
// Record starts is honoured by the next session.
type Recorder struct {
	source    Source
	focus     FocusQuery
	target    WindowID
	buffer    int
	clock     func() time.Time
	preflight func() error
	logger    *slog.Logger

	active atomic.Bool

	mu   sync.Mutex
	stop *stopSignal
}

// New validates options and constructs a recorder.
func New(opts Options) (*Recorder, error) {
	if opts.Source == nil {
		return nil, errors.New("input source must be provided")
	}
	if opts.BufferSize < 0 {
		return nil, errors.New("buffer size must not be negative")
	}
	buffer := opts.BufferSize
	if buffer == 0 {
		buffer = DefaultBufferSize
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{
		source:    opts.Source,
		focus:     opts.Focus,
		target:    opts.Target,
		buffer:    buffer,
		clock:     clock,
		preflight: opts.Preflight,
		logger:    logging.OrDiscard(opts.Logger),
		stop:      newStopSignal(),
	}, nil
}

// RequestStop asks the current or next session to end. It never injects
// input and may be called from any goroutine. It reports whether this call
// raised the signal.
func (r *Recorder) RequestStop() bool {
	r.mu.Lock()
	signal := r.stop
	r.mu.Unlock()
	return signal.raise()
}

// Active reports whether a session is running.
func (r *Recorder) Active() bool {
	return r.active.Load()
}

// Record captures input until the escape key is released, RequestStop is
// called, the source closes, or ctx is cancelled. When outputPath is not
// empty the captured events are written there. On cancellation the partial
// result is returned together with ctx.Err().
func (r *Recorder) Record(ctx context.Context, outputPath string) (Result, error) {
	if !r.active.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRecording
	}
	defer r.active.Store(false)

	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	stop := r.stop
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.stop = newStopSignal()
		r.mu.Unlock()
	}()

	sess := &session{
		start:  r.clock(),
		clock:  r.clock,
		focus:  r.focus,
		target: r.target,
		logger: r.logger,
		events: make([]recording.Event, 0, 256),
	}

	if r.preflight != nil {
		if err := r.preflight(); err != nil {
			return Result{}, newCaptureError("preflight", err)
		}
	}

	termination := TerminationRequested
	if !stop.isRaised() {
		inputs, err := r.source.Subscribe(r.buffer)
		if err != nil {
			return Result{}, newCaptureError("subscribe", err)
		}
		r.logger.Info("input capture started", "target", uint64(r.target), "buffer", r.buffer, "focus_filter", sess.filtering())

		termination = r.capture(ctx, inputs, stop, sess)

		if err := r.source.Unsubscribe(); err != nil {
			r.logger.Warn("detach input source", "error", err)
		}
	}

	result := Result{
		Events:      sess.events,
		StartedAt:   sess.start,
		EndedAt:     r.clock(),
		Termination: termination,
		Observed:    sess.observed,
		Filtered:    sess.filtered,
		Dropped:     r.source.Dropped(),
		OutputPath:  outputPath,
	}
	r.logger.Info("input capture stopped",
		"termination", result.Termination,
		"events", len(result.Events),
		"observed", result.Observed,
		"filtered", result.Filtered,
		"dropped", result.Dropped)

	if outputPath != "" {
		if err := recording.WriteFile(outputPath, result.Events); err != nil {
			return result, fmt.Errorf("save recording: %w", err)
		}
		r.logger.Info("recording saved", "path", outputPath)
	}

	if termination == TerminationCanceled {
		return result, ctx.Err()
	}
	return result, nil
}

func (r *Recorder) capture(ctx context.Context, inputs <-chan Input, stop *stopSignal, sess *session) string {
	for {
		if stop.isRaised() {
			return TerminationRequested
		}
		select {
		case <-ctx.Done():
			return TerminationCanceled
		case <-stop.done:
			return TerminationRequested
		case in, ok := <-inputs:
			if !ok {
				return TerminationSourceClosed
			}
			if sess.handle(in) {
				stop.raise()
				return TerminationEscape
			}
		}
	}
}

// session is the live state of one Record call. It is owned by the Record
// goroutine.
type session struct {
	start  time.Time
	clock  func() time.Time
	focus  FocusQuery
	target WindowID
	logger *slog.Logger

	events   []recording.Event
	last     float64
	observed int
	filtered int
}

func (s *session) filtering() bool {
	return s.focus != nil && s.target != 0
}

// handle records in if it passes the focus filter and reports whether it is
// the stop trigger.
func (s *session) handle(in Input) bool {
	s.observed++

	at := in.At
	if at.IsZero() {
		at = s.clock()
	}
	elapsed := at.Sub(s.start).Seconds()
	if elapsed < s.last {
		elapsed = s.last
	}

	trigger := in.Kind == recording.KeyRelease && in.Key.Is(keys.Esc)
	if !trigger && !s.inFocus() {
		s.filtered++
		return false
	}

	s.events = append(s.events, toEvent(in, elapsed))
	s.last = elapsed
	return trigger
}

func (s *session) inFocus() bool {
	if !s.filtering() {
		return true
	}
	fg, err := s.focus.Foreground()
	if err != nil {
		s.logger.Debug("focus query failed, accepting event", "error", err)
		return true
	}
	return fg == s.target
}

func toEvent(in Input, elapsed float64) recording.Event {
	switch in.Kind {
	case recording.KeyPress:
		return recording.KeyPressEvent(elapsed, in.Key)
	case recording.KeyRelease:
		return recording.KeyReleaseEvent(elapsed, in.Key)
	case recording.MouseMove:
		return recording.MoveEvent(elapsed, in.X, in.Y)
	case recording.MouseClick:
		return recording.ClickEvent(elapsed, in.X, in.Y, in.Button, in.Pressed)
	case recording.MouseScroll:
		return recording.ScrollEvent(elapsed, in.X, in.Y, in.DX, in.DY)
	default:
		return recording.Event{Kind: in.Kind, Elapsed: elapsed}
	}
}
