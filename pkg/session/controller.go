// Package session runs recordings and replays on worker goroutines for an
// interactive shell, one session at a time, handing results back over
// channels.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/offlinefirst/actionrec/pkg/logging"
	"github.com/offlinefirst/actionrec/pkg/recorder"
	"github.com/offlinefirst/actionrec/pkg/replay"
)

// State is the controller's textual state for diagnostics.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateReplaying State = "replaying"
	StateStopping  State = "stopping"
)

var (
	// ErrBusy is returned when a session is already running.
	ErrBusy = errors.New("session already in progress")
	// ErrNotRecording is returned by StopRecording without an active recording.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrNotReplaying is returned by CancelReplay without an active replay.
	ErrNotReplaying = errors.New("no replay in progress")
)

// Options wires the controller to its collaborators.
type Options struct {
	Source     recorder.Source
	Focus      recorder.FocusQuery
	BufferSize int
	Preflight  func() error
	Clock      func() time.Time

	Replayer   *replay.Replayer
	StartDelay time.Duration

	Logger *slog.Logger
}

// RecordOutcome is delivered once a recording ends.
type RecordOutcome struct {
	Result recorder.Result
	Err    error
}

// ReplayOutcome is delivered once a replay ends.
type ReplayOutcome struct {
	Result replay.Result
	Err    error
}

// Controller coordinates one recording or replay at a time.
type Controller struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	active *recorder.Recorder
	cancel context.CancelFunc
}

// NewController constructs a controller in the idle state.
func NewController(opts Options) *Controller {
	return &Controller{
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
		state:  StateIdle,
	}
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartRecording begins capture scoped to target (zero records every
// window) and returns a channel that receives exactly one outcome.
func (c *Controller) StartRecording(ctx context.Context, target recorder.WindowID, outputPath string) (<-chan RecordOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil, fmt.Errorf("%w: %s", ErrBusy, c.state)
	}

	rec, err := recorder.New(recorder.Options{
		Source:     c.opts.Source,
		Focus:      c.opts.Focus,
		Target:     target,
		BufferSize: c.opts.BufferSize,
		Clock:      c.opts.Clock,
		Preflight:  c.opts.Preflight,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}

	c.state = StateRecording
	c.active = rec
	c.logger.Debug("session state", "state", StateRecording, "output", outputPath)

	out := make(chan RecordOutcome, 1)
	go func() {
		defer close(out)
		result, err := rec.Record(ctx, outputPath)
		c.reset()
		out <- RecordOutcome{Result: result, Err: err}
	}()
	return out, nil
}

// StopRecording asks the active recording to end. It does not wait.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	switch c.state {
	case StateRecording:
	case StateStopping:
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		return ErrNotRecording
	}
	rec := c.active
	c.state = StateStopping
	c.mu.Unlock()

	c.logger.Debug("session state", "state", StateStopping)
	rec.RequestStop()
	return nil
}

// StartReplay checks that path exists and replays it on a worker goroutine.
func (c *Controller) StartReplay(ctx context.Context, path string) (<-chan ReplayOutcome, error) {
	if c.opts.Replayer == nil {
		return nil, errors.New("replay is not configured")
	}
	if err := replay.Locate(path); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil, fmt.Errorf("%w: %s", ErrBusy, c.state)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.state = StateReplaying
	c.cancel = cancel
	c.logger.Debug("session state", "state", StateReplaying, "path", path)

	out := make(chan ReplayOutcome, 1)
	go func() {
		defer close(out)
		defer cancel()
		result, err := c.replay(runCtx, path)
		c.reset()
		out <- ReplayOutcome{Result: result, Err: err}
	}()
	return out, nil
}

func (c *Controller) replay(ctx context.Context, path string) (replay.Result, error) {
	if delay := c.opts.StartDelay; delay > 0 {
		c.logger.Info("replay starts after delay", "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return replay.Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return c.opts.Replayer.ReplayFile(ctx, path)
}

// CancelReplay abandons the active replay between events.
func (c *Controller) CancelReplay() error {
	c.mu.Lock()
	if c.state != StateReplaying || c.cancel == nil {
		c.mu.Unlock()
		return ErrNotReplaying
	}
	cancel := c.cancel
	c.state = StateStopping
	c.mu.Unlock()

	cancel()
	return nil
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.state = StateIdle
	c.active = nil
	c.cancel = nil
	c.mu.Unlock()
	c.logger.Debug("session state", "state", StateIdle)
}
