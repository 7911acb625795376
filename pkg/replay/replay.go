// Package replay reproduces a recorded input sequence through a synthetic
// input emitter, waiting for each event's offset from the start of replay.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/logging"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

// MaxPollInterval bounds a single sleep while waiting for an event.
const MaxPollInterval = 10 * time.Millisecond

// Emitter generates synthetic keyboard and mouse input.
type Emitter interface {
	PressKey(k keys.Key) error
	ReleaseKey(k keys.Key) error
	MoveTo(x, y int) error
	PressButton(b recording.Button) error
	ReleaseButton(b recording.Button) error
	Scroll(dx, dy int) error
}

// Options configures a Replayer.
type Options struct {
	Emitter      Emitter
	Clock        Clock
	PollInterval time.Duration
	Speed        float64
	Logger       *slog.Logger
}

// Result summarises a replay.
type Result struct {
	Dispatched   int
	EmitFailures []*EmitError
	MaxLateness  time.Duration
}

// Replayer dispatches recorded events in order.
type Replayer struct {
	emitter Emitter
	clock   Clock
	poll    time.Duration
	speed   float64
	logger  *slog.Logger
}

// New validates options and constructs a replayer.
func New(opts Options) (*Replayer, error) {
	if opts.Emitter == nil {
		return nil, errors.New("emitter must be provided")
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("replay speed %v must be a positive finite number", opts.Speed)
	}
	poll := opts.PollInterval
	if poll <= 0 || poll > MaxPollInterval {
		poll = MaxPollInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Replayer{
		emitter: opts.Emitter,
		clock:   clock,
		poll:    poll,
		speed:   speed,
		logger:  logging.OrDiscard(opts.Logger),
	}, nil
}

// Replay dispatches events with their recorded spacing. An empty sequence
// returns immediately.
func (r *Replayer) Replay(ctx context.Context, events []recording.Event) (Result, error) {
	return r.run(ctx, len(events), func(i int) (recording.Event, error) {
		if err := events[i].Check(i); err != nil {
			return recording.Event{}, err
		}
		return events[i], nil
	})
}

// ReplayRecords decodes each record just before it is due. A malformed record
// stops the replay; records before it have already been dispatched.
func (r *Replayer) ReplayRecords(ctx context.Context, records []recording.RawRecord) (Result, error) {
	return r.run(ctx, len(records), func(i int) (recording.Event, error) {
		return records[i].Event(i)
	})
}

// ReplayFile replays the recording stored at path.
func (r *Replayer) ReplayFile(ctx context.Context, path string) (Result, error) {
	if err := Locate(path); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read recording: %w", err)
	}
	records, err := recording.DecodeRecords(data)
	if err != nil {
		return Result{}, err
	}
	r.logger.Debug("recording loaded", "path", path, "records", len(records))
	return r.ReplayRecords(ctx, records)
}

// Locate reports ErrRecordingNotFound when path does not name a regular file.
func Locate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRecordingNotFound, path)
		}
		return fmt.Errorf("stat recording: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrRecordingNotFound, path)
	}
	return nil
}

func (r *Replayer) run(ctx context.Context, n int, next func(int) (recording.Event, error)) (Result, error) {
	var result Result
	if n == 0 {
		return result, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reference := r.clock.Now()
	r.logger.Info("replay started", "events", n, "speed", r.speed)

	for i := 0; i < n; i++ {
		ev, err := next(i)
		if err != nil {
			r.logger.Error("replay aborted", "index", i, "dispatched", result.Dispatched, "error", err)
			return result, err
		}

		target := reference.Add(r.offset(ev.Elapsed))
		if err := r.waitUntil(ctx, target); err != nil {
			r.logger.Info("replay canceled", "index", i, "dispatched", result.Dispatched)
			return result, err
		}
		if late := r.clock.Now().Sub(target); late > result.MaxLateness {
			result.MaxLateness = late
		}

		if err := r.dispatch(ev); err != nil {
			emitErr := &EmitError{Index: i, Kind: ev.Kind, Err: err}
			result.EmitFailures = append(result.EmitFailures, emitErr)
			r.logger.Warn("emit failed", "index", i, "kind", string(ev.Kind), "error", err)
			continue
		}
		result.Dispatched++
	}

	r.logger.Info("replay finished",
		"dispatched", result.Dispatched,
		"emit_failures", len(result.EmitFailures),
		"max_lateness", result.MaxLateness)
	return result, nil
}

// offset saturates at the largest Duration for offsets beyond its range.
func (r *Replayer) offset(elapsed float64) time.Duration {
	ns := math.Round(elapsed / r.speed * float64(time.Second))
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// waitUntil sleeps in slices of at most the poll interval until target.
func (r *Replayer) waitUntil(ctx context.Context, target time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := target.Sub(r.clock.Now())
		if remaining <= 0 {
			return nil
		}
		if remaining > r.poll {
			remaining = r.poll
		}
		r.clock.Sleep(remaining)
	}
}

func (r *Replayer) dispatch(ev recording.Event) error {
	switch ev.Kind {
	case recording.KeyPress:
		return r.emitter.PressKey(ev.Key)
	case recording.KeyRelease:
		return r.emitter.ReleaseKey(ev.Key)
	case recording.MouseMove:
		return r.emitter.MoveTo(ev.X, ev.Y)
	case recording.MouseClick:
		if ev.Pressed {
			return r.emitter.PressButton(ev.Button)
		}
		return r.emitter.ReleaseButton(ev.Button)
	case recording.MouseScroll:
		return r.emitter.Scroll(ev.DX, ev.DY)
	default:
		return fmt.Errorf("unsupported event kind %q", ev.Kind)
	}
}
