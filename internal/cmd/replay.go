package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/offlinefirst/actionrec/pkg/platform"
	"github.com/offlinefirst/actionrec/pkg/replay"
	"github.com/offlinefirst/actionrec/pkg/session"
)

func newReplayCommand() command {
	return command{
		name:        "replay",
		description: "Replay a recording with its original timing",
		args:        " <recording.json>",
		configure: func(fs *flag.FlagSet) {
			fs.Float64("speed", 0, "Playback speed multiplier (default: replay.speed from config)")
			fs.Duration("delay", 0, "Wait before the first event (default: replay.start_delay from config)")
		},
		run: runReplay,
	}
}

var newEmitter = platform.NewEmitter

func runReplay(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) != 1 {
		return errors.New("replay requires exactly one recording path")
	}
	path := args[0]
	if err := replay.Locate(path); err != nil {
		return err
	}

	speed := ctx.Config.Replay.Speed
	if flagWasSet(fs, "speed") {
		speed = float64Flag(fs, "speed")
		if !(speed > 0) {
			return fmt.Errorf("speed %v must be positive", speed)
		}
	}
	delay := ctx.Config.Replay.StartDelay
	if flagWasSet(fs, "delay") {
		delay = durationFlag(fs, "delay")
		if delay < 0 {
			return fmt.Errorf("delay %s must not be negative", delay)
		}
	}

	emitter, err := newEmitter()
	if err != nil {
		return fmt.Errorf("synthetic input unavailable: %w", err)
	}
	replayer, err := replay.New(replay.Options{
		Emitter:      emitter,
		PollInterval: ctx.Config.Replay.PollInterval,
		Speed:        speed,
		Logger:       ctx.Logger,
	})
	if err != nil {
		return err
	}
	ctx.Logger.Info("replay command invoked", "path", path, "speed", speed, "delay", delay)

	ctrl := session.NewController(session.Options{
		Replayer:   replayer,
		StartDelay: delay,
		Logger:     ctx.Logger,
	})
	outcomes, err := ctrl.StartReplay(context.Background(), path)
	if err != nil {
		return err
	}
	if delay > 0 {
		fmt.Fprintf(stdout, "Replaying %s in %s. Press Ctrl+C to cancel.\n", path, delay)
	} else {
		fmt.Fprintf(stdout, "Replaying %s. Press Ctrl+C to cancel.\n", path)
	}

	outcome := awaitInterruptible(outcomes, func() {
		if err := ctrl.CancelReplay(); err == nil {
			fmt.Fprintln(stdout, "Cancel requested.")
		}
	})

	result := outcome.Result
	if outcome.Err != nil {
		if errors.Is(outcome.Err, context.Canceled) {
			warnColor.Fprintf(stdout, "Replay canceled after %d events\n", result.Dispatched)
			return nil
		}
		failColor.Fprintf(stdout, "Replay stopped after %d events: %v\n", result.Dispatched, outcome.Err)
		return fmt.Errorf("replay: %w", outcome.Err)
	}

	okColor.Fprintf(stdout, "Replayed %d events from %s\n", result.Dispatched, path)
	fmt.Fprintf(stdout, "  max lateness: %s\n", result.MaxLateness.Round(time.Microsecond))
	if n := len(result.EmitFailures); n > 0 {
		warnColor.Fprintf(stdout, "  emit failures: %d\n", n)
		for _, failure := range result.EmitFailures {
			fmt.Fprintf(stdout, "    - %v\n", failure)
		}
	}
	return nil
}

func float64Flag(fs *flag.FlagSet, name string) float64 {
	f := fs.Lookup(name)
	if f == nil {
		return 0
	}
	if getter, ok := f.Value.(flag.Getter); ok {
		if v, ok := getter.Get().(float64); ok {
			return v
		}
	}
	return 0
}

func durationFlag(fs *flag.FlagSet, name string) time.Duration {
	f := fs.Lookup(name)
	if f == nil {
		return 0
	}
	if getter, ok := f.Value.(flag.Getter); ok {
		if v, ok := getter.Get().(time.Duration); ok {
			return v
		}
	}
	return 0
}
