package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/offlinefirst/actionrec/internal/buildinfo"
	"github.com/offlinefirst/actionrec/pkg/manifest"
	"github.com/offlinefirst/actionrec/pkg/platform"
	"github.com/offlinefirst/actionrec/pkg/recorder"
	"github.com/offlinefirst/actionrec/pkg/session"
)

func newRecordCommand() command {
	return command{
		name:        "record",
		description: "Record keyboard and mouse input until ESC is released",
		configure: func(fs *flag.FlagSet) {
			fs.String("o", "", "Output path (default: <recordings_dir>/<timestamp>.json)")
			fs.String("window", "", "Only record while the window with this id has focus")
			fs.String("title", "", "Only record while the window whose title contains this text has focus")
			fs.Bool("no-manifest", false, "Skip writing the session manifest")
		},
		run: runRecord,
	}
}

var (
	timeNow          = time.Now
	hostname         = os.Hostname
	manifestSave     = manifest.Save
	newInputSource   = platform.NewInputSource
	newFocusQuery    = platform.NewFocusQuery
	capturePreflight = platform.Preflight
	listWindows      = platform.ListWindows
	activateWindow   = platform.Activate
	notifyInterrupt  = func(c chan<- os.Signal) { signal.Notify(c, os.Interrupt) }
	stopInterrupt    = func(c chan<- os.Signal) { signal.Stop(c) }
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

func runRecord(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	target, err := resolveTarget(ctx, stringFlag(fs, "window"), stringFlag(fs, "title"))
	if err != nil {
		return err
	}

	output := stringFlag(fs, "o")
	if output == "" {
		if err := os.MkdirAll(ctx.Config.Paths.RecordingsDir, 0o755); err != nil {
			return fmt.Errorf("ensure recordings directory: %w", err)
		}
		output, err = manifest.ResolveRecordingPath(ctx.Config.Paths.RecordingsDir, timeNow())
		if err != nil {
			return fmt.Errorf("resolve recording path: %w", err)
		}
	}
	writeManifest := ctx.Config.Record.WriteManifest && !boolFlag(fs, "no-manifest")
	ctx.Logger.Info("record command invoked", "output", output, "manifest", writeManifest, "target", targetID(target))

	var man manifest.Manifest
	manifestPath := manifest.PathFor(output)
	if writeManifest {
		host, err := hostname()
		if err != nil {
			host = "unknown"
		}
		var manTarget *manifest.Target
		if target != nil {
			manTarget = &manifest.Target{ID: uint64(target.ID), Title: target.Title}
		}
		man = manifest.New(manifest.Options{
			CreatedAt:     timeNow(),
			Hostname:      host,
			AppVersion:    buildinfo.Version(),
			Config:        ctx.Config,
			RecordingPath: output,
			Target:        manTarget,
		})
		man.MarkStarted(timeNow())
		if err := manifestSave(man, manifestPath); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}

	ctrl := session.NewController(session.Options{
		Source:     newInputSource(),
		Focus:      newFocusQuery(),
		BufferSize: ctx.Config.Record.BufferSize,
		Preflight:  capturePreflight,
		Clock:      timeNow,
		Logger:     ctx.Logger,
	})

	outcomes, err := ctrl.StartRecording(context.Background(), targetID(target), output)
	if err != nil {
		if writeManifest {
			man.MarkFinished(manifest.Outcome{EndedAt: timeNow(), Err: err})
			if saveErr := manifestSave(man, manifestPath); saveErr != nil {
				ctx.Logger.Warn("persist manifest", "error", saveErr)
			}
		}
		return fmt.Errorf("start recording: %w", err)
	}
	if target != nil {
		fmt.Fprintf(stdout, "Recording input for %q (id %d). Release ESC or press Ctrl+C to stop.\n", target.Title, target.ID)
	} else {
		fmt.Fprintln(stdout, "Recording input. Release ESC or press Ctrl+C to stop.")
	}

	outcome := awaitInterruptible(outcomes, func() {
		if err := ctrl.StopRecording(); err == nil {
			fmt.Fprintln(stdout, "Stop requested, finishing recording...")
		}
	})

	result := outcome.Result
	if writeManifest {
		ended := result.EndedAt
		if ended.IsZero() {
			ended = timeNow()
		}
		duration := 0.0
		if !result.StartedAt.IsZero() {
			duration = ended.Sub(result.StartedAt).Seconds()
		}
		man.MarkFinished(manifest.Outcome{
			EndedAt:         ended,
			Termination:     result.Termination,
			EventCount:      len(result.Events),
			FilteredCount:   result.Filtered,
			DroppedCount:    result.Dropped,
			DurationSeconds: duration,
			Err:             outcome.Err,
		})
		if saveErr := manifestSave(man, manifestPath); saveErr != nil {
			if outcome.Err != nil {
				return fmt.Errorf("record: %v (additionally failed to persist manifest: %w)", outcome.Err, saveErr)
			}
			return fmt.Errorf("finalise manifest: %w", saveErr)
		}
	}

	if outcome.Err != nil {
		ctx.Logger.Error("recording failed", "error", outcome.Err)
		failColor.Fprintf(stdout, "Recording failed: %v\n", outcome.Err)
		if errors.Is(outcome.Err, recorder.ErrCaptureUnavailable) {
			fmt.Fprintln(stdout, "Run `actionrec doctor` for permission guidance.")
		}
		return fmt.Errorf("record: %w", outcome.Err)
	}

	okColor.Fprintf(stdout, "Recorded %d events -> %s\n", len(result.Events), output)
	fmt.Fprintf(stdout, "  stopped by: %s\n", result.Termination)
	if result.Filtered > 0 {
		fmt.Fprintf(stdout, "  filtered (target not focused): %d\n", result.Filtered)
	}
	if result.Dropped > 0 {
		warnColor.Fprintf(stdout, "  dropped (input buffer full): %d\n", result.Dropped)
	}
	if writeManifest {
		fmt.Fprintf(stdout, "Manifest: %s\n", manifestPath)
	}
	return nil
}

// resolveTarget finds the window to scope recording to and brings it to the
// foreground. No selector means every window is recorded.
func resolveTarget(ctx *AppContext, window, title string) (*platform.Window, error) {
	if window != "" && title != "" {
		return nil, errors.New("use either -window or -title, not both")
	}
	if window == "" && title == "" {
		return nil, nil
	}
	var id uint64
	if window != "" {
		parsed, err := strconv.ParseUint(window, 0, 64)
		if err != nil || parsed == 0 {
			return nil, fmt.Errorf("invalid window id %q", window)
		}
		id = parsed
	}

	windows, err := listWindows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	var found platform.Window
	if window != "" {
		found, err = platform.FindWindowByID(windows, recorder.WindowID(id))
	} else {
		found, err = platform.FindWindowByTitle(windows, title)
	}
	if err != nil {
		return nil, err
	}
	if err := activateWindow(found.ID); err != nil {
		ctx.Logger.Warn("could not activate target window", "id", uint64(found.ID), "error", err)
	}
	return &found, nil
}

func targetID(target *platform.Window) recorder.WindowID {
	if target == nil {
		return 0
	}
	return target.ID
}

// awaitInterruptible waits for the session outcome, calling onInterrupt for
// each Ctrl+C received meanwhile.
func awaitInterruptible[T any](outcomes <-chan T, onInterrupt func()) T {
	signals := make(chan os.Signal, 1)
	notifyInterrupt(signals)
	defer stopInterrupt(signals)

	for {
		select {
		case out := <-outcomes:
			return out
		case <-signals:
			onInterrupt()
		}
	}
}

func stringFlag(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
