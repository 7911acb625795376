package cmd

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/offlinefirst/actionrec/pkg/config"
	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/manifest"
	"github.com/offlinefirst/actionrec/pkg/platform"
	"github.com/offlinefirst/actionrec/pkg/recorder"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

var testNow = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T) *AppContext {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.RecordingsDir = filepath.Join(t.TempDir(), "recordings")
	return &AppContext{Config: cfg, Logger: newTestLogger()}
}

func parseCommandFlags(t *testing.T, cmd command, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.configure != nil {
		cmd.configure(fs)
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

// stubRecordEnvironment replaces the platform hooks with a scripted source.
func stubRecordEnvironment(t *testing.T, src *recorder.ScriptedSource) {
	t.Helper()
	origTime, origHost := timeNow, hostname
	origSource, origFocus, origPreflight := newInputSource, newFocusQuery, capturePreflight
	origList, origActivate := listWindows, activateWindow
	t.Cleanup(func() {
		timeNow, hostname = origTime, origHost
		newInputSource, newFocusQuery, capturePreflight = origSource, origFocus, origPreflight
		listWindows, activateWindow = origList, origActivate
	})

	timeNow = func() time.Time { return testNow }
	hostname = func() (string, error) { return "test-host", nil }
	newInputSource = func() recorder.Source { return src }
	newFocusQuery = func() recorder.FocusQuery {
		return recorder.FocusFunc(func() (recorder.WindowID, error) { return 0, errors.New("no desktop") })
	}
	capturePreflight = func() error { return nil }
	listWindows = func() ([]platform.Window, error) { return nil, platform.ErrUnsupported }
	activateWindow = func(recorder.WindowID) error { return nil }
}

func scriptedTyping() *recorder.ScriptedSource {
	return &recorder.ScriptedSource{Inputs: []recorder.Input{
		{Kind: recording.MouseMove, At: testNow.Add(250 * time.Millisecond), X: 4, Y: 8},
		{Kind: recording.KeyPress, At: testNow.Add(500 * time.Millisecond), Key: keys.Char('h')},
		{Kind: recording.KeyRelease, At: testNow.Add(750 * time.Millisecond), Key: keys.Char('h')},
		{Kind: recording.KeyRelease, At: testNow.Add(time.Second), Key: keys.Named(keys.Esc)},
	}}
}

func TestRecordCommandWritesRecordingAndManifest(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())

	cmd := newRecordCommand()
	fs := parseCommandFlags(t, cmd)

	var stdout bytes.Buffer
	if err := runRecord(fs, nil, ctx, &stdout, io.Discard); err != nil {
		t.Fatalf("runRecord returned error: %v", err)
	}

	path := filepath.Join(ctx.Config.Paths.RecordingsDir, testNow.Format("20060102_150405")+".json")
	events, err := recording.ReadFile(path)
	if err != nil {
		t.Fatalf("recording not written: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].Kind != recording.KeyPress || events[1].Elapsed != 0.5 {
		t.Fatalf("unexpected second event %+v", events[1])
	}

	man, err := manifest.Load(manifest.PathFor(path))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if man.Status.State != manifest.StateCompleted {
		t.Fatalf("expected completed state, got %q", man.Status.State)
	}
	if man.Status.Termination != recorder.TerminationEscape {
		t.Fatalf("expected escape termination, got %q", man.Status.Termination)
	}
	if man.Status.EventCount != 4 || man.Hostname != "test-host" {
		t.Fatalf("unexpected manifest %+v", man)
	}
	if man.Settings.FocusFilter {
		t.Fatalf("focus filter should be off without a target")
	}

	if !strings.Contains(stdout.String(), "Recorded 4 events") {
		t.Fatalf("expected summary output, got %q", stdout.String())
	}
}

func TestRecordCommandExplicitOutputWithoutManifest(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())

	output := filepath.Join(t.TempDir(), "nested", "demo.json")
	fs := parseCommandFlags(t, newRecordCommand(), "-o", output, "-no-manifest")

	if err := runRecord(fs, nil, ctx, io.Discard, io.Discard); err != nil {
		t.Fatalf("runRecord returned error: %v", err)
	}
	if _, err := recording.ReadFile(output); err != nil {
		t.Fatalf("recording not written: %v", err)
	}
	if _, err := os.Stat(manifest.PathFor(output)); !os.IsNotExist(err) {
		t.Fatalf("expected no manifest, stat err=%v", err)
	}
}

func TestRecordCommandScopesToTitledWindow(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())

	listWindows = func() ([]platform.Window, error) {
		return []platform.Window{{ID: 11, Title: "Terminal"}, {ID: 42, Title: "Notepad - notes.txt"}}, nil
	}
	var activated recorder.WindowID
	activateWindow = func(id recorder.WindowID) error {
		activated = id
		return nil
	}
	newFocusQuery = func() recorder.FocusQuery {
		return recorder.FocusFunc(func() (recorder.WindowID, error) { return 11, nil })
	}

	output := filepath.Join(t.TempDir(), "scoped.json")
	fs := parseCommandFlags(t, newRecordCommand(), "-title", "notepad", "-o", output)

	var stdout bytes.Buffer
	if err := runRecord(fs, nil, ctx, &stdout, io.Discard); err != nil {
		t.Fatalf("runRecord returned error: %v", err)
	}
	if activated != 42 {
		t.Fatalf("expected window 42 activated, got %d", activated)
	}

	events, err := recording.ReadFile(output)
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if len(events) != 1 || !events[0].Key.Is(keys.Esc) {
		t.Fatalf("expected only the escape release while another window had focus, got %+v", events)
	}

	man, err := manifest.Load(manifest.PathFor(output))
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if man.Target == nil || man.Target.ID != 42 || !man.Settings.FocusFilter {
		t.Fatalf("expected target recorded in manifest, got %+v", man)
	}
	if man.Status.FilteredCount != 3 {
		t.Fatalf("expected 3 filtered events, got %d", man.Status.FilteredCount)
	}
	if !strings.Contains(stdout.String(), "filtered (target not focused): 3") {
		t.Fatalf("expected filtered count in output, got %q", stdout.String())
	}
}

func TestRecordCommandRejectsUnknownWindow(t *testing.T) {
	ctx := newTestContext(t)
	src := scriptedTyping()
	stubRecordEnvironment(t, src)
	listWindows = func() ([]platform.Window, error) {
		return []platform.Window{{ID: 11, Title: "Terminal"}, {ID: 12, Title: "Room 99 - Game"}}, nil
	}

	fs := parseCommandFlags(t, newRecordCommand(), "-window", "99")
	err := runRecord(fs, nil, ctx, io.Discard, io.Discard)
	if !errors.Is(err, platform.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
	if src.Subscriptions() != 0 {
		t.Fatalf("capture should not start without a target")
	}
}

func TestRecordCommandTitleSelectorIgnoresIDs(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())
	listWindows = func() ([]platform.Window, error) {
		return []platform.Window{{ID: 2024, Title: "Terminal"}, {ID: 7, Title: "Budget 2024"}}, nil
	}
	var activated recorder.WindowID
	activateWindow = func(id recorder.WindowID) error {
		activated = id
		return nil
	}

	output := filepath.Join(t.TempDir(), "budget.json")
	fs := parseCommandFlags(t, newRecordCommand(), "-title", "2024", "-o", output, "-no-manifest")
	if err := runRecord(fs, nil, ctx, io.Discard, io.Discard); err != nil {
		t.Fatalf("runRecord returned error: %v", err)
	}
	if activated != 7 {
		t.Fatalf("expected window titled \"Budget 2024\" to be targeted, got %d", activated)
	}
}

func TestRecordCommandRejectsConflictingSelectors(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())

	fs := parseCommandFlags(t, newRecordCommand(), "-window", "1", "-title", "x")
	if err := runRecord(fs, nil, ctx, io.Discard, io.Discard); err == nil {
		t.Fatalf("expected error for -window with -title")
	}

	fs = parseCommandFlags(t, newRecordCommand(), "-window", "notepad")
	if err := runRecord(fs, nil, ctx, io.Discard, io.Discard); err == nil {
		t.Fatalf("expected error for non-numeric window id")
	}
}

func TestRecordCommandReportsCaptureUnavailable(t *testing.T) {
	ctx := newTestContext(t)
	stubRecordEnvironment(t, scriptedTyping())
	capturePreflight = func() error { return errors.New("hooks denied") }

	output := filepath.Join(t.TempDir(), "denied.json")
	fs := parseCommandFlags(t, newRecordCommand(), "-o", output)

	var stdout bytes.Buffer
	err := runRecord(fs, nil, ctx, &stdout, io.Discard)
	if !errors.Is(err, recorder.ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}

	man, loadErr := manifest.Load(manifest.PathFor(output))
	if loadErr != nil {
		t.Fatalf("manifest not written: %v", loadErr)
	}
	if man.Status.State != manifest.StateErrored {
		t.Fatalf("expected error state, got %q", man.Status.State)
	}
	if !strings.Contains(stdout.String(), "actionrec doctor") {
		t.Fatalf("expected doctor hint, got %q", stdout.String())
	}
}
