package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

var base = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func at(seconds float64) time.Time {
	return base.Add(time.Duration(seconds * float64(time.Second)))
}

func fixedClock() time.Time { return base }

func escRelease(seconds float64) Input {
	return Input{Kind: recording.KeyRelease, At: at(seconds), Key: keys.Named(keys.Esc)}
}

func move(seconds float64, x, y int) Input {
	return Input{Kind: recording.MouseMove, At: at(seconds), X: x, Y: y}
}

func newTestRecorder(t *testing.T, opts Options) *Recorder {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	rec, err := New(opts)
	require.NoError(t, err)
	return rec
}

func TestRecordCapturesUntilEscapeRelease(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{
		move(0.25, 10, 20),
		{Kind: recording.KeyPress, At: at(0.5), Key: keys.Char('a')},
		{Kind: recording.KeyRelease, At: at(0.75), Key: keys.Char('a')},
		{Kind: recording.MouseClick, At: at(1), X: 10, Y: 20, Button: recording.ButtonLeft, Pressed: true},
		{Kind: recording.MouseScroll, At: at(1.25), X: 10, Y: 20, DY: -2},
		{Kind: recording.KeyPress, At: at(1.5), Key: keys.Named(keys.Esc)},
		escRelease(1.75),
		move(2, 99, 99),
	}}
	rec := newTestRecorder(t, Options{Source: src})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, TerminationEscape, result.Termination)
	assert.Equal(t, []recording.Event{
		recording.MoveEvent(0.25, 10, 20),
		recording.KeyPressEvent(0.5, keys.Char('a')),
		recording.KeyReleaseEvent(0.75, keys.Char('a')),
		recording.ClickEvent(1, 10, 20, recording.ButtonLeft, true),
		recording.ScrollEvent(1.25, 10, 20, 0, -2),
		recording.KeyPressEvent(1.5, keys.Named(keys.Esc)),
		recording.KeyReleaseEvent(1.75, keys.Named(keys.Esc)),
	}, result.Events)
	assert.Equal(t, 7, result.Observed)
	assert.Zero(t, result.Filtered)
	assert.Equal(t, 1, src.Subscriptions())
	assert.Equal(t, 1, src.Detachments())
	assert.False(t, rec.Active())
}

func TestRecordKeepsElapsedNonDecreasing(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{
		move(-1, 0, 0),
		move(0.5, 1, 1),
		move(0.25, 2, 2),
		{Kind: recording.MouseMove, X: 3, Y: 3},
		escRelease(0.75),
	}}
	rec := newTestRecorder(t, Options{Source: src})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, result.Events, 5)

	var got []float64
	for _, ev := range result.Events {
		got = append(got, ev.Elapsed)
	}
	assert.Equal(t, []float64{0, 0.5, 0.5, 0.5, 0.75}, got)
}

func TestRecordFocusNeverMatchingKeepsOnlyEscape(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{
		move(0.25, 1, 1),
		{Kind: recording.KeyPress, At: at(0.5), Key: keys.Char('x')},
		{Kind: recording.KeyPress, At: at(0.75), Key: keys.Named(keys.Esc)},
		escRelease(1),
	}}
	focus := FocusFunc(func() (WindowID, error) { return 7, nil })
	rec := newTestRecorder(t, Options{Source: src, Focus: focus, Target: 42})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []recording.Event{recording.KeyReleaseEvent(1, keys.Named(keys.Esc))}, result.Events)
	assert.Equal(t, 3, result.Filtered)
	assert.Equal(t, 4, result.Observed)
	assert.Equal(t, TerminationEscape, result.Termination)
}

func TestRecordFocusFilterFollowsForeground(t *testing.T) {
	answers := []WindowID{42, 7, 42}
	calls := 0
	focus := FocusFunc(func() (WindowID, error) {
		id := answers[calls]
		calls++
		return id, nil
	})
	src := &ScriptedSource{Inputs: []Input{
		move(0.25, 1, 1),
		move(0.5, 2, 2),
		move(0.75, 3, 3),
		escRelease(1),
	}}
	rec := newTestRecorder(t, Options{Source: src, Focus: focus, Target: 42})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []recording.Event{
		recording.MoveEvent(0.25, 1, 1),
		recording.MoveEvent(0.75, 3, 3),
		recording.KeyReleaseEvent(1, keys.Named(keys.Esc)),
	}, result.Events)
	assert.Equal(t, 3, calls, "escape release must not consult focus")
	assert.Equal(t, 1, result.Filtered)
}

func TestRecordFocusErrorsFailOpen(t *testing.T) {
	focus := FocusFunc(func() (WindowID, error) { return 0, errors.New("no desktop") })
	src := &ScriptedSource{Inputs: []Input{move(0.25, 1, 1), move(0.5, 2, 2), escRelease(0.75)}}
	rec := newTestRecorder(t, Options{Source: src, Focus: focus, Target: 42})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, result.Events, 3)
	assert.Zero(t, result.Filtered)
}

func TestRecordWithoutTargetSkipsFocusQuery(t *testing.T) {
	focus := FocusFunc(func() (WindowID, error) {
		t.Error("focus should not be queried without a target")
		return 0, nil
	})
	src := &ScriptedSource{Inputs: []Input{move(0.25, 1, 1), escRelease(0.5)}}
	rec := newTestRecorder(t, Options{Source: src, Focus: focus})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)
}

func TestRequestStopEndsActiveSession(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{{Kind: recording.MouseMove, X: 5, Y: 5}}}
	rec := newTestRecorder(t, Options{Source: src, Clock: time.Now})

	go func() {
		assert.Eventually(t, func() bool { return src.Subscriptions() == 1 }, 2*time.Second, time.Millisecond)
		rec.RequestStop()
	}()

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, TerminationRequested, result.Termination)
	assert.Equal(t, 1, src.Detachments())
	assert.LessOrEqual(t, len(result.Events), 1)
}

func TestRequestStopBeforeRecordIsHonoured(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{move(0.25, 1, 1), escRelease(0.5)}}
	rec := newTestRecorder(t, Options{Source: src})

	assert.True(t, rec.RequestStop())
	assert.False(t, rec.RequestStop(), "second request is a no-op")

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, TerminationRequested, result.Termination)
	assert.Empty(t, result.Events)
	assert.Zero(t, src.Subscriptions())

	// The recorder is reusable once the request has been consumed.
	result, err = rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, TerminationEscape, result.Termination)
	assert.Len(t, result.Events, 2)
}

func TestRecordSubscribeFailure(t *testing.T) {
	cause := errors.New("hook install refused")
	src := &ScriptedSource{SubscribeErr: cause}
	rec := newTestRecorder(t, Options{Source: src})

	result, err := rec.Record(context.Background(), filepath.Join(t.TempDir(), "out.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, result.Events)
	assert.False(t, rec.Active())
}

func TestRecordPreflightFailure(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{escRelease(0.5)}}
	rec := newTestRecorder(t, Options{
		Source:    src,
		Preflight: func() error { return errors.New("accessibility not granted") },
	})

	_, err := rec.Record(context.Background(), "")
	assert.ErrorIs(t, err, ErrCaptureUnavailable)
	assert.Zero(t, src.Subscriptions())
}

func TestRecordCancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	focus := FocusFunc(func() (WindowID, error) {
		cancel()
		return 42, nil
	})
	src := &ScriptedSource{Inputs: []Input{move(0.25, 1, 1)}}
	rec := newTestRecorder(t, Options{Source: src, Focus: focus, Target: 42})

	result, err := rec.Record(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, TerminationCanceled, result.Termination)
	assert.Equal(t, []recording.Event{recording.MoveEvent(0.25, 1, 1)}, result.Events)
	assert.Equal(t, 1, src.Detachments())
}

func TestRecordSourceClosed(t *testing.T) {
	src := &ScriptedSource{Inputs: []Input{move(0.25, 1, 1)}, CloseAfter: true}
	rec := newTestRecorder(t, Options{Source: src})

	result, err := rec.Record(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, TerminationSourceClosed, result.Termination)
	assert.Len(t, result.Events, 1)
}

func TestRecordWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordings", "demo.json")
	src := &ScriptedSource{Inputs: []Input{
		{Kind: recording.KeyPress, At: at(0.5), Key: keys.Char('q')},
		escRelease(1),
	}}
	rec := newTestRecorder(t, Options{Source: src})

	result, err := rec.Record(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, result.OutputPath)

	loaded, err := recording.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Events, loaded)
}

func TestRecordRejectsConcurrentSessions(t *testing.T) {
	src := &ScriptedSource{}
	rec := newTestRecorder(t, Options{Source: src, Clock: time.Now})

	done := make(chan Result, 1)
	go func() {
		result, _ := rec.Record(context.Background(), "")
		done <- result
	}()

	require.Eventually(t, func() bool { return src.Subscriptions() == 1 }, 2*time.Second, time.Millisecond)
	assert.True(t, rec.Active())

	_, err := rec.Record(context.Background(), "")
	assert.ErrorIs(t, err, ErrAlreadyRecording)

	rec.RequestStop()
	select {
	case result := <-done:
		assert.Equal(t, TerminationRequested, result.Termination)
	case <-time.After(2 * time.Second):
		t.Fatal("recording did not stop")
	}
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Source: &ScriptedSource{}, BufferSize: -1})
	assert.Error(t, err)
}
