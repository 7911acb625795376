package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/actionrec/pkg/config"
)

func TestNewGeneratesSessionID(t *testing.T) {
	cfg := config.Default()
	man := New(Options{
		CreatedAt:     time.Date(2026, 5, 12, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
		Hostname:      "rig-01",
		AppVersion:    "1.2.3",
		Config:        cfg,
		RecordingPath: filepath.Join("recordings", "20260512_073000.json"),
		Target:        &Target{ID: 0x2002, Title: "Game"},
	})

	if _, err := uuid.Parse(man.SessionID); err != nil {
		t.Fatalf("expected uuid session id, got %q: %v", man.SessionID, err)
	}
	if man.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC creation time, got %s", man.CreatedAt.Location())
	}
	if man.Recording != "20260512_073000.json" {
		t.Fatalf("expected base name of recording, got %q", man.Recording)
	}
	if !man.Settings.FocusFilter || man.Settings.BufferSize != cfg.Record.BufferSize {
		t.Fatalf("unexpected settings: %+v", man.Settings)
	}
	if man.Status.State != StatePending {
		t.Fatalf("expected pending state, got %q", man.Status.State)
	}

	other := New(Options{SessionID: "fixed"})
	if other.SessionID != "fixed" || other.Settings.FocusFilter {
		t.Fatalf("unexpected manifest: %+v", other)
	}
}

func TestMarkFinishedStates(t *testing.T) {
	start := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)

	man := New(Options{SessionID: "a"})
	man.MarkStarted(start)
	if man.Status.State != StateRecording || !man.Status.StartedAt.Equal(start) {
		t.Fatalf("unexpected started status: %+v", man.Status)
	}

	man.MarkFinished(Outcome{EndedAt: end, Termination: "escape", EventCount: 12, DurationSeconds: 4.5, DroppedCount: 2})
	if man.Status.State != StateCompleted || man.Status.EventCount != 12 {
		t.Fatalf("unexpected completed status: %+v", man.Status)
	}
	if !strings.Contains(man.Status.Summary, "12 events") || !strings.Contains(man.Status.Summary, "2 dropped") {
		t.Fatalf("unexpected summary: %q", man.Status.Summary)
	}

	man.MarkFinished(Outcome{EndedAt: end, Termination: "canceled", EventCount: 3, Err: context.Canceled})
	if man.Status.State != StateCanceled {
		t.Fatalf("expected canceled state, got %q", man.Status.State)
	}

	man.MarkFinished(Outcome{EndedAt: end, Termination: "escape", Err: errors.New("disk full")})
	if man.Status.State != StateErrored || man.Status.Termination != "error" || man.Status.Summary != "disk full" {
		t.Fatalf("unexpected error status: %+v", man.Status)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(filepath.Join(dir, "nested", "take.json"))

	man := New(Options{SessionID: "round-trip", Hostname: "rig", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	man.MarkStarted(man.CreatedAt)
	if err := Save(man, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SessionID != "round-trip" || loaded.Hostname != "rig" || loaded.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected manifest: %+v", loaded)
	}
	if loaded.Status.StartedAt == nil || !loaded.Status.StartedAt.Equal(man.CreatedAt) {
		t.Fatalf("started_at lost: %+v", loaded.Status)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor(filepath.Join("recordings", "demo.json")); got != filepath.Join("recordings", "demo.manifest.json") {
		t.Fatalf("unexpected manifest path %q", got)
	}
	if got := PathFor("take"); got != "take.manifest.json" {
		t.Fatalf("unexpected manifest path %q", got)
	}
	if !IsManifest("x.manifest.json") || IsManifest("x.json") {
		t.Fatalf("IsManifest misclassified paths")
	}
}

func TestResolveRecordingPathAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)

	first, err := ResolveRecordingPath(dir, now)
	if err != nil {
		t.Fatalf("ResolveRecordingPath failed: %v", err)
	}
	if first != filepath.Join(dir, "20260512_093000.json") {
		t.Fatalf("unexpected path %q", first)
	}
	if err := os.WriteFile(first, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	second, err := ResolveRecordingPath(dir, now)
	if err != nil {
		t.Fatalf("ResolveRecordingPath failed: %v", err)
	}
	if second != filepath.Join(dir, "20260512_093000_01.json") {
		t.Fatalf("unexpected collision path %q", second)
	}

	if _, err := ResolveRecordingPath(" ", now); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

func TestListPairsManifests(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := Save(New(Options{SessionID: "for-a"}), PathFor(filepath.Join(dir, "a.json"))); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two recordings, got %d", len(entries))
	}
	if entries[0].Name != "a.json" || entries[1].Name != "b.json" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Name, entries[1].Name)
	}
	if entries[0].Manifest == nil || entries[0].Manifest.SessionID != "for-a" {
		t.Fatalf("expected manifest for a.json")
	}
	if entries[1].Manifest != nil {
		t.Fatalf("b.json has no manifest")
	}

	missing, err := List(filepath.Join(dir, "absent"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing directory should list nothing, got %v (%v)", missing, err)
	}
}
