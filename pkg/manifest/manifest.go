// Package manifest stores a sidecar description of each recording session
// next to the recording file.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/actionrec/pkg/config"
)

// SchemaVersion captures the manifest version for compatibility checks.
const SchemaVersion = 1

// Suffix is appended to a recording's base name to form its manifest name.
const Suffix = ".manifest.json"

// Session states recorded in Status.State.
const (
	StatePending   = "pending"
	StateRecording = "recording"
	StateCompleted = "completed"
	StateCanceled  = "canceled"
	StateErrored   = "error"
)

// Target identifies the window the session was scoped to.
type Target struct {
	ID    uint64 `json:"id"`
	Title string `json:"title,omitempty"`
}

// Settings records the knobs in effect for the session.
type Settings struct {
	BufferSize  int  `json:"buffer_size"`
	FocusFilter bool `json:"focus_filter"`
}

// Status summarises the lifecycle of a recording session.
type Status struct {
	State           string     `json:"state"`
	Summary         string     `json:"summary,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Termination     string     `json:"termination,omitempty"`
	EventCount      int        `json:"event_count"`
	FilteredCount   int        `json:"filtered_count"`
	DroppedCount    int64      `json:"dropped_count"`
	DurationSeconds float64    `json:"duration_seconds"`
}

// Manifest is the durable metadata describing a recording session.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	Hostname      string    `json:"hostname"`
	AppVersion    string    `json:"app_version"`
	ConfigSource  string    `json:"config_source"`
	Recording     string    `json:"recording"`
	Target        *Target   `json:"target,omitempty"`
	Settings      Settings  `json:"settings"`
	Status        Status    `json:"status"`
}

// Options captures the knobs for creating a new manifest.
type Options struct {
	SessionID     string
	CreatedAt     time.Time
	Hostname      string
	AppVersion    string
	Config        config.Config
	RecordingPath string
	Target        *Target
}

// New constructs a manifest. A random session id is generated when none is given.
func New(opts Options) Manifest {
	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	return Manifest{
		SchemaVersion: SchemaVersion,
		SessionID:     id,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigSource:  opts.Config.Source,
		Recording:     filepath.Base(opts.RecordingPath),
		Target:        opts.Target,
		Settings: Settings{
			BufferSize:  opts.Config.Record.BufferSize,
			FocusFilter: opts.Target != nil && opts.Target.ID != 0,
		},
		Status: Status{State: StatePending},
	}
}

// MarkStarted moves the manifest into the recording state.
func (m *Manifest) MarkStarted(at time.Time) {
	started := at.UTC()
	m.Status.State = StateRecording
	m.Status.StartedAt = &started
}

// Outcome is what a finished session reports back into its manifest.
type Outcome struct {
	EndedAt         time.Time
	Termination     string
	EventCount      int
	FilteredCount   int
	DroppedCount    int64
	DurationSeconds float64
	Err             error
}

// MarkFinished records the session outcome and a one-line summary.
func (m *Manifest) MarkFinished(out Outcome) {
	ended := out.EndedAt.UTC()
	m.Status.EndedAt = &ended
	m.Status.Termination = out.Termination
	m.Status.EventCount = out.EventCount
	m.Status.FilteredCount = out.FilteredCount
	m.Status.DroppedCount = out.DroppedCount
	m.Status.DurationSeconds = out.DurationSeconds

	switch {
	case out.Err != nil && out.Termination == "canceled":
		m.Status.State = StateCanceled
		m.Status.Summary = fmt.Sprintf("canceled after %d events", out.EventCount)
	case out.Err != nil:
		m.Status.State = StateErrored
		m.Status.Termination = "error"
		m.Status.Summary = out.Err.Error()
	default:
		m.Status.State = StateCompleted
		m.Status.Summary = fmt.Sprintf("%d events over %.2fs (stopped by %s)", out.EventCount, out.DurationSeconds, out.Termination)
	}
	if out.DroppedCount > 0 {
		m.Status.Summary += fmt.Sprintf(", %d dropped", out.DroppedCount)
	}
}

// PathFor returns the manifest path paired with a recording path.
func PathFor(recordingPath string) string {
	return strings.TrimSuffix(recordingPath, filepath.Ext(recordingPath)) + Suffix
}

// IsManifest reports whether path names a manifest rather than a recording.
func IsManifest(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

// Save writes the manifest JSON to disk with indentation for readability.
func Save(man Manifest, path string) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest JSON file from disk.
func Load(path string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return man, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("decode manifest: %w", err)
	}
	return man, nil
}

// ResolveRecordingPath chooses a timestamped recording file name in dir and avoids collisions.
func ResolveRecordingPath(dir string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("recordings directory must not be empty")
	}

	base := now.UTC().Format("20060102_150405")
	candidate := base
	suffix := 1
	for {
		path := filepath.Join(dir, candidate+".json")
		_, err := os.Stat(path)
		if err == nil {
			candidate = fmt.Sprintf("%s_%02d", base, suffix)
			suffix++
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		return "", fmt.Errorf("inspect recordings directory: %w", err)
	}
}

// Entry is a recording found on disk together with its manifest, if any.
type Entry struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time
	Manifest *Manifest
}

// List returns the recordings in dir sorted by name. A missing directory
// yields no entries. Unreadable manifests are skipped.
func List(dir string) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, path := range matches {
		if IsManifest(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		entry := Entry{
			Path:    path,
			Name:    filepath.Base(path),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if man, err := Load(PathFor(path)); err == nil {
			entry.Manifest = &man
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
