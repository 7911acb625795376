package recording

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile persists events to path, creating parent directories. The file is
// written to a temporary sibling first and renamed into place.
func WriteFile(path string, events []Event) error {
	data, err := Encode(events)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure recording directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recording-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary recording: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write recording: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close recording: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod recording: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move recording into place: %w", err)
	}
	return nil
}

// ReadFile loads and validates a recording from disk.
func ReadFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return Decode(data)
}
